package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MsgOutOfStock 商品售罄时附在购物车行上的提示。
const MsgOutOfStock = "Out of stock. Removed from purchase."

// ReconciledLine 是对账后展示给客户的一行。
type ReconciledLine struct {
	ItemID    int64
	ProductID int64
	Name      string
	Price     decimal.Decimal
	ImageURL  string
	Quantity  int
	Subtotal  decimal.Decimal
	Message   string
}

// Reconciliation 是一次购物车对账的结果。Updated / Removed 是需要在同一事务内持久化的变更。
type Reconciliation struct {
	CartID         int64
	ClientID       int64
	Lines          []ReconciledLine
	Total          decimal.Decimal
	HasAdjustments bool

	Updated []CartItem
	Removed []int64
}

// Reconcile 用未加锁的商品快照修正购物车行，不做任何 IO。
//
// 商品不存在的行被删除；库存为 0 的行数量置 0 并提示售罄；数量超过库存的行被截断到库存。
// 对同一快照重复执行结果不变，第二次不会产生任何变更。
func Reconcile(cart *Cart, products map[int64]*Product) *Reconciliation {
	r := &Reconciliation{
		CartID:   cart.ID,
		ClientID: cart.ClientID,
		Lines:    make([]ReconciledLine, 0, len(cart.Items)),
		Total:    decimal.Zero,
	}

	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			r.Removed = append(r.Removed, item.ID)
			r.HasAdjustments = true
			continue
		}

		qty := item.Quantity
		var msg string
		switch {
		case p.Stock <= 0:
			// 数量已经是 0 的行只补提示，不算一次调整
			if qty > 0 {
				r.Updated = append(r.Updated, CartItem{ID: item.ID, CartID: item.CartID, ProductID: item.ProductID, Quantity: 0})
				r.HasAdjustments = true
			}
			qty = 0
			msg = MsgOutOfStock
		case qty > p.Stock:
			msg = fmt.Sprintf("Limited stock. Quantity adjusted from %d to %d.", qty, p.Stock)
			qty = p.Stock
			r.Updated = append(r.Updated, CartItem{ID: item.ID, CartID: item.CartID, ProductID: item.ProductID, Quantity: qty})
			r.HasAdjustments = true
		}

		if qty <= 0 && msg == "" {
			continue
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		r.Lines = append(r.Lines, ReconciledLine{
			ItemID:    item.ID,
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Quantity:  qty,
			Subtotal:  subtotal,
			Message:   msg,
		})
		r.Total = r.Total.Add(subtotal)
	}
	return r
}

// Apply 把对账结果写回购物车，返回修正后的购物车副本。
func (r *Reconciliation) Apply(cart *Cart) *Cart {
	removed := make(map[int64]bool, len(r.Removed))
	for _, id := range r.Removed {
		removed[id] = true
	}
	updated := make(map[int64]int, len(r.Updated))
	for _, it := range r.Updated {
		updated[it.ID] = it.Quantity
	}

	out := &Cart{ID: cart.ID, ClientID: cart.ClientID, Items: make([]CartItem, 0, len(cart.Items))}
	for _, it := range cart.Items {
		if removed[it.ID] {
			continue
		}
		if q, ok := updated[it.ID]; ok {
			it.Quantity = q
		}
		out.Items = append(out.Items, it)
	}
	return out
}
