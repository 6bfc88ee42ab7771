package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 是一次已确认购买的快照，拥有若干订单明细(OrderDetail)。
type Order struct {
	ID             int64
	Date           time.Time
	Total          decimal.Decimal
	DeliveryMethod DeliveryMethod
	Status         Status
	ClientID       int64
	BillID         int64
	Details        []OrderDetail
}

// Validate 校验创建订单时的必填字段。
func (o *Order) Validate() error {
	if o.ClientID <= 0 {
		return invalidInput("client_id is required")
	}
	if o.BillID <= 0 {
		return invalidInput("bill_id is required")
	}
	if o.Total.IsNegative() {
		return invalidInput("total must be >= 0")
	}
	if !o.DeliveryMethod.Valid() {
		return invalidInput("invalid delivery method")
	}
	return nil
}

// OrderDetail 订单明细。Price 在创建时从商品快照而来，此后不随商品调价变化。
// 明细的创建/修改/删除是唯一会改变库存的操作。
type OrderDetail struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// Subtotal 明细小计
func (d *OrderDetail) Subtotal() decimal.Decimal {
	return d.Price.Mul(decimal.NewFromInt(int64(d.Quantity)))
}
