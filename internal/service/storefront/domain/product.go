package domain

import "github.com/shopspring/decimal"

// Product 是商品实体，库存(Stock)只能经由库存账本(InventoryLedger)修改。
type Product struct {
	ID         int64
	Name       string
	Price      decimal.Decimal
	Stock      int
	ImageURL   string
	Active     bool // false 表示已逻辑删除
	CategoryID *int64
}

// Validate 校验商品的基础字段。
func (p *Product) Validate() error {
	if p.Name == "" || len(p.Name) > 200 {
		return invalidInput("product name must be 1-200 characters")
	}
	if !p.Price.IsPositive() {
		return invalidInput("product price must be positive")
	}
	if p.Stock < 0 {
		return invalidInput("product stock must not be negative")
	}
	return nil
}

// Decrement 扣减库存，库存不足时返回 *InsufficientStockError 且不修改库存。
func (p *Product) Decrement(n int) error {
	if n > p.Stock {
		return &InsufficientStockError{ProductID: p.ID, Requested: n, Available: p.Stock}
	}
	p.Stock -= n
	return nil
}

// Increment 归还库存。
func (p *Product) Increment(n int) {
	p.Stock += n
}

// SortOrder 是商品列表的排序方式。
type SortOrder string

const (
	SortDefault   SortOrder = ""
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortName      SortOrder = "name"
)

// ProductFilter 商品列表的过滤条件。Active 为 nil 时不按上下架过滤。
type ProductFilter struct {
	Search      string
	CategoryID  *int64
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStockOnly bool
	Active      *bool
	Sort        SortOrder
	Offset      int
	Limit       int
}

// Category 商品分类
type Category struct {
	ID   int64
	Name string
}

// Review 商品评价
type Review struct {
	ID        int64
	Rating    float64
	Comment   string
	ProductID int64
}

// Validate 评分 1-5，评论可为空，不为空时 10-1000 个字符。
func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return invalidInput("rating must be between 1 and 5")
	}
	if r.Comment != "" && (len(r.Comment) < 10 || len(r.Comment) > 1000) {
		return invalidInput("comment must be 10-1000 characters")
	}
	if r.ProductID <= 0 {
		return invalidInput("product_id is required")
	}
	return nil
}
