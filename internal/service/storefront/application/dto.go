package application

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/service/storefront/domain"
)

// --- cart ---

// CartItemRequest 加购 / 修改数量的请求体
type CartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// CartView 是对账后的购物车
type CartView struct {
	ID             int64           `json:"id"`
	ClientID       int64           `json:"client_id"`
	Items          []CartLineView  `json:"items"`
	Total          decimal.Decimal `json:"total"`
	HasAdjustments bool            `json:"has_adjustments"`
}

type CartLineView struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	Quantity          int             `json:"quantity"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Product           CartProductView `json:"product"`
	AdjustmentMessage *string         `json:"adjustment_message"`
}

type CartProductView struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url,omitempty"`
}

func toCartView(r *domain.Reconciliation) *CartView {
	v := &CartView{
		ID:             r.CartID,
		ClientID:       r.ClientID,
		Items:          make([]CartLineView, 0, len(r.Lines)),
		Total:          r.Total,
		HasAdjustments: r.HasAdjustments,
	}
	for _, l := range r.Lines {
		line := CartLineView{
			ID:        l.ItemID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal,
			Product:   CartProductView{ID: l.ProductID, Name: l.Name, Price: l.Price, ImageURL: l.ImageURL},
		}
		if l.Message != "" {
			msg := l.Message
			line.AdjustmentMessage = &msg
		}
		v.Items = append(v.Items, line)
	}
	return v
}

// --- products ---

type CreateProductRequest struct {
	Name       string          `json:"name" binding:"required"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	ImageURL   string          `json:"image_url"`
	CategoryID *int64          `json:"category_id"`
}

// UpdateProductRequest 部分更新，nil 字段保持不变。
type UpdateProductRequest struct {
	Name       *string          `json:"name"`
	Price      *decimal.Decimal `json:"price"`
	Stock      *int             `json:"stock"`
	ImageURL   *string          `json:"image_url"`
	CategoryID *int64           `json:"category_id"`
	Active     *bool            `json:"active"`
}

type ProductView struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	ImageURL   string          `json:"image_url"`
	Active     bool            `json:"active"`
	CategoryID *int64          `json:"category_id"`
}

func toProductView(p *domain.Product) *ProductView {
	return &ProductView{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Stock:      p.Stock,
		ImageURL:   p.ImageURL,
		Active:     p.Active,
		CategoryID: p.CategoryID,
	}
}

func toProductViews(ps []*domain.Product) []*ProductView {
	out := make([]*ProductView, len(ps))
	for i, p := range ps {
		out[i] = toProductView(p)
	}
	return out
}

// --- orders ---

type CreateOrderRequest struct {
	Date           *time.Time      `json:"date"`
	Total          decimal.Decimal `json:"total"`
	DeliveryMethod int             `json:"delivery_method" binding:"required"`
	Status         *int            `json:"status"`
	ClientID       int64           `json:"client_id" binding:"required"`
	BillID         int64           `json:"bill_id" binding:"required"`
}

type UpdateOrderRequest struct {
	Date           *time.Time       `json:"date"`
	Total          *decimal.Decimal `json:"total"`
	DeliveryMethod *int             `json:"delivery_method"`
	Status         *int             `json:"status"`
	ClientID       *int64           `json:"client_id"`
	BillID         *int64           `json:"bill_id"`
}

type UpdateStatusRequest struct {
	Status int `json:"status" binding:"required"`
}

type OrderView struct {
	ID             int64              `json:"id"`
	Date           time.Time          `json:"date"`
	Total          decimal.Decimal    `json:"total"`
	DeliveryMethod int                `json:"delivery_method"`
	Status         int                `json:"status"`
	StatusName     string             `json:"status_name"`
	ClientID       int64              `json:"client_id"`
	BillID         int64              `json:"bill_id"`
	Details        []*OrderDetailView `json:"order_details"`
}

func toOrderView(o *domain.Order) *OrderView {
	v := &OrderView{
		ID:             o.ID,
		Date:           o.Date,
		Total:          o.Total,
		DeliveryMethod: int(o.DeliveryMethod),
		Status:         int(o.Status),
		StatusName:     o.Status.String(),
		ClientID:       o.ClientID,
		BillID:         o.BillID,
		Details:        make([]*OrderDetailView, 0, len(o.Details)),
	}
	for i := range o.Details {
		v.Details = append(v.Details, toOrderDetailView(&o.Details[i]))
	}
	return v
}

func toOrderViews(os []*domain.Order) []*OrderView {
	out := make([]*OrderView, len(os))
	for i, o := range os {
		out[i] = toOrderView(o)
	}
	return out
}

// --- order details ---

type CreateOrderDetailRequest struct {
	OrderID   int64            `json:"order_id" binding:"required"`
	ProductID int64            `json:"product_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required"`
	Price     *decimal.Decimal `json:"price"`
}

// UpdateOrderDetailRequest 只允许修改数量，商品、订单和成交价创建后不可变。
type UpdateOrderDetailRequest struct {
	Quantity *int `json:"quantity"`
}

type OrderDetailView struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func toOrderDetailView(d *domain.OrderDetail) *OrderDetailView {
	return &OrderDetailView{
		ID:        d.ID,
		OrderID:   d.OrderID,
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		Price:     d.Price,
		Subtotal:  d.Subtotal(),
	}
}

// --- clients ---

type CreateClientRequest struct {
	Name      string `json:"name"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email" binding:"required"`
	Telephone string `json:"telephone"`
	Password  string `json:"password"`
}

type UpdateClientRequest struct {
	Name      *string `json:"name"`
	Lastname  *string `json:"lastname"`
	Email     *string `json:"email"`
	Telephone *string `json:"telephone"`
	Password  *string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ClientView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
	IsAdmin   bool   `json:"is_admin"`
}

func toClientView(c *domain.Client) *ClientView {
	return &ClientView{
		ID:        c.ID,
		Name:      c.Name,
		Lastname:  c.Lastname,
		Email:     c.Email,
		Telephone: c.Telephone,
		IsAdmin:   c.IsAdmin,
	}
}

// --- bills / categories / reviews / addresses ---

type BillDTO struct {
	ID          int64           `json:"id"`
	BillNumber  string          `json:"bill_number"`
	Discount    decimal.Decimal `json:"discount"`
	Date        time.Time       `json:"date"`
	Total       decimal.Decimal `json:"total"`
	PaymentType string          `json:"payment_type"`
	ClientID    int64           `json:"client_id"`
}

func (d *BillDTO) ToDomain() *domain.Bill {
	return &domain.Bill{ID: d.ID, BillNumber: d.BillNumber, Discount: d.Discount, Date: d.Date,
		Total: d.Total, PaymentType: d.PaymentType, ClientID: d.ClientID}
}

func BillFromDomain(b *domain.Bill) *BillDTO {
	return &BillDTO{ID: b.ID, BillNumber: b.BillNumber, Discount: b.Discount, Date: b.Date,
		Total: b.Total, PaymentType: b.PaymentType, ClientID: b.ClientID}
}

type CategoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (d *CategoryDTO) ToDomain() *domain.Category { return &domain.Category{ID: d.ID, Name: d.Name} }

func CategoryFromDomain(c *domain.Category) *CategoryDTO { return &CategoryDTO{ID: c.ID, Name: c.Name} }

type ReviewDTO struct {
	ID        int64   `json:"id"`
	Rating    float64 `json:"rating"`
	Comment   string  `json:"comment"`
	ProductID int64   `json:"product_id"`
}

func (d *ReviewDTO) ToDomain() *domain.Review {
	return &domain.Review{ID: d.ID, Rating: d.Rating, Comment: d.Comment, ProductID: d.ProductID}
}

func ReviewFromDomain(r *domain.Review) *ReviewDTO {
	return &ReviewDTO{ID: r.ID, Rating: r.Rating, Comment: r.Comment, ProductID: r.ProductID}
}

type AddressDTO struct {
	ID       int64  `json:"id"`
	Street   string `json:"street"`
	Number   string `json:"number"`
	City     string `json:"city"`
	ClientID int64  `json:"client_id"`
}

func (d *AddressDTO) ToDomain() *domain.Address {
	return &domain.Address{ID: d.ID, Street: d.Street, Number: d.Number, City: d.City, ClientID: d.ClientID}
}

func AddressFromDomain(a *domain.Address) *AddressDTO {
	return &AddressDTO{ID: a.ID, Street: a.Street, Number: a.Number, City: a.City, ClientID: a.ClientID}
}
