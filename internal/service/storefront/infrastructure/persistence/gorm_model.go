package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel 对应数据库中的 products 表
type ProductModel struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	Name       string          `gorm:"size:200;not null;index"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock      int             `gorm:"not null;default:0;check:chk_products_stock,stock >= 0"`
	ImageURL   string          `gorm:"size:500"`
	Active     bool            `gorm:"not null;default:true;index"`
	CategoryID *int64          `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ProductModel) TableName() string { return "products" }

// CartModel 每个客户最多一个购物车
type CartModel struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	ClientID  int64           `gorm:"not null;uniqueIndex:ux_carts_client"`
	Items     []CartItemModel `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CartModel) TableName() string { return "carts" }

// CartItemModel 对应 cart_items 表，(cart_id, product_id) 唯一
type CartItemModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	CartID    int64 `gorm:"not null;uniqueIndex:ux_cart_items_cart_product"`
	ProductID int64 `gorm:"not null;uniqueIndex:ux_cart_items_cart_product;index"`
	Quantity  int   `gorm:"not null;check:chk_cart_items_quantity,quantity >= 0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CartItemModel) TableName() string { return "cart_items" }

// OrderModel 对应 orders 表
type OrderModel struct {
	ID             int64              `gorm:"primaryKey;autoIncrement"`
	Date           time.Time          `gorm:"not null;index"`
	Total          decimal.Decimal    `gorm:"type:decimal(12,2);not null"`
	DeliveryMethod int                `gorm:"type:tinyint;not null"`
	Status         int                `gorm:"type:tinyint;not null;default:1"`
	ClientID       int64              `gorm:"not null;index"`
	BillID         int64              `gorm:"not null;index"`
	Details        []OrderDetailModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderModel) TableName() string { return "orders" }

// OrderDetailModel 对应 order_details 表
type OrderDetailModel struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"not null;index"`
	ProductID int64           `gorm:"not null;index"`
	Quantity  int             `gorm:"not null;check:chk_order_details_quantity,quantity > 0"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (OrderDetailModel) TableName() string { return "order_details" }

// ClientModel 对应 clients 表
type ClientModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"size:100"`
	Lastname     string `gorm:"size:100"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	Telephone    string `gorm:"size:30"`
	PasswordHash string `gorm:"size:100"`
	IsAdmin      bool   `gorm:"not null;default:false"`
}

func (ClientModel) TableName() string { return "clients" }

// BillModel 对应 bills 表
type BillModel struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	BillNumber  string          `gorm:"size:50;uniqueIndex"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2)"`
	Date        time.Time
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentType string          `gorm:"size:30"`
	ClientID    int64           `gorm:"index"`
}

func (BillModel) TableName() string { return "bills" }

type CategoryModel struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:100;not null;uniqueIndex"`
}

func (CategoryModel) TableName() string { return "categories" }

type ReviewModel struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	Rating    float64 `gorm:"not null"`
	Comment   string  `gorm:"size:1000"`
	ProductID int64   `gorm:"not null;index"`
}

func (ReviewModel) TableName() string { return "reviews" }

type AddressModel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Street   string `gorm:"size:200"`
	Number   string `gorm:"size:20"`
	City     string `gorm:"size:100"`
	ClientID int64  `gorm:"index"`
}

func (AddressModel) TableName() string { return "addresses" }

// AllModels 返回 AutoMigrate 需要迁移的全部模型。
func AllModels() []interface{} {
	return []interface{}{
		&CategoryModel{}, &ProductModel{}, &ReviewModel{},
		&ClientModel{}, &AddressModel{}, &BillModel{},
		&CartModel{}, &CartItemModel{},
		&OrderModel{}, &OrderDetailModel{},
	}
}
