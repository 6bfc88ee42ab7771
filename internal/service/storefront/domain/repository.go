package domain

import "context"

// ProductRepository 商品仓储。LockForUpdate 是所有库存变更路径唯一的加锁原语，
// 必须在事务内调用，行锁持有到事务结束；其余读取不加锁。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*Product, error)
	LockForUpdate(ctx context.Context, id int64) (*Product, error)
	UpdateStock(ctx context.Context, id int64, stock int) error
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	SetActive(ctx context.Context, id int64, active bool) error
	List(ctx context.Context, f ProductFilter) ([]*Product, error)
}

// CartRepository 购物车仓储。(cart_id, product_id) 上有唯一约束，
// AddItemQuantity 是 upsert，保证每个商品只有一行；SetItemQuantity 只修改已有的行，
// 行不存在时返回 ErrItemNotFound。
type CartRepository interface {
	FindByClientID(ctx context.Context, clientID int64) (*Cart, error)
	// Create 在 client_id 已存在购物车时返回 ErrConflict。
	Create(ctx context.Context, cart *Cart) error
	AddItemQuantity(ctx context.Context, cartID, productID int64, delta int) error
	SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error
	UpdateItemQuantities(ctx context.Context, items []CartItem) error
	DeleteItems(ctx context.Context, itemIDs []int64) error
	DeleteItem(ctx context.Context, cartID, productID int64) error
	ClearItems(ctx context.Context, cartID int64) error
}

// 加锁顺序：订单行 -> 明细行 -> 商品行（按 ID 升序）。任何修改明细的事务都先锁住所属订单，
// 所以同一订单的明细变更与订单删除互相串行。

// OrderRepository 订单仓储。FindByID 会一并加载订单明细。
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id int64) (*Order, error)
	// LockForUpdate 锁住订单行直到事务结束，返回的订单不含明细。
	LockForUpdate(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, offset, limit int) ([]*Order, error)
	ListByClient(ctx context.Context, clientID int64) ([]*Order, error)
	Update(ctx context.Context, o *Order) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
}

// OrderDetailRepository 订单明细仓储。
type OrderDetailRepository interface {
	Create(ctx context.Context, d *OrderDetail) error
	FindByID(ctx context.Context, id int64) (*OrderDetail, error)
	List(ctx context.Context, offset, limit int) ([]*OrderDetail, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*OrderDetail, error)
	// LockForUpdate 和 LockByOrder 是加锁读，总能读到最新提交的数量。
	LockForUpdate(ctx context.Context, id int64) (*OrderDetail, error)
	LockByOrder(ctx context.Context, orderID int64) ([]*OrderDetail, error)
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	Delete(ctx context.Context, id int64) error
}

// CrudRepository 是没有特殊不变量的简单实体的通用仓储。
type CrudRepository[T any] interface {
	Create(ctx context.Context, e *T) error
	FindByID(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, offset, limit int) ([]*T, error)
	Update(ctx context.Context, id int64, e *T) error
	Delete(ctx context.Context, id int64) error
}

// ClientRepository 客户仓储
type ClientRepository interface {
	CrudRepository[Client]
	FindByEmail(ctx context.Context, email string) (*Client, error)
}

// Repositories 聚合了一个数据访问作用域（普通连接或某个事务）内的所有仓储。
type Repositories interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	OrderDetails() OrderDetailRepository
	Clients() ClientRepository
	Bills() CrudRepository[Bill]
	Categories() CrudRepository[Category]
	Reviews() CrudRepository[Review]
	Addresses() CrudRepository[Address]
}

// Store 是持久化的入口。WithinTx 显式划定一个工作单元：fn 返回错误或 panic 时整体回滚，
// 否则提交。fn 内只能使用传入的 tx，不能再使用 Store 自身的仓储。
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}
