package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/pkg/database"
	"storefront/internal/service/storefront/domain"
)

// GormProductRepository 是 ProductRepository 的 GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

func (r *GormProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	var m ProductModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "find product %d", id)
	}
	return ToDomainProduct(&m), nil
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	out := make(map[int64]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	for i := range models {
		out[models[i].ID] = ToDomainProduct(&models[i])
	}
	return out, nil
}

// LockForUpdate 执行 SELECT ... FOR UPDATE，行锁持有到所在事务结束。
func (r *GormProductRepository) LockForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	var m ProductModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "lock product %d", id)
	}
	return ToDomainProduct(&m), nil
}

func (r *GormProductRepository) UpdateStock(ctx context.Context, id int64, stock int) error {
	if stock < 0 {
		return errors.Errorf("stock of product %d would become negative (%d)", id, stock)
	}
	err := r.db.WithContext(ctx).Model(&ProductModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"stock": stock, "updated_at": time.Now()}).Error
	return errors.Wrapf(err, "update stock of product %d", id)
}

func (r *GormProductRepository) Create(ctx context.Context, p *domain.Product) error {
	m := FromDomainProduct(p)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.Wrap(err, "create product")
	}
	p.ID = m.ID
	return nil
}

// Update 只更新描述性字段，库存只能经由 UpdateStock 修改。
func (r *GormProductRepository) Update(ctx context.Context, p *domain.Product) error {
	m := FromDomainProduct(p)
	res := r.db.WithContext(ctx).Model(&ProductModel{ID: p.ID}).
		Select("name", "price", "image_url", "active", "category_id", "updated_at").
		Updates(m)
	return errors.Wrapf(res.Error, "update product %d", p.ID)
}

func (r *GormProductRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res := r.db.WithContext(ctx).Model(&ProductModel{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "set active of product %d", id)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *GormProductRepository) List(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, error) {
	q := r.db.WithContext(ctx).Model(&ProductModel{})
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+escapeLike(f.Search)+"%")
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.InStockOnly {
		q = q.Where("stock > 0")
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	switch f.Sort {
	case domain.SortPriceAsc:
		q = q.Order("price ASC").Order("id ASC")
	case domain.SortPriceDesc:
		q = q.Order("price DESC").Order("id ASC")
	case domain.SortName:
		q = q.Order("name ASC").Order("id ASC")
	default:
		q = q.Order("id DESC")
	}

	var models []ProductModel
	if err := q.Offset(f.Offset).Limit(limitOrAll(f.Limit)).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	out := make([]*domain.Product, len(models))
	for i := range models {
		out[i] = ToDomainProduct(&models[i])
	}
	return out, nil
}

// GormCartRepository 是 CartRepository 的 GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

func (r *GormCartRepository) FindByClientID(ctx context.Context, clientID int64) (*domain.Cart, error) {
	var m CartModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("client_id = ?", clientID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, errors.Wrapf(err, "find cart of client %d", clientID)
	}
	return toDomainCart(&m), nil
}

func (r *GormCartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	m := &CartModel{ClientID: cart.ClientID}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return errors.Wrapf(domain.ErrConflict, "cart for client %d already exists", cart.ClientID)
		}
		return errors.Wrap(err, "create cart")
	}
	cart.ID = m.ID
	return nil
}

// AddItemQuantity 执行 INSERT ... ON DUPLICATE KEY UPDATE quantity = quantity + delta。
func (r *GormCartRepository) AddItemQuantity(ctx context.Context, cartID, productID int64, delta int) error {
	item := &CartItemModel{CartID: cartID, ProductID: productID, Quantity: delta}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now(),
		}),
	}).Create(item).Error
	return errors.Wrap(err, "add cart item")
}

// SetItemQuantity 只更新已有的行，不做 upsert，并发删除的行不会被重新插入。
// 连接开启了 clientFoundRows，RowsAffected 是匹配行数，数量未变化时也不为 0。
func (r *GormCartRepository) SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	res := r.db.WithContext(ctx).Model(&CartItemModel{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return errors.Wrap(res.Error, "set cart item")
	}
	if res.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *GormCartRepository) UpdateItemQuantities(ctx context.Context, items []domain.CartItem) error {
	db := r.db.WithContext(ctx)
	for _, it := range items {
		if err := db.Model(&CartItemModel{}).Where("id = ?", it.ID).Update("quantity", it.Quantity).Error; err != nil {
			return errors.Wrapf(err, "update cart item %d", it.ID)
		}
	}
	return nil
}

func (r *GormCartRepository) DeleteItems(ctx context.Context, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", itemIDs).Delete(&CartItemModel{}).Error
	return errors.Wrap(err, "delete cart items")
}

func (r *GormCartRepository) DeleteItem(ctx context.Context, cartID, productID int64) error {
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&CartItemModel{}).Error
	return errors.Wrap(err, "delete cart item")
}

func (r *GormCartRepository) ClearItems(ctx context.Context, cartID int64) error {
	err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&CartItemModel{}).Error
	return errors.Wrap(err, "clear cart")
}

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

func preloadDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (r *GormOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	m := fromDomainOrder(o)
	if err := r.db.WithContext(ctx).Omit("Details").Create(m).Error; err != nil {
		return errors.Wrap(err, "create order")
	}
	o.ID = m.ID
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	var m OrderModel
	if err := preloadDetails(r.db.WithContext(ctx)).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrapf(err, "find order %d", id)
	}
	return toDomainOrder(&m), nil
}

// LockForUpdate 锁住订单行，不加载明细。
func (r *GormOrderRepository) LockForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	var m OrderModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrapf(err, "lock order %d", id)
	}
	return toDomainOrder(&m), nil
}

func (r *GormOrderRepository) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	var models []OrderModel
	err := preloadDetails(r.db.WithContext(ctx)).
		Order("id").Offset(offset).Limit(limitOrAll(limit)).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return toDomainOrders(models), nil
}

func (r *GormOrderRepository) ListByClient(ctx context.Context, clientID int64) ([]*domain.Order, error) {
	var models []OrderModel
	err := preloadDetails(r.db.WithContext(ctx)).
		Where("client_id = ?", clientID).
		Order("date DESC").Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list orders of client %d", clientID)
	}
	return toDomainOrders(models), nil
}

func toDomainOrders(models []OrderModel) []*domain.Order {
	out := make([]*domain.Order, len(models))
	for i := range models {
		out[i] = toDomainOrder(&models[i])
	}
	return out
}

func (r *GormOrderRepository) Update(ctx context.Context, o *domain.Order) error {
	m := fromDomainOrder(o)
	err := r.db.WithContext(ctx).Model(&OrderModel{ID: o.ID}).
		Select("date", "total", "delivery_method", "status", "client_id", "bill_id").
		Updates(m).Error
	return errors.Wrapf(err, "update order %d", o.ID)
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	res := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", id).Update("status", int(status))
	return errors.Wrapf(res.Error, "update status of order %d", id)
}

// Delete 先删明细再删订单，不依赖外键级联是否存在。
func (r *GormOrderRepository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&OrderDetailModel{}).Error; err != nil {
		return errors.Wrapf(err, "delete details of order %d", id)
	}
	res := db.Delete(&OrderModel{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete order %d", id)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// GormOrderDetailRepository 是 OrderDetailRepository 的 GORM 实现
type GormOrderDetailRepository struct {
	db *gorm.DB
}

func (r *GormOrderDetailRepository) Create(ctx context.Context, d *domain.OrderDetail) error {
	m := fromDomainOrderDetail(d)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.Wrap(err, "create order detail")
	}
	d.ID = m.ID
	return nil
}

func (r *GormOrderDetailRepository) FindByID(ctx context.Context, id int64) (*domain.OrderDetail, error) {
	var m OrderDetailModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLineNotFound
		}
		return nil, errors.Wrapf(err, "find order detail %d", id)
	}
	return toDomainOrderDetail(&m), nil
}

func (r *GormOrderDetailRepository) List(ctx context.Context, offset, limit int) ([]*domain.OrderDetail, error) {
	var models []OrderDetailModel
	if err := r.db.WithContext(ctx).Order("id").Offset(offset).Limit(limitOrAll(limit)).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list order details")
	}
	return toDomainOrderDetails(models), nil
}

func (r *GormOrderDetailRepository) ListByOrder(ctx context.Context, orderID int64) ([]*domain.OrderDetail, error) {
	var models []OrderDetailModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrapf(err, "list details of order %d", orderID)
	}
	return toDomainOrderDetails(models), nil
}

func toDomainOrderDetails(models []OrderDetailModel) []*domain.OrderDetail {
	out := make([]*domain.OrderDetail, len(models))
	for i := range models {
		out[i] = toDomainOrderDetail(&models[i])
	}
	return out
}

func (r *GormOrderDetailRepository) LockForUpdate(ctx context.Context, id int64) (*domain.OrderDetail, error) {
	var m OrderDetailModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLineNotFound
		}
		return nil, errors.Wrapf(err, "lock order detail %d", id)
	}
	return toDomainOrderDetail(&m), nil
}

func (r *GormOrderDetailRepository) LockByOrder(ctx context.Context, orderID int64) ([]*domain.OrderDetail, error) {
	var models []OrderDetailModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).Order("id").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrapf(err, "lock details of order %d", orderID)
	}
	return toDomainOrderDetails(models), nil
}

func (r *GormOrderDetailRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	err := r.db.WithContext(ctx).Model(&OrderDetailModel{}).Where("id = ?", id).Update("quantity", quantity).Error
	return errors.Wrapf(err, "update quantity of order detail %d", id)
}

func (r *GormOrderDetailRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&OrderDetailModel{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete order detail %d", id)
	}
	if res.RowsAffected == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike 转义 LIKE 模式中的通配符，并统一为小写。
func escapeLike(s string) string {
	return likeEscaper.Replace(strings.ToLower(s))
}
