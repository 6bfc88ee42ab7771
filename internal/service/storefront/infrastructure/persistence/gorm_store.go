package persistence

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/service/storefront/domain"
)

// GormStore 是 domain.Store 的 MySQL 实现。
type GormStore struct {
	db *gorm.DB
	*gormRepos
}

var _ domain.Store = (*GormStore)(nil)

// NewGormStore 创建一个新的 GORM 存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, gormRepos: &gormRepos{db: db}}
}

// AutoMigrate 建表并创建唯一索引与 CHECK 约束。
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	return errors.Wrap(s.db.WithContext(ctx).AutoMigrate(AllModels()...), "auto migrate")
}

// WithinTx 在一个数据库事务中执行 fn。fn 返回错误或 panic 时回滚，
// 期间通过 LockForUpdate 获得的行锁在提交或回滚时释放。
func (s *GormStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormRepos{db: tx})
	})
}

// Ping 检查数据库连接，用于健康检查。
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接池
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	return sqlDB.Close()
}

type gormRepos struct {
	db *gorm.DB
}

func (r *gormRepos) Products() domain.ProductRepository { return &GormProductRepository{db: r.db} }
func (r *gormRepos) Carts() domain.CartRepository       { return &GormCartRepository{db: r.db} }
func (r *gormRepos) Orders() domain.OrderRepository     { return &GormOrderRepository{db: r.db} }
func (r *gormRepos) OrderDetails() domain.OrderDetailRepository {
	return &GormOrderDetailRepository{db: r.db}
}

func (r *gormRepos) Clients() domain.ClientRepository {
	return &GormClientRepository{gormCrud: gormCrud[domain.Client, ClientModel]{
		db:       r.db,
		toDomain: toDomainClient,
		toModel:  fromDomainClient,
		id:       func(c *domain.Client) *int64 { return &c.ID },
		modelID:  func(m *ClientModel) int64 { return m.ID },
		notFound: domain.ErrClientNotFound,
	}}
}

func (r *gormRepos) Bills() domain.CrudRepository[domain.Bill] {
	return &gormCrud[domain.Bill, BillModel]{
		db:       r.db,
		toDomain: toDomainBill,
		toModel:  fromDomainBill,
		id:       func(b *domain.Bill) *int64 { return &b.ID },
		modelID:  func(m *BillModel) int64 { return m.ID },
		notFound: domain.ErrBillNotFound,
	}
}

func (r *gormRepos) Categories() domain.CrudRepository[domain.Category] {
	return &gormCrud[domain.Category, CategoryModel]{
		db:       r.db,
		toDomain: toDomainCategory,
		toModel:  fromDomainCategory,
		id:       func(c *domain.Category) *int64 { return &c.ID },
		modelID:  func(m *CategoryModel) int64 { return m.ID },
		notFound: domain.ErrCategoryNotFound,
	}
}

func (r *gormRepos) Reviews() domain.CrudRepository[domain.Review] {
	return &gormCrud[domain.Review, ReviewModel]{
		db:       r.db,
		toDomain: toDomainReview,
		toModel:  fromDomainReview,
		id:       func(v *domain.Review) *int64 { return &v.ID },
		modelID:  func(m *ReviewModel) int64 { return m.ID },
		notFound: domain.ErrReviewNotFound,
	}
}

func (r *gormRepos) Addresses() domain.CrudRepository[domain.Address] {
	return &gormCrud[domain.Address, AddressModel]{
		db:       r.db,
		toDomain: toDomainAddress,
		toModel:  fromDomainAddress,
		id:       func(a *domain.Address) *int64 { return &a.ID },
		modelID:  func(m *AddressModel) int64 { return m.ID },
		notFound: domain.ErrAddressNotFound,
	}
}

// limitOrAll 把 "0 表示不限制" 转换为 GORM 取消 LIMIT 的 -1。
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
