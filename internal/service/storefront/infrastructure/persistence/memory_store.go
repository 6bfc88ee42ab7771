package persistence

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"storefront/internal/service/storefront/domain"
)

// MemoryStore 是 domain.Store 的内存实现，用于测试和本地演示。
//
// 它模拟了 MySQL 中我们依赖的两点行为：LockForUpdate 获取的行锁（商品、订单、明细）持有到事务结束
// （同一事务内可重入），事务失败时通过 undo log 回滚全部写入。
// 未提交的写入对其它事务可见，这与购物车只读未加锁快照的语义一致。
type MemoryStore struct {
	mu sync.Mutex

	products   map[int64]domain.Product
	carts      map[int64]domain.Cart
	cartByUser map[int64]int64
	cartItems  map[int64]domain.CartItem
	orders     map[int64]domain.Order
	details    map[int64]domain.OrderDetail

	clients    *memTable[domain.Client]
	bills      *memTable[domain.Bill]
	categories *memTable[domain.Category]
	reviews    *memTable[domain.Review]
	addresses  *memTable[domain.Address]

	productSeq, cartSeq, itemSeq, orderSeq, detailSeq int64

	locksMu  sync.Mutex
	rowLocks map[rowKey]chan struct{}
}

// rowKey 标识一行：表名 + 主键。
type rowKey struct {
	table string
	id    int64
}

const (
	productRows = "products"
	orderRows   = "orders"
	detailRows  = "order_details"
)

var _ domain.Store = (*MemoryStore)(nil)

// NewMemoryStore 创建一个空的内存存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   make(map[int64]domain.Product),
		carts:      make(map[int64]domain.Cart),
		cartByUser: make(map[int64]int64),
		cartItems:  make(map[int64]domain.CartItem),
		orders:     make(map[int64]domain.Order),
		details:    make(map[int64]domain.OrderDetail),
		clients:    newMemTable(func(c *domain.Client) *int64 { return &c.ID }, domain.ErrClientNotFound),
		bills:      newMemTable(func(b *domain.Bill) *int64 { return &b.ID }, domain.ErrBillNotFound),
		categories: newMemTable(func(c *domain.Category) *int64 { return &c.ID }, domain.ErrCategoryNotFound),
		reviews:    newMemTable(func(r *domain.Review) *int64 { return &r.ID }, domain.ErrReviewNotFound),
		addresses:  newMemTable(func(a *domain.Address) *int64 { return &a.ID }, domain.ErrAddressNotFound),
		rowLocks:   make(map[rowKey]chan struct{}),
	}
}

// memTx 记录一个事务持有的行锁和撤销日志。
type memTx struct {
	held map[rowKey]bool
	undo []func()
}

// WithinTx 在一个事务中执行 fn，fn 返回错误或 panic 时按逆序执行撤销日志。
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	tx := &memTx{held: make(map[rowKey]bool)}
	defer s.releaseRows(tx)
	defer func() {
		if p := recover(); p != nil {
			s.rollback(tx)
			panic(p)
		}
	}()

	if err := fn(ctx, &memRepos{s: s, tx: tx}); err != nil {
		s.rollback(tx)
		return err
	}
	return nil
}

func (s *MemoryStore) rollback(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (s *MemoryStore) lockRow(ctx context.Context, tx *memTx, key rowKey) error {
	if tx.held[key] {
		return nil
	}
	s.locksMu.Lock()
	ch, ok := s.rowLocks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.rowLocks[key] = ch
	}
	s.locksMu.Unlock()

	select {
	case ch <- struct{}{}:
		tx.held[key] = true
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "wait for lock on %s %d", key.table, key.id)
	}
}

func (s *MemoryStore) releaseRows(tx *memTx) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	for key := range tx.held {
		<-s.rowLocks[key]
	}
	tx.held = nil
}

// track 在覆盖 m[k] 之前把旧值写入撤销日志。非事务访问(tx == nil)直接生效。
func track[K comparable, V any](tx *memTx, m map[K]V, k K) {
	if tx == nil {
		return
	}
	old, existed := m[k]
	tx.undo = append(tx.undo, func() {
		if existed {
			m[k] = old
		} else {
			delete(m, k)
		}
	})
}

// Store 自身的仓储在事务之外执行，每次调用立即生效。
func (s *MemoryStore) repos() *memRepos { return &memRepos{s: s} }

func (s *MemoryStore) Products() domain.ProductRepository         { return s.repos().Products() }
func (s *MemoryStore) Carts() domain.CartRepository               { return s.repos().Carts() }
func (s *MemoryStore) Orders() domain.OrderRepository             { return s.repos().Orders() }
func (s *MemoryStore) OrderDetails() domain.OrderDetailRepository { return s.repos().OrderDetails() }
func (s *MemoryStore) Clients() domain.ClientRepository           { return s.repos().Clients() }
func (s *MemoryStore) Bills() domain.CrudRepository[domain.Bill]  { return s.repos().Bills() }
func (s *MemoryStore) Categories() domain.CrudRepository[domain.Category] {
	return s.repos().Categories()
}
func (s *MemoryStore) Reviews() domain.CrudRepository[domain.Review] { return s.repos().Reviews() }
func (s *MemoryStore) Addresses() domain.CrudRepository[domain.Address] {
	return s.repos().Addresses()
}

type memRepos struct {
	s  *MemoryStore
	tx *memTx
}

func (r *memRepos) Products() domain.ProductRepository { return &memProductRepo{s: r.s, tx: r.tx} }
func (r *memRepos) Carts() domain.CartRepository       { return &memCartRepo{s: r.s, tx: r.tx} }
func (r *memRepos) Orders() domain.OrderRepository     { return &memOrderRepo{s: r.s, tx: r.tx} }
func (r *memRepos) OrderDetails() domain.OrderDetailRepository {
	return &memOrderDetailRepo{s: r.s, tx: r.tx}
}
func (r *memRepos) Clients() domain.ClientRepository {
	return &memClientRepo{memCrud: memCrud[domain.Client]{s: r.s, tx: r.tx, t: r.s.clients}}
}
func (r *memRepos) Bills() domain.CrudRepository[domain.Bill] {
	return &memCrud[domain.Bill]{s: r.s, tx: r.tx, t: r.s.bills}
}
func (r *memRepos) Categories() domain.CrudRepository[domain.Category] {
	return &memCrud[domain.Category]{s: r.s, tx: r.tx, t: r.s.categories}
}
func (r *memRepos) Reviews() domain.CrudRepository[domain.Review] {
	return &memCrud[domain.Review]{s: r.s, tx: r.tx, t: r.s.reviews}
}
func (r *memRepos) Addresses() domain.CrudRepository[domain.Address] {
	return &memCrud[domain.Address]{s: r.s, tx: r.tx, t: r.s.addresses}
}
