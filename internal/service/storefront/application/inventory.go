package application

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/storefront/domain"
)

// InventoryLedger 是一个事务内的库存账本。所有库存变更都必须先 Lock 商品行，
// 在内存中修改，再在事务提交前 Flush。账本不能跨事务复用。
type InventoryLedger struct {
	products domain.ProductRepository
	locks    map[int64]*StockLock
	order    []int64
}

// StockLock 是一行已加锁商品的句柄，同一事务内对同一商品重复加锁得到同一个句柄。
type StockLock struct {
	product  *domain.Product
	original int
}

// NewInventoryLedger 基于事务内的商品仓储创建账本。
func NewInventoryLedger(products domain.ProductRepository) *InventoryLedger {
	return &InventoryLedger{products: products, locks: make(map[int64]*StockLock)}
}

// Lock 对商品行执行 SELECT ... FOR UPDATE，阻塞直到拿到行锁。
func (l *InventoryLedger) Lock(ctx context.Context, productID int64) (*StockLock, error) {
	if lock, ok := l.locks[productID]; ok {
		return lock, nil
	}
	p, err := l.products.LockForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	lock := &StockLock{product: p, original: p.Stock}
	l.locks[productID] = lock
	l.order = append(l.order, productID)
	return lock, nil
}

// LockAll 按商品 ID 升序加锁，多商品加锁时统一顺序以避免死锁。
// 已经不存在的商品会被跳过，返回值只包含成功加锁的商品。
func (l *InventoryLedger) LockAll(ctx context.Context, productIDs []int64) (map[int64]*StockLock, error) {
	ids := slices.Clone(productIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	out := make(map[int64]*StockLock, len(ids))
	for _, id := range ids {
		lock, err := l.Lock(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				logger.Ctx(ctx).Warn().Int64("product_id", id).Msg("⚠️ product no longer exists, skipping stock restore")
				continue
			}
			return nil, err
		}
		out[id] = lock
	}
	return out, nil
}

// Product 返回加锁时读到的商品快照（库存为账本内的当前值）。
func (s *StockLock) Product() *domain.Product { return s.product }

// Stock 返回账本内的当前库存
func (s *StockLock) Stock() int { return s.product.Stock }

// Decrement 扣减库存，不足时返回 *domain.InsufficientStockError 且不做任何修改。
func (s *StockLock) Decrement(n int) error {
	return s.product.Decrement(n)
}

// Increment 归还库存
func (s *StockLock) Increment(n int) {
	s.product.Increment(n)
}

// Set 把库存设置为绝对值，用于后台盘点。
func (s *StockLock) Set(stock int) error {
	if stock < 0 {
		return domain.InvalidInput("stock must not be negative")
	}
	s.product.Stock = stock
	return nil
}

func (s *StockLock) delta() int { return s.product.Stock - s.original }

// Flush 把所有发生变化的库存写回数据库，并返回对应的库存事件，
// 事件需要由调用方在事务提交后发布。
func (l *InventoryLedger) Flush(ctx context.Context, reason string) ([]*domain.InventoryAdjusted, error) {
	var events []*domain.InventoryAdjusted
	now := time.Now().UTC()
	for _, id := range l.order {
		lock := l.locks[id]
		delta := lock.delta()
		if delta == 0 {
			continue
		}
		if err := l.products.UpdateStock(ctx, id, lock.product.Stock); err != nil {
			return nil, err
		}

		direction := "increment"
		units := delta
		if delta < 0 {
			direction = "decrement"
			units = -delta
		}
		metrics.StockAdjustments.WithLabelValues(reason, direction).Add(float64(units))
		logger.Ctx(ctx).Info().
			Int64("product_id", id).
			Int("delta", delta).
			Int("stock", lock.product.Stock).
			Str("reason", reason).
			Msg("📦 stock adjusted")

		events = append(events, &domain.InventoryAdjusted{
			EventID:    uuid.NewString(),
			ProductID:  id,
			Delta:      delta,
			Stock:      lock.product.Stock,
			Reason:     reason,
			OccurredAt: now,
		})
		lock.original = lock.product.Stock
	}
	return events, nil
}
