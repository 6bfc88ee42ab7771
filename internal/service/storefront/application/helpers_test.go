package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/service/storefront/domain"
	"storefront/internal/service/storefront/infrastructure/persistence"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type recordingPublisher struct {
	mu        sync.Mutex
	err       error
	inventory []*domain.InventoryAdjusted
	status    []*domain.OrderStatusChanged
}

func (p *recordingPublisher) PublishInventoryAdjusted(_ context.Context, ev *domain.InventoryAdjusted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.inventory = append(p.inventory, ev)
	return nil
}

func (p *recordingPublisher) PublishOrderStatusChanged(_ context.Context, ev *domain.OrderStatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.status = append(p.status, ev)
	return nil
}

func (p *recordingPublisher) inventoryEvents() []*domain.InventoryAdjusted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.InventoryAdjusted(nil), p.inventory...)
}

type fixture struct {
	ctx    context.Context
	store  *persistence.MemoryStore
	cache  *memCache
	pc     *ProductCache
	events *recordingPublisher
	tracer trace.Tracer

	emails int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cache := newMemCache()
	return &fixture{
		ctx:    context.Background(),
		store:  persistence.NewMemoryStore(),
		cache:  cache,
		pc:     NewProductCache(cache),
		events: &recordingPublisher{},
		tracer: otel.Tracer("test"),
	}
}

func (f *fixture) carts() *CartService { return NewCartService(f.store, f.tracer) }

func (f *fixture) details() *OrderDetailService {
	return NewOrderDetailService(f.store, f.pc, f.events, f.tracer)
}

func (f *fixture) orders() *OrderService { return NewOrderService(f.store, f.pc, f.events, f.tracer) }

func (f *fixture) catalog() *CatalogService {
	return NewCatalogService(f.store, f.pc, f.events, f.tracer)
}

func (f *fixture) product(t *testing.T, stock int, price int64) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: fmt.Sprintf("product-%d", stock), Price: decimal.NewFromInt(price), Stock: stock, Active: true}
	require.NoError(t, f.store.Products().Create(f.ctx, p))
	return p
}

func (f *fixture) client(t *testing.T) *domain.Client {
	t.Helper()
	f.emails++
	c := &domain.Client{Name: "Ada", Email: fmt.Sprintf("client%d@example.com", f.emails)}
	require.NoError(t, f.store.Clients().Create(f.ctx, c))
	return c
}

func (f *fixture) bill(t *testing.T, clientID int64) *domain.Bill {
	t.Helper()
	b := &domain.Bill{BillNumber: "B-1", ClientID: clientID, Total: decimal.NewFromInt(100), PaymentType: "CASH"}
	require.NoError(t, f.store.Bills().Create(f.ctx, b))
	return b
}

// order 创建一个空订单并返回其 ID。
func (f *fixture) order(t *testing.T) int64 {
	t.Helper()
	c := f.client(t)
	b := f.bill(t, c.ID)
	v, err := f.orders().Create(f.ctx, &CreateOrderRequest{
		Total:          decimal.NewFromInt(100),
		DeliveryMethod: int(domain.DeliveryHomeDelivery),
		ClientID:       c.ID,
		BillID:         b.ID,
	})
	require.NoError(t, err)
	return v.ID
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.store.Products().FindByID(f.ctx, productID)
	require.NoError(t, err)
	return p.Stock
}

// holdProductLock 在另一个事务中锁住商品行，调用返回的函数释放锁并等待该事务结束。
func (f *fixture) holdProductLock(t *testing.T, productID int64) (release func()) {
	t.Helper()
	locked := make(chan struct{})
	unlock := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f.store.WithinTx(f.ctx, func(ctx context.Context, tx domain.Repositories) error {
			_, err := tx.Products().LockForUpdate(ctx, productID)
			close(locked)
			<-unlock
			return err
		})
	}()
	<-locked
	return func() {
		close(unlock)
		require.NoError(t, <-done)
	}
}

func intPtr(v int) *int { return &v }
