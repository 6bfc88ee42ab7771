package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/service/storefront/domain"
)

func TestOrderDetailService_CreateDeleteConservesStock(t *testing.T) {
	f := newFixture(t)
	svc := f.details()
	p := f.product(t, 10, 4)
	orderID := f.order(t)

	d, err := svc.Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, f.stock(t, p.ID))
	assert.True(t, decimal.NewFromInt(4).Equal(d.Price), "price defaults to the product price")
	assert.True(t, decimal.NewFromInt(12).Equal(d.Subtotal))

	require.NoError(t, svc.Delete(f.ctx, d.ID))
	assert.Equal(t, 10, f.stock(t, p.ID))

	events := f.events.inventoryEvents()
	require.Len(t, events, 2)
	assert.Equal(t, -3, events[0].Delta)
	assert.Equal(t, domain.ReasonOrderLineCreated, events[0].Reason)
	assert.Equal(t, 3, events[1].Delta)
	assert.Equal(t, domain.ReasonOrderLineDeleted, events[1].Reason)
}

func TestOrderDetailService_UpdateRoundTripConservesStock(t *testing.T) {
	f := newFixture(t)
	svc := f.details()
	p := f.product(t, 10, 1)
	orderID := f.order(t)

	d, err := svc.Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 8, f.stock(t, p.ID))

	_, err = svc.Update(f.ctx, d.ID, &UpdateOrderDetailRequest{Quantity: intPtr(6)})
	require.NoError(t, err)
	assert.Equal(t, 4, f.stock(t, p.ID))

	back, err := svc.Update(f.ctx, d.ID, &UpdateOrderDetailRequest{Quantity: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, back.Quantity)
	assert.Equal(t, 8, f.stock(t, p.ID))

	// 数量不变时不产生库存事件
	before := len(f.events.inventoryEvents())
	_, err = svc.Update(f.ctx, d.ID, &UpdateOrderDetailRequest{Quantity: intPtr(2)})
	require.NoError(t, err)
	_, err = svc.Update(f.ctx, d.ID, &UpdateOrderDetailRequest{})
	require.NoError(t, err)
	assert.Len(t, f.events.inventoryEvents(), before)
	assert.Equal(t, 8, f.stock(t, p.ID))
}

func TestOrderDetailService_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	svc := f.details()
	p := f.product(t, 2, 1)
	orderID := f.order(t)

	_, err := svc.Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 3})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 2, f.stock(t, p.ID))

	details, err := f.store.OrderDetails().ListByOrder(f.ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, details)

	d, err := svc.Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Update(f.ctx, d.ID, &UpdateOrderDetailRequest{Quantity: intPtr(3)})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, f.stock(t, p.ID))

	got, err := svc.Get(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
	assert.Empty(t, f.events.inventoryEvents()[1:])
}

func TestOrderDetailService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := f.details()
	p := f.product(t, 2, 1)
	orderID := f.order(t)

	_, err := svc.Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	zero := decimal.Zero
	_, err = svc.Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 1, Price: &zero})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(f.ctx, &CreateOrderDetailRequest{OrderID: 999, ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = svc.Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: 999, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.Update(f.ctx, 999, &UpdateOrderDetailRequest{Quantity: intPtr(1)})
	assert.ErrorIs(t, err, domain.ErrLineNotFound)
	assert.ErrorIs(t, svc.Delete(f.ctx, 999), domain.ErrNotFound)

	assert.Equal(t, 2, f.stock(t, p.ID))
}

func TestOrderDetailService_ExplicitPriceIsKept(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, 2, 10)
	orderID := f.order(t)

	price := decimal.RequireFromString("7.50")
	d, err := f.details().Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 2, Price: &price})
	require.NoError(t, err)
	assert.True(t, price.Equal(d.Price))
	assert.True(t, decimal.RequireFromString("15").Equal(d.Subtotal))
}

// 第二个事务在第一个事务持有行锁期间开始，必须等待，并在看到已提交的库存后失败。
func TestOrderDetailService_ConcurrentCreateWaitsForLock(t *testing.T) {
	f := newFixture(t)
	svc := f.details()
	p := f.product(t, 3, 1)
	orderID := f.order(t)

	locked := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- f.store.WithinTx(f.ctx, func(ctx context.Context, tx domain.Repositories) error {
			ledger := NewInventoryLedger(tx.Products())
			lock, err := ledger.Lock(ctx, p.ID)
			if err != nil {
				return err
			}
			close(locked)
			<-release
			if err := lock.Decrement(3); err != nil {
				return err
			}
			if err := tx.OrderDetails().Create(ctx, &domain.OrderDetail{OrderID: orderID, ProductID: p.ID, Quantity: 3, Price: p.Price}); err != nil {
				return err
			}
			_, err = ledger.Flush(ctx, domain.ReasonOrderLineCreated)
			return err
		})
	}()
	<-locked

	var finished atomic.Bool
	secondDone := make(chan error, 1)
	go func() {
		_, err := svc.Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 1})
		finished.Store(true)
		secondDone <- err
	}()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, finished.Load(), "second creation must block on the row lock")

	close(release)
	require.NoError(t, <-firstDone)

	err := <-secondDone
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, insufficient.Available)
	assert.Equal(t, 0, f.stock(t, p.ID))
}

func TestOrderDetailService_ConcurrentUpdatesUseLockedQuantity(t *testing.T) {
	f := newFixture(t)
	svc := f.details()
	p := f.product(t, 10, 1)
	orderID := f.order(t)
	d, err := svc.Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	release := f.holdProductLock(t, p.ID)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, q := range []int{5, 3} {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			_, err := svc.Update(f.ctx, d.ID, &UpdateOrderDetailRequest{Quantity: intPtr(q)})
			errs <- err
		}(q)
	}
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := svc.Get(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Contains(t, []int{3, 5}, got.Quantity)
	assert.Equal(t, 10-got.Quantity, f.stock(t, p.ID))
}

func TestOrderDetailService_ConcurrentCreatesNeverOversell(t *testing.T) {
	f := newFixture(t)
	svc := f.details()
	p := f.product(t, 5, 1)
	orderID := f.order(t)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 1})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 5, succeeded.Load())
	assert.EqualValues(t, 7, rejected.Load())
	assert.Equal(t, 0, f.stock(t, p.ID))
}

func TestOrderDetailService_DeleteRestoresOntoCurrentStock(t *testing.T) {
	f := newFixture(t)
	svc := f.details()
	p := f.product(t, 5, 1)
	orderID := f.order(t)

	d, err := svc.Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	// 库存在创建和删除之间被独立修改
	require.NoError(t, f.store.Products().UpdateStock(f.ctx, p.ID, 1))

	require.NoError(t, svc.Delete(f.ctx, d.ID))
	assert.Equal(t, 3, f.stock(t, p.ID))
}

func TestOrderDetailService_DeleteWithMissingProductSkipsRestore(t *testing.T) {
	f := newFixture(t)
	orderID := f.order(t)

	var detailID int64
	err := f.store.WithinTx(f.ctx, func(ctx context.Context, tx domain.Repositories) error {
		d := &domain.OrderDetail{OrderID: orderID, ProductID: 404, Quantity: 1, Price: decimal.NewFromInt(1)}
		if err := tx.OrderDetails().Create(ctx, d); err != nil {
			return err
		}
		detailID = d.ID
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, f.details().Delete(f.ctx, detailID))
	_, err = f.store.OrderDetails().FindByID(f.ctx, detailID)
	assert.ErrorIs(t, err, domain.ErrLineNotFound)
	assert.Empty(t, f.events.inventoryEvents())
}

func TestOrderDetailService_PublishFailureDoesNotFailCommit(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	p := f.product(t, 3, 1)
	orderID := f.order(t)

	_, err := f.details().Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, f.stock(t, p.ID))
}
