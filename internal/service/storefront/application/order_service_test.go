package application

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/service/storefront/domain"
)

func TestOrderService_CreateDefaults(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	b := f.bill(t, c.ID)

	v, err := f.orders().Create(f.ctx, &CreateOrderRequest{
		Total:          decimal.NewFromInt(10),
		DeliveryMethod: int(domain.DeliveryOnHand),
		ClientID:       c.ID,
		BillID:         b.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int(domain.StatusPending), v.Status)
	assert.Equal(t, "PENDING", v.StatusName)
	assert.WithinDuration(t, time.Now(), v.Date, time.Minute)
	assert.Empty(t, v.Details)
}

func TestOrderService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	b := f.bill(t, c.ID)
	svc := f.orders()

	base := func() *CreateOrderRequest {
		return &CreateOrderRequest{Total: decimal.NewFromInt(1), DeliveryMethod: 1, ClientID: c.ID, BillID: b.ID}
	}

	req := base()
	req.ClientID = 999
	_, err := svc.Create(f.ctx, req)
	assert.ErrorIs(t, err, domain.ErrClientNotFound)

	req = base()
	req.BillID = 999
	_, err = svc.Create(f.ctx, req)
	assert.ErrorIs(t, err, domain.ErrBillNotFound)

	req = base()
	req.Total = decimal.NewFromInt(-1)
	_, err = svc.Create(f.ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req = base()
	req.DeliveryMethod = 9
	_, err = svc.Create(f.ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req = base()
	req.Status = intPtr(42)
	_, err = svc.Create(f.ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOrderService_UpdateStatusPublishesEvent(t *testing.T) {
	f := newFixture(t)
	svc := f.orders()
	orderID := f.order(t)

	v, err := svc.UpdateStatus(f.ctx, orderID, int(domain.StatusDelivered))
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", v.StatusName)

	got, err := svc.Get(f.ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, int(domain.StatusDelivered), got.Status)

	require.Len(t, f.events.status, 1)
	ev := f.events.status[0]
	assert.Equal(t, orderID, ev.OrderID)
	assert.Equal(t, "PENDING", ev.From)
	assert.Equal(t, "DELIVERED", ev.To)
	assert.NotEmpty(t, ev.EventID)

	// 状态不变时不再发布
	_, err = svc.UpdateStatus(f.ctx, orderID, int(domain.StatusDelivered))
	require.NoError(t, err)
	assert.Len(t, f.events.status, 1)

	_, err = svc.UpdateStatus(f.ctx, orderID, 7)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.UpdateStatus(f.ctx, 999, 1)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderService_PartialUpdate(t *testing.T) {
	f := newFixture(t)
	svc := f.orders()
	orderID := f.order(t)

	total := decimal.NewFromInt(55)
	v, err := svc.Update(f.ctx, orderID, &UpdateOrderRequest{Total: &total, Status: intPtr(int(domain.StatusInProgress))})
	require.NoError(t, err)
	assert.True(t, total.Equal(v.Total))
	assert.Equal(t, int(domain.StatusInProgress), v.Status)
	assert.Len(t, f.events.status, 1)

	missing := int64(999)
	_, err = svc.Update(f.ctx, orderID, &UpdateOrderRequest{BillID: &missing})
	assert.ErrorIs(t, err, domain.ErrBillNotFound)
}

func TestOrderService_DeleteRestoresStockOfEveryLine(t *testing.T) {
	f := newFixture(t)
	details := f.details()
	a := f.product(t, 10, 1)
	b := f.product(t, 4, 1)
	orderID := f.order(t)

	for _, req := range []*CreateOrderDetailRequest{
		{OrderID: orderID, ProductID: b.ID, Quantity: 2},
		{OrderID: orderID, ProductID: a.ID, Quantity: 3},
		{OrderID: orderID, ProductID: a.ID, Quantity: 1},
	} {
		_, err := details.Create(f.ctx, req)
		require.NoError(t, err)
	}
	assert.Equal(t, 6, f.stock(t, a.ID))
	assert.Equal(t, 2, f.stock(t, b.ID))

	require.NoError(t, f.orders().Delete(f.ctx, orderID))
	assert.Equal(t, 10, f.stock(t, a.ID))
	assert.Equal(t, 4, f.stock(t, b.ID))

	_, err := f.orders().Get(f.ctx, orderID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	remaining, err := f.store.OrderDetails().ListByOrder(f.ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	deleted := 0
	for _, ev := range f.events.inventoryEvents() {
		if ev.Reason == domain.ReasonOrderDeleted {
			deleted++
		}
	}
	assert.Equal(t, 2, deleted, "one event per product")
}

func TestOrderService_ListByClientNewestFirst(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	b := f.bill(t, c.ID)
	svc := f.orders()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.AddDate(0, 1, 0)
	for _, d := range []time.Time{older, newer} {
		date := d
		_, err := svc.Create(f.ctx, &CreateOrderRequest{Date: &date, DeliveryMethod: 1, ClientID: c.ID, BillID: b.ID})
		require.NoError(t, err)
	}

	list, err := svc.ListByClient(f.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Date.Equal(newer))
	assert.True(t, list[1].Date.Equal(older))

	_, err = svc.ListByClient(f.ctx, 999)
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestOrderService_DeleteRacingLineCreateConservesStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, 10, 1)
	orderID := f.order(t)
	_, err := f.details().Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	release := f.holdProductLock(t, p.ID)

	var (
		wg                   sync.WaitGroup
		deleteErr, createErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		deleteErr = f.orders().Delete(f.ctx, orderID)
	}()
	go func() {
		defer wg.Done()
		_, createErr = f.details().Create(f.ctx, &CreateOrderDetailRequest{OrderID: orderID, ProductID: p.ID, Quantity: 3})
	}()
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()

	require.NoError(t, deleteErr)
	if createErr != nil {
		assert.ErrorIs(t, createErr, domain.ErrOrderNotFound)
	}
	assert.Equal(t, 10, f.stock(t, p.ID))
	remaining, err := f.store.OrderDetails().ListByOrder(f.ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
