package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/service/storefront/domain"
)

func TestInventoryLedger_LockIsReentrant(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, 5, 10)

	err := f.store.WithinTx(f.ctx, func(ctx context.Context, tx domain.Repositories) error {
		ledger := NewInventoryLedger(tx.Products())
		a, err := ledger.Lock(ctx, p.ID)
		require.NoError(t, err)
		b, err := ledger.Lock(ctx, p.ID)
		require.NoError(t, err)
		assert.Same(t, a, b)
		return nil
	})
	require.NoError(t, err)
}

func TestInventoryLedger_InsufficientLeavesStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, 5, 10)

	err := f.store.WithinTx(f.ctx, func(ctx context.Context, tx domain.Repositories) error {
		ledger := NewInventoryLedger(tx.Products())
		lock, err := ledger.Lock(ctx, p.ID)
		require.NoError(t, err)

		err = lock.Decrement(6)
		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 5, insufficient.Available)
		assert.Equal(t, 6, insufficient.Requested)
		assert.Equal(t, 5, lock.Stock())

		events, err := ledger.Flush(ctx, domain.ReasonOrderLineCreated)
		require.NoError(t, err)
		assert.Empty(t, events)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestInventoryLedger_FlushWritesChangedRowsOnly(t *testing.T) {
	f := newFixture(t)
	changed := f.product(t, 5, 10)
	untouched := f.product(t, 7, 10)

	err := f.store.WithinTx(f.ctx, func(ctx context.Context, tx domain.Repositories) error {
		ledger := NewInventoryLedger(tx.Products())
		lock, err := ledger.Lock(ctx, changed.ID)
		require.NoError(t, err)
		_, err = ledger.Lock(ctx, untouched.ID)
		require.NoError(t, err)
		require.NoError(t, lock.Decrement(2))

		events, err := ledger.Flush(ctx, domain.ReasonOrderLineCreated)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, changed.ID, events[0].ProductID)
		assert.Equal(t, -2, events[0].Delta)
		assert.Equal(t, 3, events[0].Stock)
		assert.Equal(t, domain.ReasonOrderLineCreated, events[0].Reason)
		assert.NotEmpty(t, events[0].EventID)

		again, err := ledger.Flush(ctx, domain.ReasonOrderLineCreated)
		require.NoError(t, err)
		assert.Empty(t, again)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, changed.ID))
	assert.Equal(t, 7, f.stock(t, untouched.ID))
}

func TestInventoryLedger_LockAllSkipsMissingProducts(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 1, 10)
	b := f.product(t, 2, 10)

	err := f.store.WithinTx(f.ctx, func(ctx context.Context, tx domain.Repositories) error {
		locks, err := NewInventoryLedger(tx.Products()).LockAll(ctx, []int64{b.ID, 999, a.ID, a.ID})
		require.NoError(t, err)
		assert.Len(t, locks, 2)
		assert.Contains(t, locks, a.ID)
		assert.Contains(t, locks, b.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestInventoryLedger_SetRejectsNegative(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, 3, 10)

	err := f.store.WithinTx(f.ctx, func(ctx context.Context, tx domain.Repositories) error {
		lock, err := NewInventoryLedger(tx.Products()).Lock(ctx, p.ID)
		require.NoError(t, err)
		return lock.Set(-1)
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 3, f.stock(t, p.ID))
}
