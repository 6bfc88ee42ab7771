package domain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_Decrement(t *testing.T) {
	p := &Product{ID: 7, Stock: 3}

	err := p.Decrement(4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	var se *InsufficientStockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3, se.Available)
	assert.Equal(t, 3, p.Stock)

	require.NoError(t, p.Decrement(3))
	assert.Equal(t, 0, p.Stock)
}

func TestNotFoundFamily(t *testing.T) {
	wrapped := errors.Wrap(ErrProductNotFound, "lock product")
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(wrapped, ErrProductNotFound))
	assert.False(t, errors.Is(wrapped, ErrOrderNotFound))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(3)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, s)

	_, err = ParseStatus(9)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestOrder_Validate(t *testing.T) {
	o := &Order{ClientID: 1, BillID: 1, Total: decimal.NewFromInt(10), DeliveryMethod: DeliveryOnHand}
	require.NoError(t, o.Validate())

	o.Total = decimal.NewFromInt(-1)
	assert.True(t, errors.Is(o.Validate(), ErrInvalidInput))

	o.Total = decimal.Zero
	o.DeliveryMethod = DeliveryMethod(7)
	assert.True(t, errors.Is(o.Validate(), ErrInvalidInput))
}

func TestReview_Validate(t *testing.T) {
	assert.NoError(t, (&Review{Rating: 4, ProductID: 1}).Validate())
	assert.Error(t, (&Review{Rating: 6, ProductID: 1}).Validate())
	assert.Error(t, (&Review{Rating: 3, Comment: "short", ProductID: 1}).Validate())
}
