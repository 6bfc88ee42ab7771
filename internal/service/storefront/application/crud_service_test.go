package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/service/storefront/domain"
)

func TestReviewService_ProductMustExist(t *testing.T) {
	f := newFixture(t)
	svc := NewReviewService(f.store, f.tracer)
	p := f.product(t, 1, 1)

	_, err := svc.Create(f.ctx, &domain.Review{Rating: 4, ProductID: 999})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.Create(f.ctx, &domain.Review{Rating: 6, ProductID: p.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(f.ctx, &domain.Review{Rating: 5, Comment: "short", ProductID: p.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	r, err := svc.Create(f.ctx, &domain.Review{Rating: 5, Comment: "works as described", ProductID: p.ID})
	require.NoError(t, err)
	assert.NotZero(t, r.ID)
}

func TestCategoryService_CRUD(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(f.store, f.tracer)

	c, err := svc.Create(f.ctx, &domain.Category{Name: "kitchen"})
	require.NoError(t, err)

	_, err = svc.Update(f.ctx, c.ID, &domain.Category{Name: "home"})
	require.NoError(t, err)
	got, err := svc.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "home", got.Name)

	_, err = svc.Create(f.ctx, &domain.Category{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := svc.List(f.ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(f.ctx, c.ID))
	assert.ErrorIs(t, svc.Delete(f.ctx, c.ID), domain.ErrCategoryNotFound)
}

func TestAddressService_ClientMustExist(t *testing.T) {
	f := newFixture(t)
	svc := NewAddressService(f.store, f.tracer)
	c := f.client(t)

	_, err := svc.Create(f.ctx, &domain.Address{Street: "Main", City: "Lima", ClientID: 999})
	assert.ErrorIs(t, err, domain.ErrClientNotFound)

	a, err := svc.Create(f.ctx, &domain.Address{Street: "Main", Number: "1", City: "Lima", ClientID: c.ID})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
}
