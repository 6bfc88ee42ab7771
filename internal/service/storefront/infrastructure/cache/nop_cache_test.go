package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopCache_AlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := NopCache{}
	assert.NoError(t, c.Set(ctx, "k", []byte("v")))
	v, ok, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.NoError(t, c.DeletePrefix(ctx, "products:"))
}
