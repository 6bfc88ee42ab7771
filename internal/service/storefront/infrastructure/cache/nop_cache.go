package cache

import (
	"context"

	"storefront/internal/service/storefront/domain/port"
)

// NopCache 永远未命中，Redis 关闭时使用。
type NopCache struct{}

var _ port.Cache = NopCache{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, string, []byte) error         { return nil }
func (NopCache) Delete(context.Context, ...string) error           { return nil }
func (NopCache) DeletePrefix(context.Context, string) error        { return nil }
