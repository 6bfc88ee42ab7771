package application

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/storefront/domain"
	"storefront/internal/service/storefront/domain/port"
)

const (
	productKeyPrefix = "products:"
	productIDPrefix  = productKeyPrefix + "id:"
	productListKey   = productKeyPrefix + "list:"
	productFilterKey = productKeyPrefix + "filter:"
)

// ProductCache 是商品读取的旁路缓存。缓存只服务于展示型读取，
// 库存相关的校验和扣减从不读缓存。
type ProductCache struct {
	cache port.Cache
	group singleflight.Group
}

// NewProductCache 包装一个 port.Cache，nil 等价于不缓存。
func NewProductCache(cache port.Cache) *ProductCache {
	return &ProductCache{cache: cache}
}

func productIDKey(id int64) string { return fmt.Sprintf("%s%d", productIDPrefix, id) }

func productListCacheKey(offset, limit int, includeInactive bool) string {
	return fmt.Sprintf("%sskip=%d:limit=%d:inactive=%t", productListKey, offset, limit, includeInactive)
}

func productFilterCacheKey(f domain.ProductFilter) string {
	var category, active, minPrice, maxPrice string
	if f.CategoryID != nil {
		category = fmt.Sprint(*f.CategoryID)
	}
	if f.Active != nil {
		active = fmt.Sprint(*f.Active)
	}
	if f.MinPrice != nil {
		minPrice = f.MinPrice.String()
	}
	if f.MaxPrice != nil {
		maxPrice = f.MaxPrice.String()
	}
	return fmt.Sprintf("%ssearch=%s:category=%s:min=%s:max=%s:in_stock=%t:active=%s:sort=%s:skip=%d:limit=%d",
		productFilterKey, f.Search, category, minPrice, maxPrice,
		f.InStockOnly, active, f.Sort, f.Offset, f.Limit)
}

// cached 先查缓存，未命中时用 singleflight 合并并发加载，再回填缓存。
// 缓存读写失败只记录日志，不影响结果。
func cached[T any](ctx context.Context, c *ProductCache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if c == nil || c.cache == nil {
		return load(ctx)
	}

	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache get failed")
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return v, nil
		}
	}
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		val, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(val); err == nil {
			if err := c.cache.Set(ctx, key, raw); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache set failed")
			}
		}
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate 删除指定商品的缓存以及所有列表 / 过滤结果缓存。
func (c *ProductCache) Invalidate(ctx context.Context, productIDs ...int64) {
	if c == nil || c.cache == nil {
		return
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, productIDKey(id))
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("cache delete failed")
	}
	for _, prefix := range []string{productListKey, productFilterKey} {
		if err := c.cache.DeletePrefix(ctx, prefix); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("prefix", prefix).Msg("cache prefix delete failed")
		}
	}
}
