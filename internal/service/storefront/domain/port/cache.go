package port

import "context"

// Cache 是商品读取前面的旁路缓存。它是尽力而为的：任何失败都不影响正确性，
// 库存变更路径从不经过缓存读取。
type Cache interface {
	// Get 未命中时返回 ok=false 且 err=nil。
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}
