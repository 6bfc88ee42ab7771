// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StockAdjustments 按原因统计库存变更的件数，扣减和归还分开计数。
	StockAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "stock_adjustments_total",
		Help:      "Units of stock moved by the inventory ledger.",
	}, []string{"reason", "direction"})

	// InsufficientStock 统计因库存不足被拒绝的请求。
	InsufficientStock = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "insufficient_stock_total",
		Help:      "Requests rejected because stock was insufficient.",
	}, []string{"operation"})

	// CartReconciliations 统计购物车对账次数，outcome 为 clean / adjusted。
	CartReconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "cart_reconciliations_total",
		Help:      "Cart reconciliation runs by outcome.",
	}, []string{"outcome"})

	// CacheRequests 统计商品缓存命中情况。
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "cache_requests_total",
		Help:      "Product cache lookups by result.",
	}, []string{"result"})

	// EventPublishFailures 统计发布失败的领域事件。
	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "event_publish_failures_total",
		Help:      "Domain events that could not be published.",
	}, []string{"event"})

	// HTTPRequestDuration HTTP 请求耗时
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
