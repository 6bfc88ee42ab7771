package application

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/storefront/domain"
	"storefront/internal/service/storefront/domain/port"
)

// stockEffects 处理库存变更提交之后的副作用：失效商品缓存、发布库存事件。
// 两者都是尽力而为，失败不会影响已经提交的业务。
type stockEffects struct {
	cache  *ProductCache
	events port.EventPublisher
}

func (e stockEffects) afterCommit(ctx context.Context, adjusted []*domain.InventoryAdjusted) {
	if len(adjusted) == 0 {
		return
	}
	ids := make([]int64, 0, len(adjusted))
	for _, ev := range adjusted {
		ids = append(ids, ev.ProductID)
	}
	e.cache.Invalidate(ctx, ids...)

	if e.events == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	for _, ev := range adjusted {
		if err := e.events.PublishInventoryAdjusted(ctx, ev); err != nil {
			span.RecordError(err)
			metrics.EventPublishFailures.WithLabelValues("inventory_adjusted").Inc()
			logger.Ctx(ctx).Error().Err(err).Str("event_id", ev.EventID).Int64("product_id", ev.ProductID).
				Msg("failed to publish inventory event")
		}
	}
}

func publishStatusChanged(ctx context.Context, events port.EventPublisher, ev *domain.OrderStatusChanged) {
	if events == nil {
		return
	}
	if err := events.PublishOrderStatusChanged(ctx, ev); err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		metrics.EventPublishFailures.WithLabelValues("order_status_changed").Inc()
		logger.Ctx(ctx).Error().Err(err).Str("event_id", ev.EventID).Int64("order_id", ev.OrderID).
			Msg("failed to publish order status event")
	}
}

// fail 记录错误到 span 并原样返回。
func fail(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}
