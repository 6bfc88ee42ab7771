package port

import (
	"context"

	"storefront/internal/service/storefront/domain"
)

// EventPublisher 是领域事件的出站端口，由 Kafka 适配器实现。
// 只在事务提交后调用，失败不回滚业务。
type EventPublisher interface {
	PublishInventoryAdjusted(ctx context.Context, event *domain.InventoryAdjusted) error
	PublishOrderStatusChanged(ctx context.Context, event *domain.OrderStatusChanged) error
}
