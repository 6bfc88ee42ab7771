package adapter

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"storefront/internal/pkg/mq"
	"storefront/internal/service/storefront/domain"
	"storefront/internal/service/storefront/domain/port"
)

// EventKafkaAdapter 把领域事件写入 Kafka，库存事件按商品 ID 分区，订单事件按订单 ID 分区。
type EventKafkaAdapter struct {
	inventoryWriter *kafka.Writer
	orderWriter     *kafka.Writer
}

var _ port.EventPublisher = (*EventKafkaAdapter)(nil)

func NewEventKafkaAdapter(inventoryWriter, orderWriter *kafka.Writer) *EventKafkaAdapter {
	return &EventKafkaAdapter{inventoryWriter: inventoryWriter, orderWriter: orderWriter}
}

func (a *EventKafkaAdapter) PublishInventoryAdjusted(ctx context.Context, event *domain.InventoryAdjusted) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal inventory event")
	}
	return mq.ProduceMessage(ctx, a.inventoryWriter, []byte(strconv.FormatInt(event.ProductID, 10)), eventBytes)
}

func (a *EventKafkaAdapter) PublishOrderStatusChanged(ctx context.Context, event *domain.OrderStatusChanged) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order status event")
	}
	return mq.ProduceMessage(ctx, a.orderWriter, []byte(strconv.FormatInt(event.OrderID, 10)), eventBytes)
}

// Close 关闭两个 writer，刷出缓冲中的消息。
func (a *EventKafkaAdapter) Close() error {
	err1 := a.inventoryWriter.Close()
	err2 := a.orderWriter.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// NopEventPublisher 在没有配置 Kafka 时丢弃事件。
type NopEventPublisher struct{}

var _ port.EventPublisher = NopEventPublisher{}

func (NopEventPublisher) PublishInventoryAdjusted(context.Context, *domain.InventoryAdjusted) error {
	return nil
}

func (NopEventPublisher) PublishOrderStatusChanged(context.Context, *domain.OrderStatusChanged) error {
	return nil
}
