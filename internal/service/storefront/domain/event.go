package domain

import "time"

// 库存变更原因
const (
	ReasonOrderLineCreated = "order_line_created"
	ReasonOrderLineUpdated = "order_line_updated"
	ReasonOrderLineDeleted = "order_line_deleted"
	ReasonOrderDeleted     = "order_deleted"
	ReasonManualAdjustment = "manual_adjustment"
)

// InventoryAdjusted 在库存变更的事务提交后发布。Delta 为负表示扣减。
type InventoryAdjusted struct {
	EventID    string    `json:"eventId"`
	ProductID  int64     `json:"productId"`
	Delta      int       `json:"delta"`
	Stock      int       `json:"stock"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}

// OrderStatusChanged 在订单状态更新后发布。
type OrderStatusChanged struct {
	EventID    string    `json:"eventId"`
	OrderID    int64     `json:"orderId"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurredAt"`
}
