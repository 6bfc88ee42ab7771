package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/storefront/domain"
	"storefront/internal/service/storefront/domain/port"
)

// OrderService 订单的增删改查与状态更新
type OrderService struct {
	store   domain.Store
	events  port.EventPublisher
	effects stockEffects
	tracer  trace.Tracer
	now     func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(store domain.Store, cache *ProductCache, events port.EventPublisher, tracer trace.Tracer) *OrderService {
	return &OrderService{
		store:   store,
		events:  events,
		effects: stockEffects{cache: cache, events: events},
		tracer:  tracer,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create 创建订单。客户和账单必须存在，状态默认为 PENDING，日期默认为当前时间。
func (s *OrderService) Create(ctx context.Context, req *CreateOrderRequest) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("client.id", req.ClientID), attribute.Int64("bill.id", req.BillID))

	order := &domain.Order{
		Date:           s.now(),
		Total:          req.Total,
		DeliveryMethod: domain.DeliveryMethod(req.DeliveryMethod),
		Status:         domain.StatusPending,
		ClientID:       req.ClientID,
		BillID:         req.BillID,
	}
	if req.Date != nil {
		order.Date = *req.Date
	}
	if req.Status != nil {
		st, err := domain.ParseStatus(*req.Status)
		if err != nil {
			return nil, fail(span, err, "invalid status")
		}
		order.Status = st
	}
	if err := order.Validate(); err != nil {
		return nil, fail(span, err, "invalid order")
	}
	if err := s.checkReferences(ctx, s.store, order.ClientID, order.BillID); err != nil {
		return nil, fail(span, err, "reference check failed")
	}

	if err := s.store.Orders().Create(ctx, order); err != nil {
		return nil, fail(span, err, "create order failed")
	}
	logger.Ctx(ctx).Info().Int64("order_id", order.ID).Int64("client_id", order.ClientID).Msg("🧾 order created")
	return toOrderView(order), nil
}

func (s *OrderService) checkReferences(ctx context.Context, repos domain.Repositories, clientID, billID int64) error {
	if clientID != 0 {
		if _, err := repos.Clients().FindByID(ctx, clientID); err != nil {
			return err
		}
	}
	if billID != 0 {
		if _, err := repos.Bills().FindByID(ctx, billID); err != nil {
			return err
		}
	}
	return nil
}

// Get 查询订单（含明细）
func (s *OrderService) Get(ctx context.Context, id int64) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetOrder")
	defer span.End()

	o, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err, "get order failed")
	}
	return toOrderView(o), nil
}

// List 分页列出订单
func (s *OrderService) List(ctx context.Context, offset, limit int) ([]*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListOrders")
	defer span.End()

	orders, err := s.store.Orders().List(ctx, offset, limit)
	if err != nil {
		return nil, fail(span, err, "list orders failed")
	}
	return toOrderViews(orders), nil
}

// ListByClient 按日期倒序列出某个客户的订单
func (s *OrderService) ListByClient(ctx context.Context, clientID int64) ([]*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListClientOrders")
	defer span.End()

	if _, err := s.store.Clients().FindByID(ctx, clientID); err != nil {
		return nil, fail(span, err, "client lookup failed")
	}
	orders, err := s.store.Orders().ListByClient(ctx, clientID)
	if err != nil {
		return nil, fail(span, err, "list client orders failed")
	}
	return toOrderViews(orders), nil
}

// Update 部分更新订单头信息，不涉及明细和库存。
func (s *OrderService) Update(ctx context.Context, id int64, req *UpdateOrderRequest) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", id))

	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err, "order lookup failed")
	}
	previous := order.Status

	var clientID, billID int64
	if req.ClientID != nil {
		order.ClientID, clientID = *req.ClientID, *req.ClientID
	}
	if req.BillID != nil {
		order.BillID, billID = *req.BillID, *req.BillID
	}
	if req.Date != nil {
		order.Date = *req.Date
	}
	if req.Total != nil {
		order.Total = *req.Total
	}
	if req.DeliveryMethod != nil {
		order.DeliveryMethod = domain.DeliveryMethod(*req.DeliveryMethod)
	}
	if req.Status != nil {
		st, err := domain.ParseStatus(*req.Status)
		if err != nil {
			return nil, fail(span, err, "invalid status")
		}
		order.Status = st
	}
	if err := order.Validate(); err != nil {
		return nil, fail(span, err, "invalid order")
	}
	if err := s.checkReferences(ctx, s.store, clientID, billID); err != nil {
		return nil, fail(span, err, "reference check failed")
	}

	if err := s.store.Orders().Update(ctx, order); err != nil {
		return nil, fail(span, err, "update order failed")
	}
	if order.Status != previous {
		s.statusChanged(ctx, order.ID, previous, order.Status)
	}
	return toOrderView(order), nil
}

// UpdateStatus 显式设置订单状态，状态之间没有流转限制，未知状态码返回 ErrInvalidInput。
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, code int) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateOrderStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", id), attribute.Int("order.status", code))

	status, err := domain.ParseStatus(code)
	if err != nil {
		return nil, fail(span, err, "invalid status")
	}
	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err, "order lookup failed")
	}
	previous := order.Status
	if err := s.store.Orders().UpdateStatus(ctx, id, status); err != nil {
		return nil, fail(span, err, "update status failed")
	}
	order.Status = status

	logger.Ctx(ctx).Info().Int64("order_id", id).Str("from", previous.String()).Str("to", status.String()).
		Msg("🧾 order status updated")
	if previous != status {
		s.statusChanged(ctx, id, previous, status)
	}
	return toOrderView(order), nil
}

func (s *OrderService) statusChanged(ctx context.Context, orderID int64, from, to domain.Status) {
	publishStatusChanged(ctx, s.events, &domain.OrderStatusChanged{
		EventID:    uuid.NewString(),
		OrderID:    orderID,
		From:       from.String(),
		To:         to.String(),
		OccurredAt: s.now(),
	})
}

// Delete 删除订单及其全部明细，并归还每个明细占用的库存。
// 先锁订单行，再在锁内读取明细，最后按商品 ID 升序加锁，与明细服务的加锁顺序一致。
func (s *OrderService) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "service.DeleteOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", id))

	var adjusted []*domain.InventoryAdjusted
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if _, err := tx.Orders().LockForUpdate(ctx, id); err != nil {
			return err
		}
		details, err := tx.OrderDetails().LockByOrder(ctx, id)
		if err != nil {
			return err
		}

		restore := make(map[int64]int)
		ids := make([]int64, 0, len(details))
		for _, d := range details {
			if _, ok := restore[d.ProductID]; !ok {
				ids = append(ids, d.ProductID)
			}
			restore[d.ProductID] += d.Quantity
		}

		ledger := NewInventoryLedger(tx.Products())
		locks, err := ledger.LockAll(ctx, ids)
		if err != nil {
			return err
		}
		for productID, lock := range locks {
			lock.Increment(restore[productID])
		}

		if err := tx.Orders().Delete(ctx, id); err != nil {
			return err
		}
		adjusted, err = ledger.Flush(ctx, domain.ReasonOrderDeleted)
		return err
	})
	if err != nil {
		return fail(span, err, "delete order failed")
	}

	logger.Ctx(ctx).Info().Int64("order_id", id).Int("restored_products", len(adjusted)).Msg("🧾 order deleted")
	s.effects.afterCommit(ctx, adjusted)
	return nil
}
