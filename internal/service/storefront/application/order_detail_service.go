package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/storefront/domain"
	"storefront/internal/service/storefront/domain/port"
)

// OrderDetailService 协调订单明细与库存：明细的创建、数量修改和删除与对应的库存变更
// 在同一个事务内完成，任一步失败整体回滚。
//
// 每个写操作按 订单行 -> 明细行 -> 商品行 的顺序加锁，与订单删除一致，
// 库存差额总是基于加锁后读到的明细数量计算。
type OrderDetailService struct {
	store   domain.Store
	effects stockEffects
	tracer  trace.Tracer
}

// NewOrderDetailService 创建订单明细服务
func NewOrderDetailService(store domain.Store, cache *ProductCache, events port.EventPublisher, tracer trace.Tracer) *OrderDetailService {
	return &OrderDetailService{store: store, effects: stockEffects{cache: cache, events: events}, tracer: tracer}
}

// Create 锁定商品、校验并扣减库存、以商品当前价格（或请求中的价格）创建明细。
func (s *OrderDetailService) Create(ctx context.Context, req *CreateOrderDetailRequest) (*OrderDetailView, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateOrderDetail")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.id", req.OrderID),
		attribute.Int64("product.id", req.ProductID),
		attribute.Int("quantity", req.Quantity),
	)

	if req.Quantity <= 0 {
		return nil, fail(span, domain.InvalidInput("quantity must be greater than 0"), "invalid quantity")
	}
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, fail(span, domain.InvalidInput("price must be greater than 0"), "invalid price")
	}

	var (
		detail   *domain.OrderDetail
		adjusted []*domain.InventoryAdjusted
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if _, err := tx.Orders().LockForUpdate(ctx, req.OrderID); err != nil {
			return err
		}

		ledger := NewInventoryLedger(tx.Products())
		lock, err := ledger.Lock(ctx, req.ProductID)
		if err != nil {
			return err
		}
		price := lock.Product().Price
		if req.Price != nil {
			price = *req.Price
		}
		if err := lock.Decrement(req.Quantity); err != nil {
			return err
		}

		detail = &domain.OrderDetail{OrderID: req.OrderID, ProductID: req.ProductID, Quantity: req.Quantity, Price: price}
		if err := tx.OrderDetails().Create(ctx, detail); err != nil {
			return err
		}
		adjusted, err = ledger.Flush(ctx, domain.ReasonOrderLineCreated)
		return err
	})
	if err != nil {
		s.countInsufficient(err, "order_detail_create")
		logger.Ctx(ctx).Warn().Err(err).Int64("order_id", req.OrderID).Int64("product_id", req.ProductID).
			Msg("order detail creation rolled back")
		return nil, fail(span, err, "create order detail failed")
	}

	s.effects.afterCommit(ctx, adjusted)
	return toOrderDetailView(detail), nil
}

// Update 只修改数量。数量未提供或未变化时不触碰库存；增加数量时需要足够的库存，
// 减少数量时归还差额。
func (s *OrderDetailService) Update(ctx context.Context, id int64, req *UpdateOrderDetailRequest) (*OrderDetailView, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateOrderDetail")
	defer span.End()
	span.SetAttributes(attribute.Int64("order_detail.id", id))

	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, fail(span, domain.InvalidInput("quantity must be greater than 0"), "invalid quantity")
	}

	var (
		detail   *domain.OrderDetail
		adjusted []*domain.InventoryAdjusted
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		detail, err = lockDetail(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Quantity == nil || *req.Quantity == detail.Quantity {
			return nil
		}

		ledger := NewInventoryLedger(tx.Products())
		lock, err := ledger.Lock(ctx, detail.ProductID)
		if err != nil {
			return err
		}
		delta := *req.Quantity - detail.Quantity
		if delta > 0 {
			if err := lock.Decrement(delta); err != nil {
				return err
			}
		} else {
			lock.Increment(-delta)
		}

		if err := tx.OrderDetails().UpdateQuantity(ctx, id, *req.Quantity); err != nil {
			return err
		}
		detail.Quantity = *req.Quantity
		adjusted, err = ledger.Flush(ctx, domain.ReasonOrderLineUpdated)
		return err
	})
	if err != nil {
		s.countInsufficient(err, "order_detail_update")
		return nil, fail(span, err, "update order detail failed")
	}

	s.effects.afterCommit(ctx, adjusted)
	return toOrderDetailView(detail), nil
}

// Delete 删除明细并归还库存。商品已经不存在时跳过归还，只记录警告。
func (s *OrderDetailService) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "service.DeleteOrderDetail")
	defer span.End()
	span.SetAttributes(attribute.Int64("order_detail.id", id))

	var adjusted []*domain.InventoryAdjusted
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		detail, err := lockDetail(ctx, tx, id)
		if err != nil {
			return err
		}

		ledger := NewInventoryLedger(tx.Products())
		lock, err := ledger.Lock(ctx, detail.ProductID)
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			span.AddEvent("product missing, stock restore skipped")
			logger.Ctx(ctx).Warn().Int64("order_detail_id", id).Int64("product_id", detail.ProductID).
				Msg("⚠️ product no longer exists, skipping stock restore")
		case err != nil:
			return err
		default:
			lock.Increment(detail.Quantity)
		}

		if err := tx.OrderDetails().Delete(ctx, id); err != nil {
			return err
		}
		adjusted, err = ledger.Flush(ctx, domain.ReasonOrderLineDeleted)
		return err
	})
	if err != nil {
		return fail(span, err, "delete order detail failed")
	}

	s.effects.afterCommit(ctx, adjusted)
	return nil
}

// lockDetail 先锁所属订单再锁明细行。明细的 order_id 不可变，第一次读取只用来找到订单。
func lockDetail(ctx context.Context, tx domain.Repositories, id int64) (*domain.OrderDetail, error) {
	d, err := tx.OrderDetails().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Orders().LockForUpdate(ctx, d.OrderID); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.ErrLineNotFound
		}
		return nil, err
	}
	return tx.OrderDetails().LockForUpdate(ctx, id)
}

// Get 查询单个明细
func (s *OrderDetailService) Get(ctx context.Context, id int64) (*OrderDetailView, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetOrderDetail")
	defer span.End()

	d, err := s.store.OrderDetails().FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err, "get order detail failed")
	}
	return toOrderDetailView(d), nil
}

// List 分页列出明细
func (s *OrderDetailService) List(ctx context.Context, offset, limit int) ([]*OrderDetailView, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListOrderDetails")
	defer span.End()

	ds, err := s.store.OrderDetails().List(ctx, offset, limit)
	if err != nil {
		return nil, fail(span, err, "list order details failed")
	}
	out := make([]*OrderDetailView, len(ds))
	for i, d := range ds {
		out[i] = toOrderDetailView(d)
	}
	return out, nil
}

func (s *OrderDetailService) countInsufficient(err error, operation string) {
	if errors.Is(err, domain.ErrInsufficientStock) {
		metrics.InsufficientStock.WithLabelValues(operation).Inc()
	}
}
