package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/storefront/domain"
)

// CartService 管理购物车。购物车只是购买意向：这里的库存校验读取的是未加锁的快照，
// 真正的库存扣减发生在订单明细创建时。
type CartService struct {
	store  domain.Store
	tracer trace.Tracer
}

// NewCartService 创建购物车服务
func NewCartService(store domain.Store, tracer trace.Tracer) *CartService {
	return &CartService{store: store, tracer: tracer}
}

// GetOrCreateCart 返回客户的购物车，不存在时创建。并发创建时依赖 client_id 唯一约束，
// 输掉竞争的一方重新读取对方创建的购物车。
func (s *CartService) GetOrCreateCart(ctx context.Context, clientID int64) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetOrCreateCart")
	defer span.End()
	span.SetAttributes(attribute.Int64("client.id", clientID))

	if _, err := s.store.Clients().FindByID(ctx, clientID); err != nil {
		return nil, fail(span, err, "client lookup failed")
	}

	cart, err := s.store.Carts().FindByClientID(ctx, clientID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrCartNotFound) {
		return nil, fail(span, err, "cart lookup failed")
	}

	cart = &domain.Cart{ClientID: clientID}
	if err := s.store.Carts().Create(ctx, cart); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return nil, fail(span, err, "cart creation failed")
		}
		span.AddEvent("cart created concurrently, re-reading")
		cart, err = s.store.Carts().FindByClientID(ctx, clientID)
		if err != nil {
			return nil, fail(span, err, "cart re-read failed")
		}
		return cart, nil
	}
	logger.Ctx(ctx).Info().Int64("client_id", clientID).Int64("cart_id", cart.ID).Msg("🛒 cart created")
	return cart, nil
}

// GetCart 读取购物车并按当前库存对账，所有修正在一个事务中持久化。
func (s *CartService) GetCart(ctx context.Context, clientID int64) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetCart")
	defer span.End()

	cart, err := s.GetOrCreateCart(ctx, clientID)
	if err != nil {
		return nil, err
	}

	products, err := s.store.Products().FindByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fail(span, err, "product snapshot failed")
	}

	rec := domain.Reconcile(cart, products)
	if !rec.HasAdjustments {
		metrics.CartReconciliations.WithLabelValues("clean").Inc()
		return toCartView(rec), nil
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if err := tx.Carts().DeleteItems(ctx, rec.Removed); err != nil {
			return err
		}
		return tx.Carts().UpdateItemQuantities(ctx, rec.Updated)
	})
	if err != nil {
		return nil, fail(span, err, "persisting cart adjustments failed")
	}

	metrics.CartReconciliations.WithLabelValues("adjusted").Inc()
	span.SetAttributes(
		attribute.Int("cart.removed", len(rec.Removed)),
		attribute.Int("cart.updated", len(rec.Updated)),
	)
	logger.Ctx(ctx).Info().
		Int64("client_id", clientID).
		Int("removed", len(rec.Removed)).
		Int("updated", len(rec.Updated)).
		Msg("🛒 cart adjusted to current stock")
	return toCartView(rec), nil
}

// AddItem 把 quantity 累加到已有的购物车行（没有则新建）。累加后的数量超过当前库存时拒绝，
// 已有的行保持不变。
func (s *CartService) AddItem(ctx context.Context, clientID, productID int64, quantity int) error {
	ctx, span := s.tracer.Start(ctx, "service.AddCartItem")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("client.id", clientID),
		attribute.Int64("product.id", productID),
		attribute.Int("quantity", quantity),
	)

	if quantity <= 0 {
		return fail(span, domain.InvalidInput("quantity must be greater than 0"), "invalid quantity")
	}
	cart, err := s.GetOrCreateCart(ctx, clientID)
	if err != nil {
		return err
	}
	product, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		return fail(span, err, "product lookup failed")
	}

	requested := quantity
	if item, ok := cart.FindItem(productID); ok {
		requested += item.Quantity
	}
	if requested > product.Stock {
		metrics.InsufficientStock.WithLabelValues("cart_add").Inc()
		return fail(span, &domain.InsufficientStockError{ProductID: productID, Requested: requested, Available: product.Stock},
			"insufficient stock")
	}

	if err := s.store.Carts().AddItemQuantity(ctx, cart.ID, productID, quantity); err != nil {
		return fail(span, err, "add item failed")
	}
	logger.Ctx(ctx).Info().Int64("client_id", clientID).Int64("product_id", productID).Int("quantity", requested).
		Msg("🛒 item added to cart")
	return nil
}

// UpdateItem 把购物车行的数量设置为绝对值。
func (s *CartService) UpdateItem(ctx context.Context, clientID, productID int64, quantity int) error {
	ctx, span := s.tracer.Start(ctx, "service.UpdateCartItem")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("client.id", clientID),
		attribute.Int64("product.id", productID),
		attribute.Int("quantity", quantity),
	)

	if quantity <= 0 {
		return fail(span, domain.InvalidInput("quantity must be greater than 0"), "invalid quantity")
	}
	cart, err := s.store.Carts().FindByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return fail(span, domain.ErrItemNotFound, "cart not found")
		}
		return fail(span, err, "cart lookup failed")
	}
	if _, ok := cart.FindItem(productID); !ok {
		return fail(span, domain.ErrItemNotFound, "item not found")
	}

	product, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		return fail(span, err, "product lookup failed")
	}
	if quantity > product.Stock {
		metrics.InsufficientStock.WithLabelValues("cart_update").Inc()
		return fail(span, &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: product.Stock},
			"insufficient stock")
	}

	if err := s.store.Carts().SetItemQuantity(ctx, cart.ID, productID, quantity); err != nil {
		return fail(span, err, "update item failed")
	}
	return nil
}

// RemoveItem 删除购物车中的某个商品，不存在时什么也不做。
func (s *CartService) RemoveItem(ctx context.Context, clientID, productID int64) error {
	ctx, span := s.tracer.Start(ctx, "service.RemoveCartItem")
	defer span.End()

	cart, err := s.store.Carts().FindByClientID(ctx, clientID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return fail(span, err, "cart lookup failed")
	}
	if err := s.store.Carts().DeleteItem(ctx, cart.ID, productID); err != nil {
		return fail(span, err, "remove item failed")
	}
	return nil
}

// ClearCart 清空购物车，不存在时什么也不做。
func (s *CartService) ClearCart(ctx context.Context, clientID int64) error {
	ctx, span := s.tracer.Start(ctx, "service.ClearCart")
	defer span.End()

	cart, err := s.store.Carts().FindByClientID(ctx, clientID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return fail(span, err, "cart lookup failed")
	}
	if err := s.store.Carts().ClearItems(ctx, cart.ID); err != nil {
		return fail(span, err, "clear cart failed")
	}
	return nil
}
