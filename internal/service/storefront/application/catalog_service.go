package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/storefront/domain"
	"storefront/internal/service/storefront/domain/port"
)

// CatalogService 商品目录。读取走 ProductCache；库存的绝对值修改（盘点）同样经过库存账本加锁。
type CatalogService struct {
	store   domain.Store
	cache   *ProductCache
	effects stockEffects
	tracer  trace.Tracer
}

// NewCatalogService 创建商品目录服务
func NewCatalogService(store domain.Store, cache *ProductCache, events port.EventPublisher, tracer trace.Tracer) *CatalogService {
	return &CatalogService{
		store:   store,
		cache:   cache,
		effects: stockEffects{cache: cache, events: events},
		tracer:  tracer,
	}
}

// Create 新建商品，新商品默认上架。
func (s *CatalogService) Create(ctx context.Context, req *CreateProductRequest) (*ProductView, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateProduct")
	defer span.End()

	p := &domain.Product{
		Name:       req.Name,
		Price:      req.Price,
		Stock:      req.Stock,
		ImageURL:   req.ImageURL,
		Active:     true,
		CategoryID: req.CategoryID,
	}
	if err := p.Validate(); err != nil {
		return nil, fail(span, err, "invalid product")
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return nil, fail(span, err, "category lookup failed")
	}
	if err := s.store.Products().Create(ctx, p); err != nil {
		return nil, fail(span, err, "create product failed")
	}

	s.cache.Invalidate(ctx, p.ID)
	logger.Ctx(ctx).Info().Int64("product_id", p.ID).Int("stock", p.Stock).Msg("🏷️ product created")
	return toProductView(p), nil
}

func (s *CatalogService) checkCategory(ctx context.Context, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	_, err := s.store.Categories().FindByID(ctx, *categoryID)
	return err
}

// Get 按 ID 查询商品，已下架的商品同样可以查到。
func (s *CatalogService) Get(ctx context.Context, id int64) (*ProductView, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	v, err := cached(ctx, s.cache, productIDKey(id), func(ctx context.Context) (*ProductView, error) {
		p, err := s.store.Products().FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return toProductView(p), nil
	})
	if err != nil {
		return nil, fail(span, err, "get product failed")
	}
	return v, nil
}

// List 分页列出商品，默认只返回上架商品。
func (s *CatalogService) List(ctx context.Context, offset, limit int, includeInactive bool) ([]*ProductView, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListProducts")
	defer span.End()

	f := domain.ProductFilter{Offset: offset, Limit: limit}
	if !includeInactive {
		active := true
		f.Active = &active
	}
	vs, err := cached(ctx, s.cache, productListCacheKey(offset, limit, includeInactive), s.loadList(f))
	if err != nil {
		return nil, fail(span, err, "list products failed")
	}
	return vs, nil
}

// Filter 按条件过滤商品，条件组合作为缓存键的一部分。
func (s *CatalogService) Filter(ctx context.Context, f domain.ProductFilter) ([]*ProductView, error) {
	ctx, span := s.tracer.Start(ctx, "service.FilterProducts")
	defer span.End()

	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, fail(span, domain.InvalidInput("min_price must not exceed max_price"), "invalid filter")
	}
	vs, err := cached(ctx, s.cache, productFilterCacheKey(f), s.loadList(f))
	if err != nil {
		return nil, fail(span, err, "filter products failed")
	}
	return vs, nil
}

func (s *CatalogService) loadList(f domain.ProductFilter) func(ctx context.Context) ([]*ProductView, error) {
	return func(ctx context.Context) ([]*ProductView, error) {
		ps, err := s.store.Products().List(ctx, f)
		if err != nil {
			return nil, err
		}
		return toProductViews(ps), nil
	}
}

// Update 部分更新商品。库存字段不直接写入，而是在同一事务内通过库存账本设置，
// 并产生 manual_adjustment 库存事件。
func (s *CatalogService) Update(ctx context.Context, id int64, req *UpdateProductRequest) (*ProductView, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	if req.Stock != nil && *req.Stock < 0 {
		return nil, fail(span, domain.InvalidInput("stock must not be negative"), "invalid stock")
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, fail(span, err, "category lookup failed")
	}

	var (
		product  *domain.Product
		adjusted []*domain.InventoryAdjusted
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		ledger := NewInventoryLedger(tx.Products())
		lock, err := ledger.Lock(ctx, id)
		if err != nil {
			return err
		}
		product = lock.Product()

		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.Price != nil {
			product.Price = *req.Price
		}
		if req.ImageURL != nil {
			product.ImageURL = *req.ImageURL
		}
		if req.CategoryID != nil {
			product.CategoryID = req.CategoryID
		}
		if req.Active != nil {
			product.Active = *req.Active
		}
		if err := product.Validate(); err != nil {
			return err
		}
		if err := tx.Products().Update(ctx, product); err != nil {
			return err
		}

		if req.Stock != nil {
			if err := lock.Set(*req.Stock); err != nil {
				return err
			}
		}
		adjusted, err = ledger.Flush(ctx, domain.ReasonManualAdjustment)
		return err
	})
	if err != nil {
		return nil, fail(span, err, "update product failed")
	}

	s.cache.Invalidate(ctx, id)
	s.effects.afterCommit(ctx, adjusted)
	return toProductView(product), nil
}

// Delete 逻辑删除：商品下架，但仍可被已有订单明细引用。
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "service.DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	if err := s.store.Products().SetActive(ctx, id, false); err != nil {
		return fail(span, err, "soft delete failed")
	}
	s.cache.Invalidate(ctx, id)
	logger.Ctx(ctx).Info().Int64("product_id", id).Msg("🏷️ product deactivated")
	return nil
}
