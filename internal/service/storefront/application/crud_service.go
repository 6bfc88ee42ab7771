package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/service/storefront/domain"
)

// CrudService 是账单、分类、评价、地址这类没有库存语义的实体的通用服务。
type CrudService[T any] struct {
	name     string
	repo     func(domain.Repositories) domain.CrudRepository[T]
	validate func(ctx context.Context, repos domain.Repositories, e *T) error
	store    domain.Store
	tracer   trace.Tracer
}

func (s *CrudService[T]) span(ctx context.Context, op string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "service."+op+s.name)
}

func (s *CrudService[T]) check(ctx context.Context, e *T) error {
	if s.validate == nil {
		return nil
	}
	return s.validate(ctx, s.store, e)
}

// Create 校验并创建
func (s *CrudService[T]) Create(ctx context.Context, e *T) (*T, error) {
	ctx, span := s.span(ctx, "Create")
	defer span.End()

	if err := s.check(ctx, e); err != nil {
		return nil, fail(span, err, "invalid "+s.name)
	}
	if err := s.repo(s.store).Create(ctx, e); err != nil {
		return nil, fail(span, err, "create failed")
	}
	return e, nil
}

// Get 按 ID 查询
func (s *CrudService[T]) Get(ctx context.Context, id int64) (*T, error) {
	ctx, span := s.span(ctx, "Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	e, err := s.repo(s.store).FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err, "get failed")
	}
	return e, nil
}

// List 分页查询
func (s *CrudService[T]) List(ctx context.Context, offset, limit int) ([]*T, error) {
	ctx, span := s.span(ctx, "List")
	defer span.End()

	es, err := s.repo(s.store).List(ctx, offset, limit)
	if err != nil {
		return nil, fail(span, err, "list failed")
	}
	return es, nil
}

// Update 整体替换
func (s *CrudService[T]) Update(ctx context.Context, id int64, e *T) (*T, error) {
	ctx, span := s.span(ctx, "Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	if err := s.check(ctx, e); err != nil {
		return nil, fail(span, err, "invalid "+s.name)
	}
	if err := s.repo(s.store).Update(ctx, id, e); err != nil {
		return nil, fail(span, err, "update failed")
	}
	return e, nil
}

// Delete 删除
func (s *CrudService[T]) Delete(ctx context.Context, id int64) error {
	ctx, span := s.span(ctx, "Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	if err := s.repo(s.store).Delete(ctx, id); err != nil {
		return fail(span, err, "delete failed")
	}
	return nil
}

// NewBillService 账单服务，引用的客户必须存在。
func NewBillService(store domain.Store, tracer trace.Tracer) *CrudService[domain.Bill] {
	return &CrudService[domain.Bill]{
		name:   "Bill",
		repo:   func(r domain.Repositories) domain.CrudRepository[domain.Bill] { return r.Bills() },
		store:  store,
		tracer: tracer,
		validate: func(ctx context.Context, repos domain.Repositories, b *domain.Bill) error {
			if b.BillNumber == "" {
				return domain.InvalidInput("bill_number is required")
			}
			if b.Total.IsNegative() || b.Discount.IsNegative() {
				return domain.InvalidInput("total and discount must be >= 0")
			}
			if b.ClientID != 0 {
				if _, err := repos.Clients().FindByID(ctx, b.ClientID); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// NewCategoryService 分类服务
func NewCategoryService(store domain.Store, tracer trace.Tracer) *CrudService[domain.Category] {
	return &CrudService[domain.Category]{
		name:   "Category",
		repo:   func(r domain.Repositories) domain.CrudRepository[domain.Category] { return r.Categories() },
		store:  store,
		tracer: tracer,
		validate: func(_ context.Context, _ domain.Repositories, c *domain.Category) error {
			if c.Name == "" || len(c.Name) > 100 {
				return domain.InvalidInput("category name must be 1-100 characters")
			}
			return nil
		},
	}
}

// NewReviewService 评价服务，评价的商品必须存在。
func NewReviewService(store domain.Store, tracer trace.Tracer) *CrudService[domain.Review] {
	return &CrudService[domain.Review]{
		name:   "Review",
		repo:   func(r domain.Repositories) domain.CrudRepository[domain.Review] { return r.Reviews() },
		store:  store,
		tracer: tracer,
		validate: func(ctx context.Context, repos domain.Repositories, r *domain.Review) error {
			if err := r.Validate(); err != nil {
				return err
			}
			_, err := repos.Products().FindByID(ctx, r.ProductID)
			return err
		},
	}
}

// NewAddressService 地址服务，所属客户必须存在。
func NewAddressService(store domain.Store, tracer trace.Tracer) *CrudService[domain.Address] {
	return &CrudService[domain.Address]{
		name:   "Address",
		repo:   func(r domain.Repositories) domain.CrudRepository[domain.Address] { return r.Addresses() },
		store:  store,
		tracer: tracer,
		validate: func(ctx context.Context, repos domain.Repositories, a *domain.Address) error {
			if a.Street == "" || a.City == "" {
				return domain.InvalidInput("street and city are required")
			}
			if a.ClientID <= 0 {
				return domain.InvalidInput("client_id is required")
			}
			_, err := repos.Clients().FindByID(ctx, a.ClientID)
			return err
		},
	}
}
