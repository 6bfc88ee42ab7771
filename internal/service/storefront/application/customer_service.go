package application

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/storefront/domain"
)

// CustomerService 客户账户管理与登录。密码只以 bcrypt 哈希形式保存。
type CustomerService struct {
	store  domain.Store
	tracer trace.Tracer
	cost   int
}

// NewCustomerService 创建客户服务
func NewCustomerService(store domain.Store, tracer trace.Tracer) *CustomerService {
	return &CustomerService{store: store, tracer: tracer, cost: bcrypt.DefaultCost}
}

func (s *CustomerService) hash(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(h), nil
}

// Create 注册客户，邮箱不区分大小写且唯一。
func (s *CustomerService) Create(ctx context.Context, req *CreateClientRequest) (*ClientView, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateClient")
	defer span.End()

	c := &domain.Client{
		Name:      req.Name,
		Lastname:  req.Lastname,
		Email:     strings.TrimSpace(req.Email),
		Telephone: req.Telephone,
	}
	if err := c.Validate(); err != nil {
		return nil, fail(span, err, "invalid client")
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, fail(span, err, "hash failed")
	}
	c.PasswordHash = hash

	if err := s.store.Clients().Create(ctx, c); err != nil {
		return nil, fail(span, err, "create client failed")
	}
	logger.Ctx(ctx).Info().Int64("client_id", c.ID).Msg("👤 client registered")
	return toClientView(c), nil
}

// Get 查询客户
func (s *CustomerService) Get(ctx context.Context, id int64) (*ClientView, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetClient")
	defer span.End()

	c, err := s.store.Clients().FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err, "get client failed")
	}
	return toClientView(c), nil
}

// List 分页列出客户
func (s *CustomerService) List(ctx context.Context, offset, limit int) ([]*ClientView, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListClients")
	defer span.End()

	cs, err := s.store.Clients().List(ctx, offset, limit)
	if err != nil {
		return nil, fail(span, err, "list clients failed")
	}
	out := make([]*ClientView, len(cs))
	for i, c := range cs {
		out[i] = toClientView(c)
	}
	return out, nil
}

// Update 部分更新客户资料，提供了新密码时重新计算哈希。
func (s *CustomerService) Update(ctx context.Context, id int64, req *UpdateClientRequest) (*ClientView, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateClient")
	defer span.End()
	span.SetAttributes(attribute.Int64("client.id", id))

	c, err := s.store.Clients().FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err, "client lookup failed")
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Lastname != nil {
		c.Lastname = *req.Lastname
	}
	if req.Email != nil {
		c.Email = strings.TrimSpace(*req.Email)
	}
	if req.Telephone != nil {
		c.Telephone = *req.Telephone
	}
	if err := c.Validate(); err != nil {
		return nil, fail(span, err, "invalid client")
	}
	if req.Password != nil {
		if c.PasswordHash, err = s.hash(*req.Password); err != nil {
			return nil, fail(span, err, "hash failed")
		}
	}

	if err := s.store.Clients().Update(ctx, id, c); err != nil {
		return nil, fail(span, err, "update client failed")
	}
	return toClientView(c), nil
}

// Delete 删除客户
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "service.DeleteClient")
	defer span.End()

	if err := s.store.Clients().Delete(ctx, id); err != nil {
		return fail(span, err, "delete client failed")
	}
	return nil
}

// Login 校验邮箱和密码。邮箱不存在和密码错误返回同一个 ErrInvalidCredentials。
func (s *CustomerService) Login(ctx context.Context, req *LoginRequest) (*ClientView, error) {
	ctx, span := s.tracer.Start(ctx, "service.Login")
	defer span.End()

	c, err := s.store.Clients().FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fail(span, domain.ErrInvalidCredentials, "unknown email")
		}
		return nil, fail(span, err, "client lookup failed")
	}
	if c.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(req.Password)) != nil {
		logger.Ctx(ctx).Warn().Int64("client_id", c.ID).Msg("⚠️ login rejected")
		return nil, fail(span, domain.ErrInvalidCredentials, "wrong password")
	}
	return toClientView(c), nil
}
