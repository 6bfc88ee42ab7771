package persistence

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/pkg/database"
	"storefront/internal/service/storefront/domain"
)

// gormCrud 是 domain.CrudRepository 的通用 GORM 实现，D 为领域模型，M 为数据库模型。
type gormCrud[D any, M any] struct {
	db       *gorm.DB
	toDomain func(*M) *D
	toModel  func(*D) *M
	id       func(*D) *int64
	modelID  func(*M) int64
	notFound error
}

func (r *gormCrud[D, M]) Create(ctx context.Context, e *D) error {
	m := r.toModel(e)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return errors.Wrap(domain.ErrConflict, err.Error())
		}
		return errors.Wrap(err, "create")
	}
	*r.id(e) = r.modelID(m)
	return nil
}

func (r *gormCrud[D, M]) FindByID(ctx context.Context, id int64) (*D, error) {
	var m M
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.notFound
		}
		return nil, errors.Wrap(err, "find by id")
	}
	return r.toDomain(&m), nil
}

func (r *gormCrud[D, M]) List(ctx context.Context, offset, limit int) ([]*D, error) {
	var models []M
	if err := r.db.WithContext(ctx).Order("id").Offset(offset).Limit(limitOrAll(limit)).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list")
	}
	out := make([]*D, len(models))
	for i := range models {
		out[i] = r.toDomain(&models[i])
	}
	return out, nil
}

// Update 覆盖整行（包括零值字段）。
func (r *gormCrud[D, M]) Update(ctx context.Context, id int64, e *D) error {
	db := r.db.WithContext(ctx)
	if err := db.First(new(M), id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.notFound
		}
		return errors.Wrap(err, "update")
	}
	*r.id(e) = id
	m := r.toModel(e)
	if err := db.Model(m).Select("*").Updates(m).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return errors.Wrap(domain.ErrConflict, err.Error())
		}
		return errors.Wrap(err, "update")
	}
	return nil
}

func (r *gormCrud[D, M]) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(new(M), id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete")
	}
	if res.RowsAffected == 0 {
		return r.notFound
	}
	return nil
}

// GormClientRepository 在通用仓储之上增加按邮箱查找。
type GormClientRepository struct {
	gormCrud[domain.Client, ClientModel]
}

func (r *GormClientRepository) FindByEmail(ctx context.Context, email string) (*domain.Client, error) {
	var m ClientModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClientNotFound
		}
		return nil, errors.Wrap(err, "find client by email")
	}
	return toDomainClient(&m), nil
}
