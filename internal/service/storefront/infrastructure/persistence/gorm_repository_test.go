package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront/internal/service/storefront/domain"
)

// newMockDB 用 sqlmock 作为 MySQL 连接，断言 GORM 实际发出的 SQL。
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now`, escapeLike("50% OFF_now"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
}

func TestLimitOrAll(t *testing.T) {
	assert.Equal(t, -1, limitOrAll(0))
	assert.Equal(t, 20, limitOrAll(20))
}

func TestGormProductRepository_LockForUpdate(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := &GormProductRepository{db: db}

	mock.ExpectQuery("SELECT \\* FROM `products` WHERE `products`.`id` = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "stock", "active"}).
			AddRow(7, "mug", "8.50", 3, true))
	p, err := repo.LockForUpdate(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, "8.5", p.Price.String())

	mock.ExpectQuery("SELECT \\* FROM `products` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = repo.LockForUpdate(ctx, 8)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormProductRepository_SetActiveMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &GormProductRepository{db: db}

	mock.ExpectExec("UPDATE `products` SET .*`active`=\\?.*WHERE id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetActive(context.Background(), 9, false), domain.ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_WithinTxRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `products` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "stock"}).AddRow(1, 5))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx domain.Repositories) error {
		if _, err := tx.Products().LockForUpdate(ctx, 1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCartRepository_AddItemQuantityUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &GormCartRepository{db: db}

	mock.ExpectExec("INSERT INTO `cart_items` .*ON DUPLICATE KEY UPDATE .*quantity \\+ \\?").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.AddItemQuantity(context.Background(), 3, 7, 2))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCartRepository_SetItemQuantityNeverInserts(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := &GormCartRepository{db: db}

	mock.ExpectExec("UPDATE `cart_items` SET .*WHERE cart_id = \\? AND product_id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetItemQuantity(ctx, 3, 7, 4))

	// 行已被并发删除
	mock.ExpectExec("UPDATE `cart_items` SET .*WHERE cart_id = \\? AND product_id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetItemQuantity(ctx, 3, 7, 4), domain.ErrItemNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCartRepository_BatchWrites(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := &GormCartRepository{db: db}

	mock.ExpectExec("UPDATE `cart_items` SET .*WHERE id = \\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `cart_items` SET .*WHERE id = \\?").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateItemQuantities(ctx, []domain.CartItem{
		{ID: 11, Quantity: 4},
		{ID: 12, Quantity: 0},
	}))

	mock.ExpectExec("DELETE FROM `cart_items` WHERE id IN \\(\\?,\\?\\)").WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.DeleteItems(ctx, []int64{13, 14}))

	// 空列表不访问数据库
	require.NoError(t, repo.DeleteItems(ctx, nil))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCartRepository_CreateDuplicateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &GormCartRepository{db: db}

	mock.ExpectExec("INSERT INTO `carts`").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	err := repo.Create(context.Background(), &domain.Cart{ClientID: 5})
	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOrderRepository_LockForUpdate(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := &GormOrderRepository{db: db}

	mock.ExpectQuery("SELECT \\* FROM `orders` WHERE `orders`.`id` = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "status"}).AddRow(4, 2, 1))
	o, err := repo.LockForUpdate(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), o.ID)
	assert.Empty(t, o.Details)

	mock.ExpectQuery("SELECT \\* FROM `orders` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = repo.LockForUpdate(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOrderRepository_DeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &GormOrderRepository{db: db}

	mock.ExpectExec("DELETE FROM `order_details` WHERE order_id = \\?").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM `orders` WHERE `orders`.`id` = \\?").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 6), domain.ErrOrderNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOrderDetailRepository_Locks(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := &GormOrderDetailRepository{db: db}

	mock.ExpectQuery("SELECT \\* FROM `order_details` WHERE `order_details`.`id` = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price"}).
			AddRow(8, 4, 7, 2, "3.00"))
	d, err := repo.LockForUpdate(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Quantity)

	mock.ExpectQuery("SELECT \\* FROM `order_details` WHERE `order_details`.`id` = \\? .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = repo.LockForUpdate(ctx, 9)
	assert.ErrorIs(t, err, domain.ErrLineNotFound)

	mock.ExpectQuery("SELECT \\* FROM `order_details` WHERE order_id = \\? ORDER BY id FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price"}).
			AddRow(8, 4, 7, 2, "3.00").
			AddRow(10, 4, 9, 1, "5.00"))
	details, err := repo.LockByOrder(ctx, 4)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, int64(9), details[1].ProductID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOrderDetailRepository_DeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &GormOrderDetailRepository{db: db}

	mock.ExpectExec("DELETE FROM `order_details` WHERE `order_details`.`id` = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 12), domain.ErrLineNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
