package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// 错误分类：NotFound / InsufficientStock / InvalidInput，其余一律视为内部错误。
var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
)

// 各实体的 NotFound 错误，errors.Is(err, ErrNotFound) 对它们都成立。
var (
	ErrProductNotFound  error = &notFoundError{entity: "product"}
	ErrOrderNotFound    error = &notFoundError{entity: "order"}
	ErrLineNotFound     error = &notFoundError{entity: "order detail"}
	ErrItemNotFound     error = &notFoundError{entity: "cart item"}
	ErrCartNotFound     error = &notFoundError{entity: "cart"}
	ErrClientNotFound   error = &notFoundError{entity: "client"}
	ErrBillNotFound     error = &notFoundError{entity: "bill"}
	ErrCategoryNotFound error = &notFoundError{entity: "category"}
	ErrReviewNotFound   error = &notFoundError{entity: "review"}
	ErrAddressNotFound  error = &notFoundError{entity: "address"}
)

type notFoundError struct {
	entity string
}

func (e *notFoundError) Error() string { return e.entity + " not found" }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError 携带当前可用库存，调用方可以据此修正请求数量后重试。
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, max available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

func invalidInput(msg string) error {
	return errors.Wrap(ErrInvalidInput, msg)
}

// InvalidInput 构造一个带说明的参数错误。
func InvalidInput(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}
