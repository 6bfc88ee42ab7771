package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client 客户账户
type Client struct {
	ID           int64
	Name         string
	Lastname     string
	Email        string
	Telephone    string
	PasswordHash string
	IsAdmin      bool
}

// Validate 邮箱是唯一必填的身份字段。
func (c *Client) Validate() error {
	if c.Email == "" || !strings.Contains(c.Email, "@") {
		return invalidInput("a valid email is required")
	}
	if len(c.Name) > 100 || len(c.Lastname) > 100 {
		return invalidInput("name and lastname must be at most 100 characters")
	}
	return nil
}

// Bill 账单
type Bill struct {
	ID          int64
	BillNumber  string
	Discount    decimal.Decimal
	Date        time.Time
	Total       decimal.Decimal
	PaymentType string
	ClientID    int64
}

// Address 客户地址
type Address struct {
	ID       int64
	Street   string
	Number   string
	City     string
	ClientID int64
}
