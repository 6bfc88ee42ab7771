package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestMySQLConfig_DSN(t *testing.T) {
	c := MySQLConfig{Host: "db", Port: 3306, User: "shop", Password: "secret", Database: "storefront"}
	dsn := c.DSN()

	assert.Contains(t, dsn, "shop:secret@tcp(db:3306)/storefront")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	parsed, err := mysql.ParseDSN(dsn)
	assert.NoError(t, err)
	assert.Equal(t, "storefront", parsed.DBName)
	assert.True(t, parsed.ClientFoundRows)
}

func TestIsDuplicateKey(t *testing.T) {
	dup := errors.Wrap(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, "insert cart")
	assert.True(t, IsDuplicateKey(dup))
	assert.False(t, IsDuplicateKey(&mysql.MySQLError{Number: 1213}))
	assert.False(t, IsDuplicateKey(errors.New("boom")))
}
