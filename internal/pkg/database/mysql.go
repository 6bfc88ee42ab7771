// internal/pkg/database/mysql.go
package database

import (
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MySQLConfig 数据库连接配置
type MySQLConfig struct {
	Host            string        `yaml:"host" envconfig:"MYSQL_HOST"`
	Port            int           `yaml:"port" envconfig:"MYSQL_PORT"`
	User            string        `yaml:"user" envconfig:"MYSQL_USER"`
	Password        string        `yaml:"password" envconfig:"MYSQL_PASSWORD"`
	Database        string        `yaml:"database" envconfig:"MYSQL_DATABASE"`
	MaxOpenConns    int           `yaml:"maxOpenConns" envconfig:"MYSQL_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"maxIdleConns" envconfig:"MYSQL_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" envconfig:"MYSQL_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `yaml:"autoMigrate" envconfig:"MYSQL_AUTO_MIGRATE"`
}

// DSN 拼出 go-sql-driver 使用的连接串。
func (c MySQLConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = c.Host
	if c.Port != 0 {
		cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	}
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// RowsAffected 返回匹配行数，仓储据此判断记录是否存在。
	cfg.ClientFoundRows = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// OpenMySQL 打开 gorm 连接并设置连接池。
func OpenMySQL(c MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(c.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)
	}
	return db, nil
}

// IsDuplicateKey 判断是否为唯一键冲突 (ER_DUP_ENTRY)。
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
