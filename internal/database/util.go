package database

import (
	"log/slog"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	sqlitePrefix = "sqlite:"
	mysqlPrefix  = "mysql:"
)

// IsDSN reports whether dsn points to a database this package can open.
func IsDSN(dsn string) bool {
	return strings.HasPrefix(dsn, sqlitePrefix) || strings.HasPrefix(dsn, mysqlPrefix)
}

func GetDatabase(dsn string, debug bool) (*gorm.DB, error) {
	conf := &gorm.Config{}

	if !debug {
		conf.Logger = logger.Default.LogMode(logger.Silent)
	} else {
		conf.Logger = logger.Default.LogMode(logger.Info)
	}

	var db *gorm.DB
	var err error

	if strings.HasPrefix(dsn, mysqlPrefix) {
		slog.Info("open mysql database")
		db, err = gorm.Open(mysql.Open(strings.TrimPrefix(dsn, mysqlPrefix)), conf)
	} else {
		name := strings.TrimPrefix(dsn, sqlitePrefix)
		slog.Info("open sqlite database " + name)
		db, err = gorm.Open(sqlite.Open(name), conf)
	}

	if err != nil {
		slog.Error("db open error", slog.Any("error", err))
		return nil, err
	}

	return db, nil
}
