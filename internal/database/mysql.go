package database

import (
	"cmp"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

// buildMySQLDSN formats the settings with the driver's own DSN writer. Timestamps
// are parsed and stored in UTC; extra options pass through the driver's parser
// so unknown or malformed values fail at start-up.
func buildMySQLDSN(cfg Config) (string, error) {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		return dsn, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql configuration requires user and database name")
	}

	base := mysqldriver.NewConfig()
	base.User = cfg.User
	base.Passwd = cfg.Password
	base.Net = "tcp"
	base.Addr = net.JoinHostPort(cmp.Or(cfg.Host, "127.0.0.1"), strconv.Itoa(cmp.Or(cfg.Port, 3306)))
	base.DBName = cfg.Name
	base.ParseTime = true
	base.Loc = time.UTC
	base.Params = map[string]string{"charset": "utf8mb4"}

	dsn := base.FormatDSN()
	if len(cfg.Options) == 0 {
		return dsn, nil
	}

	extra := url.Values{}
	for key, value := range cfg.Options {
		extra.Set(key, value)
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	parsed, err := mysqldriver.ParseDSN(dsn + separator + extra.Encode())
	if err != nil {
		return "", fmt.Errorf("mysql options: %w", err)
	}
	return parsed.FormatDSN(), nil
}
