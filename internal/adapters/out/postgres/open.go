package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"quickdrop/internal/adapters/out/postgres/accountrepo"
	"quickdrop/internal/adapters/out/postgres/courierrepo"
	"quickdrop/internal/adapters/out/postgres/orderrepo"
	"quickdrop/internal/adapters/out/postgres/outboxrepo"
	"quickdrop/internal/adapters/out/postgres/paymentrepo"
	"quickdrop/internal/adapters/out/postgres/shipmentrepo"
	"quickdrop/internal/pkg/dberrs"

	_ "github.com/lib/pq"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ConnectionConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the connection as a postgres URL understood by lib/pq.
func (c ConnectionConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.DBName,
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Open connects through lib/pq and hands the pool to gorm. The connection is pinged
// so an unreachable database fails at startup.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, dberrs.Classify("ping database", err)
	}

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&accountrepo.UserDTO{},
		&accountrepo.CustomerDTO{},
		&courierrepo.CourierDTO{},
		&orderrepo.OrderDTO{},
		&shipmentrepo.ShipmentDTO{},
		&paymentrepo.PaymentDTO{},
		&outboxrepo.OutboxEventDTO{},
	)
}
