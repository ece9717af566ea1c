package database

import (
	"context"
	"fmt"
	"time"

	"github.com/triumph-atlantic/matrix-api/internal/config"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection for the configured driver
func NewDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.ConnectionString())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Models lists every persisted type
func Models() []interface{} {
	return []interface{}{
		&domain.Company{},
		&domain.Location{},
		&domain.Contact{},
		&domain.Project{},
		&domain.Opportunity{},
		&domain.Gift{},
		&domain.Referral{},
		&domain.ChangeLogEntry{},
	}
}

// AutoMigrate creates the schema from the models. Used for sqlite and tests;
// postgres deployments run the goose migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// Stats is a snapshot of connection pool statistics
type Stats struct {
	OpenConnections int   `json:"openConnections"`
	InUse           int   `json:"inUse"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"waitCount"`
	LatencyMs       int64 `json:"latencyMs"`
}

// HealthCheck pings the database
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	_, err := HealthCheckWithStats(ctx, db)
	return err
}

// HealthCheckWithStats pings the database and reports pool statistics
func HealthCheckWithStats(ctx context.Context, db *gorm.DB) (*Stats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	start := time.Now()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	s := sqlDB.Stats()
	return &Stats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		LatencyMs:       time.Since(start).Milliseconds(),
	}, nil
}
