// Package datawarehouse provides read-only access to the ERP warehouse on MS SQL
// Server, where completed jobs are exported as project records.
package datawarehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/triumph-atlantic/matrix-api/internal/config"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second
	defaultProjectsTable      = "dbo.matrix_projects"
)

// tableName matches schema-qualified SQL identifiers such as dbo.jobs
var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Client is a pooled, read-only warehouse connection
type Client struct {
	db            *sql.DB
	logger        *zap.Logger
	projectsTable string
	queryTimeout  time.Duration
}

// HealthStatus is the result of a warehouse health check
type HealthStatus struct {
	Status    string        `json:"status"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	Open      int           `json:"open_connections"`
	InUse     int           `json:"in_use"`
	Idle      int           `json:"idle"`
	WaitCount int64         `json:"wait_count"`
}

// NewClient connects to the warehouse. Returns a nil client and no error when
// the warehouse is disabled or credentials are missing, so callers can treat
// the integration as optional.
func NewClient(cfg *config.WarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Warehouse sync disabled")
		return nil, nil
	}
	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Warehouse enabled but credentials are incomplete, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	db, err := connect(connStr, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewClientWithDB(db, cfg, logger)
}

// NewClientWithDB wraps an open connection. The projects table name is
// validated because it is interpolated into queries.
func NewClientWithDB(db *sql.DB, cfg *config.WarehouseConfig, logger *zap.Logger) (*Client, error) {
	table := defaultProjectsTable
	timeout := 30 * time.Second
	if cfg != nil {
		if cfg.ProjectsTable != "" {
			table = cfg.ProjectsTable
		}
		if d := cfg.QueryTimeoutDuration(); d > 0 {
			timeout = d
		}
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid warehouse projects table %q", table)
	}

	return &Client{
		db:            db,
		logger:        logger,
		projectsTable: table,
		queryTimeout:  timeout,
	}, nil
}

// connect opens the pool and pings it, backing off between failed attempts
func connect(connStr string, cfg *config.WarehouseConfig, logger *zap.Logger) (*sql.DB, error) {
	var lastErr error
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		if attempt > 1 {
			time.Sleep(backoff)
			backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
		}

		db, err := sql.Open("sqlserver", connStr)
		if err != nil {
			lastErr = err
			logger.Warn("Failed to open warehouse connection", zap.Error(err), zap.Int("attempt", attempt))
			continue
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

		ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
		err = db.PingContext(ctx)
		cancel()
		if err != nil {
			lastErr = err
			logger.Warn("Warehouse ping failed", zap.Error(err), zap.Int("attempt", attempt))
			_ = db.Close()
			continue
		}

		logger.Info("Warehouse connection established", zap.Int("attempts", attempt))
		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to warehouse after %d attempts: %w", defaultMaxRetries, lastErr)
}

// buildConnectionString turns host:port/database into a sqlserver:// URL
func buildConnectionString(cfg *config.WarehouseConfig) (string, error) {
	hostPort, database, _ := strings.Cut(cfg.URL, "/")
	host, port, found := strings.Cut(hostPort, ":")
	if host == "" {
		return "", fmt.Errorf("warehouse url %q has no host", cfg.URL)
	}
	if !found || port == "" {
		port = "1433"
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	query.Add("ApplicationIntent", "ReadOnly")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host + ":" + port,
		RawQuery: query.Encode(),
	}
	return u.String(), nil
}

// Close releases the connection pool
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close warehouse connection: %w", err)
	}
	c.logger.Info("Warehouse connection closed")
	return nil
}

// HealthCheck pings the warehouse and reports pool statistics
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if c == nil || c.db == nil {
		return &HealthStatus{Status: "disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, defaultHealthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := c.db.PingContext(ctx)
	stats := c.db.Stats()

	status := &HealthStatus{
		Status:    "healthy",
		Latency:   time.Since(start),
		Open:      stats.OpenConnections,
		InUse:     stats.InUse,
		Idle:      stats.Idle,
		WaitCount: stats.WaitCount,
	}
	if err != nil {
		c.logger.Warn("Warehouse health check failed", zap.Error(err))
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

// IsEnabled returns true if the client is initialized and ready for queries.
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}
