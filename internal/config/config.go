package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/triumph-atlantic/matrix-api/internal/secrets"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Organizations OrganizationsConfig
	Analytics     AnalyticsConfig
	Cache         CacheConfig
	Auth          AuthConfig
	Storage       StorageConfig
	Secrets       SecretsConfig
	Warehouse     WarehouseConfig
	Jobs          JobsConfig
	Logging       LoggingConfig
	Server        ServerConfig
	CORS          CORSConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite"
	Driver          string
	SQLitePath      string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// OrganizationsConfig is the reference list of tenants. Exactly one of them is
// the oversight organization.
type OrganizationsConfig struct {
	Oversight string
	Names     []string
}

// AnalyticsConfig tunes the trade-swap analyzer
type AnalyticsConfig struct {
	CanonicalPairs bool
	PreferLatest   bool
	// CacheTTL is how long computed candidates are kept, in seconds. Zero disables caching.
	CacheTTL int
}

type CacheConfig struct {
	// Driver is "memory" or "redis"
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	// TokenTTL is the lifetime of issued tokens in minutes
	TokenTTL int
	// APIKey authorizes service callers that name their organization in X-Organization
	APIKey string
}

type StorageConfig struct {
	// Mode is "local" or "cloud"
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	// SnapshotObject is the default object name used by the seed command
	SnapshotObject string
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

// WarehouseConfig holds the optional read-only ERP warehouse connection
type WarehouseConfig struct {
	Enabled bool
	// URL is host:port/database
	URL             string
	User            string
	Password        string
	ProjectsTable   string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	QueryTimeout    int
}

type JobsConfig struct {
	Enabled bool
	// Cron expressions include a seconds field
	TradeSwapRefreshCron string
	WarehouseSyncCron    string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	ReferrerPolicy        string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute applies per IP to unauthenticated requests
	RequestsPerMinute int
	// RequestsPerMinuteAuth applies per organization and user
	RequestsPerMinuteAuth int
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// CacheTTLDuration returns the analytics cache TTL
func (a *AnalyticsConfig) CacheTTLDuration() time.Duration {
	return time.Duration(a.CacheTTL) * time.Second
}

// TokenTTLDuration returns the lifetime of issued tokens
func (a *AuthConfig) TokenTTLDuration() time.Duration {
	return time.Duration(a.TokenTTL) * time.Minute
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (w *WarehouseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(w.ConnMaxLifetime) * time.Second
}

// QueryTimeoutDuration returns query timeout as duration
func (w *WarehouseConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(w.QueryTimeout) * time.Second
}

// IsKnown reports whether name is a configured organization (exact match)
func (o *OrganizationsConfig) IsKnown(name string) bool {
	for _, n := range o.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Validate checks invariants the rest of the application relies on
func (c *Config) Validate() error {
	var errs []error

	oversight := strings.TrimSpace(c.Organizations.Oversight)
	if oversight == "" {
		errs = append(errs, errors.New("organizations.oversight is required"))
	} else if !c.Organizations.IsKnown(c.Organizations.Oversight) {
		errs = append(errs, fmt.Errorf("oversight organization %q must be listed in organizations.names", c.Organizations.Oversight))
	}

	seen := make(map[string]bool, len(c.Organizations.Names))
	for _, n := range c.Organizations.Names {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" {
			errs = append(errs, errors.New("organizations.names contains an empty name"))
			continue
		}
		if seen[key] {
			errs = append(errs, fmt.Errorf("organization %q is listed more than once", n))
		}
		seen[key] = true
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redisAddr is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported cache driver %q", c.Cache.Driver))
	}

	if c.App.Environment == "production" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwtSecret is required in production"))
	}

	return errors.Join(errs...)
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves credentials from the
// configured secret source. Environment variables always override vault values.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SecretSource(cfg.Secrets.Source),
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	if !provider.IsVaultEnabled() {
		logger.Info("Using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if err := applySecrets(ctx, cfg, provider, logger); err != nil {
		return nil, err
	}
	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

type secretBinding struct {
	vaultName string
	envName   string
	target    *string
	required  bool
}

func applySecrets(ctx context.Context, cfg *Config, provider secrets.Getter, logger *zap.Logger) error {
	bindings := []secretBinding{
		{"DATABASE-HOST", "DATABASE_HOST", &cfg.Database.Host, false},
		{"DATABASE-USER", "DATABASE_USER", &cfg.Database.User, false},
		{"DATABASE-PASSWORD", "DATABASE_PASSWORD", &cfg.Database.Password, cfg.Database.Driver == "postgres"},
		{"JWT-SECRET", "AUTH_JWTSECRET", &cfg.Auth.JWTSecret, true},
		{"API-KEY", "AUTH_APIKEY", &cfg.Auth.APIKey, false},
		{"REDIS-PASSWORD", "CACHE_REDISPASSWORD", &cfg.Cache.RedisPassword, false},
		{"STORAGE-CONNECTION-STRING", "STORAGE_CLOUDCONNECTIONSTRING", &cfg.Storage.CloudConnectionString, cfg.Storage.Mode == "cloud"},
	}
	if cfg.Warehouse.Enabled {
		bindings = append(bindings,
			secretBinding{"WAREHOUSE-URL", "WAREHOUSE_URL", &cfg.Warehouse.URL, true},
			secretBinding{"WAREHOUSE-USERNAME", "WAREHOUSE_USER", &cfg.Warehouse.User, true},
			secretBinding{"WAREHOUSE-PASSWORD", "WAREHOUSE_PASSWORD", &cfg.Warehouse.Password, true},
		)
	}

	for _, b := range bindings {
		value, err := provider.GetSecretOrEnv(ctx, b.vaultName, b.envName)
		if err != nil || value == "" {
			if b.required {
				return fmt.Errorf("secret %s is required: %w", b.vaultName, err)
			}
			logger.Debug("Secret not found, keeping configured value", zap.String("secret_name", b.vaultName))
			continue
		}
		*b.target = value
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Contractor Matrix API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.sqlitePath", "matrix.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "matrix")
	v.SetDefault("database.user", "matrix_user")
	v.SetDefault("database.password", "matrix_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	// Organization defaults
	v.SetDefault("organizations.oversight", "Triumph Atlantic")
	v.SetDefault("organizations.names", []string{
		"Triumph Atlantic",
		"Guercio Energy Group",
		"Myers Industrial Services",
	})

	// Analytics defaults
	v.SetDefault("analytics.canonicalPairs", true)
	v.SetDefault("analytics.preferLatest", false)
	v.SetDefault("analytics.cacheTTL", 900)

	// Cache defaults
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redisAddr", "localhost:6379")
	v.SetDefault("cache.redisPassword", "")
	v.SetDefault("cache.redisDB", 0)
	v.SetDefault("cache.keyPrefix", "matrix:")

	// Auth defaults
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.issuer", "matrix-api")
	v.SetDefault("auth.tokenTTL", 60)
	v.SetDefault("auth.apiKey", "")

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudConnectionString", "")
	v.SetDefault("storage.cloudContainer", "snapshots")
	v.SetDefault("storage.snapshotObject", "snapshot.json")

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300) // 5 minutes

	// Warehouse defaults (MS SQL Server - optional, read-only)
	v.SetDefault("warehouse.enabled", false)
	v.SetDefault("warehouse.url", "")
	v.SetDefault("warehouse.user", "")
	v.SetDefault("warehouse.password", "")
	v.SetDefault("warehouse.projectsTable", "dbo.ProjectHistory")
	v.SetDefault("warehouse.maxOpenConns", 10)
	v.SetDefault("warehouse.maxIdleConns", 2)
	v.SetDefault("warehouse.connMaxLifetime", 300)
	v.SetDefault("warehouse.queryTimeout", 30)

	// Jobs defaults
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.tradeSwapRefreshCron", "0 */15 * * * *")
	v.SetDefault("jobs.warehouseSyncCron", "0 0 2 * * *")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Organization", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 120)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})
}
