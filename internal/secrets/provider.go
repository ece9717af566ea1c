package secrets

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	SourceEnvironment SecretSource = "environment"
	SourceVault       SecretSource = "vault"
	// SourceAuto uses the environment in development and the vault elsewhere
	SourceAuto SecretSource = "auto"
)

// Getter resolves named secrets
type Getter interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
	GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error)
}

// remoteStore is the subset of the Key Vault client the provider depends on
type remoteStore interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
}

// Provider reads secrets from the environment or Azure Key Vault
type Provider struct {
	source SecretSource
	vault  remoteStore
	logger *zap.Logger
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ResolveSource turns "auto" (or an empty source) into a concrete source
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto && source != "" {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a new secrets provider
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	p := &Provider{source: source, logger: logger}

	switch source {
	case SourceEnvironment:
	case SourceVault:
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		vault, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		p.vault = vault
	default:
		return nil, fmt.Errorf("unknown secret source: %s", source)
	}

	logger.Info("Secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)
	return p, nil
}

// NewEnvironmentProvider returns a provider that only reads environment variables
func NewEnvironmentProvider(logger *zap.Logger) *Provider {
	return &Provider{source: SourceEnvironment, logger: logger}
}

// GetSecret retrieves a secret by name. For the environment source the name
// is the variable name.
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	if p.source == SourceEnvironment {
		value := os.Getenv(secretName)
		if value == "" {
			return "", fmt.Errorf("environment variable '%s' not set", secretName)
		}
		return value, nil
	}
	if p.vault == nil {
		return "", fmt.Errorf("vault client not initialized")
	}
	return p.vault.GetSecret(ctx, secretName)
}

// GetSecretOrEnv prefers an explicitly set environment variable, then the configured source
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if envValue := os.Getenv(envName); envValue != "" {
		p.logger.Debug("Using environment variable override", zap.String("env_name", envName))
		return envValue, nil
	}
	return p.GetSecret(ctx, secretName)
}

// Source returns the current secret source
func (p *Provider) Source() SecretSource {
	return p.source
}

// IsVaultEnabled returns true if secrets are loaded from vault
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}
