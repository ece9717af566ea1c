package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVault map[string]string

func (f fakeVault) GetSecret(_ context.Context, name string) (string, error) {
	if v, ok := f[name]; ok {
		return v, nil
	}
	return "", errors.New("secret not found")
}

func TestResolveSource(t *testing.T) {
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource("", ""))
	assert.Equal(t, SourceVault, ResolveSource(SourceAuto, "production"))
	assert.Equal(t, SourceVault, ResolveSource(SourceVault, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceEnvironment, "production"))
}

func TestNewProvider_VaultRequiresName(t *testing.T) {
	_, err := NewProvider(&ProviderConfig{Source: SourceVault}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewProvider_UnknownSource(t *testing.T) {
	_, err := NewProvider(&ProviderConfig{Source: "s3"}, zap.NewNop())
	assert.Error(t, err)
}

func TestProvider_Environment(t *testing.T) {
	t.Setenv("MATRIX_TEST_SECRET", "from-env")

	p := NewEnvironmentProvider(zap.NewNop())
	got, err := p.GetSecret(context.Background(), "MATRIX_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	_, err = p.GetSecret(context.Background(), "MATRIX_TEST_MISSING")
	assert.Error(t, err)
	assert.False(t, p.IsVaultEnabled())
}

func TestProvider_EnvOverridesVault(t *testing.T) {
	p := &Provider{source: SourceVault, vault: fakeVault{"JWT-SECRET": "vault-value"}, logger: zap.NewNop()}

	got, err := p.GetSecretOrEnv(context.Background(), "JWT-SECRET", "AUTH_JWTSECRET")
	require.NoError(t, err)
	assert.Equal(t, "vault-value", got)

	t.Setenv("AUTH_JWTSECRET", "env-value")
	got, err = p.GetSecretOrEnv(context.Background(), "JWT-SECRET", "AUTH_JWTSECRET")
	require.NoError(t, err)
	assert.Equal(t, "env-value", got)

	_, err = p.GetSecretOrEnv(context.Background(), "MISSING", "MATRIX_TEST_MISSING")
	assert.Error(t, err)
}
