package trigger

import (
	"context"
	"testing"

	"github.com/margo/pipeline-trigger/shared-lib/secrets"
	"github.com/margo/pipeline-trigger/trigger/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(types.LogConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(zap.DebugLevel))

	log, err = NewLogger(types.LogConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, log.Desugar().Core().Enabled(zap.InfoLevel))

	_, err = NewLogger(types.LogConfig{Level: "loud"})
	require.Error(t, err)
}

func TestResolveAuth(t *testing.T) {
	env := map[string]string{"GIT_USER": "git_user+1", "GIT_PASSWORD": "s3cret"}
	resolver := secrets.NewResolver(secrets.WithLookupEnv(func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}))
	ctx := context.Background()

	auth, err := ResolveAuth(ctx, types.CredentialsConfig{}, resolver)
	require.NoError(t, err)
	assert.Nil(t, auth)

	auth, err = ResolveAuth(ctx, types.CredentialsConfig{Username: "env:GIT_USER", Password: "env:GIT_PASSWORD"}, resolver)
	require.NoError(t, err)
	require.NotNil(t, auth)
	assert.Equal(t, "git_user+1", auth.Username)
	assert.Equal(t, "s3cret", auth.Token)

	_, err = ResolveAuth(ctx, types.CredentialsConfig{Username: "env:GIT_USER", Password: "env:ABSENT"}, resolver)
	require.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	t.Setenv("TEST_GIT_USER", "user")
	t.Setenv("TEST_GIT_PASSWORD", "password")

	cfg := testConfig("https://git.example.com/staging", "https://git.example.com/target", t.TempDir(), false)
	cfg.Credentials = types.CredentialsConfig{Username: "env:TEST_GIT_USER", Password: "env:TEST_GIT_PASSWORD"}

	trig, err := NewFromConfig(context.Background(), cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NotNil(t, trig.auth)
	assert.Equal(t, "user", trig.auth.Username)
	assert.Equal(t, "target", trig.target.Remote)
}
