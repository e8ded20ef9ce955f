package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndValidateConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
staging:
  url: https://git.example.com/v1/repos/staging
target:
  url: https://git.example.com/v1/repos/target
credentials:
  username: env:GIT_USER
  password: ssm:/pipeline/git-password
`)

	cfg, err := NewConfigManager(path).LoadAndValidateConfig()
	require.NoError(t, err)

	assert.Equal(t, "main", cfg.Staging.Branch)
	assert.Equal(t, "pipeline", cfg.Target.Branch)
	assert.Equal(t, "target", cfg.Target.Remote)
	assert.Equal(t, "/tmp/pipeline", cfg.Workspace.Root)
	assert.False(t, cfg.Workspace.Retain)
	assert.Equal(t, "pipeline-trigger", cfg.Commit.AuthorName)
	assert.Equal(t, time.Duration(0), cfg.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "env:GIT_USER", cfg.Credentials.Username)
	assert.Equal(t, "ssm:/pipeline/git-password", cfg.Credentials.Password)
}

func TestLoadAndValidateConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
staging:
  url: /srv/git/staging.git
  branch: trunk
target:
  url: /srv/git/target.git
  branch: deploy
  remote: downstream
workspace:
  root: /var/tmp/work
  retain: true
commit:
  authorName: bot
  authorEmail: bot@example.com
timeout: 90s
log:
  level: debug
  development: true
registry:
  image: 123456789012.dkr.ecr.us-east-1.amazonaws.com/service:latest
`)

	cfg, err := NewConfigManager(path).LoadAndValidateConfig()
	require.NoError(t, err)

	assert.Equal(t, "trunk", cfg.Staging.Branch)
	assert.Equal(t, "downstream", cfg.Target.Remote)
	assert.Equal(t, "deploy", cfg.Target.Branch)
	assert.Equal(t, "/var/tmp/work", cfg.Workspace.Root)
	assert.True(t, cfg.Workspace.Retain)
	assert.Equal(t, "bot@example.com", cfg.Commit.AuthorEmail)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.True(t, cfg.Log.Development)
	assert.Contains(t, cfg.Registry.Image, "service:latest")
}

func TestLoadAndValidateConfig_EnvOnly(t *testing.T) {
	t.Setenv("PIPETRIGGER_STAGING_URL", "https://git.example.com/v1/repos/staging")
	t.Setenv("PIPETRIGGER_TARGET_URL", "https://git.example.com/v1/repos/target")
	t.Setenv("PIPETRIGGER_WORKSPACE_ROOT", "/scratch")

	cfg, err := NewConfigManager("").LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://git.example.com/v1/repos/staging", cfg.Staging.URL)
	assert.Equal(t, "/scratch", cfg.Workspace.Root)
}

func TestLoadAndValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing staging url",
			content: "target:\n  url: /srv/git/target.git\n",
		},
		{
			name:    "target remote named origin",
			content: "staging:\n  url: /a\ntarget:\n  url: /b\n  remote: origin\n",
		},
		{
			name:    "username without password",
			content: "staging:\n  url: /a\ntarget:\n  url: /b\ncredentials:\n  username: env:USER\n",
		},
		{
			name:    "unknown log level",
			content: "staging:\n  url: /a\ntarget:\n  url: /b\nlog:\n  level: loud\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigManager(writeConfig(t, tt.content)).LoadAndValidateConfig()
			require.Error(t, err)
		})
	}
}

func TestLoadAndValidateConfig_MissingFile(t *testing.T) {
	_, err := NewConfigManager(filepath.Join(t.TempDir(), "absent.yaml")).LoadAndValidateConfig()
	require.Error(t, err)
}
