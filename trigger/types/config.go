package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override configuration keys,
// e.g. PIPETRIGGER_STAGING_URL for staging.url.
const EnvPrefix = "PIPETRIGGER"

// Config struct
type Config struct {
	Staging     RepositoryConfig  `mapstructure:"staging"`
	Target      TargetConfig      `mapstructure:"target"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Workspace   WorkspaceConfig   `mapstructure:"workspace"`
	Commit      CommitConfig      `mapstructure:"commit"`
	Timeout     time.Duration     `mapstructure:"timeout" validate:"gte=0"`
	Log         LogConfig         `mapstructure:"log"`
	Registry    RegistryConfig    `mapstructure:"registry"`
}

// RepositoryConfig points at the staging repository that is cloned and committed to.
type RepositoryConfig struct {
	URL    string `mapstructure:"url" validate:"required"`
	Branch string `mapstructure:"branch" validate:"required"`
}

// TargetConfig points at the repository whose branch the downstream pipeline polls.
type TargetConfig struct {
	URL    string `mapstructure:"url" validate:"required"`
	Branch string `mapstructure:"branch" validate:"required"`
	Remote string `mapstructure:"remote" validate:"required,ne=origin"`
}

// CredentialsConfig holds secret references, not secrets. See the secrets package for the formats.
type CredentialsConfig struct {
	Username string `mapstructure:"username" validate:"required_with=Password"`
	Password string `mapstructure:"password" validate:"required_with=Username"`
}

type WorkspaceConfig struct {
	Root   string `mapstructure:"root" validate:"required"`
	Retain bool   `mapstructure:"retain"`
}

type CommitConfig struct {
	AuthorName  string `mapstructure:"authorName" validate:"required"`
	AuthorEmail string `mapstructure:"authorEmail" validate:"required"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// RegistryConfig describes the image the downstream pipeline publishes.
type RegistryConfig struct {
	Image    string `mapstructure:"image"`
	Username string `mapstructure:"username" validate:"required_with=Password"`
	Password string `mapstructure:"password" validate:"required_with=Username"`
	Insecure bool   `mapstructure:"insecure"`
}

var defaults = map[string]interface{}{
	"staging.url":          "",
	"staging.branch":       "main",
	"target.url":           "",
	"target.branch":        "pipeline",
	"target.remote":        "target",
	"credentials.username": "",
	"credentials.password": "",
	"workspace.root":       "/tmp/pipeline",
	"workspace.retain":     false,
	"commit.authorName":    "pipeline-trigger",
	"commit.authorEmail":   "pipeline-trigger@localhost",
	"timeout":              "0s",
	"log.level":            "info",
	"log.development":      false,
	"registry.image":       "",
	"registry.username":    "",
	"registry.password":    "",
	"registry.insecure":    false,
}

// ConfigManager interface
type ConfigManager interface {
	LoadAndValidateConfig() (*Config, error)
}

// configManager implementation
type configManager struct {
	validator      *validator.Validate
	configFilePath string
}

// NewConfigManager creates a new ConfigManager. An empty path loads the
// configuration from defaults and environment variables only.
func NewConfigManager(completeFilePath string) ConfigManager {
	return &configManager{
		validator:      validator.New(),
		configFilePath: completeFilePath,
	}
}

// LoadAndValidateConfig loads the configuration
func (cm *configManager) LoadAndValidateConfig() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cm.configFilePath != "" {
		v.SetConfigFile(cm.configFilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cm.validateConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration
func (cm *configManager) validateConfig(config *Config) error {
	err := cm.validator.Struct(config)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
