package trigger

import (
	"context"
	"fmt"

	"github.com/margo/pipeline-trigger/shared-lib/git"
	"github.com/margo/pipeline-trigger/shared-lib/secrets"
	"github.com/margo/pipeline-trigger/trigger/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger from the log configuration.
func NewLogger(cfg types.LogConfig) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// NewResolver returns a secret resolver, wired to SSM Parameter Store only when
// one of refs needs it.
func NewResolver(ctx context.Context, refs ...string) (*secrets.Resolver, error) {
	if !secrets.NeedsParameterStore(refs...) {
		return secrets.NewResolver(), nil
	}
	store, err := secrets.NewDefaultSSMStore(ctx)
	if err != nil {
		return nil, err
	}
	return secrets.NewResolver(secrets.WithParameterStore(store)), nil
}

// ResolveAuth turns the configured credential references into git credentials.
// It returns nil when no credentials are configured.
func ResolveAuth(ctx context.Context, creds types.CredentialsConfig, resolver *secrets.Resolver) (*git.Auth, error) {
	if creds.Username == "" && creds.Password == "" {
		return nil, nil
	}
	username, err := resolver.Resolve(ctx, creds.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository username: %w", err)
	}
	password, err := resolver.Resolve(ctx, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository password: %w", err)
	}
	return &git.Auth{Username: username, Token: password}, nil
}

// NewFromConfig resolves credentials and builds a Trigger. It is the startup
// path shared by the command line and the function entry point.
func NewFromConfig(ctx context.Context, cfg *types.Config, log *zap.SugaredLogger, opts ...Option) (*Trigger, error) {
	resolver, err := NewResolver(ctx, cfg.Credentials.Username, cfg.Credentials.Password)
	if err != nil {
		return nil, err
	}
	auth, err := ResolveAuth(ctx, cfg.Credentials, resolver)
	if err != nil {
		return nil, err
	}

	log.Infow("Trigger configured",
		"staging", cfg.Staging.Branch,
		"target", cfg.Target.Remote+"/"+cfg.Target.Branch,
		"workspaceRoot", cfg.Workspace.Root,
		"retainWorkspace", cfg.Workspace.Retain,
		"hasCredentials", auth != nil,
	)
	return New(cfg, auth, append([]Option{WithLogger(log)}, opts...)...)
}
