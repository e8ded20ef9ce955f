// Package secrets resolves secret references into values at startup.
//
// A reference is one of:
//
//	env:NAME        value of the environment variable NAME
//	file:/path      content of the file, trailing newlines trimmed
//	ssm:/name       AWS Systems Manager parameter, decrypted
//
// Anything else is taken literally, which keeps plain values in local
// configuration files working.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	SchemeEnv  = "env"
	SchemeFile = "file"
	SchemeSSM  = "ssm"
)

// ParameterStore fetches a single decrypted parameter by name.
type ParameterStore interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Resolver turns secret references into values.
type Resolver struct {
	lookupEnv func(string) (string, bool)
	readFile  func(string) ([]byte, error)
	store     ParameterStore
}

// ResolverOption configures optional Resolver behaviour.
type ResolverOption func(*Resolver)

// WithParameterStore enables ssm: references.
func WithParameterStore(store ParameterStore) ResolverOption {
	return func(r *Resolver) {
		r.store = store
	}
}

// WithLookupEnv replaces the environment lookup, mainly for tests.
func WithLookupEnv(lookup func(string) (string, bool)) ResolverOption {
	return func(r *Resolver) {
		r.lookupEnv = lookup
	}
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		lookupEnv: os.LookupEnv,
		readFile:  os.ReadFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the value a reference points at. An empty reference
// resolves to an empty value.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}

	scheme, name, ok := strings.Cut(ref, ":")
	if !ok {
		return ref, nil
	}

	switch scheme {
	case SchemeEnv:
		value, found := r.lookupEnv(name)
		if !found || value == "" {
			return "", fmt.Errorf("environment variable %q is not set", name)
		}
		return value, nil
	case SchemeFile:
		content, err := r.readFile(name)
		if err != nil {
			return "", fmt.Errorf("failed to read secret file: %w", err)
		}
		return strings.TrimRight(string(content), "\r\n"), nil
	case SchemeSSM:
		if r.store == nil {
			return "", fmt.Errorf("no parameter store configured for %q", ref)
		}
		value, err := r.store.GetParameter(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to read parameter %q: %w", name, err)
		}
		return value, nil
	default:
		return ref, nil
	}
}

// NeedsParameterStore reports whether any of the references uses the ssm scheme.
func NeedsParameterStore(refs ...string) bool {
	for _, ref := range refs {
		if strings.HasPrefix(ref, SchemeSSM+":") {
			return true
		}
	}
	return false
}
