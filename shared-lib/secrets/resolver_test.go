package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	values map[string]string
	input  *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.input = params
	value, ok := f.values[aws.ToString(params.Name)]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(value)}}, nil
}

func TestResolver_Resolve(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(secretFile, []byte("from-file\n"), 0o600))

	env := map[string]string{"GIT_USER": "git_user+1"}
	fake := &fakeSSM{values: map[string]string{"/pipeline/git-password": "from-ssm"}}
	resolver := NewResolver(
		WithLookupEnv(func(name string) (string, bool) {
			v, ok := env[name]
			return v, ok
		}),
		WithParameterStore(NewSSMStore(fake)),
	)

	tests := []struct {
		name     string
		ref      string
		expected string
		wantErr  bool
	}{
		{name: "empty", ref: "", expected: ""},
		{name: "literal", ref: "plain-value", expected: "plain-value"},
		{name: "literal with unknown scheme", ref: "vault:secret/x", expected: "vault:secret/x"},
		{name: "env", ref: "env:GIT_USER", expected: "git_user+1"},
		{name: "env missing", ref: "env:ABSENT", wantErr: true},
		{name: "file", ref: "file:" + secretFile, expected: "from-file"},
		{name: "file missing", ref: "file:/nonexistent/secret", wantErr: true},
		{name: "ssm", ref: "ssm:/pipeline/git-password", expected: "from-ssm"},
		{name: "ssm missing", ref: "ssm:/pipeline/absent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := resolver.Resolve(context.Background(), tt.ref)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}

	_, err := resolver.Resolve(context.Background(), "ssm:/pipeline/git-password")
	require.NoError(t, err)
	assert.True(t, aws.ToBool(fake.input.WithDecryption))
}

func TestResolver_SSMWithoutStore(t *testing.T) {
	_, err := NewResolver().Resolve(context.Background(), "ssm:/pipeline/git-password")
	require.Error(t, err)
}

func TestNeedsParameterStore(t *testing.T) {
	assert.True(t, NeedsParameterStore("env:A", "ssm:/b"))
	assert.False(t, NeedsParameterStore("env:A", "literal", ""))
}
