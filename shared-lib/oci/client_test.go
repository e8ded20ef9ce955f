package oci

import (
	"context"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/registry"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRegistry(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(registry.New())
	t.Cleanup(server.Close)
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	return u.Host
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)

	client, err := NewClient(&Config{})
	require.NoError(t, err)
	assert.Equal(t, "pipeline-trigger", client.config.UserAgent)
	assert.NotZero(t, client.config.Timeout)
	assert.Nil(t, client.auth)

	client, err = NewClient(&Config{Username: "AWS", Password: "token"})
	require.NoError(t, err)
	assert.NotNil(t, client.auth)
}

func TestClient_ImageStatus(t *testing.T) {
	host := startRegistry(t)
	reference := host + "/service:latest"

	image, err := random.Image(256, 1)
	require.NoError(t, err)
	ref, err := name.ParseReference(reference, name.Insecure)
	require.NoError(t, err)
	require.NoError(t, remote.Write(ref, image))

	expectedDigest, err := image.Digest()
	require.NoError(t, err)

	client, err := NewClient(&Config{Insecure: true})
	require.NoError(t, err)

	status, err := client.ImageStatus(context.Background(), reference)
	require.NoError(t, err)
	assert.Equal(t, expectedDigest.String(), status.Digest)
	assert.Equal(t, ref.String(), status.Reference)
	assert.NotEmpty(t, status.MediaType)
	assert.Positive(t, status.Size)
}

func TestClient_ImageStatusMissingTag(t *testing.T) {
	host := startRegistry(t)
	client, err := NewClient(&Config{Insecure: true})
	require.NoError(t, err)

	_, err = client.ImageStatus(context.Background(), host+"/service:absent")
	require.Error(t, err)
}

func TestClient_ImageStatusInvalidReference(t *testing.T) {
	client, err := NewClient(&Config{})
	require.NoError(t, err)

	_, err = client.ImageStatus(context.Background(), "Not A Reference")
	require.Error(t, err)
}
