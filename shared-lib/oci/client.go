package oci

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

// Config holds OCI registry connection and authentication details
type Config struct {
	Username  string        // Registry username, empty for the default keychain
	Password  string        // Registry password/token
	Insecure  bool          // Allow plain HTTP and unverified TLS
	Timeout   time.Duration // Response header timeout (default: 30 seconds)
	UserAgent string        // Custom user agent string
}

// Client reads image metadata from an OCI registry
type Client struct {
	config     *Config
	auth       authn.Authenticator
	remoteOpts []remote.Option
}

// ImageStatus describes the image a tag currently resolves to.
type ImageStatus struct {
	Reference string    `json:"reference"`
	Digest    string    `json:"digest"`
	MediaType string    `json:"mediaType"`
	Size      int64     `json:"size"`
	Created   time.Time `json:"created,omitempty"`
}

// NewClient creates a new OCI registry client with the provided configuration
//
// Without a username and password the client falls back to the default
// keychain (docker config and credential helpers, e.g. the ECR helper).
//
// Example:
//
//	client, err := oci.NewClient(&oci.Config{Timeout: 30 * time.Second})
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "pipeline-trigger"
	}
	client := &Client{
		config: config,
	}
	client.setupAuth()
	client.setupRemoteOptions()
	return client, nil
}

// setupAuth configures authentication for the OCI client
func (c *Client) setupAuth() {
	if c.config.Username != "" && c.config.Password != "" {
		c.auth = &authn.Basic{
			Username: c.config.Username,
			Password: c.config.Password,
		}
	}
}

// setupRemoteOptions configures remote options for registry operations
func (c *Client) setupRemoteOptions() {
	c.remoteOpts = []remote.Option{
		remote.WithUserAgent(c.config.UserAgent),
	}
	if c.auth != nil {
		c.remoteOpts = append(c.remoteOpts, remote.WithAuth(c.auth))
	} else {
		c.remoteOpts = append(c.remoteOpts, remote.WithAuthFromKeychain(authn.DefaultKeychain))
	}

	transport := remote.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = c.config.Timeout
	if c.config.Insecure {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}
	c.remoteOpts = append(c.remoteOpts, remote.WithTransport(transport))
}

func (c *Client) parseReference(reference string) (name.Reference, error) {
	var opts []name.Option
	if c.config.Insecure {
		opts = append(opts, name.Insecure)
	}
	ref, err := name.ParseReference(reference, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid image reference %q: %w", reference, err)
	}
	return ref, nil
}

// ImageStatus resolves reference and reports the manifest digest it points at.
//
// The creation time is read from the image config; it is left zero for
// indexes and other non-image manifests.
//
// Example:
//
//	status, err := client.ImageStatus(ctx, "123456789012.dkr.ecr.us-east-1.amazonaws.com/service:latest")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(status.Digest)
func (c *Client) ImageStatus(ctx context.Context, reference string) (*ImageStatus, error) {
	ref, err := c.parseReference(reference)
	if err != nil {
		return nil, err
	}

	opts := append(c.remoteOpts, remote.WithContext(ctx))
	desc, err := remote.Get(ref, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", ref.String(), err)
	}

	status := &ImageStatus{
		Reference: ref.String(),
		Digest:    desc.Digest.String(),
		MediaType: string(desc.MediaType),
		Size:      desc.Size,
	}

	if desc.MediaType.IsImage() {
		image, err := desc.Image()
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", ref.String(), err)
		}
		configFile, err := image.ConfigFile()
		if err != nil {
			return nil, fmt.Errorf("failed to read image config of %s: %w", ref.String(), err)
		}
		status.Created = configFile.Created.Time
	}

	return status, nil
}
