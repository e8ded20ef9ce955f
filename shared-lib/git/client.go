package git

import (
	"fmt"
	"io"
	"path/filepath"

	goGit "github.com/go-git/go-git/v5"
	"go.uber.org/zap"
)

// Client operates on a single working clone of one repository.
//
// A Client is bound to one local path. Clone must be called before any of the
// write operations (AddRemote, StageAll, Commit, Push).
type Client struct {
	url         string
	branchOrTag string
	repoPath    string
	auth        *Auth
	progress    io.Writer
	log         *zap.SugaredLogger

	repo    *goGit.Repository
	remotes map[string]remoteAuth
}

// ClientOption configures optional Client behaviour.
type ClientOption func(*Client)

// WithProgress streams clone and push progress to w.
func WithProgress(w io.Writer) ClientOption {
	return func(c *Client) {
		c.progress = w
	}
}

// WithLogger sets the logger used by the client.
func WithLogger(log *zap.SugaredLogger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient validates its arguments and returns a client for the repository at url.
//
// Parameters:
//   - auth: Optional authentication credentials, applied to HTTPS remotes only
//   - url: The repository URL (HTTPS or a local path; SSH is rejected)
//   - branchOrTagName: Short branch name to clone, e.g. "main"
//   - repoPath: Local directory the repository is cloned into
func NewClient(auth *Auth, url, branchOrTagName, repoPath string, opts ...ClientOption) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("git URL cannot be empty")
	}
	if isSSHURL(url) {
		return nil, fmt.Errorf("only https based git is supported")
	}
	if branchOrTagName == "" {
		return nil, fmt.Errorf("git branchOrTagName cannot be empty")
	}
	if repoPath == "" {
		return nil, fmt.Errorf("repository path cannot be empty")
	}

	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	client := &Client{
		auth:        auth,
		url:         url,
		branchOrTag: branchOrTagName,
		repoPath:    absPath,
		log:         zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Path returns the absolute local path of the working clone.
func (client *Client) Path() string {
	return client.repoPath
}

// Branch returns the branch the client clones.
func (client *Client) Branch() string {
	return client.branchOrTag
}

func (client *Client) repository() (*goGit.Repository, error) {
	if client.repo == nil {
		return nil, fmt.Errorf("repository at %s has not been cloned", client.repoPath)
	}
	return client.repo, nil
}
