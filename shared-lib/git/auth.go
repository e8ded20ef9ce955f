package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Auth holds authentication credentials for Git repository access.
//
// Note: CodeCommit style HTTPS credentials are a username/password pair; for GitHub and
// similar services use a personal access token as the Token.
type Auth struct {
	Username   string // Username for Git authentication
	Token      string // Personal access token or password for authentication
	CABundle   []byte // CA bundle (PEM encoded) for self-signed certificates
	ClientCert []byte // Client certificate (PEM encoded)
	ClientKey  []byte // Private key (PEM encoded) for client certificate
}

// getAuthMethod returns the appropriate authentication method(basic auth etc..) based on the Git URL and authentication credentials.
//
// Supported URL formats:
//   - HTTPS: https://github.com/user/repo.git
//   - HTTP: http://github.com/user/repo.git
//   - Local paths and file:// URLs (no authentication)
func getAuthMethod(url string, auth *Auth) (transport.AuthMethod, error) {
	if isSSHURL(url) {
		return nil, fmt.Errorf("only https based git is supported")
	}
	if auth == nil {
		return nil, nil
	}

	if strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://") {
		if auth.Username != "" && auth.Token != "" {
			return &http.BasicAuth{
				Username: auth.Username,
				Password: auth.Token,
			}, nil
		}
	}

	return nil, nil
}

func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") || strings.Contains(url, "ssh://")
}

// redactURL strips userinfo from a URL so it can be logged.
func redactURL(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	at := strings.LastIndex(rest, "@")
	slash := strings.Index(rest, "/")
	if at < 0 || (slash >= 0 && at > slash) {
		return url
	}
	return scheme + "://" + rest[at+1:]
}
