package git

import (
	"context"
	"fmt"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Clone clones the client's branch into the client's repository path.
//
// The clone is single-branch and the remote is registered as "origin". The
// repository path must not already contain a repository; callers that reuse a
// path are expected to remove it first.
//
// Important Notes:
//   - Only HTTP(S)-based Git URLs and local paths are supported; SSH URLs are not supported
//   - Progress information is written to the writer given with WithProgress, if any
//   - A missing branch or bad credentials surface as the underlying transport error
//
// Example:
//
//	client, _ := NewClient(&Auth{Username: "u", Token: "p"}, "https://host/repo.git", "main", "/tmp/work")
//	if err := client.Clone(ctx); err != nil {
//	    return err
//	}
func (client *Client) Clone(ctx context.Context) error {
	cloneOptions := &goGit.CloneOptions{
		URL:           client.url,
		RemoteName:    goGit.DefaultRemoteName,
		Progress:      client.progress,
		ReferenceName: plumbing.NewBranchReferenceName(client.branchOrTag),
		SingleBranch:  true,
	}

	if client.auth != nil {
		if client.auth.CABundle != nil {
			cloneOptions.CABundle = client.auth.CABundle
		}

		if client.auth.ClientCert != nil && client.auth.ClientKey != nil {
			cloneOptions.ClientCert = client.auth.ClientCert
			cloneOptions.ClientKey = client.auth.ClientKey
		}

		authMethod, err := getAuthMethod(client.url, client.auth)
		if err != nil {
			return fmt.Errorf("failed to setup authentication: %w", err)
		}
		cloneOptions.Auth = authMethod
	}

	repo, err := goGit.PlainCloneContext(ctx, client.repoPath, false, cloneOptions)
	if err != nil {
		return fmt.Errorf("failed to clone repository from %s: %w", redactURL(client.url), err)
	}
	client.repo = repo

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get repository head: %w", err)
	}

	client.log.Infow("Cloned repository",
		"repository", extractRepoName(client.url),
		"branch", client.branchOrTag,
		"path", client.repoPath,
		"commit", head.Hash().String(),
	)
	return nil
}

// extractRepoName extracts the repository name from a Git URL.
//
// Examples:
//
//	extractRepoName("https://github.com/user/myproject.git") // returns "myproject"
//	extractRepoName("https://github.com/user/myproject")     // returns "myproject"
//	extractRepoName("/srv/git/myproject.git")                // returns "myproject"
//	extractRepoName("")                                      // returns ""
func extractRepoName(url string) string {
	url = strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}
