package git

import (
	"context"
	"errors"
	"fmt"
	"time"

	goGit "github.com/go-git/go-git/v5"
	goGitConfig "github.com/go-git/go-git/v5/config"
	goGitPlumbing "github.com/go-git/go-git/v5/plumbing"
	goGitObject "github.com/go-git/go-git/v5/plumbing/object"
)

// ErrRemoteExists is returned by AddRemote when a remote of that name is already configured.
var ErrRemoteExists = goGit.ErrRemoteExists

// ErrEmptyCommit is returned by Commit when nothing is staged.
var ErrEmptyCommit = goGit.ErrEmptyCommit

// Signature identifies the author of a commit.
type Signature struct {
	Name  string
	Email string
}

// remoteAuth pairs a remote URL with the credentials used to reach it.
type remoteAuth struct {
	url  string
	auth *Auth
}

// AddRemote registers an additional remote in the working clone.
//
// The credentials are used by Push when it targets this remote. Registering a
// name that already exists fails with ErrRemoteExists.
func (client *Client) AddRemote(name, url string, auth *Auth) error {
	repo, err := client.repository()
	if err != nil {
		return err
	}
	if name == "" || url == "" {
		return fmt.Errorf("remote name and URL cannot be empty")
	}
	if isSSHURL(url) {
		return fmt.Errorf("only https based git is supported")
	}

	_, err = repo.CreateRemote(&goGitConfig.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return fmt.Errorf("failed to create remote %q: %w", name, err)
	}

	if client.remotes == nil {
		client.remotes = map[string]remoteAuth{}
	}
	client.remotes[name] = remoteAuth{url: url, auth: auth}
	client.log.Debugw("Registered remote", "remote", name, "url", redactURL(url))
	return nil
}

// StageAll marks every change in the working tree for commit, including deletions.
func (client *Client) StageAll() error {
	repo, err := client.repository()
	if err != nil {
		return err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get working tree: %w", err)
	}
	if err := worktree.AddWithOptions(&goGit.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	return nil
}

// Commit records the staged changes and returns the new commit hash.
//
// It fails with ErrEmptyCommit when the working tree is clean, including when
// staged content is identical to what is already committed.
func (client *Client) Commit(message string, author Signature, when time.Time) (string, error) {
	repo, err := client.repository()
	if err != nil {
		return "", err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get working tree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get working tree status: %w", err)
	}
	if status.IsClean() {
		return "", fmt.Errorf("failed to commit: %w", ErrEmptyCommit)
	}

	signature := &goGitObject.Signature{
		Name:  author.Name,
		Email: author.Email,
		When:  when,
	}
	hash, err := worktree.Commit(message, &goGit.CommitOptions{
		Author:    signature,
		Committer: signature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	client.log.Infow("Created commit", "commit", hash.String(), "message", message)
	return hash.String(), nil
}

// Push pushes localBranch to remoteBranch on the named remote.
//
// The refspec is never forced: a remote branch that has diverged is rejected.
// A push that changes nothing is not an error.
func (client *Client) Push(ctx context.Context, remoteName, localBranch, remoteBranch string) error {
	repo, err := client.repository()
	if err != nil {
		return err
	}

	refSpec := goGitConfig.RefSpec(fmt.Sprintf("%s:%s",
		goGitPlumbing.NewBranchReferenceName(localBranch),
		goGitPlumbing.NewBranchReferenceName(remoteBranch),
	))
	if err := refSpec.Validate(); err != nil {
		return fmt.Errorf("invalid refspec %q: %w", refSpec, err)
	}

	pushOptions := &goGit.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []goGitConfig.RefSpec{refSpec},
		Progress:   client.progress,
	}

	target, ok := client.remotes[remoteName]
	if !ok && remoteName == goGit.DefaultRemoteName {
		target = remoteAuth{url: client.url, auth: client.auth}
	}
	if target.auth != nil {
		authMethod, err := getAuthMethod(target.url, target.auth)
		if err != nil {
			return fmt.Errorf("failed to setup authentication: %w", err)
		}
		pushOptions.Auth = authMethod
		pushOptions.CABundle = target.auth.CABundle
		if target.auth.ClientCert != nil && target.auth.ClientKey != nil {
			pushOptions.ClientCert = target.auth.ClientCert
			pushOptions.ClientKey = target.auth.ClientKey
		}
	}

	err = repo.PushContext(ctx, pushOptions)
	if errors.Is(err, goGit.NoErrAlreadyUpToDate) {
		client.log.Infow("Remote already up to date", "remote", remoteName, "refspec", string(refSpec))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push %s to remote %q: %w", refSpec, remoteName, err)
	}

	client.log.Infow("Pushed", "remote", remoteName, "refspec", string(refSpec))
	return nil
}
