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
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"
)

// CommitInfo represents information about a Git commit
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// GetLatestCommitInfo retrieves information about the latest commit in the specified branch.
//
// Parameters:
//   - repoPath: Path to a local Git repository, bare or not (required, cannot be empty)
//   - branchName: Name of the branch to check (optional, if empty uses current HEAD)
//
// Example:
//
//	info, err := GetLatestCommitInfo("/path/to/repo", "pipeline")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Latest commit: %s by %s\n", info.Hash, info.Author)
func GetLatestCommitInfo(repoPath, branchName string) (commitInfo CommitInfo, err error) {
	if repoPath == "" {
		return CommitInfo{}, fmt.Errorf("repository path cannot be empty")
	}

	repo, err := goGit.PlainOpen(repoPath)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("failed to open repository: %w", err)
	}

	var ref *goGitPlumbing.Reference
	if branchName != "" {
		ref, err = repo.Reference(goGitPlumbing.NewBranchReferenceName(branchName), true)
	} else {
		ref, err = repo.Head()
	}
	if err != nil {
		return CommitInfo{}, fmt.Errorf("failed to get reference: %w", err)
	}

	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return CommitInfo{}, fmt.Errorf("failed to get commit object: %w", err)
	}

	return CommitInfo{
		Hash:      commit.Hash.String(),
		Message:   commit.Message,
		Author:    commit.Author.Name,
		Email:     commit.Author.Email,
		Timestamp: commit.Author.When,
	}, nil
}

// RemoteBranchHash returns the commit a remote branch points at, without cloning.
//
// It returns an empty string and no error when the branch does not exist on
// the remote, including when the remote has no commits at all.
func RemoteBranchHash(ctx context.Context, url, branchName string, auth *Auth) (string, error) {
	if url == "" {
		return "", fmt.Errorf("git URL cannot be empty")
	}
	if branchName == "" {
		return "", fmt.Errorf("branch name cannot be empty")
	}

	remote := goGit.NewRemote(memory.NewStorage(), &goGitConfig.RemoteConfig{
		Name: goGit.DefaultRemoteName,
		URLs: []string{url},
	})

	listOptions := &goGit.ListOptions{}
	if auth != nil {
		authMethod, err := getAuthMethod(url, auth)
		if err != nil {
			return "", fmt.Errorf("failed to setup authentication: %w", err)
		}
		listOptions.Auth = authMethod
		listOptions.CABundle = auth.CABundle
	}

	refs, err := remote.ListContext(ctx, listOptions)
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to list references of %s: %w", redactURL(url), err)
	}

	want := goGitPlumbing.NewBranchReferenceName(branchName)
	for _, ref := range refs {
		if ref.Name() == want {
			return ref.Hash().String(), nil
		}
	}
	return "", nil
}

// BranchRef names a branch on a remote repository.
type BranchRef struct {
	URL    string
	Branch string
	Auth   *Auth
}

// CheckForNewCommits reports the commits on head that base does not contain,
// newest first. Both branches are fetched into memory; nothing is written to
// disk.
//
// A head branch that does not exist has no new commits. A base branch that
// does not exist lacks every commit of head.
//
// Example:
//
//	hasNew, commits, err := CheckForNewCommits(ctx,
//	    BranchRef{URL: stagingURL, Branch: "main"},
//	    BranchRef{URL: targetURL, Branch: "pipeline"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if hasNew {
//	    fmt.Printf("pipeline is %d commits ahead of main\n", len(commits))
//	}
func CheckForNewCommits(ctx context.Context, base, head BranchRef) (hasNewCommits bool, newCommits []CommitInfo, err error) {
	headHash, err := RemoteBranchHash(ctx, head.URL, head.Branch, head.Auth)
	if err != nil {
		return false, nil, err
	}
	if headHash == "" {
		return false, []CommitInfo{}, nil
	}
	baseHash, err := RemoteBranchHash(ctx, base.URL, base.Branch, base.Auth)
	if err != nil {
		return false, nil, err
	}
	if baseHash == headHash {
		return false, []CommitInfo{}, nil
	}

	repo, err := goGit.Init(memory.NewStorage(), nil)
	if err != nil {
		return false, nil, fmt.Errorf("failed to create in-memory repository: %w", err)
	}
	if err := fetchBranch(ctx, repo, "head", head); err != nil {
		return false, nil, err
	}

	reachable := map[goGitPlumbing.Hash]struct{}{}
	if baseHash != "" {
		if err := fetchBranch(ctx, repo, "base", base); err != nil {
			return false, nil, err
		}
		err := walkCommits(repo, goGitPlumbing.NewHash(baseHash), func(commit *goGitObject.Commit) error {
			reachable[commit.Hash] = struct{}{}
			return nil
		})
		if err != nil {
			return false, nil, fmt.Errorf("failed to walk %s history: %w", base.Branch, err)
		}
	}

	newCommits = []CommitInfo{}
	err = walkCommits(repo, goGitPlumbing.NewHash(headHash), func(commit *goGitObject.Commit) error {
		if _, ok := reachable[commit.Hash]; ok {
			return nil
		}
		newCommits = append(newCommits, CommitInfo{
			Hash:      commit.Hash.String(),
			Message:   commit.Message,
			Author:    commit.Author.Name,
			Email:     commit.Author.Email,
			Timestamp: commit.Author.When,
		})
		return nil
	})
	if err != nil {
		return false, nil, fmt.Errorf("failed to walk %s history: %w", head.Branch, err)
	}

	return len(newCommits) > 0, newCommits, nil
}

// fetchBranch fetches ref.Branch into refs/remotes/<name>/<branch> of repo.
func fetchBranch(ctx context.Context, repo *goGit.Repository, name string, ref BranchRef) error {
	refSpec := goGitConfig.RefSpec(fmt.Sprintf("+%s:refs/remotes/%s/%s",
		goGitPlumbing.NewBranchReferenceName(ref.Branch), name, ref.Branch))

	if _, err := repo.CreateRemote(&goGitConfig.RemoteConfig{
		Name:  name,
		URLs:  []string{ref.URL},
		Fetch: []goGitConfig.RefSpec{refSpec},
	}); err != nil {
		return fmt.Errorf("failed to create remote %q: %w", name, err)
	}

	fetchOptions := &goGit.FetchOptions{
		RemoteName: name,
		RefSpecs:   []goGitConfig.RefSpec{refSpec},
		Tags:       goGit.NoTags,
	}
	if ref.Auth != nil {
		authMethod, err := getAuthMethod(ref.URL, ref.Auth)
		if err != nil {
			return fmt.Errorf("failed to setup authentication: %w", err)
		}
		fetchOptions.Auth = authMethod
		fetchOptions.CABundle = ref.Auth.CABundle
	}

	err := repo.FetchContext(ctx, fetchOptions)
	if err != nil && !errors.Is(err, goGit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch %s from %s: %w", ref.Branch, redactURL(ref.URL), err)
	}
	return nil
}

// walkCommits calls fn for every commit reachable from from.
func walkCommits(repo *goGit.Repository, from goGitPlumbing.Hash, fn func(*goGitObject.Commit) error) error {
	commitIter, err := repo.Log(&goGit.LogOptions{From: from})
	if err != nil {
		return err
	}
	defer commitIter.Close()

	return commitIter.ForEach(fn)
}
