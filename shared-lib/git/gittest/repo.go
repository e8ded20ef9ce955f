// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	goGit "github.com/go-git/go-git/v5"
	goGitConfig "github.com/go-git/go-git/v5/config"
	goGitPlumbing "github.com/go-git/go-git/v5/plumbing"
	goGitObject "github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

var testAuthor = goGitObject.Signature{
	Name:  "example",
	Email: "example@example.com",
}

// Remote creates a bare repository whose branch holds a single commit with
// the given files. It returns the repository path, usable as a clone URL.
func Remote(t *testing.T, branch string, files map[string]string) string {
	t.Helper()
	bare := EmptyRemote(t)
	Seed(t, bare, branch, files)
	return bare
}

// EmptyRemote creates a bare repository with no commits.
func EmptyRemote(t *testing.T) string {
	t.Helper()
	bare := filepath.Join(t.TempDir(), "remote.git")
	_, err := goGit.PlainInit(bare, true)
	require.NoError(t, err)
	return bare
}

// Seed pushes a fresh root commit holding files to branch of the bare
// repository. The commit shares no history with anything already there, so
// it force-replaces the branch.
func Seed(t *testing.T, bare, branch string, files map[string]string) {
	t.Helper()
	if len(files) == 0 {
		files = map[string]string{"README.md": "seed\n"}
	}

	work := filepath.Join(t.TempDir(), "work")
	repo, err := goGit.PlainInit(work, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(work, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(files[name]), 0o644))
		_, err := worktree.Add(name)
		require.NoError(t, err)
	}

	author := testAuthor
	author.When = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = worktree.Commit("Initial revision", &goGit.CommitOptions{Author: &author})
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)

	_, err = repo.CreateRemote(&goGitConfig.RemoteConfig{Name: "origin", URLs: []string{bare}})
	require.NoError(t, err)
	refSpec := goGitConfig.RefSpec("+" + head.Name().String() + ":" + goGitPlumbing.NewBranchReferenceName(branch).String())
	require.NoError(t, repo.Push(&goGit.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []goGitConfig.RefSpec{refSpec},
	}))
}

// HeadCommit returns the commit branch points at in the repository at path.
func HeadCommit(t *testing.T, path, branch string) *goGitObject.Commit {
	t.Helper()
	repo, err := goGit.PlainOpen(path)
	require.NoError(t, err)
	ref, err := repo.Reference(goGitPlumbing.NewBranchReferenceName(branch), true)
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	return commit
}

// FileAt returns the content of name in the head commit of branch.
func FileAt(t *testing.T, path, branch, name string) []byte {
	t.Helper()
	file, err := HeadCommit(t, path, branch).File(name)
	require.NoError(t, err)
	content, err := file.Contents()
	require.NoError(t, err)
	return []byte(content)
}

// ChangedFiles lists the files the head commit of branch changed relative to
// its first parent.
func ChangedFiles(t *testing.T, path, branch string) []string {
	t.Helper()
	stats, err := HeadCommit(t, path, branch).Stats()
	require.NoError(t, err)
	var names []string
	for _, stat := range stats {
		names = append(names, stat.Name)
	}
	sort.Strings(names)
	return names
}
