package gittest

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// GitRepository is a throwaway local repository driven through the git binary.
type GitRepository struct {
	URL *url.URL
	Dir string
}

// HasGit reports whether the git binary is available.
func HasGit() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// NewGitRepository initializes a repository with a "main" branch under the test's temp dir.
func NewGitRepository(t *testing.T) (*GitRepository, error) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "repo")
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create repository dir: %w", err)
	}

	gitRepositoryUrl, err := url.Parse("file://" + dir)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Git repository URL for '%s': %w", dir, err)
	}

	r := &GitRepository{
		URL: gitRepositoryUrl,
		Dir: dir,
	}
	if err := r.RunGit("init", "--initial-branch=main"); err != nil {
		return nil, fmt.Errorf("failed to initialize Git repository: %w", err)
	} else if err := r.RunGit("config", "user.name", "gazer"); err != nil {
		return nil, fmt.Errorf("failed to set Git user name: %w", err)
	} else if err := r.RunGit("config", "user.email", "gazer@realliance.net"); err != nil {
		return nil, fmt.Errorf("failed to set Git user email: %w", err)
	} else {
		return r, nil
	}
}

func (r *GitRepository) RunGit(args ...string) error {
	_, err := r.output(args...)
	return err
}

func (r *GitRepository) output(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to run git command '%s' in dir '%s': %w\n%s", strings.Join(cmd.Args, " "), r.Dir, err, string(out))
	} else {
		return strings.TrimSpace(string(out)), nil
	}
}

func (r *GitRepository) CommitFile(file, content string) error {
	path := filepath.Join(r.Dir, file)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file '%s': %w", path, err)
	} else if err := r.RunGit("add", file); err != nil {
		return fmt.Errorf("failed to add file '%s': %w", file, err)
	} else if err := r.RunGit("commit", "-m", "Adding "+file); err != nil {
		return fmt.Errorf("failed to commit file '%s': %w", file, err)
	} else {
		return nil
	}
}

// Branch creates a branch at the current commit without checking it out.
func (r *GitRepository) Branch(name string) error {
	return r.RunGit("branch", name)
}

// Tag creates a lightweight tag at the current commit.
func (r *GitRepository) Tag(name string) error {
	return r.RunGit("tag", name)
}

// RevParse returns the commit hash the given revision points to.
func (r *GitRepository) RevParse(rev string) (string, error) {
	return r.output("rev-parse", rev)
}
