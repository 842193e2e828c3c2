package vcs

//go:generate go run go.uber.org/mock/mockgen -source=lister.go -destination=mock_lister.go -package=vcs

import (
	"context"
	"errors"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/realliance/gazer/internal/credentials"
	"github.com/realliance/gazer/internal/errdefs"
)

// Lister lists the references advertised by a remote repository.
type Lister interface {
	List(ctx context.Context, url string, auth *credentials.Basic) ([]*plumbing.Reference, error)
}

// GitLister lists references using the git reference advertisement only; no objects are fetched.
type GitLister struct{}

func (GitLister) List(ctx context.Context, url string, auth *credentials.Basic) ([]*plumbing.Reference, error) {
	if _, err := transport.NewEndpoint(url); err != nil {
		return nil, errdefs.NewReconcileError(errdefs.RepositoryInit, err, "invalid repository URL '%s'", url)
	}

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{Name: git.DefaultRemoteName, URLs: []string{url}})
	opts := &git.ListOptions{PeelingOption: git.IgnorePeeled}
	if auth != nil {
		if !isHTTP(url) {
			return nil, errdefs.NewReconcileError(errdefs.InvalidCredentials, nil, "username & password credentials require an http(s) URL, got '%s'", url)
		}
		opts.Auth = &http.BasicAuth{Username: auth.Username, Password: auth.Password}
	}

	refs, err := remote.ListContext(ctx, opts)
	switch {
	case err == nil:
		return refs, nil
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		return nil, nil
	case errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil:
		return nil, errdefs.NewReconcileError(errdefs.RemoteTimeout, err, "listing references of '%s' timed out", url)
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return nil, errdefs.NewReconcileError(errdefs.RemoteNotFound, err, "repository '%s' not found", url)
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed):
		return nil, errdefs.NewReconcileError(errdefs.InvalidCredentials, err, "access to '%s' denied", url)
	default:
		return nil, errdefs.NewReconcileError(errdefs.RepositoryInit, err, "failed to list references of '%s'", url)
	}
}

func isHTTP(url string) bool {
	return strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://")
}
