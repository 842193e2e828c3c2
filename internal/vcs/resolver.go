package vcs

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/realliance/gazer/internal/credentials"
)

// Resolver lists and classifies the references of remote repositories.
type Resolver struct {
	Lister  Lister        // Source of advertised references
	Timeout time.Duration // Bound on a single listing; zero means no bound
}

// ResolveRefs returns every advertised reference except pull-request references. A symbolic HEAD is resolved to the
// revision of its target. References that cannot be classified are logged and skipped.
func (r *Resolver) ResolveRefs(ctx context.Context, url string, auth *credentials.Basic) ([]GitRef, error) {
	logger := log.FromContext(ctx).WithValues("url", url)

	listCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		listCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	advertised, err := r.Lister.List(listCtx, url, auth)
	if err != nil {
		return nil, err
	}

	hashes := make(map[plumbing.ReferenceName]plumbing.Hash, len(advertised))
	for _, ref := range advertised {
		if ref.Type() == plumbing.HashReference {
			hashes[ref.Name()] = ref.Hash()
		}
	}

	refs := make([]GitRef, 0, len(advertised))
	for _, ref := range advertised {
		hash := ref.Hash()
		if ref.Type() == plumbing.SymbolicReference {
			target, ok := hashes[ref.Target()]
			if !ok {
				logger.Info("Skipping symbolic reference with unknown target", "ref", ref.Name().String(), "target", ref.Target().String())
				continue
			}
			hash = target
		}

		gitRef, err := NewGitRef(ref.Name().String(), hash.String())
		if err != nil {
			logger.Error(err, "Skipping unclassifiable reference", "ref", ref.Name().String())
			continue
		}
		if gitRef.Kind == PullRequest {
			continue
		}
		refs = append(refs, gitRef)
	}
	return refs, nil
}
