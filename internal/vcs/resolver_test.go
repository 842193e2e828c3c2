package vcs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/realliance/gazer/internal/credentials"
	"github.com/realliance/gazer/internal/errdefs"
)

const (
	mainHash    = "1111111111111111111111111111111111111111"
	featureHash = "2222222222222222222222222222222222222222"
	tagHash     = "3333333333333333333333333333333333333333"
	prHash      = "4444444444444444444444444444444444444444"
)

func TestResolveRefs(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := NewMockLister(ctrl)
	auth := &credentials.Basic{Username: "u", Password: "p"}
	lister.EXPECT().
		List(gomock.Any(), "https://git.example.com/site.git", auth).
		Return([]*plumbing.Reference{
			plumbing.NewSymbolicReference(plumbing.HEAD, "refs/heads/main"),
			plumbing.NewHashReference("refs/heads/main", plumbing.NewHash(mainHash)),
			plumbing.NewHashReference("refs/heads/feature/x", plumbing.NewHash(featureHash)),
			plumbing.NewHashReference("refs/tags/v1.0.0", plumbing.NewHash(tagHash)),
			plumbing.NewHashReference("refs/pull/42/head", plumbing.NewHash(prHash)),
			plumbing.NewHashReference("refs/notes/commits", plumbing.NewHash(prHash)),
		}, nil)

	r := &Resolver{Lister: lister, Timeout: time.Second}
	resolved, err := r.ResolveRefs(context.Background(), "https://git.example.com/site.git", auth)
	require.NoError(t, err)
	assert.Equal(t, []GitRef{
		{Kind: Head, FullRef: "HEAD", RevisionID: mainHash, ShortName: "HEAD"},
		{Kind: Branch, FullRef: "refs/heads/main", RevisionID: mainHash, ShortName: "main"},
		{Kind: Branch, FullRef: "refs/heads/feature/x", RevisionID: featureHash, ShortName: "feature/x"},
		{Kind: Tag, FullRef: "refs/tags/v1.0.0", RevisionID: tagHash, ShortName: "v1.0.0"},
	}, resolved)

	target, ok := SelectTarget(Policy{}, resolved)
	assert.True(t, ok)
	assert.Equal(t, mainHash, target.Tag)
}

func TestResolveRefsSkipsDanglingHead(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := NewMockLister(ctrl)
	lister.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Nil()).Return([]*plumbing.Reference{
		plumbing.NewSymbolicReference(plumbing.HEAD, "refs/heads/gone"),
		plumbing.NewHashReference("refs/heads/main", plumbing.NewHash(mainHash)),
	}, nil)

	resolved, err := (&Resolver{Lister: lister}).ResolveRefs(context.Background(), "https://git.example.com/site.git", nil)
	require.NoError(t, err)
	assert.Len(t, resolved, 1)
	assert.Equal(t, "refs/heads/main", resolved[0].FullRef)
}

func TestResolveRefsBoundsListing(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := NewMockLister(ctrl)
	lister.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ *credentials.Basic) ([]*plumbing.Reference, error) {
			deadline, ok := ctx.Deadline()
			assert.True(t, ok, "expected listing context to carry a deadline")
			assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
			return nil, nil
		})

	resolved, err := (&Resolver{Lister: lister, Timeout: 5 * time.Second}).ResolveRefs(context.Background(), "https://x", nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolveRefsPropagatesListingErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := NewMockLister(ctrl)
	notFound := errdefs.NewReconcileError(errdefs.RemoteNotFound, errors.New("404"), "gone")
	lister.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, notFound)

	_, err := (&Resolver{Lister: lister}).ResolveRefs(context.Background(), "https://x", nil)
	assert.True(t, errdefs.IsReason(err, errdefs.RemoteNotFound))
}
