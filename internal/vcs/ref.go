package vcs

import (
	"strings"

	"github.com/realliance/gazer/internal/errdefs"
)

// Kind is the category of a git reference, derived from its path prefix.
type Kind int

const (
	Branch Kind = iota
	Tag
	PullRequest
	Head
)

const (
	branchPrefix      = "refs/heads/"
	pullRequestPrefix = "refs/pull/"
	tagPrefix         = "refs/tags/"
	headRef           = "HEAD"
)

func (k Kind) String() string {
	switch k {
	case Branch:
		return "Branch"
	case Tag:
		return "Tag"
	case PullRequest:
		return "PullRequest"
	case Head:
		return "Head"
	default:
		return "Unknown"
	}
}

// GitRef is a single reference advertised by a remote repository.
type GitRef struct {
	Kind       Kind
	FullRef    string // e.g. "refs/heads/main"
	RevisionID string // Commit (or tag object) hash the reference points to
	ShortName  string // e.g. "main"
}

// Classify returns the kind of the given full reference path.
func Classify(fullRef string) (Kind, error) {
	switch {
	case strings.HasPrefix(fullRef, branchPrefix):
		return Branch, nil
	case strings.HasPrefix(fullRef, pullRequestPrefix):
		return PullRequest, nil
	case strings.HasPrefix(fullRef, tagPrefix):
		return Tag, nil
	case fullRef == headRef:
		return Head, nil
	default:
		return 0, errdefs.NewReconcileError(errdefs.UnknownRefKind, nil, "unrecognized reference '%s'", fullRef)
	}
}

// ShortName strips the first two path segments of a reference ("refs/heads/feature/x" is "feature/x"). References
// without a "/" are returned as is, and a reference with a single "/" yields its last segment.
func ShortName(fullRef string) string {
	parts := strings.SplitN(fullRef, "/", 3)
	return parts[len(parts)-1]
}

// NewGitRef classifies the reference and derives its short name.
func NewGitRef(fullRef, revisionID string) (GitRef, error) {
	kind, err := Classify(fullRef)
	if err != nil {
		return GitRef{}, err
	}
	return GitRef{Kind: kind, FullRef: fullRef, RevisionID: revisionID, ShortName: ShortName(fullRef)}, nil
}
