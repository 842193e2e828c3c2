package vcs

import (
	"sort"
	"strings"

	"github.com/blang/semver"

	gazerv1 "github.com/realliance/gazer/internal/v1"
)

// Policy decides which reference of a repository is built.
type Policy struct {
	Semver bool   // Build the highest semantic-version tag; takes precedence over Branch
	Branch string // Build this branch; when empty (and Semver is false) the remote HEAD is built
}

// PolicyFor returns the selection policy declared by a site.
func PolicyFor(spec gazerv1.StaticSiteSpec) Policy {
	return Policy{Semver: spec.UseSemver, Branch: spec.Branch}
}

// Target is the reference chosen for a build.
type Target struct {
	FullRef string // Reference handed to the build executor
	Tag     string // Image tag derived from the reference
}

// SelectTarget picks the reference to build according to the policy, returning false if none qualifies.
func SelectTarget(policy Policy, refs []GitRef) (Target, bool) {
	switch {
	case policy.Semver:
		return highestSemverTag(refs)
	case policy.Branch != "":
		for _, ref := range refs {
			if ref.Kind == Branch && ref.ShortName == policy.Branch {
				return Target{FullRef: ref.FullRef, Tag: ref.ShortName}, true
			}
		}
		return Target{}, false
	default:
		for _, ref := range refs {
			if ref.Kind == Head {
				return Target{FullRef: ref.FullRef, Tag: ref.RevisionID}, true
			}
		}
		return Target{}, false
	}
}

type versionedTag struct {
	version semver.Version
	ref     GitRef
}

// highestSemverTag accepts tags like "v1.2.3" although the leading "v" is not semver; tags that fail to parse are
// ignored. Tags normalizing to the same version are ordered by name, so "1.0.0" wins over "v1.0.0".
func highestSemverTag(refs []GitRef) (Target, bool) {
	var tags []versionedTag
	for _, ref := range refs {
		if ref.Kind != Tag {
			continue
		}
		v, err := semver.Parse(strings.TrimPrefix(ref.ShortName, "v"))
		if err != nil {
			continue
		}
		tags = append(tags, versionedTag{version: v, ref: ref})
	}
	if len(tags) == 0 {
		return Target{}, false
	}

	sort.SliceStable(tags, func(i, j int) bool {
		if c := tags[i].version.Compare(tags[j].version); c != 0 {
			return c > 0
		}
		return tags[i].ref.ShortName < tags[j].ref.ShortName
	})
	return Target{FullRef: tags[0].ref.FullRef, Tag: tags[0].ref.ShortName}, true
}
