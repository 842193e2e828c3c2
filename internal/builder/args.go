package builder

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/realliance/gazer/internal/credentials"
	"github.com/realliance/gazer/internal/errdefs"
	gazerv1 "github.com/realliance/gazer/internal/v1"
)

const (
	noPushArg     = "--no-push"
	maxTagLength  = 128
	gitContextURL = "git://"
)

var invalidTagChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// NormalizeGitURL strips a leading "https://" or "http://" from the repository URL.
func NormalizeGitURL(url string) string {
	if trimmed, ok := strings.CutPrefix(url, "https://"); ok {
		return trimmed
	}
	return strings.TrimPrefix(url, "http://")
}

// ContextArg is the build executor argument pointing at the given reference of the repository.
func ContextArg(gitURL, fullRef string) string {
	return "--context=" + gitContextURL + NormalizeGitURL(gitURL) + "#" + fullRef
}

// SanitizeTag makes a branch name or revision usable as an image tag.
func SanitizeTag(tag string) string {
	tag = invalidTagChars.ReplaceAllString(tag, "-")
	if len(tag) > maxTagLength {
		tag = tag[:maxTagLength]
	}
	return tag
}

// DestinationArg is either "--destination=<push>/<repo>:<tag>", or "--no-push" when the repository has neither a
// provider nor a custom destination.
func DestinationArg(repo gazerv1.OCIRepo, tag string) (string, error) {
	pushURL, ok := repo.PushURL()
	if !ok {
		return noPushArg, nil
	}

	destination := fmt.Sprintf("%s/%s:%s", pushURL, repo.Repo, SanitizeTag(tag))
	if _, err := name.NewTag(destination, name.StrictValidation); err != nil {
		return "", errdefs.NewReconcileError(errdefs.InvalidDestination, err, "invalid push destination '%s'", destination)
	}
	return "--destination=" + destination, nil
}

type dockerConfig struct {
	Auths map[string]dockerAuth `json:"auths,omitempty"`
}

type dockerAuth struct {
	Auth string `json:"auth"`
}

// DockerConfigJSON renders registry credentials in the docker config.json format. Without credentials, or without an
// auth endpoint to key them by, the result is an empty object.
func DockerConfigJSON(repo gazerv1.OCIRepo, creds *credentials.Basic) ([]byte, error) {
	cfg := dockerConfig{}
	if authURL, ok := repo.AuthURL(); ok && creds != nil {
		cfg.Auths = map[string]dockerAuth{
			authURL: {Auth: base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password))},
		}
	}
	return json.Marshal(cfg)
}
