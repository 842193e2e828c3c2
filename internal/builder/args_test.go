package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realliance/gazer/internal/credentials"
	"github.com/realliance/gazer/internal/errdefs"
	gazerv1 "github.com/realliance/gazer/internal/v1"
)

func provider(p gazerv1.OCIRepoProvider) *gazerv1.OCIRepoProvider { return &p }

func TestNormalizeGitURL(t *testing.T) {
	assert.Equal(t, "github.com/realliance/site.git", NormalizeGitURL("https://github.com/realliance/site.git"))
	assert.Equal(t, "github.com/realliance/site.git", NormalizeGitURL("http://github.com/realliance/site.git"))
	assert.Equal(t, "github.com/realliance/site.git", NormalizeGitURL("github.com/realliance/site.git"))
	assert.Equal(t, "git.local/https://x", NormalizeGitURL("git.local/https://x"))
}

func TestContextArg(t *testing.T) {
	assert.Equal(t,
		"--context=git://github.com/realliance/site.git#refs/heads/main",
		ContextArg("https://github.com/realliance/site.git", "refs/heads/main"))
}

func TestSanitizeTag(t *testing.T) {
	assert.Equal(t, "feature-x", SanitizeTag("feature/x"))
	assert.Equal(t, "v1.0.0-rc.1", SanitizeTag("v1.0.0-rc.1"))
	assert.Len(t, SanitizeTag(strings.Repeat("a", 200)), 128)
}

func TestDestinationArg(t *testing.T) {
	arg, err := DestinationArg(gazerv1.OCIRepo{Provider: provider(gazerv1.OCIRepoProviderDocker), Repo: "realliance/site"}, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "--destination=docker.io/realliance/site:v1.0.0", arg)

	arg, err = DestinationArg(gazerv1.OCIRepo{Provider: provider(gazerv1.OCIRepoProviderQuay), Repo: "realliance/site"}, "feature/x")
	require.NoError(t, err)
	assert.Equal(t, "--destination=quay.io/realliance/site:feature-x", arg)

	custom := &gazerv1.CustomOCIDestination{AuthURL: "registry.local:5000", PushURL: "registry.local:5000"}
	arg, err = DestinationArg(gazerv1.OCIRepo{Custom: custom, Repo: "site"}, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "--destination=registry.local:5000/site:abc123", arg)
}

func TestDestinationArgWithoutRegistry(t *testing.T) {
	arg, err := DestinationArg(gazerv1.OCIRepo{Repo: "realliance/site"}, "main")
	require.NoError(t, err)
	assert.Equal(t, "--no-push", arg)

	arg, err = DestinationArg(gazerv1.OCIRepo{}, "")
	require.NoError(t, err)
	assert.Equal(t, "--no-push", arg)
}

func TestDestinationArgInvalid(t *testing.T) {
	_, err := DestinationArg(gazerv1.OCIRepo{Provider: provider(gazerv1.OCIRepoProviderDocker), Repo: "Not A Repo"}, "main")
	assert.True(t, errdefs.IsReason(err, errdefs.InvalidDestination), "got: %v", err)
}

func TestDockerConfigJSON(t *testing.T) {
	creds := &credentials.Basic{Username: "user", Password: "pass"}

	b, err := DockerConfigJSON(gazerv1.OCIRepo{Provider: provider(gazerv1.OCIRepoProviderDocker)}, creds)
	require.NoError(t, err)
	assert.JSONEq(t, `{"auths":{"https://index.docker.io/v1/":{"auth":"dXNlcjpwYXNz"}}}`, string(b))

	b, err = DockerConfigJSON(gazerv1.OCIRepo{Custom: &gazerv1.CustomOCIDestination{AuthURL: "registry.local", PushURL: "registry.local"}}, creds)
	require.NoError(t, err)
	assert.JSONEq(t, `{"auths":{"registry.local":{"auth":"dXNlcjpwYXNz"}}}`, string(b))

	b, err = DockerConfigJSON(gazerv1.OCIRepo{Provider: provider(gazerv1.OCIRepoProviderQuay)}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))

	b, err = DockerConfigJSON(gazerv1.OCIRepo{}, creds)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}
