package credentials

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/realliance/gazer/internal/errdefs"
	gazerv1 "github.com/realliance/gazer/internal/v1"
)

func newResolver(t *testing.T, objects ...runtime.Object) *Resolver {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))
	c := fake.NewClientBuilder().WithScheme(scheme).WithRuntimeObjects(objects...).Build()
	return NewResolver(c, logr.Discard())
}

func TestResolveNil(t *testing.T) {
	r := newResolver(t)
	creds, err := r.Resolve(context.Background(), "default", nil)
	assert.NoError(t, err)
	assert.Nil(t, creds)

}

func TestResolveEmptyUnionIsInvalid(t *testing.T) {
	r := newResolver(t)
	creds, err := r.Resolve(context.Background(), "default", &gazerv1.Credentials{})
	assert.True(t, errdefs.IsReason(err, errdefs.InvalidCredentials), "got: %v", err)
	assert.Nil(t, creds)
}

func TestResolvePlaintextWins(t *testing.T) {
	r := newResolver(t)
	creds, err := r.Resolve(context.Background(), "default", &gazerv1.Credentials{
		Plaintext:  &gazerv1.PlainTextCredentials{Username: "u", Password: "p"},
		FromSecret: &gazerv1.FromSecret{SecretName: "absent", UsernameEntry: "a", PasswordEntry: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, &Basic{Username: "u", Password: "p"}, creds)
}

func TestResolveFromSecret(t *testing.T) {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "git-creds", Namespace: "sites"},
		Data:       map[string][]byte{"user": []byte("bot"), "token": []byte("s3cr3t")},
	}
	r := newResolver(t, secret)
	ref := &gazerv1.FromSecret{SecretName: "git-creds", UsernameEntry: "user", PasswordEntry: "token"}

	creds, err := r.Resolve(context.Background(), "sites", &gazerv1.Credentials{FromSecret: ref})
	require.NoError(t, err)
	assert.Equal(t, &Basic{Username: "bot", Password: "s3cr3t"}, creds)

	_, err = r.Resolve(context.Background(), "other", &gazerv1.Credentials{FromSecret: ref})
	assert.True(t, errdefs.IsReason(err, errdefs.InvalidCredentials), "missing secret: %v", err)

	missingKey := &gazerv1.FromSecret{SecretName: "git-creds", UsernameEntry: "user", PasswordEntry: "password"}
	_, err = r.Resolve(context.Background(), "sites", &gazerv1.Credentials{FromSecret: missingKey})
	assert.True(t, errdefs.IsReason(err, errdefs.InvalidCredentials), "missing key: %v", err)
	assert.ErrorContains(t, err, "has no key 'password'")
}

func TestResolveFromSecretWithoutClient(t *testing.T) {
	r := NewResolver(nil, logr.Discard())
	_, err := r.Resolve(context.Background(), "sites", &gazerv1.Credentials{
		FromSecret: &gazerv1.FromSecret{SecretName: "s", UsernameEntry: "u", PasswordEntry: "p"},
	})
	assert.True(t, errdefs.IsReason(err, errdefs.InvalidCredentials))
}
