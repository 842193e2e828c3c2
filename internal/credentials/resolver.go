package credentials

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/realliance/gazer/internal/errdefs"
	gazerv1 "github.com/realliance/gazer/internal/v1"
)

// Basic is a resolved username & password pair.
type Basic struct {
	Username string
	Password string
}

// Resolver turns a Credentials union into a usable username & password pair.
type Resolver struct {
	client client.Reader
	log    logr.Logger
}

// NewResolver creates a resolver reading Secrets through c; c may be nil, in which case secret-backed credentials cannot
// be resolved.
func NewResolver(c client.Reader, log logr.Logger) *Resolver {
	return &Resolver{client: c, log: log}
}

// Resolve returns nil (and no error) when creds is nil. A union with neither variant set is an InvalidCredentials error.
// Secrets are looked up in the given namespace.
func (r *Resolver) Resolve(ctx context.Context, namespace string, creds *gazerv1.Credentials) (*Basic, error) {
	switch {
	case creds == nil:
		return nil, nil
	case creds.Plaintext != nil:
		return &Basic{Username: creds.Plaintext.Username, Password: creds.Plaintext.Password}, nil
	case creds.FromSecret != nil:
		return r.fromSecret(ctx, namespace, creds.FromSecret)
	default:
		return nil, errdefs.NewReconcileError(errdefs.InvalidCredentials, nil, "credentials set neither plaintext nor fromSecret")
	}
}

func (r *Resolver) fromSecret(ctx context.Context, namespace string, ref *gazerv1.FromSecret) (*Basic, error) {
	if r == nil || r.client == nil {
		return nil, errdefs.NewReconcileError(errdefs.InvalidCredentials, nil, "credentials from secret '%s' are not supported without a cluster client", ref.SecretName)
	}

	secret := &corev1.Secret{}
	key := types.NamespacedName{Namespace: namespace, Name: ref.SecretName}
	if err := r.client.Get(ctx, key, secret); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, errdefs.NewReconcileError(errdefs.InvalidCredentials, err, "secret '%s' not found", key)
		}
		return nil, errdefs.NewClusterAPIError("get", fmt.Sprintf("Secret %s", key), err)
	}

	username, ok := secret.Data[ref.UsernameEntry]
	if !ok {
		return nil, errdefs.NewReconcileError(errdefs.InvalidCredentials, nil, "secret '%s' has no key '%s'", key, ref.UsernameEntry)
	}
	password, ok := secret.Data[ref.PasswordEntry]
	if !ok {
		return nil, errdefs.NewReconcileError(errdefs.InvalidCredentials, nil, "secret '%s' has no key '%s'", key, ref.PasswordEntry)
	}

	r.log.V(1).Info("Resolved credentials from secret", "secret", key.String())
	return &Basic{Username: string(username), Password: string(password)}, nil
}
