package v1

// OCIRepoProvider is a well-known registry.
// +kubebuilder:validation:Enum=docker;quay
type OCIRepoProvider string

const (
	OCIRepoProviderDocker OCIRepoProvider = "docker"
	OCIRepoProviderQuay   OCIRepoProvider = "quay"
)

// AuthURL is the key under which registry credentials for this provider are stored in a Docker config.
func (p OCIRepoProvider) AuthURL() string {
	switch p {
	case OCIRepoProviderDocker:
		return "https://index.docker.io/v1/"
	case OCIRepoProviderQuay:
		return "quay.io"
	default:
		return ""
	}
}

// PushURL is the registry host images are pushed to.
func (p OCIRepoProvider) PushURL() string {
	switch p {
	case OCIRepoProviderDocker:
		return "docker.io"
	case OCIRepoProviderQuay:
		return "quay.io"
	default:
		return ""
	}
}

// AuthURL returns the registry authentication endpoint, from the provider if set, otherwise from the custom
// destination. The boolean is false when neither is configured.
func (in *OCIRepo) AuthURL() (string, bool) {
	if in.Provider != nil {
		if u := in.Provider.AuthURL(); u != "" {
			return u, true
		}
	} else if in.Custom != nil {
		return in.Custom.AuthURL, in.Custom.AuthURL != ""
	}
	return "", false
}

// PushURL returns the registry host to push to, with the same precedence as AuthURL.
func (in *OCIRepo) PushURL() (string, bool) {
	if in.Provider != nil {
		if u := in.Provider.PushURL(); u != "" {
			return u, true
		}
	} else if in.Custom != nil {
		return in.Custom.PushURL, in.Custom.PushURL != ""
	}
	return "", false
}
