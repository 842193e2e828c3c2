package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// StaticSiteSpec is the desired state of a static site: where its source lives, which revision to build, and which
// registry the built image is pushed to.
type StaticSiteSpec struct {
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	// URL of the Git repository holding the site sources
	Git string `json:"git"`

	// +optional
	// Branch to build; ignored when useSemver is true. When neither is set, the remote HEAD is built.
	Branch string `json:"branch,omitempty"`

	// +optional
	// Build the highest semantic-version tag of the repository
	UseSemver bool `json:"useSemver,omitempty"`

	// +optional
	// Credentials used to list references of the Git repository
	GitCredentials *Credentials `json:"gitCredentials,omitempty"`

	// +optional
	// Reserved; not acted upon by the controller
	Namespace string `json:"namespace,omitempty"`

	// +optional
	// Reserved; not acted upon by the controller
	MultiSite bool `json:"multiSite,omitempty"`

	// +kubebuilder:validation:Required
	// Registry and repository the built image is pushed to
	OCIRepo OCIRepo `json:"ociRepo"`

	// +optional
	// Credentials used to push to the registry
	OCICredentials *Credentials `json:"ociCredentials,omitempty"`

	// +optional
	// Ingress configuration; not acted upon by the controller
	Ingress *IngressConfig `json:"ingress,omitempty"`
}

// Credentials holds either inline credentials or a reference to a Secret holding them. Only one of the two is expected
// to be set; plaintext wins if both are.
type Credentials struct {
	// +optional
	Plaintext *PlainTextCredentials `json:"plaintext,omitempty"`

	// +optional
	FromSecret *FromSecret `json:"fromSecret,omitempty"`
}

// PlainTextCredentials is an inline username & password pair.
type PlainTextCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// FromSecret points at a Secret in the StaticSite's namespace, and the keys in it holding the username & password.
type FromSecret struct {
	// +kubebuilder:validation:MinLength=1
	SecretName string `json:"secretName"`

	// +kubebuilder:validation:MinLength=1
	UsernameEntry string `json:"usernameEntry"`

	// +kubebuilder:validation:MinLength=1
	PasswordEntry string `json:"passwordEntry"`
}

// OCIRepo describes the push destination. Provider and Custom are alternatives; with neither set the image is built
// but not pushed.
type OCIRepo struct {
	// +optional
	Provider *OCIRepoProvider `json:"provider,omitempty"`

	// +optional
	Custom *CustomOCIDestination `json:"custom,omitempty"`

	// +kubebuilder:validation:Required
	// Repository path within the registry, e.g. "org/site"
	Repo string `json:"repo"`
}

// CustomOCIDestination is a registry that is not one of the built-in providers.
type CustomOCIDestination struct {
	AuthURL string `json:"authUrl"`
	PushURL string `json:"pushUrl"`
}

// IngressConfig is accepted for forward compatibility only.
type IngressConfig struct {
	// +optional
	IngressClass string `json:"ingressClass,omitempty"`

	// +optional
	Annotations string `json:"annotations,omitempty"`
}

// StaticSiteStatus defines the observed state of StaticSite
type StaticSiteStatus struct {
	// Full reference of the last submitted build
	LastBuiltRef string `json:"lastBuiltRef,omitempty"`

	// Image tag of the last submitted build
	LastBuiltTag string `json:"lastBuiltTag,omitempty"`

	// Name of the Job running (or that ran) the last build
	LastBuildJob string `json:"lastBuildJob,omitempty"`

	// When the last build was submitted
	LastBuildTime *metav1.Time `json:"lastBuildTime,omitempty"`

	// Conditions represent the latest available observations of the resource
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type" protobuf:"bytes,1,rep,name=conditions"`
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:resource:path=sites,singular=site
//+kubebuilder:printcolumn:name="Git",type="string",JSONPath=".spec.git"
//+kubebuilder:printcolumn:name="Branch",type="string",JSONPath=".spec.branch"
//+kubebuilder:printcolumn:name="Ref",type="string",JSONPath=".status.lastBuiltRef"
//+kubebuilder:printcolumn:name="Tag",type="string",JSONPath=".status.lastBuiltTag"

// StaticSite is a git-hosted static site that is built into an image and pushed to a registry
//
//go:generate go run ../../scripts/objecter/objecter.go -type=StaticSite
type StaticSite struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   StaticSiteSpec   `json:"spec"`
	Status StaticSiteStatus `json:"status,omitempty"`
}

//+kubebuilder:object:root=true

// StaticSiteList contains a list of StaticSite
type StaticSiteList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []StaticSite `json:"items"`
}

func init() {
	SchemeBuilder.Register(&StaticSite{}, &StaticSiteList{})
}
