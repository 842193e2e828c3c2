package crd

import (
	"fmt"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"

	gazerv1 "github.com/realliance/gazer/internal/v1"
)

const (
	kind     = "StaticSite"
	listKind = "StaticSiteList"
	plural   = "sites"
	singular = "site"
)

// Name is the name of the StaticSite CustomResourceDefinition.
var Name = plural + "." + gazerv1.GroupVersion.Group

func str(description string) apiextensionsv1.JSONSchemaProps {
	return apiextensionsv1.JSONSchemaProps{Type: "string", Description: description}
}

func boolean(description string) apiextensionsv1.JSONSchemaProps {
	return apiextensionsv1.JSONSchemaProps{Type: "boolean", Description: description}
}

func credentialsSchema(description string) apiextensionsv1.JSONSchemaProps {
	return apiextensionsv1.JSONSchemaProps{
		Type:        "object",
		Description: description,
		Properties: map[string]apiextensionsv1.JSONSchemaProps{
			"plaintext": {
				Type:     "object",
				Required: []string{"username", "password"},
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"username": str(""),
					"password": str(""),
				},
			},
			"fromSecret": {
				Type:     "object",
				Required: []string{"secretName", "usernameEntry", "passwordEntry"},
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"secretName":    {Type: "string", MinLength: ptr.To[int64](1), Description: "Secret in the site's namespace"},
					"usernameEntry": {Type: "string", MinLength: ptr.To[int64](1), Description: "Key of the username"},
					"passwordEntry": {Type: "string", MinLength: ptr.To[int64](1), Description: "Key of the password"},
				},
			},
		},
	}
}

func specSchema() apiextensionsv1.JSONSchemaProps {
	return apiextensionsv1.JSONSchemaProps{
		Type:     "object",
		Required: []string{"git", "ociRepo"},
		Properties: map[string]apiextensionsv1.JSONSchemaProps{
			"git":            {Type: "string", MinLength: ptr.To[int64](1), Description: "URL of the Git repository holding the site sources"},
			"branch":         str("Branch to build; ignored when useSemver is true"),
			"useSemver":      boolean("Build the highest semantic-version tag of the repository"),
			"gitCredentials": credentialsSchema("Credentials used to list references of the Git repository"),
			"namespace":      str("Reserved"),
			"multiSite":      boolean("Reserved"),
			"ociRepo": {
				Type:        "object",
				Description: "Registry and repository the built image is pushed to",
				Required:    []string{"repo"},
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"provider": {
						Type: "string",
						Enum: []apiextensionsv1.JSON{
							{Raw: []byte(`"` + gazerv1.OCIRepoProviderDocker + `"`)},
							{Raw: []byte(`"` + gazerv1.OCIRepoProviderQuay + `"`)},
						},
					},
					"custom": {
						Type:     "object",
						Required: []string{"authUrl", "pushUrl"},
						Properties: map[string]apiextensionsv1.JSONSchemaProps{
							"authUrl": str("Key of the registry credentials in the Docker config"),
							"pushUrl": str("Registry host images are pushed to"),
						},
					},
					"repo": str("Repository path within the registry"),
				},
			},
			"ociCredentials": credentialsSchema("Credentials used to push to the registry"),
			"ingress": {
				Type:        "object",
				Description: "Not acted upon by the controller",
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"ingressClass": str(""),
					"annotations":  str(""),
				},
			},
		},
	}
}

func statusSchema() apiextensionsv1.JSONSchemaProps {
	return apiextensionsv1.JSONSchemaProps{
		Type: "object",
		Properties: map[string]apiextensionsv1.JSONSchemaProps{
			"lastBuiltRef":  str("Full reference of the last submitted build"),
			"lastBuiltTag":  str("Image tag of the last submitted build"),
			"lastBuildJob":  str("Name of the Job of the last build"),
			"lastBuildTime": {Type: "string", Format: "date-time"},
			"conditions": {
				Type:         "array",
				XListType:    ptr.To("map"),
				XListMapKeys: []string{"type"},
				Items: &apiextensionsv1.JSONSchemaPropsOrArray{Schema: &apiextensionsv1.JSONSchemaProps{
					Type:     "object",
					Required: []string{"type", "status", "lastTransitionTime", "reason", "message"},
					Properties: map[string]apiextensionsv1.JSONSchemaProps{
						"type":               str(""),
						"status":             {Type: "string", Enum: []apiextensionsv1.JSON{{Raw: []byte(`"True"`)}, {Raw: []byte(`"False"`)}, {Raw: []byte(`"Unknown"`)}}},
						"observedGeneration": {Type: "integer", Format: "int64", Minimum: ptr.To[float64](0)},
						"lastTransitionTime": {Type: "string", Format: "date-time"},
						"reason":             str(""),
						"message":            str(""),
					},
				}},
			},
		},
	}
}

// StaticSite returns the CustomResourceDefinition of the StaticSite resource.
func StaticSite() *apiextensionsv1.CustomResourceDefinition {
	return &apiextensionsv1.CustomResourceDefinition{
		TypeMeta: metav1.TypeMeta{
			APIVersion: apiextensionsv1.SchemeGroupVersion.String(),
			Kind:       "CustomResourceDefinition",
		},
		ObjectMeta: metav1.ObjectMeta{Name: Name},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: gazerv1.GroupVersion.Group,
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Kind:     kind,
				ListKind: listKind,
				Plural:   plural,
				Singular: singular,
			},
			Scope: apiextensionsv1.NamespaceScoped,
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{{
				Name:    gazerv1.GroupVersion.Version,
				Served:  true,
				Storage: true,
				Schema: &apiextensionsv1.CustomResourceValidation{
					OpenAPIV3Schema: &apiextensionsv1.JSONSchemaProps{
						Type:        "object",
						Description: "StaticSite is a git-hosted static site that is built into an image and pushed to a registry",
						Required:    []string{"spec"},
						Properties: map[string]apiextensionsv1.JSONSchemaProps{
							"apiVersion": {Type: "string"},
							"kind":       {Type: "string"},
							"metadata":   {Type: "object"},
							"spec":       specSchema(),
							"status":     statusSchema(),
						},
					},
				},
				Subresources: &apiextensionsv1.CustomResourceSubresources{
					Status: &apiextensionsv1.CustomResourceSubresourceStatus{},
				},
				AdditionalPrinterColumns: []apiextensionsv1.CustomResourceColumnDefinition{
					{Name: "Git", Type: "string", JSONPath: ".spec.git"},
					{Name: "Branch", Type: "string", JSONPath: ".spec.branch"},
					{Name: "Ref", Type: "string", JSONPath: ".status.lastBuiltRef"},
					{Name: "Tag", Type: "string", JSONPath: ".status.lastBuiltTag"},
				},
			}},
		},
	}
}

// YAML renders the StaticSite CustomResourceDefinition as a YAML document.
func YAML() ([]byte, error) {
	b, err := yaml.Marshal(StaticSite())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal CRD: %w", err)
	}
	return b, nil
}
