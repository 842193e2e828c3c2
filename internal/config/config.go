package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

const (
	DefaultBuilderImage  = "gcr.io/kaniko-project/executor:latest"
	DefaultJobPrefix     = "gazer-build"
	DefaultShortInterval = 60 * time.Second
	DefaultLongInterval  = 360 * time.Second
	DefaultGitTimeout    = 30 * time.Second
)

// Config holds the controller's tunables.
type Config struct {
	BuilderImage  string          `json:"builderImage,omitempty"`  // Image running the build executor
	JobPrefix     string          `json:"jobPrefix,omitempty"`     // Prefix of build job names
	ShortInterval metav1.Duration `json:"shortInterval,omitempty"` // Requeue delay while a build is in flight
	LongInterval  metav1.Duration `json:"longInterval,omitempty"`  // Requeue delay after convergence or failure
	GitTimeout    metav1.Duration `json:"gitTimeout,omitempty"`    // Bound on a remote ref listing
}

func Default() Config {
	return Config{
		BuilderImage:  DefaultBuilderImage,
		JobPrefix:     DefaultJobPrefix,
		ShortInterval: metav1.Duration{Duration: DefaultShortInterval},
		LongInterval:  metav1.Duration{Duration: DefaultLongInterval},
		GitTimeout:    metav1.Duration{Duration: DefaultGitTimeout},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file '%s': %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.BuilderImage == "" {
		errs = append(errs, errors.New("builderImage must not be empty"))
	}
	if c.JobPrefix == "" {
		errs = append(errs, errors.New("jobPrefix must not be empty"))
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"shortInterval", c.ShortInterval.Duration},
		{"longInterval", c.LongInterval.Duration},
		{"gitTimeout", c.GitTimeout.Duration},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.value))
		}
	}
	return errors.Join(errs...)
}
