package harness

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	zapr "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	k8sruntime "k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/envtest"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/realliance/gazer/internal/crd"
	gazerv1 "github.com/realliance/gazer/internal/v1"
)

const (
	k8sVersion = "1.35.0"
)

// Scheme holds the built-in types and the StaticSite types.
var Scheme = k8sruntime.NewScheme()

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(Scheme))
	utilruntime.Must(gazerv1.AddToScheme(Scheme))
}

// binaryAssetsDir is where "bin/k8s/<version>-<os>-<arch>" control plane binaries are expected, relative to the root
// of the module.
func binaryAssetsDir() string {
	_, file, _, _ := runtime.Caller(0)
	root := filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
	return filepath.Join(root, "bin", "k8s", strings.Join([]string{k8sVersion, runtime.GOOS, runtime.GOARCH}, "-"))
}

// NewEnvironment returns an envtest environment with the StaticSite CRD installed, and whether control plane binaries
// are available to start it.
func NewEnvironment() (*envtest.Environment, bool) {
	dir := binaryAssetsDir()
	available := os.Getenv("KUBEBUILDER_ASSETS") != ""
	if _, err := os.Stat(dir); err == nil {
		available = true
	}
	return &envtest.Environment{
		AttachControlPlaneOutput: false,
		BinaryAssetsDirectory:    dir,
		CRDs:                     []*apiextensionsv1.CustomResourceDefinition{crd.StaticSite()},
		ErrorIfCRDPathMissing:    false,
	}, available
}

// NewLogger returns a development logger writing to the test's log.
func NewLogger(t *testing.T) logr.Logger {
	logLevel := zapr.NewAtomicLevelAt(zapr.InfoLevel)
	opts := zap.Options{
		Development: true,
		Level:       &logLevel,
		DestWriter:  &testWriter{T: t},
		TimeEncoder: zapcore.TimeEncoderOfLayout(time.StampMilli),
	}
	return zap.New(zap.UseFlagOptions(&opts))
}

// SetupServer starts a control plane for the test, skipping the test when control plane binaries are missing. The
// control plane is stopped when the test ends.
func SetupServer(t *testing.T) (*rest.Config, client.Client) {
	t.Helper()

	testEnv, available := NewEnvironment()
	if !available {
		t.Skip("envtest control plane binaries not found, skipping")
	}

	t.Log("Starting test environment")
	k8sConfig, err := testEnv.Start()
	if err != nil {
		t.Fatalf("failed to start test environment: %v", err)
	}
	t.Cleanup(func() {
		t.Log("Stopping test environment")
		if err := testEnv.Stop(); err != nil {
			t.Errorf("failed to stop test environment: %v", err)
		}
	})

	t.Log("Creating Kubernetes client")
	k8sClient, err := client.New(k8sConfig, client.Options{Scheme: Scheme})
	if err != nil {
		t.Fatalf("failed to create Kubernetes client: %v", err)
	}
	return k8sConfig, k8sClient
}
