package main

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/realliance/gazer/internal/config"
	"github.com/realliance/gazer/test/harness"
)

func TestRun(t *testing.T) {
	k8sConfig, _ := harness.SetupServer(t)
	ctrl.SetLogger(harness.NewLogger(t))

	metricsHost, err := harness.FindFreeLocalAddr()
	if err != nil {
		t.Fatalf("Failed to allocate a random local address for metrics host: %v", err)
	}
	healthHost, err := harness.FindFreeLocalAddr()
	if err != nil {
		t.Fatalf("Failed to allocate a random local address for health host: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.Cleanup(func() {
		t.Log("Stopping manager")
		cancel()
		<-done
	})
	go func() {
		defer close(done)
		o := options{metricsAddr: metricsHost, probeAddr: healthHost, config: config.Default()}
		if err := run(ctx, k8sConfig, o); err != nil {
			t.Errorf("Failed to run manager: %v", err)
		}
	}()

	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		for _, url := range []string{"http://" + healthHost + "/healthz", "http://" + metricsHost + "/metrics"} {
			//goland:noinspection HttpUrlsUsage
			resp, err := http.Get(url)
			if assert.NoErrorf(c, err, "Failed to get '%s'", url) {
				_ = resp.Body.Close()
				assert.Equal(c, http.StatusOK, resp.StatusCode)
			}
		}
	}, 10*time.Second, 250*time.Millisecond)
}

func TestWriteCRD(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, writeCRD(&b))
	assert.Contains(t, b.String(), "kind: CustomResourceDefinition")
	assert.Contains(t, b.String(), "name: sites.realliance.net")
}

func TestCheckAPI(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, checkAPI(ctx, fake.NewClientBuilder().WithScheme(scheme).Build()))

	withoutSites := runtime.NewScheme()
	require.NoError(t, clientgoscheme.AddToScheme(withoutSites))
	assert.ErrorContains(t, checkAPI(ctx, fake.NewClientBuilder().WithScheme(withoutSites).Build()), "is the CRD installed?")
}
