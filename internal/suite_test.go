package internal

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/envtest"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/realliance/gazer/internal/credentials"
	"github.com/realliance/gazer/internal/vcs"
	"github.com/realliance/gazer/test/harness"
)

var (
	k8sClient    client.Client
	testEnv      *envtest.Environment
	k8sCtx       context.Context
	k8sCancelCtx context.CancelFunc
)

// staticLister advertises a fixed set of references for every repository.
type staticLister struct {
	refs []*plumbing.Reference
}

func (l *staticLister) List(context.Context, string, *credentials.Basic) ([]*plumbing.Reference, error) {
	return l.refs, nil
}

func TestAPIs(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Controller Suite")
}

var _ = BeforeSuite(func() {
	log.SetLogger(zap.New(zap.WriteTo(GinkgoWriter), zap.UseDevMode(true)))

	var available bool
	testEnv, available = harness.NewEnvironment()
	if !available {
		Skip("envtest control plane binaries not found")
	}

	By("bootstrapping test environment")
	k8sCtx, k8sCancelCtx = context.WithCancel(context.TODO())
	cfg, err := testEnv.Start()
	Expect(err).NotTo(HaveOccurred())
	Expect(cfg).NotTo(BeNil())

	k8sClient, err = client.New(cfg, client.Options{Scheme: harness.Scheme})
	Expect(err).NotTo(HaveOccurred())
	Expect(k8sClient).NotTo(BeNil())

	k8sManager, err := ctrl.NewManager(cfg, ctrl.Options{
		Scheme:  harness.Scheme,
		Metrics: metricsserver.Options{BindAddress: "0"},
	})
	Expect(err).ToNot(HaveOccurred())

	reconciler := &StaticSiteReconciler{
		Refs: &vcs.Resolver{Lister: &staticLister{refs: advertisedRefs()}},
	}
	Expect(reconciler.SetupWithManager(k8sManager)).To(Succeed())

	go func() {
		defer GinkgoRecover()
		err := k8sManager.Start(k8sCtx)
		Expect(err).ToNot(HaveOccurred(), "failed to run manager")
	}()
})

var _ = AfterSuite(func() {
	if k8sCancelCtx == nil {
		return
	}
	k8sCancelCtx()
	By("tearing down the test environment")
	Expect(testEnv.Stop()).To(Succeed())
})
