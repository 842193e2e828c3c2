package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap/zapcore"

	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	// to ensure that exec-entrypoint and run can make use of them.
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/realliance/gazer/internal"
	"github.com/realliance/gazer/internal/config"
	"github.com/realliance/gazer/internal/crd"
	gazerv1 "github.com/realliance/gazer/internal/v1"
	//+kubebuilder:scaffold:imports
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))

	utilruntime.Must(gazerv1.AddToScheme(scheme))
	//+kubebuilder:scaffold:scheme
}

type options struct {
	metricsAddr          string
	probeAddr            string
	enableLeaderElection bool
	config               config.Config
}

func main() {
	// Flags
	var printCRD bool
	var configFile string
	var o options
	flag.BoolVar(&printCRD, "crd", false, "Print the StaticSite CustomResourceDefinition as YAML and exit.")
	flag.StringVar(&configFile, "config", "", "Path of an optional YAML configuration file.")
	flag.StringVar(&o.metricsAddr, "metrics-bind-address", ":8080", "The address the metric endpoint binds to.")
	flag.StringVar(&o.probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.BoolVar(&o.enableLeaderElection, "leader-elect", false,
		"Enable leader election for controller manager. "+
			"Enabling this will ensure there is only one active controller manager.")
	opts := zap.Options{
		Development: true,
		TimeEncoder: zapcore.TimeEncoderOfLayout(time.StampMilli),
	}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	if printCRD {
		if err := writeCRD(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// Apply logger
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	cfg, err := config.Load(configFile)
	if err != nil {
		setupLog.Error(err, "Unable to load configuration")
		os.Exit(1)
	}
	o.config = cfg

	if err := run(ctrl.SetupSignalHandler(), ctrl.GetConfigOrDie(), o); err != nil {
		setupLog.Error(err, "Manager failed")
		os.Exit(1)
	}
}

func writeCRD(w io.Writer) error {
	b, err := crd.YAML()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// checkAPI fails unless StaticSite objects can be listed, e.g. when the CRD is not installed.
func checkAPI(ctx context.Context, reader client.Reader) error {
	if err := reader.List(ctx, &gazerv1.StaticSiteList{}, client.Limit(1)); err != nil {
		return fmt.Errorf("StaticSite API is unavailable (is the CRD installed?): %w", err)
	}
	return nil
}

func run(ctx context.Context, k8sConfig *rest.Config, o options) error {
	// Create the manager
	mgr, err := ctrl.NewManager(k8sConfig, ctrl.Options{
		Scheme:                        scheme,
		Metrics:                       metricsserver.Options{BindAddress: o.metricsAddr},
		HealthProbeBindAddress:        o.probeAddr,
		LeaderElection:                o.enableLeaderElection,
		LeaderElectionID:              "gazer.realliance.net",
		LeaderElectionReleaseOnCancel: true,
	})
	if err != nil {
		return fmt.Errorf("unable to create manager: %w", err)
	}

	if err := checkAPI(ctx, mgr.GetAPIReader()); err != nil {
		return err
	}

	// Setup StaticSite reconciler
	if err := (&internal.StaticSiteReconciler{Config: o.config}).SetupWithManager(mgr); err != nil {
		return fmt.Errorf("unable to create controller 'StaticSite': %w", err)
	}
	//+kubebuilder:scaffold:builder

	// Add health probes
	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up health check: %w", err)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up ready check: %w", err)
	}

	// Run!
	setupLog.Info("Starting manager", "version", internal.GetVersion())
	return mgr.Start(ctx)
}
