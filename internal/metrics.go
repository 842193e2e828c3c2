package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	buildsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gazer_builds_submitted_total",
		Help: "Number of build jobs submitted.",
	})
	buildsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gazer_builds_finished_total",
		Help: "Number of build jobs observed finished and cleaned up, by result.",
	}, []string{"result"})
	reconcileErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gazer_reconcile_errors_total",
		Help: "Number of failed reconciliations, by error kind.",
	}, []string{"kind"})
	refResolutionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gazer_ref_resolution_duration_seconds",
		Help:    "Time spent listing the references of a remote repository.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	metrics.Registry.MustRegister(buildsSubmitted, buildsFinished, reconcileErrors, refResolutionDuration)
}
