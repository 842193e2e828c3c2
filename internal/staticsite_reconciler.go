package internal

import (
	"context"
	"fmt"
	"strings"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	ctrlbuilder "sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	"github.com/realliance/gazer/internal/builder"
	"github.com/realliance/gazer/internal/config"
	"github.com/realliance/gazer/internal/credentials"
	"github.com/realliance/gazer/internal/errdefs"
	"github.com/realliance/gazer/internal/object"
	gazerv1 "github.com/realliance/gazer/internal/v1"
	"github.com/realliance/gazer/internal/vcs"
)

const (
	typeBuildingStaticSite = "Building" // Is a build job in flight
	typeResolvedStaticSite = "Resolved" // Was a reference to build found
)

// StaticSiteReconciler reconciles a StaticSite object
type StaticSiteReconciler struct {
	Client      client.Client         // Kubernetes API client
	APIReader   client.Reader         // Uncached reader for Secrets; Client is used when nil
	Recorder    record.EventRecorder  // Kubernetes event recorder
	Scheme      *runtime.Scheme       // Scheme registry
	Config      config.Config         // Controller configuration; defaults apply when zero
	Refs        *vcs.Resolver         // Lists references of site repositories
	Builds      *builder.Orchestrator // Manages build jobs
	Credentials *credentials.Resolver // Resolves git & registry credentials
}

// setDefaults fills unset collaborators from the client, scheme and configuration.
func (r *StaticSiteReconciler) setDefaults() {
	if r.Config == (config.Config{}) {
		r.Config = config.Default()
	}
	if r.Credentials == nil {
		var reader client.Reader = r.Client
		if r.APIReader != nil {
			reader = r.APIReader
		}
		r.Credentials = credentials.NewResolver(reader, ctrl.Log.WithName("credentials"))
	}
	if r.Refs == nil {
		r.Refs = &vcs.Resolver{Lister: vcs.GitLister{}, Timeout: r.Config.GitTimeout.Duration}
	}
	if r.Builds == nil {
		r.Builds = &builder.Orchestrator{
			Client:      r.Client,
			Scheme:      r.Scheme,
			Image:       r.Config.BuilderImage,
			JobPrefix:   r.Config.JobPrefix,
			Credentials: r.Credentials,
		}
	}
}

//+kubebuilder:rbac:groups=realliance.net,resources=sites,verbs=get;list;watch
//+kubebuilder:rbac:groups=realliance.net,resources=sites/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=batch,resources=jobs,verbs=get;list;watch;create;delete
//+kubebuilder:rbac:groups=core,resources=secrets,verbs=get;create;delete
//+kubebuilder:rbac:groups=core,resources=events,verbs=create;patch

// Reconcile drives the build job of a [gazerv1.StaticSite] through its lifecycle and decides when to look again.
// Failures never surface to the controller, so the requested interval is honored instead of the rate limiter's.
func (r *StaticSiteReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	ctx = log.IntoContext(ctx, log.FromContext(ctx).WithValues("site", req.NamespacedName.String()))

	var o gazerv1.StaticSite
	if err := r.Client.Get(ctx, req.NamespacedName, &o); err != nil {
		if apierrors.IsNotFound(err) {
			// Deleted; owned jobs & secrets are garbage collected
			return ctrl.Result{}, nil
		}
		return r.onError(ctx, nil, errdefs.NewClusterAPIError("get", "StaticSite "+req.String(), err)), nil
	}
	if o.DeletionTimestamp != nil {
		return ctrl.Result{}, nil
	}

	res, err := r.reconcile(ctx, &o)
	if err != nil {
		return r.onError(ctx, &o, err), nil
	}
	return res, nil
}

func (r *StaticSiteReconciler) reconcile(ctx context.Context, o *gazerv1.StaticSite) (ctrl.Result, error) {
	status, err := r.Builds.Status(ctx, o)
	if apierrors.IsNotFound(err) {
		return r.startBuild(ctx, o)
	} else if err != nil {
		return ctrl.Result{}, err
	}

	switch status.Phase {
	case builder.PhaseSucceeded, builder.PhaseFailed:
		return r.finishBuild(ctx, o, status)
	default:
		log.FromContext(ctx).V(1).Info("Build in flight", "job", status.Job.Name, "phase", status.Phase)
		r.setCondition(ctx, o, typeBuildingStaticSite, metav1.ConditionTrue, string(status.Phase), fmt.Sprintf("Build job '%s' is %s", status.Job.Name, strings.ToLower(string(status.Phase))))
		return ctrl.Result{RequeueAfter: r.Config.ShortInterval.Duration}, nil
	}
}

func (r *StaticSiteReconciler) finishBuild(ctx context.Context, o *gazerv1.StaticSite, status *builder.BuildStatus) (ctrl.Result, error) {
	if err := r.Builds.Delete(ctx, o); err != nil && !apierrors.IsNotFound(err) {
		return ctrl.Result{}, err
	}
	buildsFinished.WithLabelValues(strings.ToLower(string(status.Phase))).Inc()

	if status.Phase == builder.PhaseFailed {
		r.Recorder.Eventf(o, corev1.EventTypeWarning, "BuildFailed", "Build job '%s' failed", status.Job.Name)
		r.setCondition(ctx, o, typeBuildingStaticSite, metav1.ConditionFalse, "BuildFailed", fmt.Sprintf("Build job '%s' failed", status.Job.Name))
	} else {
		r.Recorder.Eventf(o, corev1.EventTypeNormal, "BuildCompleted", "Build job '%s' completed", status.Job.Name)
		r.setCondition(ctx, o, typeBuildingStaticSite, metav1.ConditionFalse, "BuildSucceeded", fmt.Sprintf("Build job '%s' completed", status.Job.Name))
	}
	log.FromContext(ctx).Info("Cleaned up finished build", "job", status.Job.Name, "phase", status.Phase)
	return ctrl.Result{RequeueAfter: r.Config.LongInterval.Duration}, nil
}

func (r *StaticSiteReconciler) startBuild(ctx context.Context, o *gazerv1.StaticSite) (ctrl.Result, error) {
	target, err := r.resolveTarget(ctx, o)
	if err != nil {
		r.setCondition(ctx, o, typeResolvedStaticSite, metav1.ConditionFalse, errdefs.Kind(err), err.Error())
		return ctrl.Result{}, err
	}

	jobName := r.Builds.JobName(o)
	created, err := r.Builds.Submit(ctx, o, target)
	if err != nil {
		return ctrl.Result{}, err
	} else if !created {
		log.FromContext(ctx).Info("Build job already exists, waiting for it", "job", jobName)
		return ctrl.Result{RequeueAfter: r.Config.ShortInterval.Duration}, nil
	}
	buildsSubmitted.Inc()
	r.Recorder.Eventf(o, corev1.EventTypeNormal, "BuildSubmitted", "Submitted build job '%s' for '%s' (tag '%s')", jobName, target.FullRef, target.Tag)
	log.FromContext(ctx).Info("Started build", "job", jobName, "ref", target.FullRef, "tag", target.Tag)

	o.Status.LastBuiltRef = target.FullRef
	o.Status.LastBuiltTag = target.Tag
	o.Status.LastBuildJob = jobName
	o.Status.LastBuildTime = &metav1.Time{Time: time.Now()}
	object.SetConditions(o,
		metav1.Condition{Type: typeResolvedStaticSite, Status: metav1.ConditionTrue, Reason: "Resolved", Message: fmt.Sprintf("Resolved '%s'", target.FullRef)},
		metav1.Condition{Type: typeBuildingStaticSite, Status: metav1.ConditionTrue, Reason: "BuildSubmitted", Message: fmt.Sprintf("Build job '%s' submitted", jobName)},
	)
	r.setStatus(ctx, o)
	return ctrl.Result{RequeueAfter: r.Config.ShortInterval.Duration}, nil
}

func (r *StaticSiteReconciler) resolveTarget(ctx context.Context, o *gazerv1.StaticSite) (vcs.Target, error) {
	gitAuth, err := r.Credentials.Resolve(ctx, o.Namespace, o.Spec.GitCredentials)
	if err != nil {
		return vcs.Target{}, err
	}

	start := time.Now()
	refs, err := r.Refs.ResolveRefs(ctx, o.Spec.Git, gitAuth)
	refResolutionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return vcs.Target{}, err
	}

	policy := vcs.PolicyFor(o.Spec)
	target, ok := vcs.SelectTarget(policy, refs)
	if !ok {
		return vcs.Target{}, errdefs.NewReconcileError(errdefs.NoValidRef, nil, "no valid ref found in '%s' for %s", o.Spec.Git, describePolicy(policy))
	}
	return target, nil
}

func describePolicy(p vcs.Policy) string {
	switch {
	case p.Semver:
		return "semantic version tags"
	case p.Branch != "":
		return "branch '" + p.Branch + "'"
	default:
		return "HEAD"
	}
}

// onError is the uniform failure policy: log, report and look again after the long interval.
func (r *StaticSiteReconciler) onError(ctx context.Context, o *gazerv1.StaticSite, err error) ctrl.Result {
	log.FromContext(ctx).Error(err, "Reconciliation failed", "kind", errdefs.Kind(err))
	reconcileErrors.WithLabelValues(errdefs.Kind(err)).Inc()
	if o != nil {
		r.Recorder.Eventf(o, corev1.EventTypeWarning, "ReconcileFailed", "%v", err)
	}
	return ctrl.Result{RequeueAfter: r.Config.LongInterval.Duration}
}

func (r *StaticSiteReconciler) setStatus(ctx context.Context, o *gazerv1.StaticSite) {
	if err := r.Client.Status().Update(ctx, o); err != nil {
		log.FromContext(ctx).Error(err, "Failed to update status")
		r.Recorder.Eventf(o, corev1.EventTypeWarning, "StatusUpdateFailed", "Failed to update status: %v", err)
	}
}

func (r *StaticSiteReconciler) setCondition(ctx context.Context, o *gazerv1.StaticSite, conditionType string, status metav1.ConditionStatus, reason, message string) {
	if object.SetConditions(o, metav1.Condition{Type: conditionType, Status: status, Reason: reason, Message: message}) {
		r.setStatus(ctx, o)
	}
}

// jobFinished passes only updates in which a build job reaches a terminal phase, so that finished builds are cleaned up
// promptly while job creation & deletion do not trigger another build.
var jobFinished = predicate.Funcs{
	CreateFunc:  func(event.CreateEvent) bool { return false },
	DeleteFunc:  func(event.DeleteEvent) bool { return false },
	GenericFunc: func(event.GenericEvent) bool { return false },
	UpdateFunc: func(e event.UpdateEvent) bool {
		oldJob, ok := e.ObjectOld.(*batchv1.Job)
		if !ok {
			return false
		}
		newJob, ok := e.ObjectNew.(*batchv1.Job)
		if !ok {
			return false
		}
		return !isFinished(oldJob) && isFinished(newJob)
	},
}

func isFinished(job *batchv1.Job) bool {
	phase := builder.PhaseOf(job)
	return phase == builder.PhaseSucceeded || phase == builder.PhaseFailed
}

// SetupWithManager sets up the controller with the Manager.
func (r *StaticSiteReconciler) SetupWithManager(mgr ctrl.Manager) error {
	r.Client = mgr.GetClient()
	r.APIReader = mgr.GetAPIReader()
	r.Recorder = mgr.GetEventRecorderFor("gazer")
	r.Scheme = mgr.GetScheme()
	r.setDefaults()
	return ctrl.NewControllerManagedBy(mgr).
		For(&gazerv1.StaticSite{}, ctrlbuilder.WithPredicates(predicate.GenerationChangedPredicate{})).
		Owns(&batchv1.Job{}, ctrlbuilder.WithPredicates(jobFinished)).
		Complete(r)
}
