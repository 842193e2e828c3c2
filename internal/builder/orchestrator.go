package builder

import (
	"context"
	"fmt"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/realliance/gazer/internal/credentials"
	"github.com/realliance/gazer/internal/errdefs"
	gazerv1 "github.com/realliance/gazer/internal/v1"
	"github.com/realliance/gazer/internal/vcs"
)

const (
	ManagedByLabel = "app.kubernetes.io/managed-by"
	ManagedByValue = "gazer"
	SiteLabel      = "realliance.net/site"

	builderContainerName   = "kaniko"
	dockerConfigVolumeName = "docker-config"
	dockerConfigMountPath  = "/kaniko/.docker/"
	dockerConfigFileName   = "config.json"
	workerSuffix           = "-worker"
)

// Orchestrator manages the build Job of a site and the Secret holding its registry credentials.
type Orchestrator struct {
	Client      client.Client         // Kubernetes API client
	Scheme      *runtime.Scheme       // Scheme registry, used for owner references
	Image       string                // Build executor image
	JobPrefix   string                // Job names are "<JobPrefix>-<site>"
	Credentials *credentials.Resolver // Resolves registry credentials
}

// JobName is the deterministic name of the build Job of the given site.
func (o *Orchestrator) JobName(site *gazerv1.StaticSite) string {
	return o.JobPrefix + "-" + site.Name
}

// SecretName is the name of the Secret mounted into the build Job of the given site.
func (o *Orchestrator) SecretName(site *gazerv1.StaticSite) string {
	return o.JobName(site) + workerSuffix
}

func (o *Orchestrator) jobKey(site *gazerv1.StaticSite) types.NamespacedName {
	return types.NamespacedName{Namespace: site.Namespace, Name: o.JobName(site)}
}

// Submit replaces the credentials Secret and creates the build Job for the given target. It reports whether a Job was
// created: when the site's Job already exists, nothing is touched and false is returned.
func (o *Orchestrator) Submit(ctx context.Context, site *gazerv1.StaticSite, target vcs.Target) (bool, error) {
	logger := log.FromContext(ctx).WithValues("job", o.JobName(site), "ref", target.FullRef, "tag", target.Tag)

	if err := o.Client.Get(ctx, o.jobKey(site), &batchv1.Job{}); err == nil {
		logger.Info("Build job already exists")
		return false, nil
	} else if !apierrors.IsNotFound(err) {
		return false, errdefs.NewClusterAPIError("get", "Job "+o.jobKey(site).String(), err)
	}

	destination, err := DestinationArg(site.Spec.OCIRepo, target.Tag)
	if err != nil {
		return false, err
	}
	if destination == noPushArg {
		logger.Info("No push destination configured, image will not be pushed")
	}

	creds, err := o.Credentials.Resolve(ctx, site.Namespace, site.Spec.OCICredentials)
	if err != nil {
		return false, err
	}
	dockerConfig, err := DockerConfigJSON(site.Spec.OCIRepo, creds)
	if err != nil {
		return false, fmt.Errorf("failed to render registry credentials: %w", err)
	}

	secret := o.newSecret(site, dockerConfig)
	if err := controllerutil.SetControllerReference(site, secret, o.Scheme); err != nil {
		return false, fmt.Errorf("failed to set owner of Secret '%s': %w", secret.Name, err)
	}
	if err := o.replaceSecret(ctx, secret); err != nil {
		return false, err
	}

	job := o.newJob(site, ContextArg(site.Spec.Git, target.FullRef), destination)
	if err := controllerutil.SetControllerReference(site, job, o.Scheme); err != nil {
		return false, fmt.Errorf("failed to set owner of Job '%s': %w", job.Name, err)
	}
	if err := o.Client.Create(ctx, job); err != nil {
		if apierrors.IsAlreadyExists(err) {
			// Created since the lookup above, or the lookup read a stale cache
			logger.Info("Build job already exists")
			return false, nil
		}
		return false, errdefs.NewClusterAPIError("create", "Job "+o.jobKey(site).String(), err)
	}
	logger.Info("Submitted build job")
	return true, nil
}

func (o *Orchestrator) replaceSecret(ctx context.Context, secret *corev1.Secret) error {
	key := client.ObjectKeyFromObject(secret).String()
	if err := o.Client.Delete(ctx, secret.DeepCopy()); err != nil && !apierrors.IsNotFound(err) {
		return errdefs.NewClusterAPIError("delete", "Secret "+key, err)
	}
	if err := o.Client.Create(ctx, secret); err != nil {
		return errdefs.NewClusterAPIError("create", "Secret "+key, err)
	}
	return nil
}

func (o *Orchestrator) labels(site *gazerv1.StaticSite) map[string]string {
	return map[string]string{
		ManagedByLabel: ManagedByValue,
		SiteLabel:      site.Name,
	}
}

func (o *Orchestrator) newSecret(site *gazerv1.StaticSite, dockerConfig []byte) *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      o.SecretName(site),
			Namespace: site.Namespace,
			Labels:    o.labels(site),
		},
		Type: corev1.SecretTypeDockerConfigJson,
		Data: map[string][]byte{corev1.DockerConfigJsonKey: dockerConfig},
	}
}

func (o *Orchestrator) newJob(site *gazerv1.StaticSite, contextArg, destinationArg string) *batchv1.Job {
	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      o.JobName(site),
			Namespace: site.Namespace,
			Labels:    o.labels(site),
		},
		Spec: batchv1.JobSpec{
			// Failed builds are retried by the next reconciliation, not by the Job controller
			BackoffLimit: ptr.To[int32](0),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: o.labels(site),
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:  builderContainerName,
						Image: o.Image,
						Args:  []string{contextArg, destinationArg},
						VolumeMounts: []corev1.VolumeMount{{
							Name:      dockerConfigVolumeName,
							MountPath: dockerConfigMountPath,
						}},
					}},
					RestartPolicy: corev1.RestartPolicyNever,
					Volumes: []corev1.Volume{{
						Name: dockerConfigVolumeName,
						VolumeSource: corev1.VolumeSource{
							Secret: &corev1.SecretVolumeSource{
								SecretName: o.SecretName(site),
								Items: []corev1.KeyToPath{{
									Key:  corev1.DockerConfigJsonKey,
									Path: dockerConfigFileName,
								}},
							},
						},
					}},
				},
			},
		},
	}
}

// Status returns the state of the site's build Job. A missing Job yields an error satisfying apierrors.IsNotFound.
func (o *Orchestrator) Status(ctx context.Context, site *gazerv1.StaticSite) (*BuildStatus, error) {
	job := &batchv1.Job{}
	if err := o.Client.Get(ctx, o.jobKey(site), job); err != nil {
		return nil, errdefs.NewClusterAPIError("get", "Job "+o.jobKey(site).String(), err)
	}
	return &BuildStatus{Phase: PhaseOf(job), Job: job}, nil
}

// Delete removes the site's build Job and, in the background, its pods. A missing Job yields an error satisfying
// apierrors.IsNotFound.
func (o *Orchestrator) Delete(ctx context.Context, site *gazerv1.StaticSite) error {
	job := &batchv1.Job{ObjectMeta: metav1.ObjectMeta{Name: o.JobName(site), Namespace: site.Namespace}}
	if err := o.Client.Delete(ctx, job, client.PropagationPolicy(metav1.DeletePropagationBackground)); err != nil {
		return errdefs.NewClusterAPIError("delete", "Job "+o.jobKey(site).String(), err)
	}
	return nil
}
