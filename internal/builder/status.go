package builder

import (
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
)

// Phase is the lifecycle stage of a build Job.
type Phase string

const (
	PhasePending     Phase = "Pending"     // Created, no pod running yet
	PhaseRunning     Phase = "Running"     // A pod is running
	PhaseSucceeded   Phase = "Succeeded"   // Completed successfully
	PhaseFailed      Phase = "Failed"      // Finished unsuccessfully
	PhaseTerminating Phase = "Terminating" // Being deleted
)

// BuildStatus is the observed state of a build Job.
type BuildStatus struct {
	Phase Phase
	Job   *batchv1.Job
}

// Finished reports whether the build reached a terminal phase.
func (s *BuildStatus) Finished() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed
}

// PhaseOf projects a Job onto a build phase.
func PhaseOf(job *batchv1.Job) Phase {
	switch {
	case job.DeletionTimestamp != nil:
		return PhaseTerminating
	case job.Status.CompletionTime != nil || hasCondition(job, batchv1.JobComplete):
		return PhaseSucceeded
	case hasCondition(job, batchv1.JobFailed):
		return PhaseFailed
	case job.Status.Active > 0:
		return PhaseRunning
	default:
		return PhasePending
	}
}

func hasCondition(job *batchv1.Job, conditionType batchv1.JobConditionType) bool {
	for _, c := range job.Status.Conditions {
		if c.Type == conditionType && c.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}
