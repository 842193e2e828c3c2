package object

import (
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Object is a cluster object whose status carries conditions.
type Object interface {
	client.Object
	GetStatus() Status
}

// SetConditions applies the given conditions to the object's status, stamping the observed generation and transition
// time when missing. Returns true if any condition was added or changed.
func SetConditions(o Object, conditions ...metav1.Condition) bool {
	changed := false
	target := o.GetStatus().GetConditions()
	for _, c := range conditions {
		if c.ObservedGeneration == 0 {
			c.ObservedGeneration = o.GetGeneration()
		}
		if c.LastTransitionTime.IsZero() {
			c.LastTransitionTime = metav1.Time{Time: time.Now()}
		}
		if existing := meta.FindStatusCondition(*target, c.Type); existing != nil &&
			existing.Status == c.Status && existing.Reason == c.Reason && existing.Message == c.Message &&
			existing.ObservedGeneration == c.ObservedGeneration {
			continue
		}
		meta.SetStatusCondition(target, c)
		changed = true
	}
	return changed
}
