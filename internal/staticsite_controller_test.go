package internal

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	gazerv1 "github.com/realliance/gazer/internal/v1"
)

var _ = Describe("StaticSite controller", func() {
	const (
		namespace = "default"
		timeout   = 10 * time.Second
		interval  = 250 * time.Millisecond
	)

	newSite := func(name, branch string) *gazerv1.StaticSite {
		provider := gazerv1.OCIRepoProviderQuay
		return &gazerv1.StaticSite{
			ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
			Spec: gazerv1.StaticSiteSpec{
				Git:     testRepoURL,
				Branch:  branch,
				OCIRepo: gazerv1.OCIRepo{Provider: &provider, Repo: "realliance/" + name},
			},
		}
	}

	It("submits a build job for the site's branch", func(ctx SpecContext) {
		site := newSite("docs", "main")
		Expect(k8sClient.Create(ctx, site)).To(Succeed())

		job := &batchv1.Job{}
		jobKey := types.NamespacedName{Namespace: namespace, Name: "gazer-build-docs"}
		Eventually(func() error { return k8sClient.Get(ctx, jobKey, job) }, timeout, interval).Should(Succeed())
		Expect(job.Spec.Template.Spec.Containers[0].Args).To(Equal([]string{
			"--context=git://git.example.com/realliance/blog.git#refs/heads/main",
			"--destination=quay.io/realliance/docs:main",
		}))
		Expect(job.OwnerReferences).To(HaveLen(1))
		Expect(job.OwnerReferences[0].Name).To(Equal("docs"))

		secret := &corev1.Secret{}
		Expect(k8sClient.Get(ctx, types.NamespacedName{Namespace: namespace, Name: "gazer-build-docs-worker"}, secret)).To(Succeed())
		Expect(secret.Type).To(Equal(corev1.SecretTypeDockerConfigJson))

		Eventually(func(g Gomega) {
			var o gazerv1.StaticSite
			g.Expect(k8sClient.Get(ctx, types.NamespacedName{Namespace: namespace, Name: "docs"}, &o)).To(Succeed())
			g.Expect(o.Status.LastBuiltRef).To(Equal("refs/heads/main"))
			g.Expect(meta.IsStatusConditionTrue(o.Status.Conditions, typeBuildingStaticSite)).To(BeTrue())
		}, timeout, interval).Should(Succeed())
	})

	It("does not build sites without a matching branch", func(ctx SpecContext) {
		site := newSite("wiki", "does-not-exist")
		Expect(k8sClient.Create(ctx, site)).To(Succeed())

		Eventually(func(g Gomega) {
			var o gazerv1.StaticSite
			g.Expect(k8sClient.Get(ctx, types.NamespacedName{Namespace: namespace, Name: "wiki"}, &o)).To(Succeed())
			c := meta.FindStatusCondition(o.Status.Conditions, typeResolvedStaticSite)
			g.Expect(c).ToNot(BeNil())
			g.Expect(c.Status).To(Equal(metav1.ConditionFalse))
			g.Expect(c.Reason).To(Equal("NoValidRef"))
		}, timeout, interval).Should(Succeed())

		Consistently(func() bool {
			err := k8sClient.Get(ctx, types.NamespacedName{Namespace: namespace, Name: "gazer-build-wiki"}, &batchv1.Job{})
			return err != nil
		}, 2*time.Second, interval).Should(BeTrue())
	})
})
