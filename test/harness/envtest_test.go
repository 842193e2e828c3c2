package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEnvironmentInstallsStaticSiteCRD(t *testing.T) {
	env, _ := NewEnvironment()
	if assert.Len(t, env.CRDs, 1) {
		assert.Equal(t, "sites.realliance.net", env.CRDs[0].Name)
	}
	assert.Contains(t, env.BinaryAssetsDirectory, k8sVersion)
}

func TestFindFreeLocalAddr(t *testing.T) {
	addr, err := FindFreeLocalAddr()
	assert.NoError(t, err)
	assert.NotEmpty(t, addr)
}
