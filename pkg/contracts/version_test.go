package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionString(t *testing.T) {
	assert.False(t, IsPrerelease())
	assert.Equal(t, "creditfile v"+Version, GetVersionString())

	VersionPrerelease = "rc.1"
	t.Cleanup(func() { VersionPrerelease = "" })

	assert.True(t, IsPrerelease())
	assert.Equal(t, "creditfile v"+Version+"-rc.1", GetVersionString())
	assert.Contains(t, GetFullVersionString(), "-rc.1 (built: ")
}
