package build

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent(t *testing.T) {
	t.Parallel()

	info := Current()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestInfoString(t *testing.T) {
	t.Parallel()

	info := Info{Version: "1.2.0", Commit: "abc1234", BuildDate: "2026-01-02"}
	assert.Equal(t, "ansible-bootstrap 1.2.0 (abc1234, 2026-01-02)", info.String())
}
