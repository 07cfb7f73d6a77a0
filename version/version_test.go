package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Contains(t, info.String(), "Platform:")
}

func TestShortTruncatesCommit(t *testing.T) {
	info := Info{Version: "v1.2.0", Commit: "0123456789abcdef"}
	assert.Equal(t, "spawn v1.2.0 (0123456)", info.Short())
}
