package runner

import (
	"fmt"

	"github.com/grovetools/spawn/command"
)

// CheckNestedEnvironment returns a warning when marker is set in this
// process's environment, meaning we are running inside the managed tool.
// Children never inherit the marker; the warning is informational only.
// An empty marker checks the default.
func CheckNestedEnvironment(marker string) (string, bool) {
	if marker == "" {
		marker = command.DefaultNestedMarker
	}
	if !command.IsNested(marker) {
		return "", false
	}
	return fmt.Sprintf("running inside a managed tool session (%s is set); it will be removed from child environments", marker), true
}
