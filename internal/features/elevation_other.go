//go:build !windows

package features

import "os"

// Elevated reports whether the current process runs with administrative
// privileges. Outside Windows this maps to running as root, which only
// matters for development builds.
func Elevated() bool {
	return os.Geteuid() == 0
}
