package features

import "golang.org/x/sys/windows"

// Elevated reports whether the current process runs with administrative
// privileges. Feature servicing requires elevation.
func Elevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
