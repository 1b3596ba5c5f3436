//go:build !linux && !windows

package vsync

// setDistributorThreadPriority has no portable equivalent on this
// platform; the distributor runs at the default scheduling priority.
func setDistributorThreadPriority() error { return nil }
