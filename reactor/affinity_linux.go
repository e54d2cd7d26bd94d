//go:build linux

package reactor

import "golang.org/x/sys/unix"

// pinCurrentThread pins the calling OS thread to cpu. The caller must
// have already called runtime.LockOSThread so the pin sticks to the
// worker goroutine for its lifetime (spec.md §4.4 step 7).
func pinCurrentThread(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
