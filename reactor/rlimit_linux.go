//go:build linux

package reactor

import "golang.org/x/sys/unix"

// raiseFDLimit implements spec.md §4.4 step 2: read the process
// open-file-descriptor limit, raise the soft limit to the hard limit
// (or, if the hard limit is unbounded, multiply the soft limit by 8),
// and apply it. Returns the final soft limit.
func raiseFDLimit() (int, error) {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0, err
	}

	if rlim.Max == unix.RLIM_INFINITY {
		rlim.Cur *= 8
	} else {
		rlim.Cur = rlim.Max
	}

	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0, err
	}
	return int(rlim.Cur), nil
}
