//go:build linux

package reactor

import "golang.org/x/sys/unix"

// wakeFD is an eventfd used as the self-pipe described in spec.md §9's
// design notes: a way for a signal handler (which cannot safely perform
// a non-local jump in Go) to unblock the acceptor's indefinite epoll
// wait. It is registered, level-triggered, alongside the listening
// socket in the Acceptor's own notifier.
type wakeFD struct {
	fd int
}

func newWakeFD() (*wakeFD, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &wakeFD{fd: fd}, nil
}

// signal wakes any goroutine blocked waiting on this fd's readability.
func (w *wakeFD) signal() error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(w.fd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return err
	}
	return nil
}

// drain consumes the pending wake-up(s) so the fd goes back to
// not-ready; the acceptor calls this once per observed readiness event
// on the wake fd.
func (w *wakeFD) drain() {
	var buf [8]byte
	for {
		_, err := unix.Read(w.fd, buf[:])
		if err != nil {
			return
		}
	}
}

func (w *wakeFD) close() error {
	return unix.Close(w.fd)
}
