//go:build linux

package reactor

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// epollNotifier implements notifier on top of Linux epoll. Each worker
// and the acceptor own exactly one of these; it is never shared.
type epollNotifier struct {
	epfd   int
	closed atomic.Bool
	buf    []unix.EpollEvent
}

// newEpollNotifier creates an epoll instance sized to hold up to
// maxEvents readiness notifications per wait call.
func newEpollNotifier(maxEvents int) (*epollNotifier, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollNotifier{epfd: epfd, buf: make([]unix.EpollEvent, maxEvents)}, nil
}

func toEpollMask(events ioEvent, edgeTriggered bool) uint32 {
	var m uint32
	if events&evRead != 0 {
		m |= unix.EPOLLIN
	}
	if events&evHangup != 0 {
		m |= unix.EPOLLRDHUP
	}
	if events&evError != 0 {
		m |= unix.EPOLLERR
	}
	if edgeTriggered {
		m |= unix.EPOLLET
	}
	return m
}

func fromEpollMask(m uint32) ioEvent {
	var e ioEvent
	if m&unix.EPOLLIN != 0 {
		e |= evRead
	}
	if m&(unix.EPOLLRDHUP|unix.EPOLLHUP) != 0 {
		e |= evHangup
	}
	if m&unix.EPOLLERR != 0 {
		e |= evError
	}
	return e
}

func (p *epollNotifier) add(fd int, events ioEvent, edgeTriggered bool) error {
	ev := unix.EpollEvent{Events: toEpollMask(events, edgeTriggered), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollNotifier) remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollNotifier) wait(timeoutMs int) ([]readyEvent, error) {
	n, err := unix.EpollWait(p.epfd, p.buf, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, errInterrupted
		}
		if err == unix.EBADF || p.closed.Load() {
			return nil, ErrClosed
		}
		return nil, err
	}
	out := make([]readyEvent, n)
	for i := 0; i < n; i++ {
		out[i] = readyEvent{fd: int(p.buf[i].Fd), events: fromEpollMask(p.buf[i].Events)}
	}
	return out, nil
}

func (p *epollNotifier) close() error {
	p.closed.Store(true)
	return unix.Close(p.epfd)
}
