//go:build linux

package reactor

import "golang.org/x/sys/unix"

// listenSocket creates, configures, binds, and listens on the server's
// TCP socket, per spec.md §4.4 step 6. The returned fd is non-blocking.
func listenSocket(cfg *Config, backlog int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	if cfg.EnableLinger {
		l := unix.Linger{Onoff: 1, Linger: 1}
		if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &l); err != nil {
			_ = unix.Close(fd)
			return -1, err
		}
	}
	sa := &unix.SockaddrInet4{Port: int(cfg.Port)}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// acceptNonblocking performs a single non-blocking, atomically-nonblocking accept.
// It returns unix.EAGAIN (wrapped) when there is nothing to accept.
func acceptNonblocking(listenFD int) (int, error) {
	connFD, _, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK)
	if err != nil {
		return -1, err
	}
	return connFD, nil
}

func closeFD(fd int) error {
	return unix.Close(fd)
}

func readFD(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

func writeFD(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
