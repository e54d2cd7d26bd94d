// Package httpapp supplies the HTTP/1.1 "external collaborator" a
// reactor.Server needs to actually answer requests: parsing, routing, and
// response rendering, the three concerns spec.md §1 names as deliberately
// out of scope for the reactor core. Handler implements
// reactor.RequestHandler; the core never imports this package.
package httpapp

import (
	"bytes"
	"net/textproto"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/elvinlabs/reactord/reactor"
)

const maxRequestLine = 8192

// connState is the per-connection parser state stashed in Slot.App. It
// survives across edge-triggered wake-ups for the life of one fd, reset
// by Handler.Reset whenever the slot transitions from not-alive to alive.
type connState struct {
	ingress []byte
}

// Handler implements reactor.RequestHandler by parsing pipelined
// HTTP/1.1 requests off the slot's fd, routing each through Router, and
// writing responses to the slot's response buffer before flushing it.
type Handler struct {
	Router *Router
}

// NewHandler returns a Handler with an empty Router; register routes with
// Router.Handle before passing the Handler to reactor.NewServer.
func NewHandler() *Handler {
	return &Handler{Router: NewRouter()}
}

// Reset implements reactor.RequestHandler.
func (h *Handler) Reset(slot *reactor.Slot) {
	cs, ok := slot.App.(*connState)
	if !ok || cs == nil {
		cs = &connState{}
		slot.App = cs
	}
	cs.ingress = cs.ingress[:0]
}

// Handle implements reactor.RequestHandler: it drains slot.FD (the
// edge-triggered contract requires reading until EAGAIN), parses every
// complete pipelined request out of the accumulated bytes, dispatches
// each through Router, and flushes the rendered responses in order.
// slot.IsKeepAlive reflects the last request processed, per spec.md §6.
func (h *Handler) Handle(slot *reactor.Slot) {
	cs := slot.App.(*connState)

	mustClose := false
	buf := make([]byte, 16*1024)
readLoop:
	for {
		n, err := unix.Read(slot.FD, buf)
		if n > 0 {
			cs.ingress = append(cs.ingress, buf[:n]...)
		}
		switch {
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			break readLoop
		case err == unix.EINTR:
			continue
		case err != nil:
			// Peer reset or similarly fatal read error: process whatever
			// was already buffered, then close regardless of what the
			// requests themselves say about keep-alive.
			mustClose = true
			break readLoop
		case n == 0:
			// Orderly peer shutdown.
			mustClose = true
			break readLoop
		}
	}

	keepAlive := true
	for {
		req, consumed, ok := parseRequest(cs.ingress)
		if !ok {
			break
		}
		cs.ingress = cs.ingress[consumed:]

		resp := newResponseWriter()
		h.dispatch(req, resp)

		keepAlive = !strings.EqualFold(req.Header["Connection"], "close")
		renderResponse(slot.ResponseBuffer, resp, req.Proto, keepAlive)
	}

	slot.IsKeepAlive = keepAlive && !mustClose
	h.flush(slot)
}

func (h *Handler) dispatch(req *Request, resp *ResponseWriter) {
	fn, params, ok := h.Router.Match(req.Method, req.Path)
	if !ok {
		if h.Router.NotFound != nil {
			h.Router.NotFound(req, resp)
			return
		}
		resp.SetStatus(404)
		resp.Header["Content-Type"] = "text/plain; charset=utf-8"
		_, _ = resp.Write([]byte("not found\n"))
		return
	}
	req.Param = params
	fn(req, resp)
}

// flush writes the accumulated response bytes to the fd and truncates the
// buffer, matching Slot.reset's "truncate, don't reallocate" discipline.
func (h *Handler) flush(slot *reactor.Slot) {
	b := slot.ResponseBuffer.Bytes()
	for len(b) > 0 {
		n, err := unix.Write(slot.FD, b)
		if n > 0 {
			b = b[n:]
		}
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				continue
			}
			break
		}
	}
	slot.ResponseBuffer.Reset()
}

// parseRequest extracts one HTTP/1.1 request from the front of data, if a
// complete request (headers plus any body indicated by Content-Length) is
// present. ok is false when more bytes are needed.
func parseRequest(data []byte) (req *Request, consumed int, ok bool) {
	headerEnd := bytes.Index(data, []byte("\r\n\r\n"))
	if headerEnd < 0 {
		if len(data) > maxRequestLine {
			// Pathological request line with no terminator: drop the
			// connection's remaining bytes rather than buffer forever.
			return &Request{Method: "", Path: "", Proto: "HTTP/1.1"}, len(data), true
		}
		return nil, 0, false
	}

	lines := strings.Split(string(data[:headerEnd]), "\r\n")
	if len(lines) == 0 {
		return nil, headerEnd + 4, true
	}

	parts := strings.Fields(lines[0])
	r := &Request{Header: make(map[string]string)}
	if len(parts) == 3 {
		r.Method, r.Path, r.Proto = parts[0], parts[1], parts[2]
	}

	for _, line := range lines[1:] {
		k, v, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		// Header names are case-insensitive (RFC 7230 §3.2); canonicalize
		// so a lookup for "Connection" matches a wire "connection: close".
		r.Header[textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	bodyStart := headerEnd + 4
	bodyLen := 0
	if cl, ok := r.Header["Content-Length"]; ok {
		bodyLen = parseContentLength(cl)
	}
	if len(data) < bodyStart+bodyLen {
		return nil, 0, false
	}
	r.Body = data[bodyStart : bodyStart+bodyLen]
	return r, bodyStart + bodyLen, true
}

func parseContentLength(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
