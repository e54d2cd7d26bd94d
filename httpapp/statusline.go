package httpapp

import (
	"bytes"
	"fmt"
	"strconv"
)

// statusText gives the reason phrase for the handful of codes this
// reference handler actually returns; anything else falls back to
// "Status", matching net/http's own behavior for unknown codes.
var statusText = map[int]string{
	200: "OK",
	204: "No Content",
	301: "Moved Permanently",
	304: "Not Modified",
	400: "Bad Request",
	404: "Not Found",
	405: "Method Not Allowed",
	500: "Internal Server Error",
}

func reasonPhrase(code int) string {
	if s, ok := statusText[code]; ok {
		return s
	}
	return "Status"
}

// Request is the parsed view of one HTTP/1.1 request, handed to a
// HandlerFunc. Header keys are canonicalized to the case they arrived in;
// this reference implementation does not attempt RFC-2616 header folding.
type Request struct {
	Method string
	Path   string
	Proto  string
	Header map[string]string
	Body   []byte
	Param  map[string]string
}

// ResponseWriter accumulates one response's status, headers, and body
// before it is rendered onto the connection's wire buffer.
type ResponseWriter struct {
	Status int
	Header map[string]string
	body   bytes.Buffer
}

func newResponseWriter() *ResponseWriter {
	return &ResponseWriter{Status: 200, Header: make(map[string]string)}
}

// Write appends p to the response body, implementing io.Writer.
func (w *ResponseWriter) Write(p []byte) (int, error) {
	return w.body.Write(p)
}

// SetStatus sets the response status code. The default is 200.
func (w *ResponseWriter) SetStatus(code int) {
	w.Status = code
}

// renderResponse writes w's status line, headers, and body to dst,
// setting Content-Length and Connection headers appropriately for
// keepAlive. This is the "response rendering" spec.md §1 names as
// out-of-scope for the reactor core.
func renderResponse(dst *bytes.Buffer, w *ResponseWriter, proto string, keepAlive bool) {
	if proto == "" {
		proto = "HTTP/1.1"
	}
	fmt.Fprintf(dst, "%s %d %s\r\n", proto, w.Status, reasonPhrase(w.Status))

	for k, v := range w.Header {
		fmt.Fprintf(dst, "%s: %s\r\n", k, v)
	}
	if _, ok := w.Header["Content-Type"]; !ok {
		dst.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	}
	dst.WriteString("Content-Length: ")
	dst.WriteString(strconv.Itoa(w.body.Len()))
	dst.WriteString("\r\n")
	if keepAlive {
		dst.WriteString("Connection: keep-alive\r\n")
	} else {
		dst.WriteString("Connection: close\r\n")
	}
	dst.WriteString("\r\n")
	dst.Write(w.body.Bytes())
}
