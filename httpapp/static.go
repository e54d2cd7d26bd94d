package httpapp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/elvinlabs/reactord/internal/statusfile"
)

// StaticHandler returns a HandlerFunc serving files under root, rejecting
// any path that would escape it after cleaning (no "../" traversal).
func StaticHandler(root string) HandlerFunc {
	return func(req *Request, resp *ResponseWriter) {
		rel := strings.TrimPrefix(req.Path, "/")
		clean := filepath.Clean(filepath.Join(root, rel))
		if !strings.HasPrefix(clean, filepath.Clean(root)+string(filepath.Separator)) && clean != filepath.Clean(root) {
			resp.SetStatus(400)
			_, _ = resp.Write([]byte("bad path\n"))
			return
		}

		b, err := os.ReadFile(clean)
		if err != nil {
			resp.SetStatus(404)
			_, _ = resp.Write([]byte("not found\n"))
			return
		}
		resp.Header["Content-Type"] = contentTypeFor(clean)
		_, _ = resp.Write(b)
	}
}

// StatsHandler returns a HandlerFunc serving the last written
// internal/statusfile snapshot as JSON, giving an operator a live view of
// worker_count/max_fd_per_worker/soft_fd_limit without needing shell
// access to the process.
func StatsHandler(statusPath string) HandlerFunc {
	return func(req *Request, resp *ResponseWriter) {
		snap, err := statusfile.Read(statusPath)
		if err != nil {
			resp.SetStatus(500)
			resp.Header["Content-Type"] = "text/plain; charset=utf-8"
			_, _ = resp.Write([]byte("status file unavailable\n"))
			return
		}
		resp.Header["Content-Type"] = "application/json"
		b, err := json.Marshal(snap)
		if err != nil {
			resp.SetStatus(500)
			return
		}
		_, _ = resp.Write(b)
	}
}
