package httpapp

import (
	"mime"
	"path/filepath"
)

// contentTypeFor returns the MIME type for name's extension, defaulting to
// application/octet-stream when the extension is unknown. A two-line
// wrapper over the standard library's built-in type table; no package in
// the examples pack narrows this further, so it stays on stdlib.
func contentTypeFor(name string) string {
	ext := filepath.Ext(name)
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
