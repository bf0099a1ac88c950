// Package attachment stores passport scans uploaded with a registration.
// References are opaque strings of the form "<backend>:<key>" and are kept
// on the registration record.
package attachment

import (
	"mime"
	"path/filepath"
	"strings"

	"coffeereg/internal/registration/models"
)

const (
	backendFS     = "fs"
	backendGridFS = "gridfs"
)

func splitRef(ref string) (backend, key string, ok bool) {
	backend, key, ok = strings.Cut(ref, ":")
	return backend, key, ok && key != ""
}

// extension prefers the uploaded file's extension and falls back to the
// declared content type.
func extension(up *models.Upload) string {
	if ext := strings.ToLower(filepath.Ext(up.Filename)); ext != "" && len(ext) <= 5 {
		return ext
	}
	if exts, err := mime.ExtensionsByType(up.ContentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
