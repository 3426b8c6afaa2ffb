package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/petitmaker/training-backend/internal/storage"
)

// MountFiles serves blobs from the fs store so the public URLs it hands
// out resolve. Signed PDFs and signature assets only; protected routes.
func MountFiles(r chi.Router, bs storage.BlobStore) {
	r.Get("/{bucket}/*", func(w http.ResponseWriter, r *http.Request) {
		bucket := chi.URLParam(r, "bucket")
		if bucket != storage.BucketSignatures && bucket != storage.BucketDocuments {
			http.Error(w, "unknown bucket", http.StatusNotFound)
			return
		}
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(bucket, key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		if strings.HasSuffix(key, ".pdf") {
			w.Header().Set("Content-Type", "application/pdf")
		} else if strings.HasSuffix(key, ".png") {
			w.Header().Set("Content-Type", "image/png")
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		_, _ = io.Copy(w, rc)
	})
}
