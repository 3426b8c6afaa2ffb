package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/petitmaker/training-backend/internal/auth/middleware"
	"github.com/petitmaker/training-backend/internal/document"
)

// GET /documents/{docType}
func ResolveDocumentHandler(svc *document.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		typ := document.Type(chi.URLParam(r, "docType"))
		if !document.ValidType(typ) {
			writeError(w, http.StatusBadRequest, "bad_doc_type", "unknown document type")
			return
		}
		res, err := svc.Resolve(r.Context(), learnerID, typ)
		if err != nil {
			svcError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /documents — every rendered PDF on file for the learner, newest first.
func ListDocumentsHandler(store document.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		recs, err := store.ListForLearner(r.Context(), learnerID)
		if err != nil {
			svcError(w, err)
			return
		}
		if recs == nil {
			recs = []document.Record{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

// POST /documents/{docType}/sign — multipart form, field "signature" (PNG).
func SignDocumentHandler(svc *document.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		typ := document.Type(chi.URLParam(r, "docType"))
		if !document.ValidType(typ) {
			writeError(w, http.StatusBadRequest, "bad_doc_type", "unknown document type")
			return
		}
		f, _, err := r.FormFile("signature")
		if err != nil {
			writeError(w, http.StatusBadRequest, "signature_required", "signature file required")
			return
		}
		defer f.Close()
		png, err := io.ReadAll(io.LimitReader(f, 2<<20))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_upload", "could not read signature")
			return
		}
		res, err := svc.Sign(r.Context(), learnerID, typ, png)
		if err != nil {
			svcError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /documents/{docType}/regenerate
func RegenerateDocumentHandler(svc *document.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		typ := document.Type(chi.URLParam(r, "docType"))
		if !document.ValidType(typ) {
			writeError(w, http.StatusBadRequest, "bad_doc_type", "unknown document type")
			return
		}
		res, err := svc.Regenerate(r.Context(), learnerID, typ)
		if err != nil {
			svcError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /documents/view/open and /documents/view/close toggle the polling
// pause gate: a refresh must not race a signing operation while the
// learner has the full-screen document open.
func OpenDocumentViewHandler(reg *WatchRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg.Pause(auth.SubjectFromContext(r.Context()))
		writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
	}
}

func CloseDocumentViewHandler(reg *WatchRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg.Resume(auth.SubjectFromContext(r.Context()))
		writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
	}
}
