package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/starford/eyefile/internal/apperr"
	"github.com/starford/eyefile/internal/checksum"
	"github.com/starford/eyefile/internal/files"
	"github.com/starford/eyefile/internal/library"
)

// FileHandler serves the stored files that documents point at. The
// files themselves are never written through the API; the library
// directory is managed outside the service.
type FileHandler struct {
	svc *library.Service
	lib *files.Root
}

// NewFileHandler creates a handler serving files from the library root.
func NewFileHandler(svc *library.Service, lib *files.Root) *FileHandler {
	return &FileHandler{svc: svc, lib: lib}
}

// ServeDocumentFile handles GET /api/documents/{id}/file.
//
//	@Summary		Download the file a document points at
//	@Tags			documents
//	@Produce		octet-stream
//	@Param			id	path	int	true	"Document ID"
//	@Success		200	"File contents"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/file [get]
func (h *FileHandler) ServeDocumentFile(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("serve file failed", slog.Int64("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	abs, err := h.lib.Resolve(doc.FilePath)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("file not available"))
		return
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		writeJSON(w, http.StatusNotFound, errorBody("file not available"))
		return
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		slog.Error("serve file read failed", slog.Int64("id", id), slog.String("path", doc.FilePath), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	// ServeContent honours Range and If-None-Match against this ETag.
	w.Header().Set("ETag", checksum.ETag(data))
	http.ServeContent(w, r, filepath.Base(abs), info.ModTime(), bytes.NewReader(data))
}
