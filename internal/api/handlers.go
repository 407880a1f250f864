package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/eyefile/internal/library"
)

// maxBodyBytes caps JSON request bodies; library metadata and note
// texts stay well below this.
const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *library.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *library.Service) *Handler {
	return &Handler{svc: svc}
}

// idParam parses the numeric {id} URL parameter.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
