package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/evcraddock/biens/internal/bien"
)

type createRequest struct {
	Nom          string  `json:"nom"`
	Description  string  `json:"description"`
	Status       string  `json:"status"`
	TypeBien     string  `json:"typeBien"`
	Localisation string  `json:"localisation"`
	Superficie   float64 `json:"superficie"`
	Prix         float64 `json:"prix"`
	Pieces       int     `json:"pieces"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := s.biens.Insert(&bien.Bien{
		Nom:          req.Nom,
		Description:  req.Description,
		Status:       bien.Status(req.Status),
		TypeBien:     req.TypeBien,
		Localisation: req.Localisation,
		Superficie:   req.Superficie,
		Prix:         req.Prix,
		Pieces:       req.Pieces,
	})
	if errors.Is(err, bien.ErrInvalid) {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	apiJSON(w, map[string]interface{}{"ref": b.Ref, "bien": b}, http.StatusCreated)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ref, ok := requiredParam(w, r, "ref")
	if !ok {
		return
	}

	var patch bien.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := s.biens.Update(ref, patch)
	switch {
	case errors.Is(err, bien.ErrNotFound):
		apiError(w, "bien not found", http.StatusNotFound)
	case errors.Is(err, bien.ErrInvalid):
		apiError(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		internalError(w, r, err)
	default:
		apiJSON(w, b, http.StatusOK)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ref, ok := requiredParam(w, r, "ref")
	if !ok {
		return
	}

	gallery, err := s.biens.Delete(ref)
	if errors.Is(err, bien.ErrNotFound) {
		apiError(w, "bien not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	// The row is gone; a file that cannot be removed is only logged.
	if err := s.media.RemoveAll(gallery); err != nil {
		logWarn(r, "removing gallery images", err, "ref", ref)
	}

	apiJSON(w, map[string]string{"message": "bien supprimé", "ref": ref}, http.StatusOK)
}

func (s *Server) handleGetOne(w http.ResponseWriter, r *http.Request) {
	ref, ok := requiredParam(w, r, "ref")
	if !ok {
		return
	}

	b, err := s.biens.GetByRef(ref)
	if errors.Is(err, bien.ErrNotFound) {
		apiError(w, "bien not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	apiJSON(w, b, http.StatusOK)
}

func (s *Server) handleAllBiens(w http.ResponseWriter, r *http.Request) {
	q, err := bien.ParseQuery(r.URL.Query())
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := bien.Search(r.Context(), s.biens, q)
	switch {
	case errors.Is(err, bien.ErrInvalidQuery):
		apiError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, bien.ErrStorageUnavailable):
		slog.ErrorContext(r.Context(), "listing storage unavailable", "error", err)
		apiError(w, "listing storage unavailable", http.StatusServiceUnavailable)
	case err != nil:
		internalError(w, r, err)
	default:
		apiJSON(w, page, http.StatusOK)
	}
}
