package web

import (
	"errors"
	"net/http"

	"github.com/evcraddock/biens/internal/auth"
	"github.com/evcraddock/biens/internal/lead"
	"github.com/evcraddock/biens/internal/review"
)

// handleForm returns the handler for one of the lead forms.
func (s *Server) handleForm(kind lead.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := readBody(w, r)
		if err != nil {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}

		l, err := lead.Parse(kind, data)
		if errors.Is(err, lead.ErrInvalid) {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			internalError(w, r, err)
			return
		}

		err = s.leads.Dispatch(r.Context(), l)
		s.metrics.leadResult(string(kind), err == nil)
		if err != nil {
			logWarn(r, "lead delivery failed", err, "kind", kind)
			apiError(w, "message could not be delivered", http.StatusBadGateway)
			return
		}

		apiJSON(w, map[string]string{"message": "Message envoyé avec succès"}, http.StatusOK)
	}
}

func (s *Server) handleTokenLog(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]interface{}{
		"connected": true,
		"email":     auth.EmailFromContext(r.Context()),
	}, http.StatusOK)
}

type reviewRequest struct {
	Pseudo      string `json:"pseudo"`
	Stars       int    `json:"stars"`
	Description string `json:"description"`
}

func (s *Server) handleAddReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rv, err := s.reviews.Add(req.Pseudo, req.Stars, req.Description)
	if errors.Is(err, review.ErrInvalid) {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	apiJSON(w, rv, http.StatusCreated)
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("allreviews") == "true"

	reviews, err := s.reviews.List(all)
	if err != nil {
		internalError(w, r, err)
		return
	}
	apiJSON(w, reviews, http.StatusOK)
}

func (s *Server) handleValidationReview(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	status, err := review.ParseModeration(r.URL.Query().Get("status"))
	if err != nil {
		apiError(w, "status must be valid or invalid", http.StatusBadRequest)
		return
	}

	rv, err := s.reviews.SetStatus(id, status)
	if errors.Is(err, review.ErrNotFound) {
		apiError(w, "review not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	apiJSON(w, rv, http.StatusOK)
}
