package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/biens/internal/bien"
	"github.com/evcraddock/biens/internal/media"
	"github.com/evcraddock/biens/internal/wanted"
)

// multipart overhead allowed on top of the image itself
const maxUploadBody = media.MaxImageSize + 1<<20

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	repertoire, key := chi.URLParam(r, "repertoire"), chi.URLParam(r, "key")

	f, err := s.media.Open(repertoire, key)
	switch {
	case errors.Is(err, media.ErrInvalidPath), errors.Is(err, media.ErrNotFound):
		apiError(w, "image not found", http.StatusNotFound)
		return
	case err != nil:
		internalError(w, r, err)
		return
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logWarn(r, "closing image", cerr, "key", key)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		internalError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	http.ServeContent(w, r, key, info.ModTime(), f)
}

// saveUpload stores the "image" part of a multipart request in repertoire.
// It writes the error response itself and reports whether it succeeded.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request, repertoire string) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apiError(w, "image too large", http.StatusRequestEntityTooLarge)
			return "", false
		}
		apiError(w, "expected multipart form data", http.StatusBadRequest)
		return "", false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		apiError(w, "image file is required", http.StatusBadRequest)
		return "", false
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			logWarn(r, "closing upload", cerr)
		}
	}()

	path, err := s.media.Save(repertoire, file)
	switch {
	case errors.Is(err, media.ErrUnsupportedType):
		apiError(w, err.Error(), http.StatusUnsupportedMediaType)
		return "", false
	case errors.Is(err, media.ErrTooLarge):
		apiError(w, "image too large", http.StatusRequestEntityTooLarge)
		return "", false
	case err != nil:
		internalError(w, r, err)
		return "", false
	}

	return path, true
}

// discard removes an uploaded file whose database write failed.
func (s *Server) discard(r *http.Request, path string) {
	if err := s.media.Remove(path); err != nil {
		logWarn(r, "removing orphaned upload", err, "image", path)
	}
}

func galleryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, bien.ErrNotFound):
		apiError(w, "bien not found", http.StatusNotFound)
	case errors.Is(err, bien.ErrInvalidIndex):
		apiError(w, err.Error(), http.StatusBadRequest)
	default:
		internalError(w, r, err)
	}
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	v, ok := requiredParam(w, r, "index")
	if !ok {
		return 0, false
	}
	index, err := strconv.Atoi(v)
	if err != nil || index < 0 {
		apiError(w, "index must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func (s *Server) handleAddImage(w http.ResponseWriter, r *http.Request) {
	ref, ok := requiredParam(w, r, "ref")
	if !ok {
		return
	}

	path, ok := s.saveUpload(w, r, media.Biens)
	if !ok {
		return
	}

	b, err := s.biens.AppendImage(ref, path)
	if err != nil {
		s.discard(r, path)
		galleryError(w, r, err)
		return
	}

	apiJSON(w, map[string]interface{}{"imagePath": path, "bien": b}, http.StatusCreated)
}

func (s *Server) handleUpdateImage(w http.ResponseWriter, r *http.Request) {
	ref, ok := requiredParam(w, r, "ref")
	if !ok {
		return
	}
	index, ok := indexParam(w, r)
	if !ok {
		return
	}

	path, ok := s.saveUpload(w, r, media.Biens)
	if !ok {
		return
	}

	_, old, err := s.biens.ReplaceImage(ref, index, path)
	if err != nil {
		s.discard(r, path)
		galleryError(w, r, err)
		return
	}
	if err := s.media.Remove(old); err != nil {
		logWarn(r, "removing replaced image", err, "image", old)
	}

	apiJSON(w, map[string]string{"message": "image mise à jour", "imagePath": path}, http.StatusOK)
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	ref, ok := requiredParam(w, r, "ref")
	if !ok {
		return
	}
	index, ok := indexParam(w, r)
	if !ok {
		return
	}

	path := chi.URLParam(r, "repertoire") + "/" + chi.URLParam(r, "key")
	if _, _, err := media.SplitPath(path); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := s.biens.RemoveImage(ref, index, path)
	if err != nil {
		galleryError(w, r, err)
		return
	}
	if err := s.media.Remove(path); err != nil {
		logWarn(r, "removing image", err, "image", path)
	}

	apiJSON(w, map[string]interface{}{"message": "image supprimée", "bien": b}, http.StatusOK)
}

func (s *Server) handleWantedImage(w http.ResponseWriter, r *http.Request) {
	path, ok := s.saveUpload(w, r, media.Wanted)
	if !ok {
		return
	}

	ad := &wanted.Ad{
		Image:        path,
		Localisation: strings.TrimSpace(r.FormValue("localisation")),
		TypeBien:     strings.TrimSpace(r.FormValue("typeBien")),
		Description:  strings.TrimSpace(r.FormValue("description")),
	}
	if v := strings.TrimSpace(r.FormValue("budget")); v != "" {
		budget, err := strconv.ParseFloat(v, 64)
		if err != nil || budget < 0 {
			s.discard(r, path)
			apiError(w, "budget must be a non-negative number", http.StatusBadRequest)
			return
		}
		ad.Budget = &budget
	}

	saved, err := s.wanted.Add(ad)
	if err != nil {
		s.discard(r, path)
		internalError(w, r, err)
		return
	}

	apiJSON(w, saved, http.StatusCreated)
}

func (s *Server) handleGetWanteds(w http.ResponseWriter, r *http.Request) {
	ads, err := s.wanted.List()
	if err != nil {
		internalError(w, r, err)
		return
	}
	apiJSON(w, ads, http.StatusOK)
}

func (s *Server) handleDeleteWanted(w http.ResponseWriter, r *http.Request) {
	id, ok := requiredParam(w, r, "id")
	if !ok {
		return
	}
	key, ok := requiredParam(w, r, "key")
	if !ok {
		return
	}
	if !media.ValidKey(key) {
		apiError(w, "invalid image key", http.StatusBadRequest)
		return
	}

	path := media.Wanted + "/" + key
	err := s.wanted.Delete(id, path)
	if errors.Is(err, wanted.ErrNotFound) {
		apiError(w, "wanted ad not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	if err := s.media.Remove(path); err != nil {
		logWarn(r, "removing wanted image", err, "image", path)
	}

	apiJSON(w, map[string]string{"message": "annonce supprimée", "id": id}, http.StatusOK)
}
