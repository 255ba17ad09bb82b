package web

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/evcraddock/biens/internal/bien"
	"github.com/evcraddock/biens/internal/wanted"
)

func (e *testEnv) fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(e.mediaDir, path))
	return err == nil
}

type addImageResponse struct {
	ImagePath string    `json:"imagePath"`
	Bien      bien.Bien `json:"bien"`
}

func TestGalleryLifecycle(t *testing.T) {
	e := newTestEnv(t)
	created := e.createBien(t, map[string]interface{}{"nom": "Loft"})

	var paths []string
	for i := 0; i < 2; i++ {
		w := e.upload(t, "POST", "/add-image?ref="+created.Ref, pngImage, nil)
		expectStatus(t, w, http.StatusCreated)
		resp := decode[addImageResponse](t, w)
		if len(resp.Bien.Gallery) != i+1 {
			t.Fatalf("gallery length = %d, want %d", len(resp.Bien.Gallery), i+1)
		}
		paths = append(paths, resp.ImagePath)
	}

	// Serve the first image back.
	w := e.request(t, "GET", "/images/"+paths[0], false, nil)
	expectStatus(t, w, http.StatusOK)
	if !bytes.Equal(w.Body.Bytes(), pngImage) {
		t.Error("served image differs from upload")
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content-type = %q, want image/png", ct)
	}

	// Replace index 1; the old file goes away.
	w = e.upload(t, "PUT", "/update-image?ref="+created.Ref+"&index=1", pngImage, nil)
	expectStatus(t, w, http.StatusOK)
	replaced := decode[map[string]string](t, w)
	if replaced["imagePath"] == "" || replaced["imagePath"] == paths[1] {
		t.Fatalf("unexpected update-image response %v", replaced)
	}
	if e.fileExists(t, paths[1]) {
		t.Error("replaced image file should be removed")
	}

	// Remove index 0 through /medias.
	w = e.request(t, "DELETE", fmt.Sprintf("/medias/%s?ref=%s&index=0", paths[0], created.Ref), true, nil)
	expectStatus(t, w, http.StatusOK)
	if e.fileExists(t, paths[0]) {
		t.Error("deleted image file should be removed")
	}

	// Deleting the listing releases the remaining file.
	expectStatus(t, e.request(t, "DELETE", "/delete?ref="+created.Ref, true, nil), http.StatusOK)
	if e.fileExists(t, replaced["imagePath"]) {
		t.Error("gallery file should be removed with the listing")
	}
}

func TestGalleryErrors(t *testing.T) {
	e := newTestEnv(t)
	created := e.createBien(t, map[string]interface{}{"nom": "Loft"})

	w := e.upload(t, "POST", "/add-image?ref="+created.Ref, pngImage, nil)
	expectStatus(t, w, http.StatusCreated)
	path := decode[addImageResponse](t, w).ImagePath

	tests := []struct {
		name   string
		do     func() int
		status int
	}{
		{"add to missing listing", func() int {
			return e.upload(t, "POST", "/add-image?ref=missing", pngImage, nil).Code
		}, http.StatusNotFound},
		{"add non-image", func() int {
			return e.upload(t, "POST", "/add-image?ref="+created.Ref, []byte("plain text"), nil).Code
		}, http.StatusUnsupportedMediaType},
		{"add without file", func() int {
			return e.upload(t, "POST", "/add-image?ref="+created.Ref, nil, map[string]string{"x": "y"}).Code
		}, http.StatusBadRequest},
		{"replace out of range", func() int {
			return e.upload(t, "PUT", "/update-image?ref="+created.Ref+"&index=5", pngImage, nil).Code
		}, http.StatusBadRequest},
		{"replace bad index", func() int {
			return e.upload(t, "PUT", "/update-image?ref="+created.Ref+"&index=abc", pngImage, nil).Code
		}, http.StatusBadRequest},
		{"delete mismatched index", func() int {
			return e.request(t, "DELETE", fmt.Sprintf("/medias/%s?ref=%s&index=1", path, created.Ref), true, nil).Code
		}, http.StatusBadRequest},
		{"delete bad key", func() int {
			return e.request(t, "DELETE", "/medias/biens/passwd?ref="+created.Ref+"&index=0", true, nil).Code
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.do(); got != tt.status {
				t.Errorf("status = %d, want %d", got, tt.status)
			}
		})
	}

	entries, err := os.ReadDir(filepath.Join(e.mediaDir, "biens"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("found %d stored files, want only the original upload", len(entries))
	}
}

func TestImageNotFound(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{
		"/images/biens/5f0c3a52-9a57-4c2a-8d5e-1b1f4f9e2c11.png",
		"/images/avatars/5f0c3a52-9a57-4c2a-8d5e-1b1f4f9e2c11.png",
		"/images/biens/..%2F..%2Fetc%2Fpasswd",
	} {
		if w := e.request(t, "GET", path, false, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want %d", path, w.Code, http.StatusNotFound)
		}
	}
}

func TestWantedLifecycle(t *testing.T) {
	e := newTestEnv(t)

	w := e.upload(t, "POST", "/wanted-image", pngImage, map[string]string{
		"localisation": "Rennes", "typeBien": "Maison", "budget": "180000", "description": "jardin",
	})
	expectStatus(t, w, http.StatusCreated)
	ad := decode[wanted.Ad](t, w)
	if ad.Budget == nil || *ad.Budget != 180000 || ad.Localisation != "Rennes" {
		t.Fatalf("ad = %+v", ad)
	}
	if !e.fileExists(t, ad.Image) {
		t.Fatal("expected wanted image stored")
	}

	w = e.request(t, "GET", "/get-wanteds", false, nil)
	expectStatus(t, w, http.StatusOK)
	if ads := decode[[]wanted.Ad](t, w); len(ads) != 1 || ads[0].ID != ad.ID {
		t.Fatalf("ads = %+v", ads)
	}

	key := filepath.Base(ad.Image)
	expectStatus(t, e.request(t, "DELETE", "/delete-wanted?id="+ad.ID+"&key="+key, true, nil), http.StatusOK)
	if e.fileExists(t, ad.Image) {
		t.Error("wanted image should be removed")
	}
	expectStatus(t, e.request(t, "DELETE", "/delete-wanted?id="+ad.ID+"&key="+key, true, nil), http.StatusNotFound)
}

func TestWantedImageValidation(t *testing.T) {
	e := newTestEnv(t)

	expectStatus(t, e.upload(t, "POST", "/wanted-image", pngImage, map[string]string{"budget": "cheap"}), http.StatusBadRequest)
	expectStatus(t, e.upload(t, "POST", "/wanted-image", nil, map[string]string{"localisation": "Rennes"}), http.StatusBadRequest)
	expectStatus(t, e.request(t, "DELETE", "/delete-wanted?id=x&key=../../etc", true, nil), http.StatusBadRequest)

	entries, err := os.ReadDir(filepath.Join(e.mediaDir, "wanted"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected uploads left %d files", len(entries))
	}
}
