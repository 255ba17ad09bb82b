// Package media stores uploaded images on the local filesystem.
//
// Images live under <root>/<repertoire>/<key>, where the key is a random
// UUID plus an extension derived from the sniffed content type. Callers
// refer to an image by its path "<repertoire>/<key>".
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Repertoires that may hold images.
const (
	Biens  = "biens"
	Wanted = "wanted"
)

// MaxImageSize is the largest accepted upload, in bytes.
const MaxImageSize = 10 << 20

var (
	// ErrNotFound is returned when an image does not exist.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidPath is returned for unknown repertoires or malformed keys.
	ErrInvalidPath = errors.New("invalid image path")
	// ErrUnsupportedType is returned when an upload is not a supported image.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned when an upload exceeds MaxImageSize.
	ErrTooLarge = errors.New("image too large")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store reads and writes images below a root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir, creating the repertoire
// directories if needed.
func NewStore(dir string) (*Store, error) {
	for _, rep := range []string{Biens, Wanted} {
		path := filepath.Join(dir, rep)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("creating media directory %s: %w", path, err)
		}
	}
	return &Store{root: dir}, nil
}

// Save writes the image read from r into repertoire and returns its path.
func (s *Store) Save(repertoire string, r io.Reader) (string, error) {
	if !validRepertoire(repertoire) {
		return "", fmt.Errorf("%w: unknown repertoire %q", ErrInvalidPath, repertoire)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	key := uuid.NewString() + ext
	dir := filepath.Join(s.root, repertoire)

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			fmt.Fprintf(os.Stderr, "warning: removing %s: %v\n", tmpName, rmErr)
		}
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	written, err := io.Copy(tmp, io.LimitReader(body, MaxImageSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", fmt.Errorf("writing image: %w", err)
	}
	if written > MaxImageSize {
		cleanup()
		return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, MaxImageSize)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, key)); err != nil {
		cleanup()
		return "", fmt.Errorf("storing image: %w", err)
	}

	return repertoire + "/" + key, nil
}

// Open returns the image at repertoire/key for reading.
func (s *Store) Open(repertoire, key string) (*os.File, error) {
	file, err := s.file(repertoire, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(file)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, repertoire, key)
	}
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	return f, nil
}

// Remove deletes the image at path. Removing a missing image is not an error.
func (s *Store) Remove(path string) error {
	repertoire, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	file, err := s.file(repertoire, key)
	if err != nil {
		return err
	}

	if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing image %s: %w", path, err)
	}
	return nil
}

// RemoveAll deletes every image in paths and returns the first error.
func (s *Store) RemoveAll(paths []string) error {
	var first error
	for _, p := range paths {
		if err := s.Remove(p); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SplitPath splits "repertoire/key" into its parts and validates them.
func SplitPath(path string) (string, string, error) {
	repertoire, key, ok := strings.Cut(path, "/")
	if !ok || !validRepertoire(repertoire) || !ValidKey(key) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return repertoire, key, nil
}

// ValidKey reports whether key has the shape produced by Save:
// a UUID followed by a known image extension.
func ValidKey(key string) bool {
	ext := filepath.Ext(key)
	known := false
	for _, e := range extensions {
		if e == ext {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	_, err := uuid.Parse(strings.TrimSuffix(key, ext))
	return err == nil
}

func (s *Store) file(repertoire, key string) (string, error) {
	if !validRepertoire(repertoire) || !ValidKey(key) {
		return "", fmt.Errorf("%w: %s/%s", ErrInvalidPath, repertoire, key)
	}
	return filepath.Join(s.root, repertoire, key), nil
}

func validRepertoire(r string) bool {
	return r == Biens || r == Wanted
}
