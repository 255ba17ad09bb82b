package bien

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository provides CRUD operations for listings.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a listing repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO biens
	(ref, nom, description, status, type_bien, localisation, superficie, prix, pieces, gallery)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, ref, nom, description, status, type_bien, localisation, superficie, prix, pieces, gallery, created_at, updated_at`

// newRef returns a fresh listing reference. UUIDv7 refs are time ordered
// and never repeat, so a deleted ref is never handed out again.
func newRef() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Insert validates and stores a new listing, assigning its ref.
func (r *Repository) Insert(b *Bien) (*Bien, error) {
	if b.Status == "" {
		b.Status = StatusAvailable
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	ref, err := newRef()
	if err != nil {
		return nil, fmt.Errorf("generating ref: %w", err)
	}

	gallery := b.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	galleryJSON, err := json.Marshal(gallery)
	if err != nil {
		return nil, fmt.Errorf("encoding gallery: %w", err)
	}

	if _, err := r.db.Exec(insertSQL,
		ref, b.Nom, b.Description, string(b.Status),
		b.TypeBien, b.Localisation, b.Superficie, b.Prix, b.Pieces,
		string(galleryJSON),
	); err != nil {
		return nil, fmt.Errorf("inserting bien: %w", err)
	}

	return r.GetByRef(ref)
}

// GetByRef returns a listing by its ref.
func (r *Repository) GetByRef(ref string) (*Bien, error) {
	return getByRef(r.db, ref)
}

type queryRower interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

func getByRef(q queryRower, ref string) (*Bien, error) {
	query := fmt.Sprintf("SELECT %s FROM biens WHERE ref = ?", selectColumns)

	b, err := scanBien(q.QueryRow(query, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("querying bien %s: %w", ref, err)
	}

	return b, nil
}

// FetchAll returns every listing in creation order. All rows are read
// inside one read-only transaction, so the result is a single snapshot.
func (r *Repository) FetchAll(ctx context.Context) (biens []*Bien, err error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("starting read transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && err == nil {
			err = fmt.Errorf("ending read transaction: %w", rbErr)
		}
	}()

	query := fmt.Sprintf("SELECT %s FROM biens ORDER BY id ASC", selectColumns)
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing biens: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		b, err := scanBien(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bien: %w", err)
		}
		biens = append(biens, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating biens: %w", err)
	}

	return biens, nil
}

// Update applies a patch to the listing with the given ref and returns
// the updated listing.
func (r *Repository) Update(ref string, p Patch) (*Bien, error) {
	var updated *Bien
	err := r.withTx(func(tx *sql.Tx) error {
		b, err := getByRef(tx, ref)
		if err != nil {
			return err
		}

		p.Apply(b)
		if err := b.Validate(); err != nil {
			return err
		}

		if _, err := tx.Exec(
			`UPDATE biens SET nom = ?, description = ?, status = ?, type_bien = ?, localisation = ?,
				superficie = ?, prix = ?, pieces = ?, updated_at = CURRENT_TIMESTAMP
			WHERE ref = ?`,
			b.Nom, b.Description, string(b.Status), b.TypeBien, b.Localisation,
			b.Superficie, b.Prix, b.Pieces, ref,
		); err != nil {
			return fmt.Errorf("updating bien: %w", err)
		}

		updated, err = getByRef(tx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a listing and returns the gallery it held, so the caller
// can release the stored images.
func (r *Repository) Delete(ref string) ([]string, error) {
	var gallery []string
	err := r.withTx(func(tx *sql.Tx) error {
		b, err := getByRef(tx, ref)
		if err != nil {
			return err
		}
		gallery = b.Gallery

		if _, err := tx.Exec("DELETE FROM biens WHERE ref = ?", ref); err != nil {
			return fmt.Errorf("deleting bien: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gallery, nil
}

// AppendImage adds an image reference to the end of the gallery.
func (r *Repository) AppendImage(ref, image string) (*Bien, error) {
	return r.modifyGallery(ref, func(g []string) ([]string, error) {
		return append(g, image), nil
	})
}

// ReplaceImage swaps the image at index and returns the updated listing
// together with the reference that was replaced.
func (r *Repository) ReplaceImage(ref string, index int, image string) (*Bien, string, error) {
	var old string
	b, err := r.modifyGallery(ref, func(g []string) ([]string, error) {
		if index < 0 || index >= len(g) {
			return nil, fmt.Errorf("%w: %d (gallery has %d images)", ErrInvalidIndex, index, len(g))
		}
		old = g[index]
		g[index] = image
		return g, nil
	})
	if err != nil {
		return nil, "", err
	}
	return b, old, nil
}

// RemoveImage deletes the image at index. The stored reference must equal
// image, which guards against removing a slot that shifted meanwhile.
func (r *Repository) RemoveImage(ref string, index int, image string) (*Bien, error) {
	return r.modifyGallery(ref, func(g []string) ([]string, error) {
		if index < 0 || index >= len(g) {
			return nil, fmt.Errorf("%w: %d (gallery has %d images)", ErrInvalidIndex, index, len(g))
		}
		if g[index] != image {
			return nil, fmt.Errorf("%w: image %d is %s, not %s", ErrInvalidIndex, index, g[index], image)
		}
		return append(g[:index], g[index+1:]...), nil
	})
}

// modifyGallery runs a read-modify-write cycle on a listing's gallery
// inside a single transaction.
func (r *Repository) modifyGallery(ref string, fn func([]string) ([]string, error)) (*Bien, error) {
	var updated *Bien
	err := r.withTx(func(tx *sql.Tx) error {
		b, err := getByRef(tx, ref)
		if err != nil {
			return err
		}

		gallery, err := fn(b.Gallery)
		if err != nil {
			return err
		}

		data, err := json.Marshal(gallery)
		if err != nil {
			return fmt.Errorf("encoding gallery: %w", err)
		}

		if _, err := tx.Exec(
			"UPDATE biens SET gallery = ?, updated_at = CURRENT_TIMESTAMP WHERE ref = ?",
			string(data), ref,
		); err != nil {
			return fmt.Errorf("updating gallery: %w", err)
		}

		updated, err = getByRef(tx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// withTx runs fn in a transaction, committing on success.
func (r *Repository) withTx(fn func(*sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (also failed to roll back: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
