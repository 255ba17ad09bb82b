package wanted

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository provides CRUD operations for wanted ads.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a wanted ad repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, image, localisation, type_bien, budget, description, created_at`

// Add stores a new wanted ad for an already saved image.
func (r *Repository) Add(a *Ad) (*Ad, error) {
	if a.Image == "" {
		return nil, fmt.Errorf("image is required")
	}
	if a.Budget != nil && *a.Budget < 0 {
		return nil, fmt.Errorf("budget must not be negative")
	}

	id := uuid.NewString()
	if _, err := r.db.Exec(
		"INSERT INTO wanted (id, image, localisation, type_bien, budget, description) VALUES (?, ?, ?, ?, ?, ?)",
		id, a.Image, a.Localisation, a.TypeBien, a.Budget, a.Description,
	); err != nil {
		return nil, fmt.Errorf("inserting wanted ad: %w", err)
	}

	return r.Get(id)
}

// Get returns a wanted ad by ID.
func (r *Repository) Get(id string) (*Ad, error) {
	row := r.db.QueryRow(fmt.Sprintf("SELECT %s FROM wanted WHERE id = ?", selectColumns), id)

	a, err := scanAd(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying wanted ad %s: %w", id, err)
	}
	return a, nil
}

// List returns all wanted ads, newest first.
func (r *Repository) List() (ads []*Ad, err error) {
	rows, err := r.db.Query(fmt.Sprintf("SELECT %s FROM wanted ORDER BY created_at DESC, rowid DESC", selectColumns))
	if err != nil {
		return nil, fmt.Errorf("listing wanted ads: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	ads = []*Ad{}
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning wanted ad: %w", err)
		}
		ads = append(ads, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating wanted ads: %w", err)
	}

	return ads, nil
}

// Delete removes the wanted ad with the given ID whose image is image.
// Both must match, so a stale client cannot delete a different ad.
func (r *Repository) Delete(id, image string) error {
	result, err := r.db.Exec("DELETE FROM wanted WHERE id = ? AND image = ?", id, image)
	if err != nil {
		return fmt.Errorf("deleting wanted ad: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

func scanAd(row interface{ Scan(...interface{}) error }) (*Ad, error) {
	var a Ad
	var budget sql.NullFloat64
	if err := row.Scan(&a.ID, &a.Image, &a.Localisation, &a.TypeBien, &budget, &a.Description, &a.CreatedAt); err != nil {
		return nil, err
	}
	if budget.Valid {
		a.Budget = &budget.Float64
	}
	return &a, nil
}
