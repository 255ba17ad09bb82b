package review

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Repository provides data access for reviews.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a review repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add stores a new pending review.
func (r *Repository) Add(pseudo string, stars int, description string) (*Review, error) {
	pseudo = strings.TrimSpace(pseudo)
	if pseudo == "" {
		return nil, fmt.Errorf("%w: pseudo is required", ErrInvalid)
	}
	if stars < 1 || stars > 5 {
		return nil, fmt.Errorf("%w: stars must be between 1 and 5", ErrInvalid)
	}

	result, err := r.db.Exec(
		"INSERT INTO reviews (pseudo, stars, description, status) VALUES (?, ?, ?, ?)",
		pseudo, stars, description, string(StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.Get(id)
}

// Get returns a review by ID.
func (r *Repository) Get(id int64) (*Review, error) {
	var rv Review
	var status string
	err := r.db.QueryRow(
		"SELECT id, pseudo, stars, description, status, created_at FROM reviews WHERE id = ?", id,
	).Scan(&rv.ID, &rv.Pseudo, &rv.Stars, &rv.Description, &status, &rv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading review: %w", err)
	}
	rv.Status = Status(status)
	return &rv, nil
}

// List returns reviews newest first. Unless all is set, only valid reviews
// are returned.
func (r *Repository) List(all bool) (reviews []*Review, err error) {
	query := "SELECT id, pseudo, stars, description, status, created_at FROM reviews"
	var args []interface{}
	if !all {
		query += " WHERE status = ?"
		args = append(args, string(StatusValid))
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	reviews = []*Review{}
	for rows.Next() {
		var rv Review
		var status string
		if err := rows.Scan(&rv.ID, &rv.Pseudo, &rv.Stars, &rv.Description, &status, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		rv.Status = Status(status)
		reviews = append(reviews, &rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reviews: %w", err)
	}

	return reviews, nil
}

// SetStatus records a moderation decision for the review with the given ID.
func (r *Repository) SetStatus(id int64, status Status) (*Review, error) {
	if status != StatusValid && status != StatusInvalid {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	result, err := r.db.Exec("UPDATE reviews SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return nil, fmt.Errorf("updating review status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	return r.Get(id)
}
