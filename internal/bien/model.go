// Package bien provides the property listing ("bien") domain model,
// its SQLite repository and the listing query engine.
package bien

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle tag of a listing.
type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusSold      Status = "sold"
)

// ValidStatus returns true if s is a known listing status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusAvailable, StatusPending, StatusSold:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when no listing has the requested ref.
	ErrNotFound = errors.New("bien not found")
	// ErrInvalidIndex is returned when a gallery index is out of range.
	ErrInvalidIndex = errors.New("invalid gallery index")
	// ErrInvalid is returned when listing fields fail validation.
	ErrInvalid = errors.New("invalid bien")
)

// Bien is a real-estate listing.
type Bien struct {
	ID           int64     `json:"-"`
	Ref          string    `json:"ref"`
	Nom          string    `json:"nom"`
	Description  string    `json:"description"`
	Status       Status    `json:"status"`
	TypeBien     string    `json:"typeBien"`
	Localisation string    `json:"localisation"`
	Superficie   float64   `json:"superficie"`
	Prix         float64   `json:"prix"`
	Pieces       int       `json:"pieces"`
	Gallery      []string  `json:"gallery"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Patch holds the mutable fields of a listing. Nil fields are left unchanged.
type Patch struct {
	Nom          *string  `json:"nom"`
	Description  *string  `json:"description"`
	Status       *string  `json:"status"`
	TypeBien     *string  `json:"typeBien"`
	Localisation *string  `json:"localisation"`
	Superficie   *float64 `json:"superficie"`
	Prix         *float64 `json:"prix"`
	Pieces       *int     `json:"pieces"`
}

// Apply copies the non-nil patch fields onto b.
func (p Patch) Apply(b *Bien) {
	if p.Nom != nil {
		b.Nom = *p.Nom
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Status != nil {
		b.Status = Status(*p.Status)
	}
	if p.TypeBien != nil {
		b.TypeBien = *p.TypeBien
	}
	if p.Localisation != nil {
		b.Localisation = *p.Localisation
	}
	if p.Superficie != nil {
		b.Superficie = *p.Superficie
	}
	if p.Prix != nil {
		b.Prix = *p.Prix
	}
	if p.Pieces != nil {
		b.Pieces = *p.Pieces
	}
}

// Validate checks the fields a listing must satisfy before it is stored.
func (b *Bien) Validate() error {
	if b.Nom == "" {
		return fmt.Errorf("%w: nom is required", ErrInvalid)
	}
	if !ValidStatus(string(b.Status)) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, b.Status)
	}
	if b.Prix < 0 {
		return fmt.Errorf("%w: prix must not be negative", ErrInvalid)
	}
	if b.Superficie < 0 {
		return fmt.Errorf("%w: superficie must not be negative", ErrInvalid)
	}
	if b.Pieces < 0 {
		return fmt.Errorf("%w: pieces must not be negative", ErrInvalid)
	}
	return nil
}

// scanBien scans a listing from a database row.
func scanBien(row interface{ Scan(...interface{}) error }) (*Bien, error) {
	var b Bien
	var status, gallery string

	err := row.Scan(
		&b.ID, &b.Ref, &b.Nom, &b.Description, &status,
		&b.TypeBien, &b.Localisation, &b.Superficie, &b.Prix, &b.Pieces,
		&gallery, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = Status(status)
	if err := json.Unmarshal([]byte(gallery), &b.Gallery); err != nil {
		return nil, fmt.Errorf("decoding gallery of %s: %w", b.Ref, err)
	}
	if b.Gallery == nil {
		b.Gallery = []string{}
	}

	return &b, nil
}
