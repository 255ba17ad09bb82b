// Package wanted provides the wanted-ad domain model and data access.
// A wanted ad describes a property someone is looking for and carries
// one image.
package wanted

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no wanted ad matches the request.
var ErrNotFound = errors.New("wanted ad not found")

// Ad is a wanted ad.
type Ad struct {
	ID           string    `json:"id"`
	Image        string    `json:"image"`
	Localisation string    `json:"localisation"`
	TypeBien     string    `json:"typeBien"`
	Budget       *float64  `json:"budget,omitempty"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
}
