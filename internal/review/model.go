// Package review provides user reviews and their moderation.
package review

import (
	"errors"
	"time"
)

// Status is the moderation state of a review.
type Status string

const (
	StatusPending Status = "pending"
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
)

var (
	// ErrNotFound is returned when no review has the requested ID.
	ErrNotFound = errors.New("review not found")
	// ErrInvalidStatus is returned for a moderation status other than valid or invalid.
	ErrInvalidStatus = errors.New("invalid review status")
	// ErrInvalid is returned when a submitted review fails validation.
	ErrInvalid = errors.New("invalid review")
)

// Review is a user-submitted rating.
type Review struct {
	ID          int64     `json:"id"`
	Pseudo      string    `json:"pseudo"`
	Stars       int       `json:"stars"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ParseModeration parses a moderation decision. Only valid and invalid
// are accepted; a review cannot be moved back to pending.
func ParseModeration(s string) (Status, error) {
	switch Status(s) {
	case StatusValid, StatusInvalid:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}
