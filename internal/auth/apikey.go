package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	apiKeyBytes  = 32 // 256-bit keys
	apiKeyPrefix = "bi_"
)

// ErrKeyNotFound is returned when deleting an unknown API key.
var ErrKeyNotFound = errors.New("api key not found")

// APIKey is the stored representation of an API key (no raw key).
type APIKey struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	KeyPrefix  string     `json:"key_prefix"` // first 8 chars for identification
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// APIKeyStore manages API keys in SQLite.
type APIKeyStore struct {
	db *sql.DB
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(db *sql.DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// IsAPIKey reports whether a bearer credential has the API key shape
// rather than being a signed token.
func IsAPIKey(raw string) bool {
	return strings.HasPrefix(raw, apiKeyPrefix)
}

// Create generates a new API key acting on behalf of email.
// Returns the raw key (shown once to user) and the stored record.
func (s *APIKeyStore) Create(name, email string) (string, *APIKey, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return "", nil, fmt.Errorf("key name is required")
	}
	if email == "" {
		return "", nil, fmt.Errorf("key email is required")
	}

	raw, err := generateAPIKey()
	if err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}

	prefix := raw[:8]
	hash := hashAPIKey(raw)

	result, err := s.db.Exec(
		"INSERT INTO api_keys (name, email, key_prefix, key_hash) VALUES (?, ?, ?, ?)",
		name, email, prefix, hash,
	)
	if err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", nil, fmt.Errorf("getting key id: %w", err)
	}

	key := &APIKey{
		ID:        id,
		Name:      name,
		Email:     email,
		KeyPrefix: prefix,
		CreatedAt: time.Now().UTC(),
	}

	return raw, key, nil
}

// List returns all API keys (without the raw key), newest first.
func (s *APIKeyStore) List() (keys []APIKey, err error) {
	rows, err := s.db.Query(
		"SELECT id, name, email, key_prefix, created_at, last_used_at FROM api_keys ORDER BY id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	keys = []APIKey{}
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.Email, &k.KeyPrefix, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// Delete removes an API key by ID.
func (s *APIKeyStore) Delete(id int64) error {
	result, err := s.db.Exec("DELETE FROM api_keys WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", ErrKeyNotFound, id)
	}

	return nil
}

// Validate checks a raw API key against stored hashes.
// Returns the email the key belongs to, or "" if the key is unknown,
// and updates last_used_at.
func (s *APIKeyStore) Validate(rawKey string) (string, error) {
	hash := hashAPIKey(rawKey)

	var email string
	err := s.db.QueryRow(
		"UPDATE api_keys SET last_used_at = ? WHERE key_hash = ? RETURNING email",
		time.Now().UTC(), hash,
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("validating key: %w", err)
	}

	return email, nil
}

func generateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}

func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
