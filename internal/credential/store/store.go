package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/credential"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetAccessToken(ctx context.Context, ownerID uuid.UUID) (string, error) {
	query := `SELECT access_token FROM bank_credentials WHERE owner_id = $1`

	var token string

	err := s.db.QueryRowContext(ctx, query, ownerID).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", credential.ErrNotFound
		}

		return "", fmt.Errorf("getting access token: %w", err)
	}

	if token == "" {
		return "", credential.ErrNotFound
	}

	return token, nil
}
