package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ontology/internal/domain"
	"ontology/internal/provider"
)

type authStore struct {
	p *Provider
}

// CurrentUser resolves a bearer token to the person it was issued for
func (s *authStore) CurrentUser(ctx context.Context, token string) (*domain.Thing, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token: %w", provider.ErrUnauthorized)
	}

	var personID string
	err := s.p.db.QueryRowContext(ctx,
		"SELECT person_id FROM auth_tokens WHERE token_hash = ?", provider.HashToken(token)).Scan(&personID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("unknown token: %w", provider.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", mapError(err))
	}

	person, err := getThing(ctx, s.p.db, personID)
	if errors.Is(err, provider.ErrNotFound) {
		// person was removed after the token was issued
		return nil, fmt.Errorf("token owner %s gone: %w", personID, provider.ErrUnauthorized)
	}
	return person, err
}

// IssueToken creates a bearer token for a person thing
func (s *authStore) IssueToken(ctx context.Context, personID string) (string, error) {
	person, err := getThing(ctx, s.p.db, personID)
	if err != nil {
		return "", err
	}
	if !person.IsPerson() {
		return "", fmt.Errorf("thing %s is not a person: %w", personID, provider.ErrNotFound)
	}

	token, err := provider.NewToken()
	if err != nil {
		return "", err
	}
	_, err = s.p.db.ExecContext(ctx,
		"INSERT INTO auth_tokens (token_hash, person_id, created_at) VALUES (?, ?, ?)",
		provider.HashToken(token), personID, s.p.nowMillis())
	if err != nil {
		return "", fmt.Errorf("failed to store token: %w", mapError(err))
	}
	return token, nil
}
