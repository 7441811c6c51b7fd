package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// The athlete's Strava tokens live in a single row (id = 1)

// GetAuth returns the stored tokens, or ErrNoAuth before the first login
func (s *Store) GetAuth() (*Auth, error) {
	var (
		auth      Auth
		expiresAt int64
	)
	err := s.db.QueryRow(`
		SELECT athlete_id, access_token, refresh_token, expires_at, scope
		FROM auth WHERE id = 1
	`).Scan(&auth.AthleteID, &auth.AccessToken, &auth.RefreshToken, &expiresAt, &auth.Scope)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAuth
	}
	if err != nil {
		return nil, fmt.Errorf("reading auth: %w", err)
	}

	auth.ExpiresAt = time.Unix(expiresAt, 0)
	return &auth, nil
}

// SaveAuth replaces the stored login. An empty scope keeps the previously
// granted one, since token responses do not repeat it.
func (s *Store) SaveAuth(auth *Auth) error {
	_, err := s.db.Exec(`
		INSERT INTO auth (id, athlete_id, access_token, refresh_token, expires_at, scope, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			scope = CASE WHEN excluded.scope = '' THEN auth.scope ELSE excluded.scope END,
			updated_at = CURRENT_TIMESTAMP
	`, auth.AthleteID, auth.AccessToken, auth.RefreshToken, auth.ExpiresAt.Unix(), auth.Scope)
	if err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	return nil
}

// UpdateTokens stores a refreshed token pair. Returns ErrNoAuth when there
// is no login to refresh.
func (s *Store) UpdateTokens(accessToken, refreshToken string, expiresAt time.Time) error {
	result, err := s.db.Exec(`
		UPDATE auth
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, accessToken, refreshToken, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoAuth
	}
	return nil
}

// DeleteAuth forgets the login. Synced activities are kept.
func (s *Store) DeleteAuth() error {
	if _, err := s.db.Exec(`DELETE FROM auth WHERE id = 1`); err != nil {
		return fmt.Errorf("deleting auth: %w", err)
	}
	return nil
}
