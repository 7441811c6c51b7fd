package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/oauth2"

	"endurance-coach/internal/logger"
	"endurance-coach/internal/store"
)

// TokenStore persists the athlete's OAuth tokens
type TokenStore interface {
	GetAuth() (*store.Auth, error)
	SaveAuth(auth *store.Auth) error
	UpdateTokens(accessToken, refreshToken string, expiresAt time.Time) error
}

// Login runs the browser flow and stores the resulting tokens
func Login(ctx context.Context, cfg *oauth2.Config, tokens TokenStore, prompt io.Writer, log *logger.Logger) (*AuthResult, error) {
	result, err := Authenticate(ctx, cfg, prompt)
	if err != nil {
		return nil, err
	}

	storedAuth := &store.Auth{
		AthleteID:    result.AthleteID,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		ExpiresAt:    result.Token.Expiry,
		Scope:        result.Scope,
	}
	if err := tokens.SaveAuth(storedAuth); err != nil {
		return nil, fmt.Errorf("saving auth: %w", err)
	}

	log.Info("strava login complete", "athlete_id", result.AthleteID, "scope", result.Scope)
	if result.Scope != "" && !storedAuth.HasScope(store.ScopePrivateActivities) {
		fmt.Fprintln(prompt, "Private activities were not shared; rides marked private will not sync.")
	}
	return result, nil
}

// StoredTokenSource returns a refreshing token source backed by the stored
// tokens. Refreshed tokens are written back to the store.
// Returns store.ErrNoAuth when the athlete never logged in.
func StoredTokenSource(cfg *oauth2.Config, tokens TokenStore, log *logger.Logger) (*TokenSource, error) {
	storedAuth, err := tokens.GetAuth()
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{
		AccessToken:  storedAuth.AccessToken,
		RefreshToken: storedAuth.RefreshToken,
		Expiry:       storedAuth.ExpiresAt,
	}

	return NewTokenSource(cfg, token, func(newToken *oauth2.Token) error {
		log.Debug("refreshed strava token", "expires_at", newToken.Expiry)
		return tokens.UpdateTokens(newToken.AccessToken, newToken.RefreshToken, newToken.Expiry)
	}), nil
}

// EnsureTokenSource loads the stored tokens, running the login flow when none
// are stored or the stored refresh token no longer works
func EnsureTokenSource(ctx context.Context, cfg *oauth2.Config, tokens TokenStore, prompt io.Writer, log *logger.Logger) (*TokenSource, error) {
	ts, err := StoredTokenSource(cfg, tokens, log)
	if errors.Is(err, store.ErrNoAuth) {
		fmt.Fprintln(prompt, "No authentication found. Starting OAuth flow...")
		if _, err := Login(ctx, cfg, tokens, prompt, log); err != nil {
			return nil, fmt.Errorf("authentication: %w", err)
		}
		return StoredTokenSource(cfg, tokens, log)
	}
	if err != nil {
		return nil, fmt.Errorf("checking auth: %w", err)
	}

	if _, err := ts.Token(); err != nil {
		log.Warn("stored token rejected", "error", err)
		fmt.Fprintln(prompt, "Stored token is invalid or expired. Re-authenticating...")
		if _, err := Login(ctx, cfg, tokens, prompt, log); err != nil {
			return nil, fmt.Errorf("re-authentication: %w", err)
		}
		return StoredTokenSource(cfg, tokens, log)
	}
	return ts, nil
}
