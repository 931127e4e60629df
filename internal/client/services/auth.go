// Package services contains the CLI's application services: session
// authentication and resumable uploads.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophdrop/internal/client/repositories/metadata"
)

// TokenHolder is the part of the HTTP client that logs in and carries
// the access token.
type TokenHolder interface {
	Login(ctx context.Context, username, password string) (string, error)
	SetAccessToken(token string)
}

// AuthService logs in against the server and remembers the token in the
// local database, so the next CLI run starts authenticated.
type AuthService struct {
	api  TokenHolder
	meta metadata.Repository
}

func NewAuthService(api TokenHolder, meta metadata.Repository) *AuthService {
	return &AuthService{api: api, meta: meta}
}

func (a *AuthService) Login(ctx context.Context, username string, password []byte) error {
	token, err := a.api.Login(ctx, username, string(password))
	if err != nil {
		return err
	}

	if err := a.meta.Set(ctx, metadata.KeyAccessToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := a.meta.Set(ctx, metadata.KeyUsername, username); err != nil {
		return fmt.Errorf("save username: %w", err)
	}
	return nil
}

// Restore loads a saved token into the client and returns the username it
// belongs to, or "" when nobody is logged in.
func (a *AuthService) Restore(ctx context.Context) (string, error) {
	token, ok, err := a.meta.Get(ctx, metadata.KeyAccessToken)
	if err != nil || !ok {
		return "", err
	}
	username, _, err := a.meta.Get(ctx, metadata.KeyUsername)
	if err != nil {
		return "", err
	}

	a.api.SetAccessToken(token)
	return username, nil
}

func (a *AuthService) Logout(ctx context.Context) error {
	a.api.SetAccessToken("")
	return a.meta.Delete(ctx, metadata.KeyAccessToken, metadata.KeyUsername)
}
