package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"auctionhouse/internal/domain"
	"auctionhouse/internal/store"
	"auctionhouse/pkg/logger"
)

var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrWeakPassword   = errors.New("password must be at least 8 characters")
)

// CredentialManager owns the single admin account stored in the snapshot.
type CredentialManager struct {
	store *store.Store
	log   logger.Logger
}

func NewCredentialManager(st *store.Store, log logger.Logger) *CredentialManager {
	return &CredentialManager{store: st, log: log}
}

// Bootstrap seeds the admin account when none exists yet, typically on
// first start with an empty snapshot. It is a no-op when credentials are
// already set.
func (m *CredentialManager) Bootstrap(ctx context.Context, username, password string) error {
	if m.store.Credentials().PasswordHash != "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.store.SetCredentials(ctx, domain.Credentials{
		Username:     strings.TrimSpace(username),
		PasswordHash: string(hash),
	})
	m.log.Info("admin credentials bootstrapped", "username", username)
	return nil
}

// Verify checks a login attempt against the stored credentials.
func (m *CredentialManager) Verify(username, password string) bool {
	creds := m.store.Credentials()
	if creds.Username == "" || creds.Username != strings.TrimSpace(username) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)) == nil
}

// Rotate replaces the admin credentials after re-verifying the current
// password.
func (m *CredentialManager) Rotate(ctx context.Context, currentPassword, newUsername, newPassword string) error {
	creds := m.store.Credentials()
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(currentPassword)) != nil {
		return ErrBadCredentials
	}
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		newUsername = creds.Username
	}
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.store.SetCredentials(ctx, domain.Credentials{
		Username:     newUsername,
		PasswordHash: string(hash),
	})
	m.log.Info("admin credentials rotated", "username", newUsername)
	return nil
}
