package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// User is the account record checked at login.
type User struct {
	ID        string
	Email     string
	Nome      string
	SenhaHash string
}

// UserStore looks up active accounts by email.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	TouchLastAccess(ctx context.Context, userID string)
}

// Authenticator verifies credentials and issues tokens.
type Authenticator struct {
	store UserStore
}

func NewAuthenticator(store UserStore) *Authenticator {
	return &Authenticator{store: store}
}

// Login checks the password against the stored bcrypt hash and returns a
// signed token. Lookup failures and bad passwords collapse into
// ErrInvalidCredentials so the response does not reveal which one it was.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := a.store.FindUserByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.SenhaHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(user.ID, user.Email, user.Nome)
	if err != nil {
		return "", nil, err
	}

	// Update last login in background
	go a.store.TouchLastAccess(context.Background(), user.ID)

	return token, user, nil
}

// HashPassword wraps bcrypt for account provisioning.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
