// Package account stores login credentials for students and faculty.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrInvalidRole    = errors.New("role must be student or faculty")
)

// Account is a login identity. StudentID links student accounts to their record.
type Account struct {
	Email        string
	PasswordHash string
	Role         string
	StudentID    string
}

// Store persists accounts keyed by normalized email.
type Store interface {
	FindAccount(ctx context.Context, email string) (Account, error)
	SaveAccount(ctx context.Context, acct Account) error
	Migrate(ctx context.Context) error
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// New builds an account with a bcrypt hash of password.
func New(email, password, role, studentID string) (Account, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return Account{}, fmt.Errorf("invalid email %q", email)
	}
	if len(password) < 8 {
		return Account{}, errors.New("password must be at least 8 characters")
	}
	if role != RoleStudent && role != RoleFaculty {
		return Account{}, ErrInvalidRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}
	return Account{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		StudentID:    strings.TrimSpace(studentID),
	}, nil
}

// Authenticate checks password against the stored hash. Unknown emails and
// wrong passwords both yield ErrBadCredentials.
func Authenticate(ctx context.Context, s Store, email, password string) (Account, error) {
	acct, err := s.FindAccount(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, ErrBadCredentials
		}
		return Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return Account{}, ErrBadCredentials
	}
	return acct, nil
}
