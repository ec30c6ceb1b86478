package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"contactvault/internal/auth"
	apperrors "contactvault/internal/errors"
	"contactvault/internal/model"
	"contactvault/internal/repository"
)

const bcryptCost = 10

// AuthResult is returned by both registration and login: a fresh token plus
// the identity it was issued for.
type AuthResult struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// AuthService handles registration and authentication.
type AuthService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

type authService struct {
	users      repository.UserRepository
	jwtService *auth.JWTService
	now        func() time.Time
}

// NewAuthService creates a new authentication service. A nil clock defaults
// to time.Now; tests pass a fixed one.
func NewAuthService(users repository.UserRepository, jwtService *auth.JWTService, now func() time.Time) AuthService {
	if now == nil {
		now = time.Now
	}
	return &authService{
		users:      users,
		jwtService: jwtService,
		now:        now,
	}
}

// Register creates a new user with a bcrypt-hashed password and issues a
// token. Emails are compared case-insensitively; a taken email yields
// ErrDuplicateEmail.
func (s *authService) Register(ctx context.Context, email, password, firstName, lastName string) (*AuthResult, error) {
	email = normalizeEmail(email)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrDuplicateEmail
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    s.now(),
	}

	// The unique index on users.email is the authority if two registrations
	// race past the lookup above.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueToken(user)
}

// Login authenticates by email and password. Unknown email and wrong
// password return the identical ErrInvalidCredentials; the caller can never
// learn which one happened.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	// Only a confirmed miss becomes invalid credentials; storage failures
	// keep their identity so an outage never masquerades as a bad password.
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *authService) issueToken(user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwtService.GenerateToken(user.ID, user.Email, user.FirstName, user.LastName)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
