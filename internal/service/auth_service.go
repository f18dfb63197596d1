// Package service implements the application's business logic.
package service

import (
	"context"
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/token"
	"inkwell/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost factor the platform has always used for
// stored credentials.
const bcryptCost = 12

// AuthService registers users, verifies credentials and validates session
// tokens against the current state of the user store.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *token.Manager
}

// NewAuthService returns a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *token.Manager) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

// SignupInput carries the fields required to register a user.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Signup creates a user with a hashed password. It fails with a validation
// error on malformed fields and a conflict error when username or email is
// already taken.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if errs := validation.Signup(in.Username, in.Email, in.Password); len(errs) > 0 {
		return nil, models.NewValidationError(errs[0].Message)
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already taken")
	}

	existing, err = s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies the identifier (email or username) and password, and issues
// a signed session token. Unknown identifier and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.User, string, error) {
	if identifier == "" || password == "" {
		return nil, "", models.NewValidationError("Identifier and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, identifier)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		user, err = s.userRepo.GetByUsername(ctx, identifier)
		if err != nil {
			return nil, "", err
		}
	}
	if user == nil {
		return nil, "", models.NewUnauthorizedError("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", models.NewUnauthorizedError("Invalid credentials")
	}

	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	return user, tok, nil
}

// Authenticate validates a bearer token and re-reads the referenced user
// from the store, so a deleted account cannot ride out an unexpired token
// and returned fields reflect the latest state.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	if tokenString == "" {
		return nil, models.NewUnauthorizedError("Missing token")
	}

	userID, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			return nil, models.NewUnauthorizedError("User not found")
		}
		return nil, err
	}

	return user, nil
}
