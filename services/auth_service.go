package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/repositories"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Profile, error)
	Login(ctx context.Context, input LoginInput) (*models.Profile, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	profileRepo repositories.ProfileRepository
	db          repositories.SQLExecutor
}

func NewAuthService(profileRepo repositories.ProfileRepository, db repositories.SQLExecutor) AuthService {
	return &authService{
		profileRepo: profileRepo,
		db:          db,
	}
}

// Register creates a regular (non-admin) profile. Administrators are only
// created through user management by another administrator.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Profile, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	username := strings.TrimSpace(input.Username)
	if email == "" || username == "" || input.Password == "" {
		return nil, ErrProfileFieldsNeeded
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &models.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hashedPassword),
		IsAdmin:      false,
	}

	if err := s.profileRepo.Create(ctx, s.db, profile); err != nil {
		if errors.Is(err, repositories.ErrProfileEmailConflict) {
			return nil, ErrAuthEmailTaken
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	profile.PasswordHash = ""
	return profile, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	profile.PasswordHash = ""
	return profile, nil
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}
	profile.PasswordHash = ""
	return profile, nil
}
