package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/repositories"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ProfileService interface {
	ListProfiles(ctx context.Context, actorID string) ([]models.Profile, error)
	CreateProfile(ctx context.Context, input CreateProfileInput) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profileID string, input UpdateProfileInput) (*models.Profile, error)
	DeleteProfile(ctx context.Context, profileID, actorID string) error
}

type CreateProfileInput struct {
	ActorID  string `json:"-"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// UpdateProfileInput uses pointers so absent fields are left untouched.
type UpdateProfileInput struct {
	ActorID  string  `json:"-"`
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	IsAdmin  *bool   `json:"is_admin"`
}

type profileService struct {
	db          *sql.DB
	profileRepo repositories.ProfileRepository
}

func NewProfileService(db *sql.DB, profileRepo repositories.ProfileRepository) ProfileService {
	return &profileService{db: db, profileRepo: profileRepo}
}

func (s *profileService) ListProfiles(ctx context.Context, actorID string) ([]models.Profile, error) {
	if _, err := requireAdmin(ctx, s.profileRepo, actorID); err != nil {
		return nil, err
	}
	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	for i := range profiles {
		profiles[i].PasswordHash = ""
	}
	if profiles == nil {
		return []models.Profile{}, nil
	}
	return profiles, nil
}

func (s *profileService) CreateProfile(ctx context.Context, input CreateProfileInput) (*models.Profile, error) {
	if _, err := requireAdmin(ctx, s.profileRepo, input.ActorID); err != nil {
		return nil, err
	}

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
		IsAdmin:      input.IsAdmin,
	}
	if err := s.profileRepo.Create(ctx, s.db, profile); err != nil {
		if errors.Is(err, repositories.ErrProfileEmailConflict) {
			return nil, ErrProfileEmailTaken
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	profile.PasswordHash = ""
	return profile, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, profileID string, input UpdateProfileInput) (*models.Profile, error) {
	actor, err := s.profileRepo.GetByID(ctx, input.ActorID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrForbiddenOperation
		}
		return nil, fmt.Errorf("failed to load acting profile: %w", err)
	}

	// Non-admins may only change their own username and email.
	if !actor.IsAdmin {
		if actor.ID != profileID {
			return nil, ErrForbiddenOperation
		}
		if input.Password != nil || input.IsAdmin != nil {
			return nil, ErrForbiddenOperation
		}
	}

	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", profileID, err)
	}

	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email == "" {
			return nil, ErrProfileFieldsNeeded
		}
		profile.Email = email
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, ErrProfileFieldsNeeded
		}
		profile.Username = username
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		profile.PasswordHash = string(hashedPassword)
	}
	if input.IsAdmin != nil {
		profile.IsAdmin = *input.IsAdmin
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		if errors.Is(err, repositories.ErrProfileEmailConflict) {
			return nil, ErrProfileEmailTaken
		}
		return nil, fmt.Errorf("failed to update profile %s: %w", profileID, err)
	}

	profile.PasswordHash = ""
	return profile, nil
}

func (s *profileService) DeleteProfile(ctx context.Context, profileID, actorID string) error {
	actor, err := requireAdmin(ctx, s.profileRepo, actorID)
	if err != nil {
		return err
	}
	if actor.ID == profileID {
		return ErrProfileDeleteSelf
	}
	if err := s.profileRepo.Delete(ctx, profileID); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to delete profile %s: %w", profileID, err)
	}
	return nil
}
