package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/lib/pq"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileEmailConflict = errors.New("profile email conflict")
)

type ProfileRepository interface {
	Create(ctx context.Context, exec SQLExecutor, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, id string) error
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

func (r *postgresProfileRepository) Create(ctx context.Context, exec SQLExecutor, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, email, username, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.Username,
		profile.PasswordHash,
		profile.IsAdmin,
	).Scan(&profile.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "profiles_email_key" {
				return ErrProfileEmailConflict
			}
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

func (r *postgresProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

func (r *postgresProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.getBy(ctx, `WHERE email = $1`, email)
}

func (r *postgresProfileRepository) getBy(ctx context.Context, where string, arg any) (*models.Profile, error) {
	query := `
		SELECT id, email, username, password_hash, is_admin, created_at
		FROM profiles ` + where

	var profile models.Profile
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&profile.ID,
		&profile.Email,
		&profile.Username,
		&profile.PasswordHash,
		&profile.IsAdmin,
		&profile.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return &profile, nil
}

func (r *postgresProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	query := `
		SELECT id, email, username, password_hash, is_admin, created_at
		FROM profiles
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var profile models.Profile
		if err := rows.Scan(
			&profile.ID,
			&profile.Email,
			&profile.Username,
			&profile.PasswordHash,
			&profile.IsAdmin,
			&profile.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (r *postgresProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles
		SET email = $1, username = $2, password_hash = $3, is_admin = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		profile.Email,
		profile.Username,
		profile.PasswordHash,
		profile.IsAdmin,
		profile.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrProfileEmailConflict
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}
