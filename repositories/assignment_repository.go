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
	ErrAssignmentConflict = errors.New("user already assigned to this planilla")
	ErrAssignmentInvalid  = errors.New("assignment user or planilla invalid")
)

type AssignmentRepository interface {
	Assign(ctx context.Context, exec SQLExecutor, assignment *models.Assignment) error
	Exists(ctx context.Context, userID string, planillaID int) (bool, error)
	ListProfilesByPlanilla(ctx context.Context, planillaID int) ([]models.Profile, error)
	ListPlanillaIDsByUser(ctx context.Context, userID string) ([]int, error)
	DeleteByPlanilla(ctx context.Context, exec SQLExecutor, planillaID int) error
}

type postgresAssignmentRepository struct {
	db *sql.DB
}

func NewPostgresAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &postgresAssignmentRepository{db: db}
}

func (r *postgresAssignmentRepository) Assign(ctx context.Context, exec SQLExecutor, assignment *models.Assignment) error {
	query := `
		INSERT INTO user_planilla (id, user_id, planilla_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		assignment.ID,
		assignment.UserID,
		assignment.PlanillaID,
	).Scan(&assignment.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrAssignmentConflict
			case "23503":
				return ErrAssignmentInvalid
			}
		}
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

func (r *postgresAssignmentRepository) Exists(ctx context.Context, userID string, planillaID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_planilla WHERE user_id = $1 AND planilla_id = $2)`,
		userID, planillaID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return exists, nil
}

func (r *postgresAssignmentRepository) ListProfilesByPlanilla(ctx context.Context, planillaID int) ([]models.Profile, error) {
	query := `
		SELECT p.id, p.email, p.username, p.is_admin, p.created_at
		FROM user_planilla up
		JOIN profiles p ON up.user_id = p.id
		WHERE up.planilla_id = $1
		ORDER BY p.username`

	rows, err := r.db.QueryContext(ctx, query, planillaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assigned profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var profile models.Profile
		if err := rows.Scan(
			&profile.ID,
			&profile.Email,
			&profile.Username,
			&profile.IsAdmin,
			&profile.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assigned profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (r *postgresAssignmentRepository) ListPlanillaIDsByUser(ctx context.Context, userID string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT planilla_id FROM user_planilla WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user assignments: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresAssignmentRepository) DeleteByPlanilla(ctx context.Context, exec SQLExecutor, planillaID int) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM user_planilla WHERE planilla_id = $1`, planillaID)
	if err != nil {
		return fmt.Errorf("failed to delete assignments of planilla %d: %w", planillaID, err)
	}
	return nil
}
