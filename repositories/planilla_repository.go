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
	ErrPlanillaNotFound     = errors.New("planilla not found")
	ErrPlanillaTeamConflict = errors.New("team already has a planilla")
	ErrPlanillaTeamInvalid  = errors.New("planilla team invalid")
)

type PlanillaRepository interface {
	Create(ctx context.Context, exec SQLExecutor, planilla *models.Planilla) error
	GetByID(ctx context.Context, id int) (*models.Planilla, error)
	GetByTeamID(ctx context.Context, teamID string) (*models.Planilla, error)
	List(ctx context.Context) ([]models.Planilla, error)
	UpdateTeam(ctx context.Context, exec SQLExecutor, id int, teamID string) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.PlanillaStatus) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresPlanillaRepository struct {
	db *sql.DB
}

func NewPostgresPlanillaRepository(db *sql.DB) PlanillaRepository {
	return &postgresPlanillaRepository{db: db}
}

func (r *postgresPlanillaRepository) Create(ctx context.Context, exec SQLExecutor, planilla *models.Planilla) error {
	query := `
		INSERT INTO planillas (team_id, status)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		planilla.TeamID,
		planilla.Status,
	).Scan(&planilla.ID, &planilla.CreatedAt, &planilla.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "planillas_team_id_key" {
					return ErrPlanillaTeamConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "planillas_team_id_fkey" {
					return ErrPlanillaTeamInvalid
				}
			}
		}
		return fmt.Errorf("failed to insert planilla: %w", err)
	}
	return nil
}

func (r *postgresPlanillaRepository) GetByID(ctx context.Context, id int) (*models.Planilla, error) {
	query := `
		SELECT p.id, p.team_id, p.status, p.created_at, p.updated_at,
		       t.id, t.nombre, t.shortname, t.category, t.created_at
		FROM planillas p
		LEFT JOIN teams t ON p.team_id = t.id
		WHERE p.id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	planilla, err := scanPlanillaWithTeam(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanillaNotFound
		}
		return nil, fmt.Errorf("failed to scan planilla: %w", err)
	}
	return planilla, nil
}

func (r *postgresPlanillaRepository) GetByTeamID(ctx context.Context, teamID string) (*models.Planilla, error) {
	query := `
		SELECT id, team_id, status, created_at, updated_at
		FROM planillas
		WHERE team_id = $1`

	var planilla models.Planilla
	err := r.db.QueryRowContext(ctx, query, teamID).Scan(
		&planilla.ID,
		&planilla.TeamID,
		&planilla.Status,
		&planilla.CreatedAt,
		&planilla.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanillaNotFound
		}
		return nil, fmt.Errorf("failed to scan planilla by team: %w", err)
	}
	return &planilla, nil
}

func (r *postgresPlanillaRepository) List(ctx context.Context) ([]models.Planilla, error) {
	query := `
		SELECT p.id, p.team_id, p.status, p.created_at, p.updated_at,
		       t.id, t.nombre, t.shortname, t.category, t.created_at
		FROM planillas p
		LEFT JOIN teams t ON p.team_id = t.id
		ORDER BY p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query planillas: %w", err)
	}
	defer rows.Close()

	var planillas []models.Planilla
	for rows.Next() {
		planilla, err := scanPlanillaWithTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan planilla row: %w", err)
		}
		planillas = append(planillas, *planilla)
	}
	return planillas, rows.Err()
}

func (r *postgresPlanillaRepository) UpdateTeam(ctx context.Context, exec SQLExecutor, id int, teamID string) error {
	query := `UPDATE planillas SET team_id = $1, updated_at = NOW() WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, teamID, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrPlanillaTeamConflict
		}
		return fmt.Errorf("failed to update planilla team: %w", err)
	}
	return checkAffectedRows(result, ErrPlanillaNotFound)
}

func (r *postgresPlanillaRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.PlanillaStatus) error {
	query := `UPDATE planillas SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update planilla status: %w", err)
	}
	return checkAffectedRows(result, ErrPlanillaNotFound)
}

// Delete removes only the planilla row. Line items and assignments are
// removed by the service inside the same transaction.
func (r *postgresPlanillaRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM planillas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete planilla: %w", err)
	}
	return checkAffectedRows(result, ErrPlanillaNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlanillaWithTeam(row rowScanner) (*models.Planilla, error) {
	var planilla models.Planilla

	var teamID sql.NullString
	var teamNombre sql.NullString
	var teamShortname sql.NullString
	var teamCategory sql.NullInt64
	var teamCreatedAt sql.NullTime

	err := row.Scan(
		&planilla.ID,
		&planilla.TeamID,
		&planilla.Status,
		&planilla.CreatedAt,
		&planilla.UpdatedAt,
		&teamID,
		&teamNombre,
		&teamShortname,
		&teamCategory,
		&teamCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if teamID.Valid {
		team := models.Team{
			ID:        teamID.String,
			Nombre:    teamNombre.String,
			Category:  int(teamCategory.Int64),
			CreatedAt: teamCreatedAt.Time,
		}
		if teamShortname.Valid {
			team.Shortname = &teamShortname.String
		}
		planilla.Team = &team
	}
	return &planilla, nil
}
