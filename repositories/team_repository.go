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
	ErrTeamNotFound          = errors.New("team not found")
	ErrTeamShortnameConflict = errors.New("team shortname conflict")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	GetAll(ctx context.Context) ([]models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (id, nombre, shortname, category)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		team.ID,
		team.Nombre,
		team.Shortname,
		team.Category,
	).Scan(&team.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "teams_shortname_key" {
				return ErrTeamShortnameConflict
			}
		}
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := `
		SELECT id, nombre, shortname, category, created_at
		FROM teams
		WHERE id = $1`

	var team models.Team
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID,
		&team.Nombre,
		&team.Shortname,
		&team.Category,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	return &team, nil
}

// GetAll returns every team together with the number of profiles assigned to
// its planilla, newest first.
func (r *postgresTeamRepository) GetAll(ctx context.Context) ([]models.Team, error) {
	query := `
		SELECT t.id, t.nombre, t.shortname, t.category, t.created_at,
		       COUNT(up.id) AS member_count
		FROM teams t
		LEFT JOIN planillas p ON p.team_id = t.id
		LEFT JOIN user_planilla up ON up.planilla_id = p.id
		GROUP BY t.id
		ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(
			&team.ID,
			&team.Nombre,
			&team.Shortname,
			&team.Category,
			&team.CreatedAt,
			&team.MemberCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams
		SET nombre = $1, shortname = $2, category = $3
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query,
		team.Nombre,
		team.Shortname,
		team.Category,
		team.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "teams_shortname_key" {
				return ErrTeamShortnameConflict
			}
		}
		return fmt.Errorf("failed to update team: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
