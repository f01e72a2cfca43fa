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
	ErrPersonaNotFound        = errors.New("persona not found")
	ErrPersonaPlanillaInvalid = errors.New("persona planilla invalid")
)

type PersonaRepository interface {
	Create(ctx context.Context, exec SQLExecutor, persona *models.Persona) error
	GetByID(ctx context.Context, id string) (*models.Persona, error)
	ListByPlanilla(ctx context.Context, planillaID int) ([]models.Persona, error)
	CountByCharge(ctx context.Context, planillaID int, charge models.PersonaCharge) (int, error)
	Update(ctx context.Context, exec SQLExecutor, persona *models.Persona) error
	Delete(ctx context.Context, exec SQLExecutor, id string) error
	DeleteByPlanilla(ctx context.Context, exec SQLExecutor, planillaID int) error
}

type postgresPersonaRepository struct {
	db *sql.DB
}

func NewPostgresPersonaRepository(db *sql.DB) PersonaRepository {
	return &postgresPersonaRepository{db: db}
}

func (r *postgresPersonaRepository) Create(ctx context.Context, exec SQLExecutor, persona *models.Persona) error {
	query := `
		INSERT INTO personas (id, planilla_id, dni, name, second_name, phone_number, charge)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		persona.ID,
		persona.PlanillaID,
		persona.DNI,
		persona.Name,
		persona.SecondName,
		persona.PhoneNumber,
		persona.Charge,
	).Scan(&persona.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrPersonaPlanillaInvalid
		}
		return fmt.Errorf("failed to insert persona: %w", err)
	}
	return nil
}

func (r *postgresPersonaRepository) GetByID(ctx context.Context, id string) (*models.Persona, error) {
	query := `
		SELECT id, planilla_id, dni, name, second_name, phone_number, charge, created_at
		FROM personas
		WHERE id = $1`

	var persona models.Persona
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&persona.ID,
		&persona.PlanillaID,
		&persona.DNI,
		&persona.Name,
		&persona.SecondName,
		&persona.PhoneNumber,
		&persona.Charge,
		&persona.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonaNotFound
		}
		return nil, fmt.Errorf("failed to scan persona: %w", err)
	}
	return &persona, nil
}

func (r *postgresPersonaRepository) ListByPlanilla(ctx context.Context, planillaID int) ([]models.Persona, error) {
	query := `
		SELECT id, planilla_id, dni, name, second_name, phone_number, charge, created_at
		FROM personas
		WHERE planilla_id = $1
		ORDER BY charge, name ASC`

	rows, err := r.db.QueryContext(ctx, query, planillaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query personas: %w", err)
	}
	defer rows.Close()

	var personas []models.Persona
	for rows.Next() {
		var persona models.Persona
		if err := rows.Scan(
			&persona.ID,
			&persona.PlanillaID,
			&persona.DNI,
			&persona.Name,
			&persona.SecondName,
			&persona.PhoneNumber,
			&persona.Charge,
			&persona.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan persona row: %w", err)
		}
		personas = append(personas, persona)
	}
	return personas, rows.Err()
}

func (r *postgresPersonaRepository) CountByCharge(ctx context.Context, planillaID int, charge models.PersonaCharge) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM personas WHERE planilla_id = $1 AND charge = $2`,
		planillaID, charge,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count personas by charge: %w", err)
	}
	return count, nil
}

func (r *postgresPersonaRepository) Update(ctx context.Context, exec SQLExecutor, persona *models.Persona) error {
	query := `
		UPDATE personas
		SET dni = $1, name = $2, second_name = $3, phone_number = $4, charge = $5
		WHERE id = $6`

	result, err := exec.ExecContext(ctx, query,
		persona.DNI,
		persona.Name,
		persona.SecondName,
		persona.PhoneNumber,
		persona.Charge,
		persona.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update persona: %w", err)
	}
	return checkAffectedRows(result, ErrPersonaNotFound)
}

func (r *postgresPersonaRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM personas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete persona: %w", err)
	}
	return checkAffectedRows(result, ErrPersonaNotFound)
}

func (r *postgresPersonaRepository) DeleteByPlanilla(ctx context.Context, exec SQLExecutor, planillaID int) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM personas WHERE planilla_id = $1`, planillaID)
	if err != nil {
		return fmt.Errorf("failed to delete personas of planilla %d: %w", planillaID, err)
	}
	return nil
}
