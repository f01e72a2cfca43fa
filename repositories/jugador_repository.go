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
	ErrJugadorNotFound        = errors.New("jugador not found")
	ErrJugadorPlanillaInvalid = errors.New("jugador planilla invalid")
)

type JugadorRepository interface {
	Create(ctx context.Context, exec SQLExecutor, jugador *models.Jugador) error
	GetByID(ctx context.Context, id string) (*models.Jugador, error)
	ListByPlanilla(ctx context.Context, planillaID int) ([]models.Jugador, error)
	CountByPlanilla(ctx context.Context, planillaID int) (int, error)
	Update(ctx context.Context, exec SQLExecutor, jugador *models.Jugador) error
	Delete(ctx context.Context, exec SQLExecutor, id string) error
	DeleteByPlanilla(ctx context.Context, exec SQLExecutor, planillaID int) error
}

type postgresJugadorRepository struct {
	db *sql.DB
}

func NewPostgresJugadorRepository(db *sql.DB) JugadorRepository {
	return &postgresJugadorRepository{db: db}
}

func (r *postgresJugadorRepository) Create(ctx context.Context, exec SQLExecutor, jugador *models.Jugador) error {
	query := `
		INSERT INTO jugadores (id, planilla_id, dni, number, name, second_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		jugador.ID,
		jugador.PlanillaID,
		jugador.DNI,
		jugador.Number,
		jugador.Name,
		jugador.SecondName,
	).Scan(&jugador.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrJugadorPlanillaInvalid
		}
		return fmt.Errorf("failed to insert jugador: %w", err)
	}
	return nil
}

func (r *postgresJugadorRepository) GetByID(ctx context.Context, id string) (*models.Jugador, error) {
	query := `
		SELECT id, planilla_id, dni, number, name, second_name, created_at
		FROM jugadores
		WHERE id = $1`

	var jugador models.Jugador
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&jugador.ID,
		&jugador.PlanillaID,
		&jugador.DNI,
		&jugador.Number,
		&jugador.Name,
		&jugador.SecondName,
		&jugador.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJugadorNotFound
		}
		return nil, fmt.Errorf("failed to scan jugador: %w", err)
	}
	return &jugador, nil
}

func (r *postgresJugadorRepository) ListByPlanilla(ctx context.Context, planillaID int) ([]models.Jugador, error) {
	query := `
		SELECT id, planilla_id, dni, number, name, second_name, created_at
		FROM jugadores
		WHERE planilla_id = $1
		ORDER BY number ASC`

	rows, err := r.db.QueryContext(ctx, query, planillaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query jugadores: %w", err)
	}
	defer rows.Close()

	var jugadores []models.Jugador
	for rows.Next() {
		var jugador models.Jugador
		if err := rows.Scan(
			&jugador.ID,
			&jugador.PlanillaID,
			&jugador.DNI,
			&jugador.Number,
			&jugador.Name,
			&jugador.SecondName,
			&jugador.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan jugador row: %w", err)
		}
		jugadores = append(jugadores, jugador)
	}
	return jugadores, rows.Err()
}

func (r *postgresJugadorRepository) CountByPlanilla(ctx context.Context, planillaID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jugadores WHERE planilla_id = $1`, planillaID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jugadores: %w", err)
	}
	return count, nil
}

func (r *postgresJugadorRepository) Update(ctx context.Context, exec SQLExecutor, jugador *models.Jugador) error {
	query := `
		UPDATE jugadores
		SET dni = $1, number = $2, name = $3, second_name = $4
		WHERE id = $5`

	result, err := exec.ExecContext(ctx, query,
		jugador.DNI,
		jugador.Number,
		jugador.Name,
		jugador.SecondName,
		jugador.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update jugador: %w", err)
	}
	return checkAffectedRows(result, ErrJugadorNotFound)
}

func (r *postgresJugadorRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM jugadores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete jugador: %w", err)
	}
	return checkAffectedRows(result, ErrJugadorNotFound)
}

func (r *postgresJugadorRepository) DeleteByPlanilla(ctx context.Context, exec SQLExecutor, planillaID int) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM jugadores WHERE planilla_id = $1`, planillaID)
	if err != nil {
		return fmt.Errorf("failed to delete jugadores of planilla %d: %w", planillaID, err)
	}
	return nil
}
