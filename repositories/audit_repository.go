package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/PelvK/planillas-buena-fe/models"
)

// AuditRepository is a write-only sink plus a single read path. Entries are
// never updated or deleted; they outlive the planilla they describe so the
// trail of a deleted planilla stays readable.
type AuditRepository interface {
	Append(ctx context.Context, exec SQLExecutor, entry *models.AuditEntry) error
	ListByPlanilla(ctx context.Context, planillaID int) ([]models.AuditEntry, error)
}

type postgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

func (r *postgresAuditRepository) Append(ctx context.Context, exec SQLExecutor, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, planilla_id, user_id, action, entity_type, entity_id, details, username)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		entry.ID,
		entry.PlanillaID,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Details,
		entry.Username,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *postgresAuditRepository) ListByPlanilla(ctx context.Context, planillaID int) ([]models.AuditEntry, error) {
	query := `
		SELECT id, planilla_id, user_id, action, entity_type, entity_id, details, username, created_at
		FROM audit_log
		WHERE planilla_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, planillaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.PlanillaID,
			&entry.UserID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Details,
			&entry.Username,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
