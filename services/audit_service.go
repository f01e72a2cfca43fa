package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/repositories"
	"github.com/google/uuid"
)

// AuditRecorder appends one entry per mutating operation. The acting user's
// username is snapshotted into the row so the trail keeps showing the name
// the user had at the time of the action.
type AuditRecorder interface {
	Record(ctx context.Context, exec repositories.SQLExecutor, planillaID int, actorID string,
		action models.AuditAction, entityType models.AuditEntityType, entityID string, payload any) error
}

type AuditService interface {
	AuditRecorder
	ListByPlanilla(ctx context.Context, planillaID int) ([]models.AuditEntry, error)
}

type auditService struct {
	auditRepo   repositories.AuditRepository
	profileRepo repositories.ProfileRepository
}

func NewAuditService(auditRepo repositories.AuditRepository, profileRepo repositories.ProfileRepository) AuditService {
	return &auditService{
		auditRepo:   auditRepo,
		profileRepo: profileRepo,
	}
}

func (s *auditService) Record(ctx context.Context, exec repositories.SQLExecutor, planillaID int, actorID string,
	action models.AuditAction, entityType models.AuditEntityType, entityID string, payload any) error {

	details, err := models.EncodeAuditDetails(payload)
	if err != nil {
		return err
	}

	entry := &models.AuditEntry{
		ID:         uuid.NewString(),
		PlanillaID: planillaID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}

	if actorID != "" {
		entry.UserID = &actorID
		actor, err := s.profileRepo.GetByID(ctx, actorID)
		switch {
		case err == nil:
			entry.Username = actor.Username
		case errors.Is(err, repositories.ErrProfileNotFound):
			// Actor row already gone; keep the id, lose the name.
		default:
			return fmt.Errorf("failed to snapshot username for audit entry: %w", err)
		}
	}

	if err := s.auditRepo.Append(ctx, exec, entry); err != nil {
		return fmt.Errorf("failed to record %s audit entry: %w", action, err)
	}
	return nil
}

func (s *auditService) ListByPlanilla(ctx context.Context, planillaID int) ([]models.AuditEntry, error) {
	entries, err := s.auditRepo.ListByPlanilla(ctx, planillaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries for planilla %d: %w", planillaID, err)
	}
	if entries == nil {
		return []models.AuditEntry{}, nil
	}
	return entries, nil
}
