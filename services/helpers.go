package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/repositories"
)

func isValidStatusTransition(current, next models.PlanillaStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.PlanillaStatus][]models.PlanillaStatus{
		models.StatusPendienteEnvio:      {models.StatusPendienteAprobacion},
		models.StatusPendienteAprobacion: {models.StatusAprobada, models.StatusPendienteEnvio},
		models.StatusAprobada:            {models.StatusPendienteEnvio},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// transitionRequiresAdmin reports whether only administrators may perform the
// transition. Submitting for approval is the one move assigned users can make.
func transitionRequiresAdmin(current, next models.PlanillaStatus) bool {
	return !(current == models.StatusPendienteEnvio && next == models.StatusPendienteAprobacion)
}

// requireAdmin loads the acting user's profile and checks the admin flag.
// The flag always comes from the database, never from the token.
func requireAdmin(ctx context.Context, profiles repositories.ProfileRepository, actorID string) (*models.Profile, error) {
	actor, err := profiles.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrForbiddenOperation
		}
		return nil, fmt.Errorf("failed to load acting profile: %w", err)
	}
	if !actor.IsAdmin {
		return nil, ErrForbiddenOperation
	}
	return actor, nil
}

const tokenCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateRandomToken(length int) (string, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	b := make([]byte, length)
	for i, rb := range randomBytes {
		b[i] = tokenCharset[int(rb)%len(tokenCharset)]
	}
	return string(b), nil
}

// runInTx wraps fn in a transaction with rollback on error or panic.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// editGate decides whether an actor may modify a planilla's line items.
// Admins always may; assigned users only while the planilla is still
// pending submission.
type editGate struct {
	profileRepo    repositories.ProfileRepository
	assignmentRepo repositories.AssignmentRepository
}

func (g *editGate) check(ctx context.Context, actorID string, planilla *models.Planilla) error {
	actor, err := g.profileRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrForbiddenOperation
		}
		return fmt.Errorf("failed to load acting profile: %w", err)
	}
	if actor.IsAdmin {
		return nil
	}
	if planilla.Status != models.StatusPendienteEnvio {
		return ErrPlanillaNotEditable
	}
	assigned, err := g.assignmentRepo.Exists(ctx, actorID, planilla.ID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if !assigned {
		return ErrForbiddenOperation
	}
	return nil
}
