package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/repositories"
	"github.com/PelvK/planillas-buena-fe/storage"
	"golang.org/x/sync/errgroup"
)

// RosterRenderer turns a fully loaded planilla into a PDF document.
type RosterRenderer interface {
	Render(planilla *models.Planilla) ([]byte, error)
}

type ExportService interface {
	RosterArchiver
	ExportPlanilla(ctx context.Context, planillaID int, actorID string) ([]byte, string, error)
}

type exportService struct {
	planillaRepo   repositories.PlanillaRepository
	jugadorRepo    repositories.JugadorRepository
	personaRepo    repositories.PersonaRepository
	profileRepo    repositories.ProfileRepository
	assignmentRepo repositories.AssignmentRepository
	renderer       RosterRenderer
	uploader       storage.FileUploader
	logger         *slog.Logger
}

// NewExportService builds the export service. uploader may be nil; archival
// then degrades to a no-op with a warning.
func NewExportService(
	planillaRepo repositories.PlanillaRepository,
	jugadorRepo repositories.JugadorRepository,
	personaRepo repositories.PersonaRepository,
	profileRepo repositories.ProfileRepository,
	assignmentRepo repositories.AssignmentRepository,
	renderer RosterRenderer,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ExportService {
	return &exportService{
		planillaRepo:   planillaRepo,
		jugadorRepo:    jugadorRepo,
		personaRepo:    personaRepo,
		profileRepo:    profileRepo,
		assignmentRepo: assignmentRepo,
		renderer:       renderer,
		uploader:       uploader,
		logger:         logger,
	}
}

// ExportPlanilla renders the planilla for download. Admins may export any
// planilla, assigned users only their own, at any status.
func (s *exportService) ExportPlanilla(ctx context.Context, planillaID int, actorID string) ([]byte, string, error) {
	actor, err := s.profileRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, "", ErrForbiddenOperation
		}
		return nil, "", fmt.Errorf("failed to load acting profile: %w", err)
	}
	if !actor.IsAdmin {
		assigned, err := s.assignmentRepo.Exists(ctx, actorID, planillaID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to check assignment: %w", err)
		}
		if !assigned {
			return nil, "", ErrForbiddenOperation
		}
	}

	planilla, err := s.loadFull(ctx, planillaID)
	if err != nil {
		return nil, "", err
	}

	document, err := s.renderer.Render(planilla)
	if err != nil {
		return nil, "", err
	}
	return document, exportFilename(planilla), nil
}

// ArchiveApproved renders the planilla and uploads the document to object
// storage. Called after a planilla reaches Aprobada.
func (s *exportService) ArchiveApproved(ctx context.Context, planillaID int) error {
	if s.uploader == nil {
		s.logger.Warn("archive skipped, no uploader configured",
			slog.Int("planilla_id", planillaID))
		return nil
	}

	planilla, err := s.loadFull(ctx, planillaID)
	if err != nil {
		return err
	}
	document, err := s.renderer.Render(planilla)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("planillas/aprobadas/planilla_%d.pdf", planillaID)
	result, err := s.uploader.Upload(ctx, key, "application/pdf", bytes.NewReader(document))
	if err != nil {
		return fmt.Errorf("failed to archive planilla %d: %w", planillaID, err)
	}

	s.logger.Info("archived approved planilla",
		slog.Int("planilla_id", planillaID),
		slog.String("key", result.Key),
		slog.String("location", result.Location))
	return nil
}

func (s *exportService) loadFull(ctx context.Context, planillaID int) (*models.Planilla, error) {
	planilla, err := s.planillaRepo.GetByID(ctx, planillaID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanillaNotFound) {
			return nil, ErrPlanillaNotFound
		}
		return nil, fmt.Errorf("failed to get planilla %d: %w", planillaID, err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		jugadores, err := s.jugadorRepo.ListByPlanilla(gCtx, planillaID)
		if err != nil {
			return err
		}
		planilla.Jugadores = jugadores
		return nil
	})
	g.Go(func() error {
		personas, err := s.personaRepo.ListByPlanilla(gCtx, planillaID)
		if err != nil {
			return err
		}
		planilla.Personas = personas
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load planilla %d for export: %w", planillaID, err)
	}
	return planilla, nil
}

func exportFilename(planilla *models.Planilla) string {
	slug := fmt.Sprintf("%d", planilla.ID)
	if planilla.Team != nil && planilla.Team.Shortname != nil && *planilla.Team.Shortname != "" {
		slug = strings.ToLower(*planilla.Team.Shortname)
	}
	return fmt.Sprintf("planilla_%s.pdf", slug)
}
