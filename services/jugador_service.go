package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/repositories"
	"github.com/google/uuid"
)

type JugadorService interface {
	AddJugador(ctx context.Context, input AddJugadorInput) (*models.Jugador, error)
	UpdateJugador(ctx context.Context, jugadorID string, input UpdateJugadorInput) (*models.Jugador, error)
	DeleteJugador(ctx context.Context, jugadorID, actorID string) error
}

type AddJugadorInput struct {
	ActorID    string `json:"-"`
	PlanillaID int    `json:"planilla_id"`
	DNI        string `json:"dni"`
	Number     int    `json:"number"`
	Name       string `json:"name"`
	SecondName string `json:"second_name"`
}

type UpdateJugadorInput struct {
	ActorID    string `json:"-"`
	DNI        string `json:"dni"`
	Number     int    `json:"number"`
	Name       string `json:"name"`
	SecondName string `json:"second_name"`
}

type jugadorService struct {
	db           *sql.DB
	jugadorRepo  repositories.JugadorRepository
	planillaRepo repositories.PlanillaRepository
	teamRepo     repositories.TeamRepository
	gate         *editGate
	auditor      AuditRecorder
	logger       *slog.Logger
}

func NewJugadorService(
	db *sql.DB,
	jugadorRepo repositories.JugadorRepository,
	planillaRepo repositories.PlanillaRepository,
	teamRepo repositories.TeamRepository,
	profileRepo repositories.ProfileRepository,
	assignmentRepo repositories.AssignmentRepository,
	auditor AuditRecorder,
	logger *slog.Logger,
) JugadorService {
	return &jugadorService{
		db:           db,
		jugadorRepo:  jugadorRepo,
		planillaRepo: planillaRepo,
		teamRepo:     teamRepo,
		gate:         &editGate{profileRepo: profileRepo, assignmentRepo: assignmentRepo},
		auditor:      auditor,
		logger:       logger,
	}
}

func (s *jugadorService) AddJugador(ctx context.Context, input AddJugadorInput) (*models.Jugador, error) {
	planilla, err := s.loadPlanilla(ctx, input.PlanillaID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.check(ctx, input.ActorID, planilla); err != nil {
		return nil, err
	}
	if err := validateJugadorFields(input.DNI, input.Number, input.Name, input.SecondName); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, planilla.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team %s: %w", planilla.TeamID, err)
	}
	count, err := s.jugadorRepo.CountByPlanilla(ctx, planilla.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count jugadores: %w", err)
	}
	if count >= models.CategoryLimit(team.Category) {
		return nil, ErrJugadorLimitReached
	}

	jugador := &models.Jugador{
		ID:         uuid.NewString(),
		PlanillaID: planilla.ID,
		DNI:        input.DNI,
		Number:     input.Number,
		Name:       strings.TrimSpace(input.Name),
		SecondName: strings.TrimSpace(input.SecondName),
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.jugadorRepo.Create(ctx, tx, jugador); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, planilla.ID, input.ActorID,
			models.ActionJugadorAdded, models.EntityJugador, jugador.ID, jugador)
	})
	if err != nil {
		return nil, err
	}
	return jugador, nil
}

func (s *jugadorService) UpdateJugador(ctx context.Context, jugadorID string, input UpdateJugadorInput) (*models.Jugador, error) {
	jugador, err := s.loadJugador(ctx, jugadorID)
	if err != nil {
		return nil, err
	}
	planilla, err := s.loadPlanilla(ctx, jugador.PlanillaID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.check(ctx, input.ActorID, planilla); err != nil {
		return nil, err
	}
	if err := validateJugadorFields(input.DNI, input.Number, input.Name, input.SecondName); err != nil {
		return nil, err
	}

	old := *jugador
	jugador.DNI = input.DNI
	jugador.Number = input.Number
	jugador.Name = strings.TrimSpace(input.Name)
	jugador.SecondName = strings.TrimSpace(input.SecondName)

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.jugadorRepo.Update(ctx, tx, jugador); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, planilla.ID, input.ActorID,
			models.ActionJugadorUpdated, models.EntityJugador, jugador.ID,
			models.JugadorChangeDetails{Old: old, New: *jugador})
	})
	if err != nil {
		return nil, err
	}
	return jugador, nil
}

func (s *jugadorService) DeleteJugador(ctx context.Context, jugadorID, actorID string) error {
	jugador, err := s.loadJugador(ctx, jugadorID)
	if err != nil {
		return err
	}
	planilla, err := s.loadPlanilla(ctx, jugador.PlanillaID)
	if err != nil {
		return err
	}
	if err := s.gate.check(ctx, actorID, planilla); err != nil {
		return err
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.jugadorRepo.Delete(ctx, tx, jugadorID); err != nil {
			return err
		}
		// Full snapshot in the details; the row itself is gone.
		return s.auditor.Record(ctx, tx, planilla.ID, actorID,
			models.ActionJugadorDeleted, models.EntityJugador, jugadorID, jugador)
	})
}

func (s *jugadorService) loadJugador(ctx context.Context, jugadorID string) (*models.Jugador, error) {
	jugador, err := s.jugadorRepo.GetByID(ctx, jugadorID)
	if err != nil {
		if errors.Is(err, repositories.ErrJugadorNotFound) {
			return nil, ErrJugadorNotFound
		}
		return nil, fmt.Errorf("failed to get jugador %s: %w", jugadorID, err)
	}
	return jugador, nil
}

func (s *jugadorService) loadPlanilla(ctx context.Context, planillaID int) (*models.Planilla, error) {
	planilla, err := s.planillaRepo.GetByID(ctx, planillaID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanillaNotFound) {
			return nil, ErrPlanillaNotFound
		}
		return nil, fmt.Errorf("failed to get planilla %d: %w", planillaID, err)
	}
	return planilla, nil
}

func validateJugadorFields(dni string, number int, name, secondName string) error {
	if strings.TrimSpace(dni) == "" || strings.TrimSpace(name) == "" || strings.TrimSpace(secondName) == "" {
		return ErrJugadorFieldsRequired
	}
	if number <= 0 || number > 99 {
		return ErrJugadorInvalidNumber
	}
	return nil
}
