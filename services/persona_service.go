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

type PersonaService interface {
	AddPersona(ctx context.Context, input AddPersonaInput) (*models.Persona, error)
	UpdatePersona(ctx context.Context, personaID string, input UpdatePersonaInput) (*models.Persona, error)
	DeletePersona(ctx context.Context, personaID, actorID string) error
}

type AddPersonaInput struct {
	ActorID     string               `json:"-"`
	PlanillaID  int                  `json:"planilla_id"`
	DNI         string               `json:"dni"`
	Name        string               `json:"name"`
	SecondName  string               `json:"second_name"`
	PhoneNumber string               `json:"phone_number"`
	Charge      models.PersonaCharge `json:"charge"`
}

type UpdatePersonaInput struct {
	ActorID     string               `json:"-"`
	DNI         string               `json:"dni"`
	Name        string               `json:"name"`
	SecondName  string               `json:"second_name"`
	PhoneNumber string               `json:"phone_number"`
	Charge      models.PersonaCharge `json:"charge"`
}

type personaService struct {
	db           *sql.DB
	personaRepo  repositories.PersonaRepository
	planillaRepo repositories.PlanillaRepository
	gate         *editGate
	auditor      AuditRecorder
	logger       *slog.Logger
}

func NewPersonaService(
	db *sql.DB,
	personaRepo repositories.PersonaRepository,
	planillaRepo repositories.PlanillaRepository,
	profileRepo repositories.ProfileRepository,
	assignmentRepo repositories.AssignmentRepository,
	auditor AuditRecorder,
	logger *slog.Logger,
) PersonaService {
	return &personaService{
		db:           db,
		personaRepo:  personaRepo,
		planillaRepo: planillaRepo,
		gate:         &editGate{profileRepo: profileRepo, assignmentRepo: assignmentRepo},
		auditor:      auditor,
		logger:       logger,
	}
}

func (s *personaService) AddPersona(ctx context.Context, input AddPersonaInput) (*models.Persona, error) {
	planilla, err := s.loadPlanilla(ctx, input.PlanillaID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.check(ctx, input.ActorID, planilla); err != nil {
		return nil, err
	}
	if err := validatePersonaFields(input.DNI, input.Name, input.SecondName, input.PhoneNumber); err != nil {
		return nil, err
	}
	if !input.Charge.Valid() {
		return nil, ErrPersonaInvalidCharge
	}

	// At most one persona per charge on a planilla.
	taken, err := s.personaRepo.CountByCharge(ctx, planilla.ID, input.Charge)
	if err != nil {
		return nil, fmt.Errorf("failed to count charge %s: %w", input.Charge, err)
	}
	if taken > 0 {
		return nil, ErrPersonaChargeTaken
	}

	persona := &models.Persona{
		ID:          uuid.NewString(),
		PlanillaID:  planilla.ID,
		DNI:         input.DNI,
		Name:        strings.TrimSpace(input.Name),
		SecondName:  strings.TrimSpace(input.SecondName),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		Charge:      input.Charge,
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.personaRepo.Create(ctx, tx, persona); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, planilla.ID, input.ActorID,
			models.ActionPersonaAdded, models.EntityPersona, persona.ID, persona)
	})
	if err != nil {
		return nil, err
	}
	return persona, nil
}

func (s *personaService) UpdatePersona(ctx context.Context, personaID string, input UpdatePersonaInput) (*models.Persona, error) {
	persona, err := s.loadPersona(ctx, personaID)
	if err != nil {
		return nil, err
	}
	planilla, err := s.loadPlanilla(ctx, persona.PlanillaID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.check(ctx, input.ActorID, planilla); err != nil {
		return nil, err
	}
	if err := validatePersonaFields(input.DNI, input.Name, input.SecondName, input.PhoneNumber); err != nil {
		return nil, err
	}
	if !input.Charge.Valid() {
		return nil, ErrPersonaInvalidCharge
	}

	if input.Charge != persona.Charge {
		taken, err := s.personaRepo.CountByCharge(ctx, planilla.ID, input.Charge)
		if err != nil {
			return nil, fmt.Errorf("failed to count charge %s: %w", input.Charge, err)
		}
		if taken > 0 {
			return nil, ErrPersonaChargeTaken
		}
	}

	old := *persona
	persona.DNI = input.DNI
	persona.Name = strings.TrimSpace(input.Name)
	persona.SecondName = strings.TrimSpace(input.SecondName)
	persona.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	persona.Charge = input.Charge

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.personaRepo.Update(ctx, tx, persona); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, planilla.ID, input.ActorID,
			models.ActionPersonaUpdated, models.EntityPersona, persona.ID,
			models.PersonaChangeDetails{Old: old, New: *persona})
	})
	if err != nil {
		return nil, err
	}
	return persona, nil
}

func (s *personaService) DeletePersona(ctx context.Context, personaID, actorID string) error {
	persona, err := s.loadPersona(ctx, personaID)
	if err != nil {
		return err
	}
	planilla, err := s.loadPlanilla(ctx, persona.PlanillaID)
	if err != nil {
		return err
	}
	if err := s.gate.check(ctx, actorID, planilla); err != nil {
		return err
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.personaRepo.Delete(ctx, tx, personaID); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, planilla.ID, actorID,
			models.ActionPersonaDeleted, models.EntityPersona, personaID, persona)
	})
}

func (s *personaService) loadPersona(ctx context.Context, personaID string) (*models.Persona, error) {
	persona, err := s.personaRepo.GetByID(ctx, personaID)
	if err != nil {
		if errors.Is(err, repositories.ErrPersonaNotFound) {
			return nil, ErrPersonaNotFound
		}
		return nil, fmt.Errorf("failed to get persona %s: %w", personaID, err)
	}
	return persona, nil
}

func (s *personaService) loadPlanilla(ctx context.Context, planillaID int) (*models.Planilla, error) {
	planilla, err := s.planillaRepo.GetByID(ctx, planillaID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanillaNotFound) {
			return nil, ErrPlanillaNotFound
		}
		return nil, fmt.Errorf("failed to get planilla %d: %w", planillaID, err)
	}
	return planilla, nil
}

func validatePersonaFields(dni, name, secondName, phoneNumber string) error {
	if strings.TrimSpace(dni) == "" || strings.TrimSpace(name) == "" || strings.TrimSpace(secondName) == "" ||
		strings.TrimSpace(phoneNumber) == "" {
		return ErrPersonaFieldsRequired
	}
	return nil
}
