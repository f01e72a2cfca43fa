package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/repositories"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// RosterArchiver persists a print-ready copy of an approved planilla.
// Optional; a nil archiver disables archival.
type RosterArchiver interface {
	ArchiveApproved(ctx context.Context, planillaID int) error
}

type PlanillaService interface {
	CreatePlanilla(ctx context.Context, input CreatePlanillaInput) (*models.Planilla, error)
	ListPlanillas(ctx context.Context, actorID string) ([]models.Planilla, error)
	GetPlanillaDetail(ctx context.Context, planillaID int, actorID string) (*models.Planilla, error)
	UpdatePlanillaTeam(ctx context.Context, planillaID int, input UpdatePlanillaInput) (*models.Planilla, error)
	UpdatePlanillaStatus(ctx context.Context, planillaID int, actorID string, next models.PlanillaStatus) (*models.Planilla, error)
	DeletePlanilla(ctx context.Context, planillaID int, actorID string) error
	BulkCreatePlanillas(ctx context.Context, actorID string, rows []BulkPlanillaRow) (*BulkPlanillaResult, error)
}

type CreatePlanillaInput struct {
	ActorID string   `json:"-"`
	TeamID  string   `json:"team_id"`
	UserIDs []string `json:"user_ids"`
}

type UpdatePlanillaInput struct {
	ActorID string `json:"-"`
	TeamID  string `json:"team_id"`
}

type BulkPlanillaRow struct {
	TeamID string `json:"team_id"`
}

type BulkPlanillaError struct {
	TeamID string `json:"team_id"`
	Error  string `json:"error"`
}

// BulkPlanillaCredentials is returned exactly once, in the bulk-create
// response. The plaintext password is not stored and cannot be recovered.
type BulkPlanillaCredentials struct {
	TeamID     string `json:"team_id"`
	PlanillaID int    `json:"planilla_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type BulkPlanillaResult struct {
	Created   int                       `json:"created"`
	Failed    int                       `json:"failed"`
	Planillas []BulkPlanillaCredentials `json:"planillas"`
	Errors    []BulkPlanillaError       `json:"errors"`
}

type planillaService struct {
	db             *sql.DB
	planillaRepo   repositories.PlanillaRepository
	teamRepo       repositories.TeamRepository
	jugadorRepo    repositories.JugadorRepository
	personaRepo    repositories.PersonaRepository
	profileRepo    repositories.ProfileRepository
	assignmentRepo repositories.AssignmentRepository
	auditor        AuditRecorder
	archiver       RosterArchiver
	emailDomain    string
	logger         *slog.Logger
}

func NewPlanillaService(
	db *sql.DB,
	planillaRepo repositories.PlanillaRepository,
	teamRepo repositories.TeamRepository,
	jugadorRepo repositories.JugadorRepository,
	personaRepo repositories.PersonaRepository,
	profileRepo repositories.ProfileRepository,
	assignmentRepo repositories.AssignmentRepository,
	auditor AuditRecorder,
	archiver RosterArchiver,
	emailDomain string,
	logger *slog.Logger,
) PlanillaService {
	return &planillaService{
		db:             db,
		planillaRepo:   planillaRepo,
		teamRepo:       teamRepo,
		jugadorRepo:    jugadorRepo,
		personaRepo:    personaRepo,
		profileRepo:    profileRepo,
		assignmentRepo: assignmentRepo,
		auditor:        auditor,
		archiver:       archiver,
		emailDomain:    emailDomain,
		logger:         logger,
	}
}

func (s *planillaService) CreatePlanilla(ctx context.Context, input CreatePlanillaInput) (*models.Planilla, error) {
	if _, err := requireAdmin(ctx, s.profileRepo, input.ActorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.TeamID) == "" {
		return nil, ErrTeamNotFound
	}
	userIDs := dedupeStrings(input.UserIDs)
	if len(userIDs) == 0 {
		return nil, ErrPlanillaUsersRequired
	}

	team, err := s.teamRepo.GetByID(ctx, input.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %s: %w", input.TeamID, err)
	}

	// One planilla per team. The unique constraint backs this up, the
	// pre-check gives the caller a clean conflict error.
	if _, err := s.planillaRepo.GetByTeamID(ctx, team.ID); err == nil {
		return nil, ErrPlanillaTeamConflict
	} else if !errors.Is(err, repositories.ErrPlanillaNotFound) {
		return nil, fmt.Errorf("failed to check existing planilla for team %s: %w", team.ID, err)
	}

	planilla := &models.Planilla{
		TeamID: team.ID,
		Status: models.StatusPendienteEnvio,
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.planillaRepo.Create(ctx, tx, planilla); err != nil {
			if errors.Is(err, repositories.ErrPlanillaTeamConflict) {
				return ErrPlanillaTeamConflict
			}
			return err
		}
		for _, userID := range userIDs {
			assignment := &models.Assignment{
				ID:         uuid.NewString(),
				UserID:     userID,
				PlanillaID: planilla.ID,
			}
			if err := s.assignmentRepo.Assign(ctx, tx, assignment); err != nil {
				return fmt.Errorf("failed to assign user %s: %w", userID, err)
			}
		}
		return s.auditor.Record(ctx, tx, planilla.ID, input.ActorID,
			models.ActionPlanillaCreated, models.EntityPlanilla, strconv.Itoa(planilla.ID),
			models.PlanillaCreationDetails{
				TeamID:  team.ID,
				UserIDs: userIDs,
				Status:  planilla.Status,
			})
	})
	if err != nil {
		return nil, err
	}

	planilla.Team = team
	return planilla, nil
}

// ListPlanillas returns every planilla for administrators. Regular users
// only see the planillas they are assigned to.
func (s *planillaService) ListPlanillas(ctx context.Context, actorID string) ([]models.Planilla, error) {
	actor, err := s.profileRepo.GetByID(ctx, actorID)
	if err != nil && !errors.Is(err, repositories.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to load acting profile: %w", err)
	}

	planillas, err := s.planillaRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list planillas: %w", err)
	}

	if actor != nil && actor.IsAdmin {
		if planillas == nil {
			return []models.Planilla{}, nil
		}
		return planillas, nil
	}

	ids, err := s.assignmentRepo.ListPlanillaIDsByUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for user %s: %w", actorID, err)
	}
	assigned := make(map[int]bool, len(ids))
	for _, id := range ids {
		assigned[id] = true
	}

	filtered := []models.Planilla{}
	for _, planilla := range planillas {
		if assigned[planilla.ID] {
			filtered = append(filtered, planilla)
		}
	}
	return filtered, nil
}

// GetPlanillaDetail returns the planilla with its team, jugadores and
// personas. The assigned-users list is an admin-only view.
func (s *planillaService) GetPlanillaDetail(ctx context.Context, planillaID int, actorID string) (*models.Planilla, error) {
	planilla, err := s.getPlanilla(ctx, planillaID)
	if err != nil {
		return nil, err
	}

	actor, err := s.profileRepo.GetByID(ctx, actorID)
	if err != nil && !errors.Is(err, repositories.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to load acting profile: %w", err)
	}
	isAdmin := actor != nil && actor.IsAdmin

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		jugadores, err := s.jugadorRepo.ListByPlanilla(gCtx, planillaID)
		if err != nil {
			return err
		}
		if jugadores == nil {
			jugadores = []models.Jugador{}
		}
		planilla.Jugadores = jugadores
		return nil
	})

	g.Go(func() error {
		personas, err := s.personaRepo.ListByPlanilla(gCtx, planillaID)
		if err != nil {
			return err
		}
		if personas == nil {
			personas = []models.Persona{}
		}
		planilla.Personas = personas
		return nil
	})

	if isAdmin {
		g.Go(func() error {
			assigned, err := s.assignmentRepo.ListProfilesByPlanilla(gCtx, planillaID)
			if err != nil {
				return err
			}
			if assigned == nil {
				assigned = []models.Profile{}
			}
			planilla.AssignedUsers = assigned
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load planilla %d detail: %w", planillaID, err)
	}
	return planilla, nil
}

func (s *planillaService) UpdatePlanillaTeam(ctx context.Context, planillaID int, input UpdatePlanillaInput) (*models.Planilla, error) {
	if _, err := requireAdmin(ctx, s.profileRepo, input.ActorID); err != nil {
		return nil, err
	}

	planilla, err := s.getPlanilla(ctx, planillaID)
	if err != nil {
		return nil, err
	}
	if _, err := s.teamRepo.GetByID(ctx, input.TeamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %s: %w", input.TeamID, err)
	}

	updated := *planilla
	updated.TeamID = input.TeamID
	updated.Team = nil

	old := *planilla
	old.Team = nil

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.planillaRepo.UpdateTeam(ctx, tx, planillaID, input.TeamID); err != nil {
			if errors.Is(err, repositories.ErrPlanillaTeamConflict) {
				return ErrPlanillaTeamConflict
			}
			return err
		}
		return s.auditor.Record(ctx, tx, planillaID, input.ActorID,
			models.ActionPlanillaUpdated, models.EntityPlanilla, strconv.Itoa(planillaID),
			models.PlanillaChangeDetails{Old: old, New: updated})
	})
	if err != nil {
		return nil, err
	}
	return s.getPlanilla(ctx, planillaID)
}

// UpdatePlanillaStatus drives the workflow. Submission preconditions are
// re-validated here regardless of what the frontend already checked.
func (s *planillaService) UpdatePlanillaStatus(ctx context.Context, planillaID int, actorID string, next models.PlanillaStatus) (*models.Planilla, error) {
	if !next.Valid() {
		return nil, ErrPlanillaInvalidStatus
	}

	planilla, err := s.getPlanilla(ctx, planillaID)
	if err != nil {
		return nil, err
	}

	if planilla.Status == next {
		return planilla, nil
	}
	if !isValidStatusTransition(planilla.Status, next) {
		return nil, fmt.Errorf("%w: %s → %s", ErrPlanillaStatusTransition, planilla.Status, next)
	}

	actor, err := s.profileRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrForbiddenOperation
		}
		return nil, fmt.Errorf("failed to load acting profile: %w", err)
	}
	if !actor.IsAdmin {
		if transitionRequiresAdmin(planilla.Status, next) {
			return nil, ErrForbiddenOperation
		}
		assigned, err := s.assignmentRepo.Exists(ctx, actorID, planillaID)
		if err != nil {
			return nil, fmt.Errorf("failed to check assignment: %w", err)
		}
		if !assigned {
			return nil, ErrForbiddenOperation
		}
	}

	if next == models.StatusPendienteAprobacion {
		if err := s.checkSubmissionPreconditions(ctx, planillaID); err != nil {
			return nil, err
		}
	}

	oldStatus := planilla.Status
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.planillaRepo.UpdateStatus(ctx, tx, planillaID, next); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, planillaID, actorID,
			models.ActionStatusChanged, models.EntityPlanilla, strconv.Itoa(planillaID),
			models.StatusChangeDetails{OldStatus: oldStatus, NewStatus: next})
	})
	if err != nil {
		return nil, err
	}

	if next == models.StatusAprobada && s.archiver != nil {
		if err := s.archiver.ArchiveApproved(ctx, planillaID); err != nil {
			// The approval itself stands; only the archived copy is missing.
			s.logger.Warn("failed to archive approved planilla",
				slog.Int("planilla_id", planillaID), slog.Any("error", err))
		}
	}

	return s.getPlanilla(ctx, planillaID)
}

func (s *planillaService) checkSubmissionPreconditions(ctx context.Context, planillaID int) error {
	jugadores, err := s.jugadorRepo.CountByPlanilla(ctx, planillaID)
	if err != nil {
		return err
	}
	if jugadores == 0 {
		return ErrPlanillaSubmitNoJugadores
	}

	tecnicos, err := s.personaRepo.CountByCharge(ctx, planillaID, models.ChargeTecnico)
	if err != nil {
		return err
	}
	if tecnicos == 0 {
		return ErrPlanillaSubmitNoTecnico
	}

	delegados, err := s.personaRepo.CountByCharge(ctx, planillaID, models.ChargeDelegado)
	if err != nil {
		return err
	}
	if delegados == 0 {
		return ErrPlanillaSubmitNoDelegado
	}
	return nil
}

// DeletePlanilla removes the planilla and everything hanging off it in one
// transaction. The planilla_deleted entry is written in that same
// transaction, against the pre-cascade snapshot.
func (s *planillaService) DeletePlanilla(ctx context.Context, planillaID int, actorID string) error {
	if _, err := requireAdmin(ctx, s.profileRepo, actorID); err != nil {
		return err
	}

	planilla, err := s.getPlanilla(ctx, planillaID)
	if err != nil {
		return err
	}
	snapshot := *planilla
	snapshot.Team = nil

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.auditor.Record(ctx, tx, planillaID, actorID,
			models.ActionPlanillaDeleted, models.EntityPlanilla, strconv.Itoa(planillaID),
			snapshot); err != nil {
			return err
		}
		if err := s.jugadorRepo.DeleteByPlanilla(ctx, tx, planillaID); err != nil {
			return err
		}
		if err := s.personaRepo.DeleteByPlanilla(ctx, tx, planillaID); err != nil {
			return err
		}
		if err := s.assignmentRepo.DeleteByPlanilla(ctx, tx, planillaID); err != nil {
			return err
		}
		return s.planillaRepo.Delete(ctx, tx, planillaID)
	})
}

// BulkCreatePlanillas synthesizes one user account per team and assigns it to
// a fresh planilla. Each row runs in its own transaction so a bad row cannot
// poison its siblings; the generated credentials are only ever returned here.
func (s *planillaService) BulkCreatePlanillas(ctx context.Context, actorID string, rows []BulkPlanillaRow) (*BulkPlanillaResult, error) {
	if _, err := requireAdmin(ctx, s.profileRepo, actorID); err != nil {
		return nil, err
	}

	result := &BulkPlanillaResult{
		Planillas: []BulkPlanillaCredentials{},
		Errors:    []BulkPlanillaError{},
	}

	for _, row := range rows {
		credentials, err := s.bulkCreateRow(ctx, actorID, row.TeamID)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkPlanillaError{
				TeamID: row.TeamID,
				Error:  err.Error(),
			})
			continue
		}
		result.Created++
		result.Planillas = append(result.Planillas, *credentials)
	}
	return result, nil
}

func (s *planillaService) bulkCreateRow(ctx context.Context, actorID, teamID string) (*BulkPlanillaCredentials, error) {
	if strings.TrimSpace(teamID) == "" {
		return nil, ErrTeamNotFound
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team.Shortname == nil || *team.Shortname == "" {
		return nil, ErrTeamShortnameMissing
	}

	if _, err := s.planillaRepo.GetByTeamID(ctx, team.ID); err == nil {
		return nil, ErrPlanillaTeamConflict
	} else if !errors.Is(err, repositories.ErrPlanillaNotFound) {
		return nil, fmt.Errorf("failed to check existing planilla: %w", err)
	}

	shortname := *team.Shortname
	email := fmt.Sprintf("%s@%s", strings.ToLower(shortname), s.emailDomain)
	if _, err := s.profileRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrProfileEmailTaken
	} else if !errors.Is(err, repositories.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	suffix, err := generateRandomToken(6)
	if err != nil {
		return nil, err
	}
	password := fmt.Sprintf("%s%d-%s", shortname, team.Category, suffix)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash generated password: %w", err)
	}

	profile := &models.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     shortname,
		PasswordHash: string(hashedPassword),
	}
	planilla := &models.Planilla{
		TeamID: team.ID,
		Status: models.StatusPendienteEnvio,
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.profileRepo.Create(ctx, tx, profile); err != nil {
			if errors.Is(err, repositories.ErrProfileEmailConflict) {
				return ErrProfileEmailTaken
			}
			return err
		}
		if err := s.planillaRepo.Create(ctx, tx, planilla); err != nil {
			if errors.Is(err, repositories.ErrPlanillaTeamConflict) {
				return ErrPlanillaTeamConflict
			}
			return err
		}
		assignment := &models.Assignment{
			ID:         uuid.NewString(),
			UserID:     profile.ID,
			PlanillaID: planilla.ID,
		}
		if err := s.assignmentRepo.Assign(ctx, tx, assignment); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, planilla.ID, actorID,
			models.ActionPlanillaCreated, models.EntityPlanilla, strconv.Itoa(planilla.ID),
			models.PlanillaCreationDetails{
				TeamID:     team.ID,
				UserIDs:    []string{profile.ID},
				Status:     planilla.Status,
				BulkCreate: true,
			})
	})
	if err != nil {
		return nil, err
	}

	return &BulkPlanillaCredentials{
		TeamID:     team.ID,
		PlanillaID: planilla.ID,
		Username:   shortname,
		Email:      email,
		Password:   password,
	}, nil
}

func (s *planillaService) getPlanilla(ctx context.Context, planillaID int) (*models.Planilla, error) {
	planilla, err := s.planillaRepo.GetByID(ctx, planillaID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanillaNotFound) {
			return nil, ErrPlanillaNotFound
		}
		return nil, fmt.Errorf("failed to get planilla %d: %w", planillaID, err)
	}
	return planilla, nil
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
