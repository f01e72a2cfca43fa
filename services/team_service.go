package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/repositories"
	"github.com/google/uuid"
)

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeamByID(ctx context.Context, id string) (*models.Team, error)
	GetAllTeams(ctx context.Context) ([]models.Team, error)
	UpdateTeam(ctx context.Context, id string, input UpdateTeamInput) (*models.Team, error)
	DeleteTeam(ctx context.Context, actorID, id string) error
	BulkCreateTeams(ctx context.Context, actorID string, rows []BulkTeamRow) (*BulkTeamResult, error)
}

type CreateTeamInput struct {
	ActorID   string  `json:"-"`
	Nombre    string  `json:"nombre"`
	Shortname *string `json:"shortname"`
	Category  int     `json:"category"`
}

type UpdateTeamInput struct {
	ActorID   string  `json:"-"`
	Nombre    *string `json:"nombre"`
	Shortname *string `json:"shortname"`
	Category  *int    `json:"category"`
}

type BulkTeamRow struct {
	Nombre    string  `json:"nombre"`
	Shortname *string `json:"shortname"`
	Category  int     `json:"category"`
}

type BulkTeamError struct {
	Nombre string `json:"nombre"`
	Error  string `json:"error"`
}

type BulkTeamResult struct {
	Created int             `json:"created"`
	Failed  int             `json:"failed"`
	Errors  []BulkTeamError `json:"errors"`
}

type teamService struct {
	teamRepo       repositories.TeamRepository
	planillaRepo   repositories.PlanillaRepository
	profileRepo    repositories.ProfileRepository
	assignmentRepo repositories.AssignmentRepository
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	planillaRepo repositories.PlanillaRepository,
	profileRepo repositories.ProfileRepository,
	assignmentRepo repositories.AssignmentRepository,
) TeamService {
	return &teamService{
		teamRepo:       teamRepo,
		planillaRepo:   planillaRepo,
		profileRepo:    profileRepo,
		assignmentRepo: assignmentRepo,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	if _, err := requireAdmin(ctx, s.profileRepo, input.ActorID); err != nil {
		return nil, err
	}
	team, err := buildTeam(input.Nombre, input.Shortname, input.Category)
	if err != nil {
		return nil, err
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamShortnameConflict) {
			return nil, ErrTeamShortnameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetTeamByID(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %s: %w", id, err)
	}

	// Members are the profiles assigned to the team's planilla, if it has one.
	planilla, err := s.planillaRepo.GetByTeamID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanillaNotFound) {
			return team, nil
		}
		return nil, fmt.Errorf("failed to load planilla for team %s: %w", id, err)
	}
	members, err := s.assignmentRepo.ListProfilesByPlanilla(ctx, planilla.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	for i := range members {
		members[i].PasswordHash = ""
	}
	team.Members = members
	team.MemberCount = len(members)
	return team, nil
}

func (s *teamService) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	if teams == nil {
		return []models.Team{}, nil
	}
	return teams, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, id string, input UpdateTeamInput) (*models.Team, error) {
	if _, err := requireAdmin(ctx, s.profileRepo, input.ActorID); err != nil {
		return nil, err
	}

	team, err := s.GetTeamByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Nombre != nil {
		nombre := strings.TrimSpace(*input.Nombre)
		if nombre == "" {
			return nil, ErrTeamNombreRequired
		}
		team.Nombre = nombre
	}
	if input.Shortname != nil {
		shortname := strings.TrimSpace(*input.Shortname)
		if shortname == "" {
			team.Shortname = nil
		} else {
			team.Shortname = &shortname
		}
	}
	if input.Category != nil {
		if !models.ValidCategory(*input.Category) {
			return nil, ErrTeamCategoryInvalid
		}
		team.Category = *input.Category
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, ErrTeamNotFound
		case errors.Is(err, repositories.ErrTeamShortnameConflict):
			return nil, ErrTeamShortnameConflict
		default:
			return nil, fmt.Errorf("failed to update team %s: %w", id, err)
		}
	}
	return team, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, actorID, id string) error {
	if _, err := requireAdmin(ctx, s.profileRepo, actorID); err != nil {
		return err
	}
	if err := s.teamRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %s: %w", id, err)
	}
	return nil
}

// BulkCreateTeams validates and inserts each row independently. A failed row
// is reported and skipped; it never aborts its siblings.
func (s *teamService) BulkCreateTeams(ctx context.Context, actorID string, rows []BulkTeamRow) (*BulkTeamResult, error) {
	if _, err := requireAdmin(ctx, s.profileRepo, actorID); err != nil {
		return nil, err
	}

	result := &BulkTeamResult{Errors: []BulkTeamError{}}
	for _, row := range rows {
		team, err := buildTeam(row.Nombre, row.Shortname, row.Category)
		if err == nil {
			err = s.teamRepo.Create(ctx, team)
			if errors.Is(err, repositories.ErrTeamShortnameConflict) {
				err = ErrTeamShortnameConflict
			}
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkTeamError{
				Nombre: row.Nombre,
				Error:  err.Error(),
			})
			continue
		}
		result.Created++
	}
	return result, nil
}

func buildTeam(nombre string, shortname *string, category int) (*models.Team, error) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		return nil, ErrTeamNombreRequired
	}
	if category == 0 {
		return nil, ErrTeamCategoryRequired
	}
	if !models.ValidCategory(category) {
		return nil, ErrTeamCategoryInvalid
	}

	team := &models.Team{
		ID:       uuid.NewString(),
		Nombre:   nombre,
		Category: category,
	}
	if shortname != nil {
		if sn := strings.TrimSpace(*shortname); sn != "" {
			team.Shortname = &sn
		}
	}
	return team, nil
}
