package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/repositories"
)

// In-memory repository fakes. Mutating methods ignore the executor; the
// transaction itself is driven by a sqlmock database so begin/commit
// behavior stays observable.

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock, commits, rollbacks int) {
	for i := 0; i < commits; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	for i := 0; i < rollbacks; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}
}

type fakeTeamRepo struct {
	teams map[string]*models.Team
}

func newFakeTeamRepo(teams ...*models.Team) *fakeTeamRepo {
	r := &fakeTeamRepo{teams: make(map[string]*models.Team)}
	for _, team := range teams {
		r.teams[team.ID] = team
	}
	return r
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	for _, existing := range r.teams {
		if team.Shortname != nil && existing.Shortname != nil && *team.Shortname == *existing.Shortname {
			return repositories.ErrTeamShortnameConflict
		}
	}
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id string) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) GetAll(ctx context.Context) ([]models.Team, error) {
	var out []models.Team
	for _, team := range r.teams {
		out = append(out, *team)
	}
	return out, nil
}

func (r *fakeTeamRepo) Update(ctx context.Context, team *models.Team) error {
	if _, ok := r.teams[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

type fakePlanillaRepo struct {
	planillas map[int]*models.Planilla
	nextID    int
}

func newFakePlanillaRepo(planillas ...*models.Planilla) *fakePlanillaRepo {
	r := &fakePlanillaRepo{planillas: make(map[int]*models.Planilla), nextID: 1}
	for _, p := range planillas {
		r.planillas[p.ID] = p
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
	}
	return r
}

func (r *fakePlanillaRepo) Create(ctx context.Context, exec repositories.SQLExecutor, planilla *models.Planilla) error {
	for _, existing := range r.planillas {
		if existing.TeamID == planilla.TeamID {
			return repositories.ErrPlanillaTeamConflict
		}
	}
	planilla.ID = r.nextID
	r.nextID++
	copied := *planilla
	r.planillas[planilla.ID] = &copied
	return nil
}

func (r *fakePlanillaRepo) GetByID(ctx context.Context, id int) (*models.Planilla, error) {
	planilla, ok := r.planillas[id]
	if !ok {
		return nil, repositories.ErrPlanillaNotFound
	}
	copied := *planilla
	return &copied, nil
}

func (r *fakePlanillaRepo) GetByTeamID(ctx context.Context, teamID string) (*models.Planilla, error) {
	for _, planilla := range r.planillas {
		if planilla.TeamID == teamID {
			copied := *planilla
			return &copied, nil
		}
	}
	return nil, repositories.ErrPlanillaNotFound
}

func (r *fakePlanillaRepo) List(ctx context.Context) ([]models.Planilla, error) {
	var out []models.Planilla
	for _, planilla := range r.planillas {
		out = append(out, *planilla)
	}
	return out, nil
}

func (r *fakePlanillaRepo) UpdateTeam(ctx context.Context, exec repositories.SQLExecutor, id int, teamID string) error {
	planilla, ok := r.planillas[id]
	if !ok {
		return repositories.ErrPlanillaNotFound
	}
	for _, existing := range r.planillas {
		if existing.ID != id && existing.TeamID == teamID {
			return repositories.ErrPlanillaTeamConflict
		}
	}
	planilla.TeamID = teamID
	return nil
}

func (r *fakePlanillaRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.PlanillaStatus) error {
	planilla, ok := r.planillas[id]
	if !ok {
		return repositories.ErrPlanillaNotFound
	}
	planilla.Status = status
	return nil
}

func (r *fakePlanillaRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.planillas[id]; !ok {
		return repositories.ErrPlanillaNotFound
	}
	delete(r.planillas, id)
	return nil
}

type fakeJugadorRepo struct {
	jugadores map[string]*models.Jugador
}

func newFakeJugadorRepo(jugadores ...*models.Jugador) *fakeJugadorRepo {
	r := &fakeJugadorRepo{jugadores: make(map[string]*models.Jugador)}
	for _, j := range jugadores {
		r.jugadores[j.ID] = j
	}
	return r
}

func (r *fakeJugadorRepo) Create(ctx context.Context, exec repositories.SQLExecutor, jugador *models.Jugador) error {
	copied := *jugador
	r.jugadores[jugador.ID] = &copied
	return nil
}

func (r *fakeJugadorRepo) GetByID(ctx context.Context, id string) (*models.Jugador, error) {
	jugador, ok := r.jugadores[id]
	if !ok {
		return nil, repositories.ErrJugadorNotFound
	}
	copied := *jugador
	return &copied, nil
}

func (r *fakeJugadorRepo) ListByPlanilla(ctx context.Context, planillaID int) ([]models.Jugador, error) {
	var out []models.Jugador
	for _, jugador := range r.jugadores {
		if jugador.PlanillaID == planillaID {
			out = append(out, *jugador)
		}
	}
	return out, nil
}

func (r *fakeJugadorRepo) CountByPlanilla(ctx context.Context, planillaID int) (int, error) {
	count := 0
	for _, jugador := range r.jugadores {
		if jugador.PlanillaID == planillaID {
			count++
		}
	}
	return count, nil
}

func (r *fakeJugadorRepo) Update(ctx context.Context, exec repositories.SQLExecutor, jugador *models.Jugador) error {
	if _, ok := r.jugadores[jugador.ID]; !ok {
		return repositories.ErrJugadorNotFound
	}
	copied := *jugador
	r.jugadores[jugador.ID] = &copied
	return nil
}

func (r *fakeJugadorRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	if _, ok := r.jugadores[id]; !ok {
		return repositories.ErrJugadorNotFound
	}
	delete(r.jugadores, id)
	return nil
}

func (r *fakeJugadorRepo) DeleteByPlanilla(ctx context.Context, exec repositories.SQLExecutor, planillaID int) error {
	for id, jugador := range r.jugadores {
		if jugador.PlanillaID == planillaID {
			delete(r.jugadores, id)
		}
	}
	return nil
}

type fakePersonaRepo struct {
	personas map[string]*models.Persona
}

func newFakePersonaRepo(personas ...*models.Persona) *fakePersonaRepo {
	r := &fakePersonaRepo{personas: make(map[string]*models.Persona)}
	for _, p := range personas {
		r.personas[p.ID] = p
	}
	return r
}

func (r *fakePersonaRepo) Create(ctx context.Context, exec repositories.SQLExecutor, persona *models.Persona) error {
	copied := *persona
	r.personas[persona.ID] = &copied
	return nil
}

func (r *fakePersonaRepo) GetByID(ctx context.Context, id string) (*models.Persona, error) {
	persona, ok := r.personas[id]
	if !ok {
		return nil, repositories.ErrPersonaNotFound
	}
	copied := *persona
	return &copied, nil
}

func (r *fakePersonaRepo) ListByPlanilla(ctx context.Context, planillaID int) ([]models.Persona, error) {
	var out []models.Persona
	for _, persona := range r.personas {
		if persona.PlanillaID == planillaID {
			out = append(out, *persona)
		}
	}
	return out, nil
}

func (r *fakePersonaRepo) CountByCharge(ctx context.Context, planillaID int, charge models.PersonaCharge) (int, error) {
	count := 0
	for _, persona := range r.personas {
		if persona.PlanillaID == planillaID && persona.Charge == charge {
			count++
		}
	}
	return count, nil
}

func (r *fakePersonaRepo) Update(ctx context.Context, exec repositories.SQLExecutor, persona *models.Persona) error {
	if _, ok := r.personas[persona.ID]; !ok {
		return repositories.ErrPersonaNotFound
	}
	copied := *persona
	r.personas[persona.ID] = &copied
	return nil
}

func (r *fakePersonaRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	if _, ok := r.personas[id]; !ok {
		return repositories.ErrPersonaNotFound
	}
	delete(r.personas, id)
	return nil
}

func (r *fakePersonaRepo) DeleteByPlanilla(ctx context.Context, exec repositories.SQLExecutor, planillaID int) error {
	for id, persona := range r.personas {
		if persona.PlanillaID == planillaID {
			delete(r.personas, id)
		}
	}
	return nil
}

type fakeProfileRepo struct {
	profiles map[string]*models.Profile
}

func newFakeProfileRepo(profiles ...*models.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{profiles: make(map[string]*models.Profile)}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *fakeProfileRepo) Create(ctx context.Context, exec repositories.SQLExecutor, profile *models.Profile) error {
	for _, existing := range r.profiles {
		if existing.Email == profile.Email {
			return repositories.ErrProfileEmailConflict
		}
	}
	copied := *profile
	r.profiles[profile.ID] = &copied
	return nil
}

func (r *fakeProfileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	profile, ok := r.profiles[id]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	copied := *profile
	return &copied, nil
}

func (r *fakeProfileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	for _, profile := range r.profiles {
		if profile.Email == email {
			copied := *profile
			return &copied, nil
		}
	}
	return nil, repositories.ErrProfileNotFound
}

func (r *fakeProfileRepo) List(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	for _, profile := range r.profiles {
		out = append(out, *profile)
	}
	return out, nil
}

func (r *fakeProfileRepo) Update(ctx context.Context, profile *models.Profile) error {
	if _, ok := r.profiles[profile.ID]; !ok {
		return repositories.ErrProfileNotFound
	}
	copied := *profile
	r.profiles[profile.ID] = &copied
	return nil
}

func (r *fakeProfileRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.profiles[id]; !ok {
		return repositories.ErrProfileNotFound
	}
	delete(r.profiles, id)
	return nil
}

type fakeAssignmentRepo struct {
	assignments []*models.Assignment
	profiles    *fakeProfileRepo
}

func newFakeAssignmentRepo(profiles *fakeProfileRepo, assignments ...*models.Assignment) *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: assignments, profiles: profiles}
}

func (r *fakeAssignmentRepo) Assign(ctx context.Context, exec repositories.SQLExecutor, assignment *models.Assignment) error {
	for _, existing := range r.assignments {
		if existing.UserID == assignment.UserID && existing.PlanillaID == assignment.PlanillaID {
			return repositories.ErrAssignmentConflict
		}
	}
	copied := *assignment
	r.assignments = append(r.assignments, &copied)
	return nil
}

func (r *fakeAssignmentRepo) Exists(ctx context.Context, userID string, planillaID int) (bool, error) {
	for _, assignment := range r.assignments {
		if assignment.UserID == userID && assignment.PlanillaID == planillaID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAssignmentRepo) ListProfilesByPlanilla(ctx context.Context, planillaID int) ([]models.Profile, error) {
	var out []models.Profile
	for _, assignment := range r.assignments {
		if assignment.PlanillaID != planillaID {
			continue
		}
		if r.profiles != nil {
			if profile, ok := r.profiles.profiles[assignment.UserID]; ok {
				out = append(out, *profile)
			}
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) ListPlanillaIDsByUser(ctx context.Context, userID string) ([]int, error) {
	var out []int
	for _, assignment := range r.assignments {
		if assignment.UserID == userID {
			out = append(out, assignment.PlanillaID)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) DeleteByPlanilla(ctx context.Context, exec repositories.SQLExecutor, planillaID int) error {
	kept := r.assignments[:0]
	for _, assignment := range r.assignments {
		if assignment.PlanillaID != planillaID {
			kept = append(kept, assignment)
		}
	}
	r.assignments = kept
	return nil
}

// fakeAuditRecorder captures audit calls for assertions.
type fakeAuditRecorder struct {
	entries []recordedAudit
}

type recordedAudit struct {
	PlanillaID int
	ActorID    string
	Action     models.AuditAction
	EntityType models.AuditEntityType
	EntityID   string
	Payload    any
}

func (r *fakeAuditRecorder) Record(ctx context.Context, exec repositories.SQLExecutor, planillaID int, actorID string,
	action models.AuditAction, entityType models.AuditEntityType, entityID string, payload any) error {
	r.entries = append(r.entries, recordedAudit{
		PlanillaID: planillaID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
	})
	return nil
}

func (r *fakeAuditRecorder) lastAction() models.AuditAction {
	if len(r.entries) == 0 {
		return ""
	}
	return r.entries[len(r.entries)-1].Action
}

func strPtr(s string) *string { return &s }

func adminProfile(id string) *models.Profile {
	return &models.Profile{ID: id, Email: id + "@example.com", Username: id, IsAdmin: true}
}

func userProfile(id string) *models.Profile {
	return &models.Profile{ID: id, Email: id + "@example.com", Username: id}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
