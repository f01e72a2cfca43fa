package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/PelvK/planillas-buena-fe/models"
)

func buildJugadorService(t *testing.T, commits, rollbacks int,
	jugadores *fakeJugadorRepo, repo *fakePlanillaRepo, teams *fakeTeamRepo,
	profiles *fakeProfileRepo, assigns *fakeAssignmentRepo, audit *fakeAuditRecorder) JugadorService {
	t.Helper()
	db, mock := newMockDB(t)
	expectTx(mock, commits, rollbacks)
	return NewJugadorService(db, jugadores, repo, teams, profiles, assigns, audit, discardLogger())
}

func jugadorFixtures() (*fakeTeamRepo, *fakePlanillaRepo, *fakeProfileRepo, *fakeAssignmentRepo) {
	teams := newFakeTeamRepo(&models.Team{ID: "team-1", Nombre: "Atlético Norte", Category: 2012})
	repo := newFakePlanillaRepo(&models.Planilla{ID: 1, TeamID: "team-1", Status: models.StatusPendienteEnvio})
	profiles := newFakeProfileRepo(adminProfile("admin"), userProfile("user-1"), userProfile("stranger"))
	assigns := newFakeAssignmentRepo(profiles, &models.Assignment{ID: "a1", UserID: "user-1", PlanillaID: 1})
	return teams, repo, profiles, assigns
}

func TestAddJugador(t *testing.T) {
	teams, repo, profiles, assigns := jugadorFixtures()
	jugadores := newFakeJugadorRepo()
	audit := &fakeAuditRecorder{}
	svc := buildJugadorService(t, 1, 0, jugadores, repo, teams, profiles, assigns, audit)

	jugador, err := svc.AddJugador(context.Background(), AddJugadorInput{
		ActorID:    "user-1",
		PlanillaID: 1,
		DNI:        "44111222",
		Number:     10,
		Name:       "Juan",
		SecondName: "Pérez",
	})
	if err != nil {
		t.Fatalf("AddJugador failed: %v", err)
	}
	if jugador.ID == "" {
		t.Fatal("jugador id should be generated")
	}
	if audit.lastAction() != models.ActionJugadorAdded {
		t.Fatalf("expected jugador_added audit entry, got %q", audit.lastAction())
	}
}

func TestAddJugadorValidation(t *testing.T) {
	teams, repo, profiles, assigns := jugadorFixtures()
	svc := buildJugadorService(t, 0, 0, newFakeJugadorRepo(), repo, teams, profiles, assigns, &fakeAuditRecorder{})

	cases := []struct {
		name  string
		input AddJugadorInput
		want  error
	}{
		{"missing dni", AddJugadorInput{ActorID: "admin", PlanillaID: 1, Number: 10, Name: "Juan", SecondName: "Pérez"}, ErrJugadorFieldsRequired},
		{"missing name", AddJugadorInput{ActorID: "admin", PlanillaID: 1, DNI: "1", Number: 10, SecondName: "Pérez"}, ErrJugadorFieldsRequired},
		{"zero number", AddJugadorInput{ActorID: "admin", PlanillaID: 1, DNI: "1", Number: 0, Name: "Juan", SecondName: "Pérez"}, ErrJugadorInvalidNumber},
		{"number too high", AddJugadorInput{ActorID: "admin", PlanillaID: 1, DNI: "1", Number: 120, Name: "Juan", SecondName: "Pérez"}, ErrJugadorInvalidNumber},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.AddJugador(context.Background(), tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAddJugadorCategoryLimit(t *testing.T) {
	// Category 2010 caps the roster at 8.
	teams := newFakeTeamRepo(&models.Team{ID: "team-1", Nombre: "Atlético Norte", Category: 2010})
	repo := newFakePlanillaRepo(&models.Planilla{ID: 1, TeamID: "team-1", Status: models.StatusPendienteEnvio})
	profiles := newFakeProfileRepo(adminProfile("admin"))
	assigns := newFakeAssignmentRepo(profiles)

	jugadores := newFakeJugadorRepo()
	for i := 0; i < 8; i++ {
		jugadores.jugadores[fmt.Sprintf("j%d", i)] = &models.Jugador{
			ID: fmt.Sprintf("j%d", i), PlanillaID: 1, DNI: fmt.Sprintf("%d", i+1), Number: i + 1, Name: "x", SecondName: "y",
		}
	}
	svc := buildJugadorService(t, 0, 0, jugadores, repo, teams, profiles, assigns, &fakeAuditRecorder{})

	_, err := svc.AddJugador(context.Background(), AddJugadorInput{
		ActorID: "admin", PlanillaID: 1, DNI: "99", Number: 9, Name: "Juan", SecondName: "Pérez",
	})
	if !errors.Is(err, ErrJugadorLimitReached) {
		t.Fatalf("expected ErrJugadorLimitReached, got %v", err)
	}
}

func TestAddJugadorEditGate(t *testing.T) {
	t.Run("unassigned user is rejected", func(t *testing.T) {
		teams, repo, profiles, assigns := jugadorFixtures()
		svc := buildJugadorService(t, 0, 0, newFakeJugadorRepo(), repo, teams, profiles, assigns, &fakeAuditRecorder{})

		_, err := svc.AddJugador(context.Background(), AddJugadorInput{
			ActorID: "stranger", PlanillaID: 1, DNI: "1", Number: 1, Name: "a", SecondName: "b",
		})
		if !errors.Is(err, ErrForbiddenOperation) {
			t.Fatalf("expected ErrForbiddenOperation, got %v", err)
		}
	})

	t.Run("assigned user blocked after submission", func(t *testing.T) {
		teams, _, profiles, assigns := jugadorFixtures()
		repo := newFakePlanillaRepo(&models.Planilla{ID: 1, TeamID: "team-1", Status: models.StatusPendienteAprobacion})
		svc := buildJugadorService(t, 0, 0, newFakeJugadorRepo(), repo, teams, profiles, assigns, &fakeAuditRecorder{})

		_, err := svc.AddJugador(context.Background(), AddJugadorInput{
			ActorID: "user-1", PlanillaID: 1, DNI: "1", Number: 1, Name: "a", SecondName: "b",
		})
		if !errors.Is(err, ErrPlanillaNotEditable) {
			t.Fatalf("expected ErrPlanillaNotEditable, got %v", err)
		}
	})

	t.Run("admin may edit after submission", func(t *testing.T) {
		teams, _, profiles, assigns := jugadorFixtures()
		repo := newFakePlanillaRepo(&models.Planilla{ID: 1, TeamID: "team-1", Status: models.StatusAprobada})
		svc := buildJugadorService(t, 1, 0, newFakeJugadorRepo(), repo, teams, profiles, assigns, &fakeAuditRecorder{})

		_, err := svc.AddJugador(context.Background(), AddJugadorInput{
			ActorID: "admin", PlanillaID: 1, DNI: "1", Number: 1, Name: "a", SecondName: "b",
		})
		if err != nil {
			t.Fatalf("admin edit should pass at any status, got %v", err)
		}
	})
}

func TestUpdateJugadorRecordsOldAndNew(t *testing.T) {
	teams, repo, profiles, assigns := jugadorFixtures()
	jugadores := newFakeJugadorRepo(&models.Jugador{ID: "j1", PlanillaID: 1, DNI: "1", Number: 7, Name: "Juan", SecondName: "Pérez"})
	audit := &fakeAuditRecorder{}
	svc := buildJugadorService(t, 1, 0, jugadores, repo, teams, profiles, assigns, audit)

	updated, err := svc.UpdateJugador(context.Background(), "j1", UpdateJugadorInput{
		ActorID: "user-1", DNI: "1", Number: 9, Name: "Juan", SecondName: "Pérez",
	})
	if err != nil {
		t.Fatalf("UpdateJugador failed: %v", err)
	}
	if updated.Number != 9 {
		t.Fatalf("expected number 9, got %d", updated.Number)
	}

	details, ok := audit.entries[0].Payload.(models.JugadorChangeDetails)
	if !ok {
		t.Fatalf("unexpected audit payload type %T", audit.entries[0].Payload)
	}
	if details.Old.Number != 7 || details.New.Number != 9 {
		t.Fatalf("audit must capture old and new values, got old=%d new=%d", details.Old.Number, details.New.Number)
	}
}

func TestDeleteJugadorAuditsSnapshot(t *testing.T) {
	teams, repo, profiles, assigns := jugadorFixtures()
	jugadores := newFakeJugadorRepo(&models.Jugador{ID: "j1", PlanillaID: 1, DNI: "1", Number: 7, Name: "Juan", SecondName: "Pérez"})
	audit := &fakeAuditRecorder{}
	svc := buildJugadorService(t, 1, 0, jugadores, repo, teams, profiles, assigns, audit)

	if err := svc.DeleteJugador(context.Background(), "j1", "user-1"); err != nil {
		t.Fatalf("DeleteJugador failed: %v", err)
	}
	if len(jugadores.jugadores) != 0 {
		t.Fatal("jugador should be gone")
	}
	if audit.lastAction() != models.ActionJugadorDeleted {
		t.Fatalf("expected jugador_deleted audit entry, got %q", audit.lastAction())
	}
	snapshot, ok := audit.entries[0].Payload.(*models.Jugador)
	if !ok {
		t.Fatalf("unexpected audit payload type %T", audit.entries[0].Payload)
	}
	if snapshot.Number != 7 {
		t.Fatalf("snapshot should keep the deleted row, got number %d", snapshot.Number)
	}
}
