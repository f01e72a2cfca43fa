package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/lib/pq"
)

func TestPlanillaCreateScansGeneratedColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	planillas := NewPostgresPlanillaRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO planillas").
		WithArgs("team-1", string(models.StatusPendienteEnvio)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(5, now, now))

	planilla := &models.Planilla{TeamID: "team-1", Status: models.StatusPendienteEnvio}
	if err := planillas.Create(context.Background(), db, planilla); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if planilla.ID != 5 {
		t.Fatalf("expected generated id 5, got %d", planilla.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPlanillaCreateTeamConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	planillas := NewPostgresPlanillaRepository(db)

	mock.ExpectQuery("INSERT INTO planillas").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "planillas_team_id_key"})

	planilla := &models.Planilla{TeamID: "team-1", Status: models.StatusPendienteEnvio}
	if err := planillas.Create(context.Background(), db, planilla); !errors.Is(err, ErrPlanillaTeamConflict) {
		t.Fatalf("expected ErrPlanillaTeamConflict, got %v", err)
	}
}

func TestPlanillaGetByIDJoinsTeam(t *testing.T) {
	mock, _, planillas := newMockRepoDB(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "team_id", "status", "created_at", "updated_at",
		"t_id", "t_nombre", "t_shortname", "t_category", "t_created_at",
	}).AddRow(5, "team-1", string(models.StatusPendienteAprobacion), now, now,
		"team-1", "Atlético Norte", "ATN", 2012, now)
	mock.ExpectQuery("SELECT p.id, p.team_id").WithArgs(5).WillReturnRows(rows)

	planilla, err := planillas.GetByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if planilla.Status != models.StatusPendienteAprobacion {
		t.Fatalf("unexpected status %q", planilla.Status)
	}
	if planilla.Team == nil || planilla.Team.Nombre != "Atlético Norte" {
		t.Fatalf("team not joined: %+v", planilla.Team)
	}
	if planilla.Team.Shortname == nil || *planilla.Team.Shortname != "ATN" {
		t.Fatal("shortname not scanned")
	}
}

func TestPlanillaGetByIDToleratesMissingTeam(t *testing.T) {
	mock, _, planillas := newMockRepoDB(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "team_id", "status", "created_at", "updated_at",
		"t_id", "t_nombre", "t_shortname", "t_category", "t_created_at",
	}).AddRow(5, "team-1", string(models.StatusPendienteEnvio), now, now,
		nil, nil, nil, nil, nil)
	mock.ExpectQuery("SELECT p.id, p.team_id").WithArgs(5).WillReturnRows(rows)

	planilla, err := planillas.GetByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if planilla.Team != nil {
		t.Fatalf("expected nil team, got %+v", planilla.Team)
	}
}

func TestPlanillaGetByTeamIDNotFound(t *testing.T) {
	mock, _, planillas := newMockRepoDB(t)

	mock.ExpectQuery("SELECT id, team_id, status").
		WithArgs("team-9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_id", "status", "created_at", "updated_at"}))

	if _, err := planillas.GetByTeamID(context.Background(), "team-9"); !errors.Is(err, ErrPlanillaNotFound) {
		t.Fatalf("expected ErrPlanillaNotFound, got %v", err)
	}
}

func TestPlanillaUpdateStatusInTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	planillas := NewPostgresPlanillaRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE planillas SET status").
		WithArgs(string(models.StatusAprobada), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := planillas.UpdateStatus(context.Background(), tx, 5, models.StatusAprobada); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPlanillaDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	planillas := NewPostgresPlanillaRepository(db)

	mock.ExpectExec("DELETE FROM planillas").
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := planillas.Delete(context.Background(), db, 99); !errors.Is(err, ErrPlanillaNotFound) {
		t.Fatalf("expected ErrPlanillaNotFound, got %v", err)
	}
}
