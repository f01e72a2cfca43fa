package models

import "time"

// PlanillaStatus values are kept in Spanish on the wire because the frontend
// and the printed document both show them verbatim.
type PlanillaStatus string

const (
	StatusPendienteEnvio      PlanillaStatus = "Pendiente de envío"
	StatusPendienteAprobacion PlanillaStatus = "Pendiente de aprobación"
	StatusAprobada            PlanillaStatus = "Aprobada"
)

func (s PlanillaStatus) Valid() bool {
	switch s {
	case StatusPendienteEnvio, StatusPendienteAprobacion, StatusAprobada:
		return true
	}
	return false
}

// Planilla is the roster document of a single team. One per team.
type Planilla struct {
	ID        int            `json:"id" db:"id"`
	TeamID    string         `json:"team_id" db:"team_id"`
	Status    PlanillaStatus `json:"status" db:"status"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`

	Team          *Team     `json:"team,omitempty" db:"-"`
	Jugadores     []Jugador `json:"jugadores,omitempty" db:"-"`
	Personas      []Persona `json:"personas,omitempty" db:"-"`
	AssignedUsers []Profile `json:"assigned_users,omitempty" db:"-"`
}

// Assignment is a user_planilla join row granting edit rights while the
// planilla is still in Pendiente de envío.
type Assignment struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	PlanillaID int       `json:"planilla_id" db:"planilla_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
