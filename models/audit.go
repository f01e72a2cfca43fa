package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type AuditAction string

const (
	ActionJugadorAdded    AuditAction = "jugador_added"
	ActionJugadorUpdated  AuditAction = "jugador_updated"
	ActionJugadorDeleted  AuditAction = "jugador_deleted"
	ActionPersonaAdded    AuditAction = "persona_added"
	ActionPersonaUpdated  AuditAction = "persona_updated"
	ActionPersonaDeleted  AuditAction = "persona_deleted"
	ActionStatusChanged   AuditAction = "status_changed"
	ActionPlanillaCreated AuditAction = "planilla_created"
	ActionPlanillaUpdated AuditAction = "planilla_updated"
	ActionPlanillaDeleted AuditAction = "planilla_deleted"
)

type AuditEntityType string

const (
	EntityJugador  AuditEntityType = "jugador"
	EntityPersona  AuditEntityType = "persona"
	EntityPlanilla AuditEntityType = "planilla"
)

// AuditEntry is an append-only record of a mutating action against a
// planilla. Username is snapshotted at write time so later renames do not
// rewrite history.
type AuditEntry struct {
	ID         string          `json:"id"`
	PlanillaID int             `json:"planilla_id"`
	UserID     *string         `json:"user_id"`
	Action     AuditAction     `json:"action"`
	EntityType AuditEntityType `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Details    json.RawMessage `json:"details"`
	Username   string          `json:"username"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Details payloads form a union keyed by Action. Each variant has a fixed
// field set; readers switch on the action tag to pick the shape.

type StatusChangeDetails struct {
	OldStatus PlanillaStatus `json:"old_status"`
	NewStatus PlanillaStatus `json:"new_status"`
}

type JugadorChangeDetails struct {
	Old Jugador `json:"old"`
	New Jugador `json:"new"`
}

type PersonaChangeDetails struct {
	Old Persona `json:"old"`
	New Persona `json:"new"`
}

type PlanillaChangeDetails struct {
	Old Planilla `json:"old"`
	New Planilla `json:"new"`
}

type PlanillaCreationDetails struct {
	TeamID     string         `json:"team_id"`
	UserIDs    []string       `json:"user_ids"`
	Status     PlanillaStatus `json:"status"`
	BulkCreate bool           `json:"bulk_create,omitempty"`
}

func EncodeAuditDetails(payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit details: %w", err)
	}
	return data, nil
}

// DecodeDetails unmarshals the raw details payload into the variant dictated
// by the action tag.
func (e *AuditEntry) DecodeDetails() (any, error) {
	decode := func(dst any) (any, error) {
		if err := json.Unmarshal(e.Details, dst); err != nil {
			return nil, fmt.Errorf("failed to decode %s details: %w", e.Action, err)
		}
		return dst, nil
	}

	switch e.Action {
	case ActionJugadorAdded, ActionJugadorDeleted:
		return decode(&Jugador{})
	case ActionJugadorUpdated:
		return decode(&JugadorChangeDetails{})
	case ActionPersonaAdded, ActionPersonaDeleted:
		return decode(&Persona{})
	case ActionPersonaUpdated:
		return decode(&PersonaChangeDetails{})
	case ActionStatusChanged:
		return decode(&StatusChangeDetails{})
	case ActionPlanillaCreated:
		return decode(&PlanillaCreationDetails{})
	case ActionPlanillaUpdated:
		return decode(&PlanillaChangeDetails{})
	case ActionPlanillaDeleted:
		return decode(&Planilla{})
	default:
		return nil, fmt.Errorf("unknown audit action %q", e.Action)
	}
}
