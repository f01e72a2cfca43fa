package models

import "time"

// PersonaCharge is the staff role on a planilla. A planilla carries at most
// one persona per charge.
type PersonaCharge string

const (
	ChargeTecnico  PersonaCharge = "Técnico"
	ChargeDelegado PersonaCharge = "Delegado"
	ChargeMedico   PersonaCharge = "Médico"
)

func (c PersonaCharge) Valid() bool {
	switch c {
	case ChargeTecnico, ChargeDelegado, ChargeMedico:
		return true
	}
	return false
}

type Persona struct {
	ID          string        `json:"id" db:"id"`
	PlanillaID  int           `json:"planilla_id" db:"planilla_id"`
	DNI         string        `json:"dni" db:"dni"`
	Name        string        `json:"name" db:"name"`
	SecondName  string        `json:"second_name" db:"second_name"`
	PhoneNumber string        `json:"phone_number" db:"phone_number"`
	Charge      PersonaCharge `json:"charge" db:"charge"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}
