package models

import "time"

type Jugador struct {
	ID         string    `json:"id" db:"id"`
	PlanillaID int       `json:"planilla_id" db:"planilla_id"`
	DNI        string    `json:"dni" db:"dni"`
	Number     int       `json:"number" db:"number"`
	Name       string    `json:"name" db:"name"`
	SecondName string    `json:"second_name" db:"second_name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
