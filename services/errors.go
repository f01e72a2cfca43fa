package services

import "errors"

// Shared errors used across services and the HTTP mapping.
var (
	// Generic
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already in use")
	ErrPasswordTooShort       = errors.New("password must be at least 6 characters")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Teams
	ErrTeamNotFound          = errors.New("team not found")
	ErrTeamNombreRequired    = errors.New("team nombre is required")
	ErrTeamCategoryRequired  = errors.New("team category is required")
	ErrTeamCategoryInvalid   = errors.New("team category is outside the league range")
	ErrTeamShortnameConflict = errors.New("team shortname is already in use")
	ErrTeamShortnameMissing  = errors.New("team has no shortname configured")

	// Planillas
	ErrPlanillaNotFound          = errors.New("planilla not found")
	ErrPlanillaTeamConflict      = errors.New("team already has a planilla")
	ErrPlanillaUsersRequired     = errors.New("at least one user must be assigned")
	ErrPlanillaNotEditable       = errors.New("planilla is not editable in its current status")
	ErrPlanillaInvalidStatus     = errors.New("invalid planilla status")
	ErrPlanillaStatusTransition  = errors.New("invalid planilla status transition")
	ErrPlanillaSubmitNoJugadores = errors.New("planilla needs at least one jugador before submission")
	ErrPlanillaSubmitNoTecnico   = errors.New("planilla needs a Técnico before submission")
	ErrPlanillaSubmitNoDelegado  = errors.New("planilla needs a Delegado before submission")

	// Jugadores
	ErrJugadorNotFound       = errors.New("jugador not found")
	ErrJugadorFieldsRequired = errors.New("jugador dni, name and second_name are required")
	ErrJugadorInvalidNumber  = errors.New("jugador number must be between 1 and 99")
	ErrJugadorLimitReached   = errors.New("planilla already has the maximum number of jugadores for its category")

	// Personas
	ErrPersonaNotFound       = errors.New("persona not found")
	ErrPersonaFieldsRequired = errors.New("persona dni, name, second_name and phone_number are required")
	ErrPersonaInvalidCharge  = errors.New("persona charge must be Técnico, Delegado or Médico")
	ErrPersonaChargeTaken    = errors.New("planilla already has a persona with this charge")

	// Profiles
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileEmailTaken   = errors.New("profile email is already in use")
	ErrProfileDeleteSelf   = errors.New("cannot delete your own profile")
	ErrProfileFieldsNeeded = errors.New("email, username and password are required")
)
