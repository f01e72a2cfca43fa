package handlers

import (
	"net/http"

	"github.com/PelvK/planillas-buena-fe/middleware"
	"github.com/PelvK/planillas-buena-fe/services"
	"github.com/go-chi/chi/v5"
)

type PersonaHandler struct {
	personaService services.PersonaService
}

func NewPersonaHandler(personaService services.PersonaService) *PersonaHandler {
	return &PersonaHandler{personaService: personaService}
}

func (h *PersonaHandler) Add(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	planillaID, err := planillaIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.AddPersonaInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.ActorID = actorID
	input.PlanillaID = planillaID

	persona, err := h.personaService.AddPersona(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"persona": persona}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PersonaHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.UpdatePersonaInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.ActorID = actorID

	persona, err := h.personaService.UpdatePersona(r.Context(), chi.URLParam(r, "personaID"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"persona": persona}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PersonaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.personaService.DeletePersona(r.Context(), chi.URLParam(r, "personaID"), actorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
