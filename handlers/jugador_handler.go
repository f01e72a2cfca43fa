package handlers

import (
	"net/http"

	"github.com/PelvK/planillas-buena-fe/middleware"
	"github.com/PelvK/planillas-buena-fe/services"
	"github.com/go-chi/chi/v5"
)

type JugadorHandler struct {
	jugadorService services.JugadorService
}

func NewJugadorHandler(jugadorService services.JugadorService) *JugadorHandler {
	return &JugadorHandler{jugadorService: jugadorService}
}

func (h *JugadorHandler) Add(w http.ResponseWriter, r *http.Request) {
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

	var input services.AddJugadorInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.ActorID = actorID
	input.PlanillaID = planillaID

	jugador, err := h.jugadorService.AddJugador(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"jugador": jugador}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *JugadorHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.UpdateJugadorInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.ActorID = actorID

	jugador, err := h.jugadorService.UpdateJugador(r.Context(), chi.URLParam(r, "jugadorID"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"jugador": jugador}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *JugadorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.jugadorService.DeleteJugador(r.Context(), chi.URLParam(r, "jugadorID"), actorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
