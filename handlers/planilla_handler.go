package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/PelvK/planillas-buena-fe/middleware"
	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/services"
	"github.com/go-chi/chi/v5"
)

type PlanillaHandler struct {
	planillaService services.PlanillaService
	auditService    services.AuditService
	exportService   services.ExportService
}

func NewPlanillaHandler(
	planillaService services.PlanillaService,
	auditService services.AuditService,
	exportService services.ExportService,
) *PlanillaHandler {
	return &PlanillaHandler{
		planillaService: planillaService,
		auditService:    auditService,
		exportService:   exportService,
	}
}

func planillaIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "planillaID"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid planilla id")
	}
	return id, nil
}

func (h *PlanillaHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.CreatePlanillaInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.ActorID = actorID

	planilla, err := h.planillaService.CreatePlanilla(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"planilla": planilla}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlanillaHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	planillas, err := h.planillaService.ListPlanillas(r.Context(), actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"planillas": planillas}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlanillaHandler) GetByID(w http.ResponseWriter, r *http.Request) {
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

	planilla, err := h.planillaService.GetPlanillaDetail(r.Context(), planillaID, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"planilla": planilla}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlanillaHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var input services.UpdatePlanillaInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.ActorID = actorID

	planilla, err := h.planillaService.UpdatePlanillaTeam(r.Context(), planillaID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"planilla": planilla}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlanillaHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

	var input struct {
		Status models.PlanillaStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	planilla, err := h.planillaService.UpdatePlanillaStatus(r.Context(), planillaID, actorID, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"planilla": planilla}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlanillaHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.planillaService.DeletePlanilla(r.Context(), planillaID, actorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlanillaHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		Planillas []services.BulkPlanillaRow `json:"planillas"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.planillaService.BulkCreatePlanillas(r.Context(), actorID, input.Planillas)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PlanillaHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	planillaID, err := planillaIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.auditService.ListByPlanilla(r.Context(), planillaID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"audit_log": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Export streams the rendered PDF.
func (h *PlanillaHandler) Export(w http.ResponseWriter, r *http.Request) {
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

	document, filename, err := h.exportService.ExportPlanilla(r.Context(), planillaID, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(document)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}
