package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/polite-betrayal/planner/internal/auth"
	"github.com/freeeve/polite-betrayal/planner/internal/bot"
	"github.com/freeeve/polite-betrayal/planner/internal/service"
)

// PlanHandler handles plan submission and lookup.
type PlanHandler struct {
	svc *service.PlanService
}

// NewPlanHandler creates a PlanHandler.
func NewPlanHandler(svc *service.PlanService) *PlanHandler {
	return &PlanHandler{svc: svc}
}

// Submit handles POST /api/v1/plans
func (h *PlanHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DFEN == "" || req.Power == "" {
		writeError(w, http.StatusBadRequest, "dfen and power are required")
		return
	}
	req.ClientID = auth.ClientIDFromContext(r.Context())

	job, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidBoard),
			errors.Is(err, service.ErrInvalidPower),
			errors.Is(err, service.ErrInvalidStrategy),
			errors.Is(err, bot.ErrInvalidConfig):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrServiceClosing):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			log.Error().Err(err).Msg("Plan submission failed")
			writeError(w, http.StatusInternalServerError, "failed to submit plan")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// Get handles GET /api/v1/plans/{id}
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Get(r.Context(), auth.ClientIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		log.Error().Err(err).Str("planId", r.PathValue("id")).Msg("Plan lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Cancel handles DELETE /api/v1/plans/{id}
func (h *PlanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Cancel(r.Context(), auth.ClientIDFromContext(r.Context()), r.PathValue("id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
	case errors.Is(err, service.ErrPlanNotFound):
		writeError(w, http.StatusNotFound, "plan not found")
	case errors.Is(err, service.ErrPlanFinished):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// ListRuns handles GET /api/v1/runs?power=&limit=
func (h *PlanHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := h.svc.ListRuns(r.Context(), r.URL.Query().Get("power"), limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPower) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Listing plan runs failed")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun handles GET /api/v1/runs/{id}
func (h *PlanHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		log.Error().Err(err).Str("runId", r.PathValue("id")).Msg("Run lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Strategies handles GET /api/v1/strategies
func (h *PlanHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bot.StrategyNames)
}
