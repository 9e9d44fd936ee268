package rest

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ajkula/GoGRT/domain/port/inbound"
)

func (h *Handler) monitorFor(w http.ResponseWriter, surfaceID string) (inbound.MonitorService, bool) {
	monitor, err := h.surfaces.Monitor(surfaceID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "Surface not found")
		return nil, false
	}
	return monitor, true
}

func (h *Handler) ledgerFor(w http.ResponseWriter, surfaceID string) (inbound.LedgerService, bool) {
	ledger, err := h.surfaces.Ledger(surfaceID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "Surface not found")
		return nil, false
	}
	return ledger, true
}

func (h *Handler) getSurfaceMetrics(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	monitor, ok := h.monitorFor(w, vars["surface"])
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, monitor.Metrics())
}

func (h *Handler) getModuleMetrics(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	monitor, ok := h.monitorFor(w, vars["surface"])
	if !ok {
		return
	}

	metrics := monitor.ModuleMetrics(vars["module"])
	if metrics == nil {
		h.writeError(w, http.StatusNotFound, "Module has no recorded samples")
		return
	}

	h.writeJSON(w, http.StatusOK, metrics)
}

func (h *Handler) getResourceMetrics(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ledger, ok := h.ledgerFor(w, vars["surface"])
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, ledger.Metrics())
}

func (h *Handler) getMemoryPressure(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ledger, ok := h.ledgerFor(w, vars["surface"])
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, ledger.MemoryPressure())
}

func (h *Handler) getLeakReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	monitor, ok := h.monitorFor(w, vars["surface"])
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, monitor.CheckMemoryLeaks())
}

func (h *Handler) getEvents(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	monitor, ok := h.monitorFor(w, vars["surface"])
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	events := monitor.Events(limit)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}
