package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ajkula/GoGRT/domain/model"
	"github.com/gorilla/mux"
)

type createSurfaceRequest struct {
	Name   string              `json:"name"`
	Config model.SurfaceConfig `json:"config"`
}

func (h *Handler) listSurfaces(w http.ResponseWriter, r *http.Request) {
	surfaces := h.surfaces.ListSurfaces()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"surfaces": surfaces,
		"count":    len(surfaces),
	})
}

func (h *Handler) createSurface(w http.ResponseWriter, r *http.Request) {
	var req createSurfaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "Surface name is required")
		return
	}

	info, err := h.surfaces.CreateSurface(r.Context(), req.Name, req.Config)
	if err != nil {
		h.logger.Error("Failed to create surface", "name", req.Name, "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("Surface created", "id", info.ID, "name", info.Name)
	h.writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) getSurface(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	surfaceID := vars["surface"]

	info, err := h.surfaces.GetSurface(surfaceID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "Surface not found")
		return
	}

	h.writeJSON(w, http.StatusOK, info)
}

func (h *Handler) deleteSurface(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	surfaceID := vars["surface"]

	if err := h.surfaces.RemoveSurface(surfaceID); err != nil {
		h.writeError(w, http.StatusNotFound, "Surface not found")
		return
	}

	h.logger.Info("Surface removed", "id", surfaceID)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type optimizeRequest struct {
	Capabilities *model.DeviceCapabilities `json:"capabilities"`
}

// optimizeSurface runs the optimizer against live metrics. The apply
// query parameter turns the dry run into an applied reconfiguration.
func (h *Handler) optimizeSurface(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	surfaceID := vars["surface"]
	apply := r.URL.Query().Get("apply") == "true"

	var req optimizeRequest
	if r.Body != nil {
		// An empty body means "use the probed device profile".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	rec, err := h.surfaces.Optimize(surfaceID, req.Capabilities, apply)
	if err != nil {
		if errors.Is(err, model.ErrSurfaceNotFound) {
			h.writeError(w, http.StatusNotFound, "Surface not found")
			return
		}
		h.logger.Error("Optimization failed", "surface", surfaceID, "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"recommendation": rec,
		"applied":        apply,
	})
}

type contextLossRequest struct {
	RestoreAfterMs int `json:"restoreAfterMs"`
}

// simulateContextLoss is the diagnostics hook for exercising the
// loss-and-restore path from the dashboard.
func (h *Handler) simulateContextLoss(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	surfaceID := vars["surface"]

	var req contextLossRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	restoreAfter := time.Duration(req.RestoreAfterMs) * time.Millisecond
	if err := h.surfaces.SimulateContextLoss(surfaceID, restoreAfter); err != nil {
		h.writeError(w, http.StatusNotFound, "Surface not found")
		return
	}

	h.logger.Warn("Context loss simulated", "surface", surfaceID, "restoreAfterMs", req.RestoreAfterMs)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "context lost",
		"restoreAfterMs": req.RestoreAfterMs,
	})
}
