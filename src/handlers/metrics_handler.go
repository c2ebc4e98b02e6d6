package handlers

import (
	"net/http"

	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/services"
	syncpkg "github.com/username/tradefolio/backend/src/sync"
	"github.com/username/tradefolio/backend/src/utils"
)

type MetricsHandler struct {
	coordinator *syncpkg.Coordinator
	reports     services.ReportService
}

func NewMetricsHandler(coordinator *syncpkg.Coordinator, reports services.ReportService) *MetricsHandler {
	return &MetricsHandler{coordinator: coordinator, reports: reports}
}

// resolveAccount picks the account the metrics are computed over: an explicit
// account_id query parameter, or the session's active account.
func (h *MetricsHandler) resolveAccount(w http.ResponseWriter, r *http.Request) (userID, accountID string, ok bool) {
	userID = GetUserIDFromContext(r.Context())
	accountID = r.URL.Query().Get("account_id")
	if accountID != "" {
		return userID, accountID, true
	}
	active, err := h.coordinator.ActiveAccount(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to resolve active account", "error", err)
		utils.SendJSONError(w, "Failed to resolve active account", http.StatusInternalServerError)
		return "", "", false
	}
	return userID, active.ID, true
}

func (h *MetricsHandler) HandleGetDailyStats(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := h.resolveAccount(w, r)
	if !ok {
		return
	}
	stats, err := h.reports.GetDailyStats(r.Context(), userID, accountID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to compute daily stats", "error", err)
		utils.SendJSONError(w, "Failed to compute daily stats", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (h *MetricsHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := h.resolveAccount(w, r)
	if !ok {
		return
	}
	summary, err := h.reports.GetSummary(r.Context(), userID, accountID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to compute summary", "error", err)
		utils.SendJSONError(w, "Failed to compute summary", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (h *MetricsHandler) HandleGetTracker(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := h.resolveAccount(w, r)
	if !ok {
		return
	}
	breakdown, err := h.reports.GetTracker(r.Context(), userID, accountID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to compute tracker score", "error", err)
		utils.SendJSONError(w, "Failed to compute tracker score", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, breakdown)
}

func (h *MetricsHandler) HandleGetHeatmap(w http.ResponseWriter, r *http.Request) {
	userID, accountID, ok := h.resolveAccount(w, r)
	if !ok {
		return
	}
	heatmap, err := h.reports.GetHeatmap(r.Context(), userID, accountID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to compute heatmap", "error", err)
		utils.SendJSONError(w, "Failed to compute heatmap", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, heatmap)
}
