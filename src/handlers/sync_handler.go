package handlers

import (
	"errors"
	"net/http"

	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/services"
	syncpkg "github.com/username/tradefolio/backend/src/sync"
	"github.com/username/tradefolio/backend/src/utils"
)

type SyncHandler struct {
	coordinator *syncpkg.Coordinator
	reports     services.ReportService
}

func NewSyncHandler(coordinator *syncpkg.Coordinator, reports services.ReportService) *SyncHandler {
	return &SyncHandler{coordinator: coordinator, reports: reports}
}

// HandleSignIn switches the session to the remote store. Requires a valid
// bearer token; local data remains on the device until an explicit sync.
func (h *SyncHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	if !IsSignedIn(r.Context()) {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	userID := GetUserIDFromContext(r.Context())

	if err := h.coordinator.SignIn(r.Context(), userID); err != nil {
		if errors.Is(err, syncpkg.ErrRemoteUnavailable) {
			utils.SendJSONError(w, "Cloud sync is not configured", http.StatusServiceUnavailable)
			return
		}
		logger.FromContext(r.Context()).Error("Sign-in failed", "error", err)
		utils.SendJSONError(w, "Sign-in failed", http.StatusInternalServerError)
		return
	}
	h.reports.InvalidateUserCache(userID)
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "remote"})
}

// HandleSignOut reverts the session to local storage.
func (h *SyncHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	h.coordinator.SignOut(r.Context(), userID)
	h.reports.InvalidateUserCache(userID)
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "local"})
}

// HandleSyncToCloud copies the anonymous local ledger into the remote store
// for the authenticated user.
func (h *SyncHandler) HandleSyncToCloud(w http.ResponseWriter, r *http.Request) {
	if !IsSignedIn(r.Context()) {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	userID := GetUserIDFromContext(r.Context())

	accounts, trades, err := h.coordinator.SyncToCloud(r.Context(), userID)
	if err != nil {
		if errors.Is(err, syncpkg.ErrRemoteUnavailable) {
			utils.SendJSONError(w, "Cloud sync is not configured", http.StatusServiceUnavailable)
			return
		}
		logger.FromContext(r.Context()).Error("Sync to cloud failed", "error", err)
		utils.SendJSONError(w, "Sync to cloud failed", http.StatusInternalServerError)
		return
	}
	h.reports.InvalidateUserCache(userID)
	utils.WriteJSON(w, http.StatusOK, map[string]int{"accounts": accounts, "trades": trades})
}
