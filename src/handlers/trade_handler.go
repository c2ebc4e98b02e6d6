package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/tradefolio/backend/src/ledger"
	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/models"
	"github.com/username/tradefolio/backend/src/security/validation"
	"github.com/username/tradefolio/backend/src/services"
	syncpkg "github.com/username/tradefolio/backend/src/sync"
	"github.com/username/tradefolio/backend/src/utils"
)

type TradeHandler struct {
	coordinator *syncpkg.Coordinator
	reports     services.ReportService
}

func NewTradeHandler(coordinator *syncpkg.Coordinator, reports services.ReportService) *TradeHandler {
	return &TradeHandler{coordinator: coordinator, reports: reports}
}

// BulkDeleteRequest carries the ids to remove in one batched operation.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (h *TradeHandler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	store := h.coordinator.StoreFor(userID)

	accountID := r.URL.Query().Get("account_id")
	var (
		trades []models.Trade
		err    error
	)
	if accountID != "" {
		trades, err = store.AccountTrades(r.Context(), userID, accountID)
	} else {
		trades, err = store.Trades(r.Context(), userID)
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list trades", "error", err)
		utils.SendJSONError(w, "Failed to list trades", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	utils.WriteJSON(w, http.StatusOK, trades)
}

func (h *TradeHandler) HandleAddTrade(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())

	var in models.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if in.AccountID == "" {
		active, err := h.coordinator.ActiveAccount(r.Context(), userID)
		if err != nil {
			logger.FromContext(r.Context()).Error("Failed to resolve active account", "error", err)
			utils.SendJSONError(w, "Failed to resolve active account", http.StatusInternalServerError)
			return
		}
		in.AccountID = active.ID
	}

	trade, err := h.coordinator.StoreFor(userID).AddTrade(r.Context(), userID, in)
	if err != nil {
		h.writeMutationError(w, r, "Failed to add trade", err)
		return
	}

	h.reports.InvalidateUserCache(userID)
	utils.WriteJSON(w, http.StatusCreated, trade)
}

func (h *TradeHandler) HandleImportTrades(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())

	var ins []models.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&ins); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(ins) == 0 {
		utils.SendJSONError(w, "No trade records provided", http.StatusBadRequest)
		return
	}

	active, err := h.coordinator.ActiveAccount(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to resolve active account", "error", err)
		utils.SendJSONError(w, "Failed to resolve active account", http.StatusInternalServerError)
		return
	}
	for i := range ins {
		if ins[i].AccountID == "" {
			ins[i].AccountID = active.ID
		}
	}

	trades, err := h.coordinator.StoreFor(userID).ImportTrades(r.Context(), userID, ins)
	if err != nil {
		h.writeMutationError(w, r, "Failed to import trades", err)
		return
	}

	h.reports.InvalidateUserCache(userID)
	logger.FromContext(r.Context()).Info("Trades imported", "count", len(trades))
	utils.WriteJSON(w, http.StatusCreated, trades)
}

func (h *TradeHandler) HandleEditTrade(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	tradeID := chi.URLParam(r, "id")

	var upd models.TradeUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	trade, err := h.coordinator.StoreFor(userID).EditTrade(r.Context(), userID, tradeID, upd)
	if err != nil {
		h.writeMutationError(w, r, "Failed to edit trade", err)
		return
	}
	if trade == nil {
		// Unknown id: tolerated as a no-op for eventual-consistency gaps.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.reports.InvalidateUserCache(userID)
	utils.WriteJSON(w, http.StatusOK, trade)
}

func (h *TradeHandler) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	tradeID := chi.URLParam(r, "id")

	if err := h.coordinator.StoreFor(userID).DeleteTrade(r.Context(), userID, tradeID); err != nil {
		h.writeMutationError(w, r, "Failed to delete trade", err)
		return
	}

	h.reports.InvalidateUserCache(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TradeHandler) HandleBulkDeleteTrades(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())

	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		utils.SendJSONError(w, "No trade ids provided", http.StatusBadRequest)
		return
	}

	if err := h.coordinator.StoreFor(userID).DeleteTrades(r.Context(), userID, req.IDs); err != nil {
		h.writeMutationError(w, r, "Failed to delete trades", err)
		return
	}

	h.reports.InvalidateUserCache(userID)
	logger.FromContext(r.Context()).Info("Trades deleted", "count", len(req.IDs))
	w.WriteHeader(http.StatusNoContent)
}

func (h *TradeHandler) writeMutationError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, validation.ErrValidationFailed):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrAccountNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	default:
		logger.FromContext(r.Context()).Error(msg, "error", err)
		utils.SendJSONError(w, msg, http.StatusInternalServerError)
	}
}
