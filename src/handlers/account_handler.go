package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/security/validation"
	"github.com/username/tradefolio/backend/src/services"
	syncpkg "github.com/username/tradefolio/backend/src/sync"
	"github.com/username/tradefolio/backend/src/utils"
)

type AccountHandler struct {
	coordinator *syncpkg.Coordinator
	reports     services.ReportService
}

func NewAccountHandler(coordinator *syncpkg.Coordinator, reports services.ReportService) *AccountHandler {
	return &AccountHandler{coordinator: coordinator, reports: reports}
}

type CreateAccountRequest struct {
	Name           string  `json:"name"`
	InitialBalance float64 `json:"initial_balance"`
	Currency       string  `json:"currency"`
}

type BalanceRequest struct {
	Amount float64 `json:"amount"`
}

func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	accounts, err := h.coordinator.StoreFor(userID).Accounts(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list accounts", "error", err)
		utils.SendJSONError(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) HandleGetActiveAccount(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	account, err := h.coordinator.ActiveAccount(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to resolve active account", "error", err)
		utils.SendJSONError(w, "Failed to resolve active account", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.coordinator.StoreFor(userID).CreateAccount(r.Context(), userID, req.Name, req.InitialBalance, req.Currency)
	if err != nil {
		if errors.Is(err, validation.ErrValidationFailed) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to create account", "error", err)
		utils.SendJSONError(w, "Failed to create account", http.StatusInternalServerError)
		return
	}
	h.coordinator.SetActiveAccount(userID, account.ID)

	logger.FromContext(r.Context()).Info("Account created", "accountID", account.ID, "name", account.Name)
	utils.WriteJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) HandleSwitchAccount(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	accountID := chi.URLParam(r, "id")

	account, err := h.coordinator.SwitchAccount(r.Context(), userID, accountID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to switch account", "accountID", accountID, "error", err)
		utils.SendJSONError(w, "Failed to switch account", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) handleBalanceOp(w http.ResponseWriter, r *http.Request, op string) {
	userID := GetUserIDFromContext(r.Context())

	var req BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	active, err := h.coordinator.ActiveAccount(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to resolve active account", "error", err)
		utils.SendJSONError(w, "Failed to resolve active account", http.StatusInternalServerError)
		return
	}

	store := h.coordinator.StoreFor(userID)
	var account = &active
	switch op {
	case "deposit":
		account, err = store.Deposit(r.Context(), userID, active.ID, req.Amount)
	case "withdraw":
		account, err = store.Withdraw(r.Context(), userID, active.ID, req.Amount)
	case "set":
		account, err = store.SetBalance(r.Context(), userID, active.ID, req.Amount)
	case "initial":
		account, err = store.SetInitialBalance(r.Context(), userID, active.ID, req.Amount)
	}
	if err != nil {
		if errors.Is(err, validation.ErrValidationFailed) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.FromContext(r.Context()).Error("Balance adjustment failed", "op", op, "error", err)
		utils.SendJSONError(w, "Balance adjustment failed", http.StatusInternalServerError)
		return
	}
	if account == nil {
		// Account disappeared between resolution and adjustment.
		utils.SendJSONError(w, "Account not found", http.StatusNotFound)
		return
	}

	h.reports.InvalidateUserCache(userID)
	utils.WriteJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	h.handleBalanceOp(w, r, "deposit")
}

func (h *AccountHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.handleBalanceOp(w, r, "withdraw")
}

func (h *AccountHandler) HandleSetBalance(w http.ResponseWriter, r *http.Request) {
	h.handleBalanceOp(w, r, "set")
}

func (h *AccountHandler) HandleSetInitialBalance(w http.ResponseWriter, r *http.Request) {
	h.handleBalanceOp(w, r, "initial")
}
