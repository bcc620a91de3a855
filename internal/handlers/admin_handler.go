package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/services"
)

// AdminHandler serves the admin-only endpoints. Every method checks the
// caller with services.RequireAdmin before touching the ledger.
type AdminHandler struct {
	ledger    *services.LedgerService
	auth      *services.AuthService
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewAdminHandler(ledger *services.LedgerService, auth *services.AuthService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		ledger:    ledger,
		auth:      auth,
		validator: services.NewValidationHelper(),
		logger:    logger,
	}
}

// CreateClientRequest represents an admin-created account without a user
type CreateClientRequest struct {
	Name    string        `json:"name" validate:"required,max=100" example:"Ewa"`
	Balance *models.Money `json:"balance" validate:"required" example:"200.00"`
}

func (h *AdminHandler) admin(w http.ResponseWriter, r *http.Request) (*models.Principal, bool) {
	p, ok := principal(w, r)
	if !ok {
		return nil, false
	}
	if err := services.RequireAdmin(p); err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	return p, true
}

// ListClients returns every account with its transactions
// @Summary List clients
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.AccountDetail
// @Failure 403 {object} services.ErrorResponse
// @Router /admin/clients [get]
func (h *AdminHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	accounts, err := h.ledger.ListAccounts(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GetClient returns one account with its transactions
// @Summary Get client
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} models.AccountDetail
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/clients/{id} [get]
func (h *AdminHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	accountID, ok := accountParam(w, r)
	if !ok {
		return
	}
	detail, err := h.ledger.GetAccountDetail(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// CreateClient opens an account
// @Summary Create client
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateClientRequest true "Client"
// @Success 201 {object} models.Account
// @Failure 400 {object} services.ErrorResponse
// @Router /admin/clients [post]
func (h *AdminHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	var req CreateClientRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}
	account, err := h.ledger.CreateAccount(r.Context(), req.Name, *req.Balance)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// DeleteClient removes an account and its transactions
// @Summary Delete client
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 204
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/clients/{id} [delete]
func (h *AdminHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	p, ok := h.admin(w, r)
	if !ok {
		return
	}
	accountID, ok := accountParam(w, r)
	if !ok {
		return
	}
	if err := services.Authorize(p, accountID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.ledger.DeleteAccount(r.Context(), accountID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateClientTransaction registers a deposit or withdrawal on any account
// @Summary Register transaction for a client
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param request body TransactionRequest true "Transaction request"
// @Success 201 {object} services.TransactionResult
// @Router /admin/clients/{id}/transactions [post]
func (h *AdminHandler) CreateClientTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := h.admin(w, r)
	if !ok {
		return
	}
	accountID, ok := accountParam(w, r)
	if !ok {
		return
	}
	if err := services.Authorize(p, accountID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req TransactionRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}
	result, err := h.ledger.RegisterTransaction(r.Context(), accountID, *req.Amount, req.TransactionType)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ListTransactions returns every transaction in the ledger
// @Summary List all transactions
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Transaction
// @Router /admin/transactions [get]
func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	txns, err := h.ledger.ListAllTransactions(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

// ListUsers returns every user
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := h.admin(w, r)
	if !ok {
		return
	}
	users, err := h.auth.ListUsers(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// DeleteUser removes a client user and its account
// @Summary Delete user
// @Tags admin
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 204
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/users/{username} [delete]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p, ok := h.admin(w, r)
	if !ok {
		return
	}
	if err := h.auth.DeleteUser(r.Context(), p, chi.URLParam(r, "username")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
