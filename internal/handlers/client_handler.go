package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/services"
)

// ClientHandler serves the endpoints a client uses on its own account.
type ClientHandler struct {
	ledger    *services.LedgerService
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewClientHandler(ledger *services.LedgerService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		ledger:    ledger,
		validator: services.NewValidationHelper(),
		logger:    logger,
	}
}

// TransactionRequest represents a deposit or withdrawal
type TransactionRequest struct {
	Amount          *models.Money `json:"amount" validate:"required" example:"50.00"`
	TransactionType string        `json:"transaction_type" validate:"required" example:"deposit"`
}

// TransferRequest represents a transfer from the caller's account
type TransferRequest struct {
	ReceiverID int64         `json:"receiver_id" validate:"required" example:"2"`
	Amount     *models.Money `json:"amount" validate:"required" example:"100.00"`
}

// ownAccount resolves the caller's account and checks access to it.
func (h *ClientHandler) ownAccount(w http.ResponseWriter, r *http.Request) (*models.Principal, int64, bool) {
	p, ok := principal(w, r)
	if !ok {
		return nil, 0, false
	}
	accountID, err := services.OwnAccount(p)
	if err == nil {
		err = services.Authorize(p, accountID)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return nil, 0, false
	}
	return p, accountID, true
}

// Me returns the caller's account
// @Summary Current client
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Account
// @Failure 404 {object} services.ErrorResponse
// @Router /clients/me [get]
func (h *ClientHandler) Me(w http.ResponseWriter, r *http.Request) {
	_, accountID, ok := h.ownAccount(w, r)
	if !ok {
		return
	}
	account, err := h.ledger.GetAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// MyTransactions lists the caller's transactions in insertion order
// @Summary Current client transactions
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Transaction
// @Router /clients/me/transactions [get]
func (h *ClientHandler) MyTransactions(w http.ResponseWriter, r *http.Request) {
	_, accountID, ok := h.ownAccount(w, r)
	if !ok {
		return
	}
	txns, err := h.ledger.ListTransactions(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

// Transfers lists the transfers an account sent or received
// @Summary Account transfers
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {array} models.Transfer
// @Failure 403 {object} services.ErrorResponse
// @Router /clients/{id}/transfers [get]
func (h *ClientHandler) Transfers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
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
	transfers, err := h.ledger.ListTransfers(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, transfers)
}

// CreateTransaction registers a deposit or withdrawal on the caller's account
// @Summary Register transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "Transaction request"
// @Success 201 {object} services.TransactionResult
// @Failure 400 {object} services.ErrorResponse
// @Router /transactions [post]
func (h *ClientHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	_, accountID, ok := h.ownAccount(w, r)
	if !ok {
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

// CreateTransfer moves funds from the caller's account to receiver_id
// @Summary Register transfer
// @Tags transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferRequest true "Transfer request"
// @Success 201 {object} services.TransferResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transfers [post]
func (h *ClientHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	_, accountID, ok := h.ownAccount(w, r)
	if !ok {
		return
	}
	var req TransferRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	result, err := h.ledger.RegisterTransfer(r.Context(), accountID, req.ReceiverID, *req.Amount)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
