package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ruralpay/ledger/internal/middleware"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/services"
)

type AuthHandler struct {
	auth      *services.AuthService
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		validator: services.NewValidationHelper(),
		logger:    logger,
	}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string        `json:"username" validate:"required,max=50" example:"adam"`
	Password string        `json:"password" validate:"required" example:"secret"`
	Name     string        `json:"name" validate:"required,max=100" example:"Adam Nowak"`
	Balance  *models.Money `json:"balance" validate:"required" example:"100.00"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"adam"`
	Password string `json:"password" validate:"required" example:"secret"`
}

// Register handles user registration
// @Summary Register a new client
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} services.AuthResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	result, err := h.auth.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Balance:  *req.Balance,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Login accepts either a JSON body or an OAuth2 password form.
// @Summary Login user
// @Tags auth
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} services.AuthResult
// @Failure 401 {object} services.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		if err := h.validator.ValidateStruct(&req); err != nil {
			services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
			return
		}
	} else if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Logout blacklists the presented token
// @Summary Logout user
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.BearerToken(r); ok {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Me returns the authenticated user
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	user, err := h.auth.Me(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteMe removes the authenticated client together with its account
// @Summary Delete current user
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 403 {object} services.ErrorResponse
// @Router /auth/me [delete]
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.auth.DeleteUser(r.Context(), p, p.Username); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
