package auth

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/redmonkez12/beauty-assistant-api/internal/httputil"
	"github.com/redmonkez12/beauty-assistant-api/internal/logging"
	"github.com/redmonkez12/beauty-assistant-api/internal/ratelimit"
	"github.com/redmonkez12/beauty-assistant-api/internal/user"
)

const (
	purposeRegister = "register"
	purposeLogin    = "login"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter ratelimit.Limiter
}

func NewHandler(service *Service, rateLimiter ratelimit.Limiter) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email           string  `json:"email" validate:"required,email,max=255"`
	Username        string  `json:"username" validate:"required,min=3,max=50"`
	FullName        *string `json:"full_name,omitempty" validate:"omitempty,max=200"`
	Password        string  `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string  `json:"confirm_password" validate:"required"`
}

// LoginRequest represents the login request body.
// identifier accepts an email or a username; email and username are accepted as aliases.
type LoginRequest struct {
	Identifier string `json:"identifier,omitempty"`
	Email      string `json:"email,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password" validate:"required"`
}

func (r LoginRequest) identifier() string {
	for _, v := range []string{r.Identifier, r.Email, r.Username} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ChangePasswordRequest represents the password change request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new account. password and confirm_password must match.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201 {object} user.Public
// @Failure      400 {object} httputil.ErrorResponse "Validation error, password mismatch or email/username taken"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.ipLimited(w, r, ip, purposeRegister) {
		return
	}

	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, r, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purposeRegister); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	if req.Password != req.ConfirmPassword {
		httputil.RespondErrorWithCode(w, r, ErrPasswordMismatch.Error(), httputil.CodePasswordMismatch, http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := httputil.ValidateStruct(req); err != nil {
		logger.Warn("registration failed: validation error", "error", err.Error())
		httputil.RespondErrorWithCode(w, r, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	newUser, err := h.service.Register(r.Context(), RegisterInput{
		Email:           req.Email,
		Username:        req.Username,
		FullName:        req.FullName,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			logger.Warn("registration failed: email or username taken")
			httputil.RespondErrorWithCode(w, r, ErrConflict.Error(), httputil.CodeAlreadyRegistered, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordMismatch):
			httputil.RespondErrorWithCode(w, r, err.Error(), httputil.CodePasswordMismatch, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrInvalidUsername):
			httputil.RespondErrorWithCode(w, r, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, r, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)
	httputil.RespondJSON(w, r, newUser.Public(), http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email or username and receive a bearer access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResult
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests or failed attempts"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.ipLimited(w, r, ip, purposeLogin) {
		return
	}

	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, r, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purposeLogin); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	identifier := req.identifier()
	if identifier == "" {
		httputil.RespondErrorWithCode(w, r, "identifier: is required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}
	if err := httputil.ValidateStruct(req); err != nil {
		httputil.RespondErrorWithCode(w, r, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	result, err := h.service.Login(r.Context(), identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, r, ErrInvalidCredentials.Error(), httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrTooManyAttempts):
			logger.Warn("login refused: identifier locked out")
			httputil.RespondErrorWithCode(w, r, ErrTooManyAttempts.Error(), httputil.CodeTooManyAttempts, http.StatusTooManyRequests)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, r, "failed to log in", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in", "user_id", result.User.ID)
	httputil.RespondJSON(w, r, result, http.StatusOK)
}

// Logout revokes the presented access token
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessageResponse
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, r, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), claims); err != nil {
		logger.Error("logout failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, r, "failed to log out", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged out")
	httputil.RespondJSON(w, r, MessageResponse{Message: "logged out"}, http.StatusOK)
}

// ChangePassword changes the caller's password and revokes their existing tokens
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Current and new password"
// @Success      204
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Wrong current password or invalid token"
// @Router       /users/me/password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, r, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondErrorWithCode(w, r, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if err := httputil.ValidateStruct(req); err != nil {
		httputil.RespondErrorWithCode(w, r, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("password change refused: wrong current password")
			httputil.RespondErrorWithCode(w, r, ErrInvalidCredentials.Error(), httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, r, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			httputil.RespondErrorWithCode(w, r, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
		default:
			logger.Error("password change failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, r, "failed to change password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password changed")
	w.WriteHeader(http.StatusNoContent)
}

// ipLimited responds 429 and returns true when ip has exhausted its budget for purpose.
// Limiter errors are logged and the request is let through.
func (h *Handler) ipLimited(w http.ResponseWriter, r *http.Request, ip, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, r, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}
	return false
}

// getClientIP returns the client address without port. chi's RealIP middleware
// has already applied X-Forwarded-For / X-Real-IP to RemoteAddr.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
