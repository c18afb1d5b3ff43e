package user

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/beauty-assistant-api/internal/httputil"
	"github.com/redmonkez12/beauty-assistant-api/internal/logging"
)

// IdentityFunc returns the authenticated user ID stored in ctx by the auth middleware.
type IdentityFunc func(ctx context.Context) (int64, bool)

// Handler serves the /users/me routes.
type Handler struct {
	service  *Service
	identity IdentityFunc
}

func NewHandler(service *Service, identity IdentityFunc) *Handler {
	return &Handler{service: service, identity: identity}
}

// UpdateProfileRequest represents the profile update request body
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=200"`
}

// Me returns the caller's profile
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Public
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} httputil.ErrorResponse "User no longer exists"
// @Router       /users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, r, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	httputil.RespondJSON(w, r, u.Public(), http.StatusOK)
}

// UpdateMe changes the caller's username or full name
// @Summary      Update current user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Fields to change"
// @Success      200 {object} Public
// @Failure      400 {object} httputil.ErrorResponse "Validation error or username taken"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Router       /users/me [patch]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := h.identity(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, r, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid profile update body", "error", err.Error())
		httputil.RespondErrorWithCode(w, r, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		req.Username = &username
	}
	if err := httputil.ValidateStruct(req); err != nil {
		httputil.RespondErrorWithCode(w, r, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), id, ProfileUpdate{Username: req.Username, FullName: req.FullName})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	logger.Info("profile updated", "user_id", u.ID)
	httputil.RespondJSON(w, r, u.Public(), http.StatusOK)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, r, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
	case errors.Is(err, ErrInvalidUsername):
		httputil.RespondErrorWithCode(w, r, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyExists):
		httputil.RespondErrorWithCode(w, r, ErrAlreadyExists.Error(), httputil.CodeAlreadyRegistered, http.StatusBadRequest)
	default:
		logging.GetLoggerFromContext(r.Context()).Error("profile request failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, r, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
