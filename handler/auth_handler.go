package handler

import (
	"net/http"
	"workforce-api/common"
	"workforce-api/logger"
	"workforce-api/model"
	"workforce-api/service"
)

const sessionsTable = "Sessions"

type AuthHandler struct {
	auth  *service.AuthService
	audit *service.AuditTrail
}

func NewAuthHandler(auth *service.AuthService, audit *service.AuditTrail) *AuthHandler {
	return &AuthHandler{auth: auth, audit: audit}
}

// Login godoc
// @Summary      Log in
// @Description  Exchanges email and password for an access/refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      model.LoginRequest  true  "Credentials"
// @Success      200          {object}  model.TokenPair
// @Failure      401          {object}  common.AppError
// @Router       /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return serviceError(err, "Could not log in")
	}

	h.record(r, pair.UserID, model.ActionLogin, "")
	common.WriteJSON(w, http.StatusOK, pair)
	return nil
}

// Refresh godoc
// @Summary      Refresh tokens
// @Description  Exchanges a possibly expired access token and its refresh token for a new pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        tokens  body      model.RefreshRequest  true  "Current tokens"
// @Success      200     {object}  model.TokenPair
// @Failure      401     {object}  common.AppError
// @Router       /token/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	pair, err := h.auth.Refresh(r.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		return serviceError(err, "Could not refresh token")
	}

	common.WriteJSON(w, http.StatusOK, pair)
	return nil
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the presented access token and clears stored tokens
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  common.AppError
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	claims, ok := claimsFrom(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid token claims", nil)
	}

	if err := h.auth.Logout(r.Context(), claims); err != nil {
		return serviceError(err, "Could not log out")
	}

	h.record(r, claims.Subject, model.ActionLogout, "")
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// LogoutAll godoc
// @Summary      Log out everywhere
// @Description  Revokes every token issued to the caller
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  common.AppError
// @Router       /api/logout-all [post]
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) *common.AppError {
	claims, ok := claimsFrom(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid token claims", nil)
	}

	if err := h.auth.LogoutAll(r.Context(), claims.Subject); err != nil {
		return serviceError(err, "Could not revoke sessions")
	}

	h.record(r, claims.Subject, model.ActionRevokeSessions, "user signed out of all sessions")
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type meResponse struct {
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	EmployeeCode string   `json:"employee_code,omitempty"`
	Roles        []string `json:"roles"`
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  meResponse
// @Failure      401  {object}  common.AppError
// @Router       /api/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	claims, ok := claimsFrom(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid token claims", nil)
	}

	common.WriteJSON(w, http.StatusOK, meResponse{
		UserID:       claims.Subject,
		Email:        claims.Email,
		Name:         claims.Name,
		EmployeeCode: claims.EmployeeCode,
		Roles:        claims.Roles,
	})
	return nil
}

func (h *AuthHandler) record(r *http.Request, userID, action, reason string) {
	_, err := h.audit.LogAction(r.Context(), service.AuditAction{
		Table:     sessionsTable,
		RecordID:  userID,
		Action:    action,
		UserID:    &userID,
		IPAddress: ClientIP(r),
		Reason:    reason,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("action", action).Warn("Session event not audited")
	}
}
