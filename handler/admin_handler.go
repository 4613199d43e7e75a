package handler

import (
	"net/http"
	"strconv"
	"workforce-api/common"
	"workforce-api/logger"
	"workforce-api/model"
	"workforce-api/service"
)

type AdminHandler struct {
	auth     *service.AuthService
	audit    *service.AuditTrail
	detector *service.AbuseDetector
}

func NewAdminHandler(auth *service.AuthService, audit *service.AuditTrail, detector *service.AbuseDetector) *AdminHandler {
	return &AdminHandler{auth: auth, audit: audit, detector: detector}
}

// ListAuditLogs godoc
// @Summary      Recent audit entries
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query     int  false  "Max entries (default 100, max 500)"
// @Success      200    {array}   model.AuditLog
// @Failure      403    {object}  common.AppError
// @Router       /api/admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) *common.AppError {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve audit logs", err)
	}
	if entries == nil {
		entries = []*model.AuditLog{}
	}

	common.WriteJSON(w, http.StatusOK, entries)
	return nil
}

// RevokeSessions godoc
// @Summary      Revoke every session of a user
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "User ID"
// @Success      204
// @Failure      403  {object}  common.AppError
// @Router       /api/admin/users/{id}/revoke-sessions [post]
func (h *AdminHandler) RevokeSessions(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID := r.PathValue("id")
	if userID == "" {
		return common.NewAppError(http.StatusBadRequest, "User ID is required", nil)
	}

	if err := h.auth.LogoutAll(r.Context(), userID); err != nil {
		return serviceError(err, "Could not revoke sessions")
	}

	actor := actorFrom(r)
	_, err := h.audit.LogAction(r.Context(), service.AuditAction{
		Table:     "UserSessions",
		RecordID:  userID,
		Action:    model.ActionRevokeSessions,
		UserID:    actor.UserID,
		IPAddress: actor.IPAddress,
		Reason:    "sessions revoked by administrator",
	})
	if err != nil {
		logger.Log.WithError(err).WithField("target_user_id", userID).Warn("Session revocation not audited")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

type cleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

// CleanupRequestLogs godoc
// @Summary      Purge old request logs
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        days  query     int  false  "Retention in days (default from configuration)"
// @Success      200   {object}  cleanupResponse
// @Failure      403   {object}  common.AppError
// @Router       /api/admin/maintenance/cleanup [post]
func (h *AdminHandler) CleanupRequestLogs(w http.ResponseWriter, r *http.Request) *common.AppError {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	deleted, err := h.detector.CleanupOldLogs(r.Context(), days)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not clean up request logs", err)
	}

	common.WriteJSON(w, http.StatusOK, cleanupResponse{Deleted: deleted})
	return nil
}
