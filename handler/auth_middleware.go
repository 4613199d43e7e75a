package handler

import (
	"context"
	"net/http"
	"strings"
	"workforce-api/common"
	"workforce-api/logger"
	"workforce-api/model"
	"workforce-api/service"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	ClaimsKey   contextKey = "claims"
	ClientIPKey contextKey = "clientIP"
)

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) (string, *common.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil)
	}

	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
		return "", common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
	}
	return headerParts[1], nil
}

// AuthMiddleware validates the bearer token and puts its claims in the
// request context. With enforceSingleSession the user must also still hold
// a stored, unexpired access token.
func AuthMiddleware(tokens *service.TokenService, enforceSingleSession bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, appErr := bearerToken(r)
			if appErr != nil {
				appErr.Send(w)
				return
			}

			claims, err := tokens.ValidateAccessToken(r.Context(), raw)
			if err != nil {
				serviceError(err, "Could not validate token").Send(w)
				return
			}

			if enforceSingleSession && !tokens.IsAccessTokenValid(r.Context(), claims.Subject) {
				logger.Log.WithField("user_id", claims.Subject).Info("Token rejected: session no longer active")
				serviceError(service.ErrSessionExpired, "").Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r)
		if !ok || !claims.HasRole(model.RoleAdmin) {
			err := common.NewAppError(http.StatusForbidden, "Access denied. Admin privileges required.", nil)
			err.Send(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func claimsFrom(r *http.Request) (*model.AppClaims, bool) {
	claims, ok := r.Context().Value(ClaimsKey).(*model.AppClaims)
	return claims, ok && claims != nil
}

// actorFrom identifies the caller for audit and duplicate tracking.
func actorFrom(r *http.Request) service.Actor {
	actor := service.Actor{IPAddress: ClientIP(r)}
	if userID, ok := r.Context().Value(UserIDKey).(string); ok && userID != "" {
		actor.UserID = &userID
	}
	return actor
}
