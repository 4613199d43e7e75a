package router

import (
	"net/http"
	"workforce-api/handler"

	_ "workforce-api/docs"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Handlers groups everything the route table needs. Nil groups are not
// mounted.
type Handlers struct {
	Auth         *handler.AuthHandler
	Employees    *handler.EmployeeHandler
	Admin        *handler.AdminHandler
	Guard        *handler.AbuseGuard
	Authenticate func(http.Handler) http.Handler
}

func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	protected := func(next http.Handler) http.Handler { return next }
	if h.Authenticate != nil {
		protected = h.Authenticate
	}
	admin := func(next http.Handler) http.Handler {
		return protected(handler.AdminMiddleware(next))
	}

	if h.Auth != nil {
		mux.Handle("POST /login", handler.ErrorHandlingMiddleware(h.Auth.Login))
		mux.Handle("POST /token/refresh", handler.ErrorHandlingMiddleware(h.Auth.Refresh))
		mux.Handle("POST /api/logout", protected(handler.ErrorHandlingMiddleware(h.Auth.Logout)))
		mux.Handle("POST /api/logout-all", protected(handler.ErrorHandlingMiddleware(h.Auth.LogoutAll)))
		mux.Handle("GET /api/me", protected(handler.ErrorHandlingMiddleware(h.Auth.Me)))
	}

	if h.Employees != nil {
		mux.Handle("GET /api/employees", protected(handler.ErrorHandlingMiddleware(h.Employees.ListEmployees)))
		mux.Handle("POST /api/employees", protected(handler.ErrorHandlingMiddleware(h.Employees.CreateEmployee)))
		mux.Handle("PUT /api/employees/{id}", protected(handler.ErrorHandlingMiddleware(h.Employees.UpdateEmployee)))
		mux.Handle("DELETE /api/employees/{id}", protected(handler.ErrorHandlingMiddleware(h.Employees.DeleteEmployee)))
	}

	if h.Admin != nil {
		mux.Handle("GET /api/admin/audit-logs", admin(handler.ErrorHandlingMiddleware(h.Admin.ListAuditLogs)))
		mux.Handle("POST /api/admin/users/{id}/revoke-sessions", admin(handler.ErrorHandlingMiddleware(h.Admin.RevokeSessions)))
		mux.Handle("POST /api/admin/maintenance/cleanup", admin(handler.ErrorHandlingMiddleware(h.Admin.CleanupRequestLogs)))
	}

	if h.Guard != nil {
		return h.Guard.Middleware(mux)
	}
	return mux
}
