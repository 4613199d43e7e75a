// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"workforce-api/config"
	"workforce-api/db"
	"workforce-api/handler"
	"workforce-api/logger"
	"workforce-api/repository"
	"workforce-api/repository/memory"
	"workforce-api/router"
	"workforce-api/service"
)

// Dependencies are the stores the services run on.
type Dependencies struct {
	Users       repository.IUserRepository
	UserTokens  repository.IUserTokenRepository
	Requests    repository.IRequestLogRepository
	Duplicates  repository.IDuplicateLogRepository
	Audits      repository.IAuditLogRepository
	Employees   repository.IEmployeeRepository
	Revocations service.RevocationStore
	Clock       service.Clock
}

// PostgresDependencies backs every repository with database.
func PostgresDependencies(database *sql.DB) Dependencies {
	return Dependencies{
		Users:       repository.NewUserRepository(database),
		UserTokens:  repository.NewUserTokenRepository(database),
		Requests:    repository.NewRequestLogRepository(database),
		Duplicates:  repository.NewDuplicateLogRepository(database),
		Audits:      repository.NewAuditLogRepository(database),
		Employees:   repository.NewEmployeeRepository(database),
		Revocations: service.NewMemoryRevocationStore(),
		Clock:       service.SystemClock{},
	}
}

// MemoryDependencies keeps everything in process memory.
func MemoryDependencies() Dependencies {
	store := memory.NewStore()
	return Dependencies{
		Users:       store.Users(),
		UserTokens:  store.UserTokens(),
		Requests:    store.Requests(),
		Duplicates:  store.Duplicates(),
		Audits:      store.Audits(),
		Employees:   store.Employees(),
		Revocations: service.NewMemoryRevocationStore(),
		Clock:       service.SystemClock{},
	}
}

// App is the fully wired application.
type App struct {
	Router    http.Handler
	Tokens    *service.TokenService
	Auth      *service.AuthService
	Users     *service.UserService
	Detector  *service.AbuseDetector
	Audit     *service.AuditTrail
	Retention *service.RetentionJob
}

// Build wires services, handlers and routes on top of deps.
func Build(cfg config.Config, deps Dependencies) *App {
	if deps.Clock == nil {
		deps.Clock = service.SystemClock{}
	}
	policy := service.ParseFailurePolicy(cfg.Security.FailurePolicy)

	// Security core
	tokens := service.NewTokenService(cfg.JWT, deps.UserTokens, deps.Revocations, deps.Clock)
	detector := service.NewAbuseDetector(deps.Requests, cfg.Security, policy, deps.Clock)
	duplicates := service.NewDuplicateGuard(deps.Duplicates, cfg.Security, policy, deps.Clock)
	audit := service.NewAuditTrail(deps.Audits, deps.Requests, deps.Duplicates, cfg.Security, deps.Clock)

	// Domain services
	authService := service.NewAuthService(deps.Users, tokens, deps.Revocations)
	userService := service.NewUserService(deps.Users, authService)
	employeeService := service.NewEmployeeService(deps.Employees, duplicates, audit)

	r := router.NewRouter(router.Handlers{
		Auth:         handler.NewAuthHandler(authService, audit),
		Employees:    handler.NewEmployeeHandler(employeeService),
		Admin:        handler.NewAdminHandler(authService, audit, detector),
		Guard:        handler.NewAbuseGuard(detector, audit, tokens, cfg.Security.MaxBodyBytes),
		Authenticate: handler.AuthMiddleware(tokens, cfg.JWT.EnforceSingleSession),
	})

	return &App{
		Router:    r,
		Tokens:    tokens,
		Auth:      authService,
		Users:     userService,
		Detector:  detector,
		Audit:     audit,
		Retention: service.NewRetentionJob(detector, cfg.Security.RetentionSchedule, cfg.Security.RetentionDays),
	}
}

// NewTestApp builds an in-memory App with the given clock.
func NewTestApp(cfg config.Config, clock service.Clock) *App {
	deps := MemoryDependencies()
	deps.Clock = clock
	return Build(cfg, deps)
}

// Setup loads configuration, connects the configured backends and returns
// the wired App plus a cleanup func. On error everything opened so far is
// already closed.
func Setup(ctx context.Context) (*App, func(), error) {
	cfg := config.AppConfig
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var deps Dependencies
	switch cfg.Database.Backend {
	case "memory":
		logger.Log.Warn("Using in-memory storage; all data is lost on restart")
		deps = MemoryDependencies()
	default:
		database, err := db.Connect()
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { database.Close() })

		if err := db.RunMigrations(cfg.Database.MigrationsPath, db.ConnString()); err != nil {
			cleanup()
			return nil, nil, err
		}
		deps = PostgresDependencies(database)
	}

	if cfg.Revocation.Backend == "redis" {
		client, err := db.ConnectRedis(ctx)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { client.Close() })
		deps.Revocations = service.NewRedisRevocationStore(client, deps.Clock)
	}

	return Build(cfg, deps), cleanup, nil
}

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Configuration loaded successfully")

	if config.AppConfig.JWT.SecretKey == "" {
		logger.Log.Fatal("jwt.secret_key must be set (JWT_SECRET_KEY)")
	}

	a, cleanup, err := Setup(context.Background())
	if err != nil {
		logger.Log.Fatalf("Error initializing application: %v", err)
	}
	defer cleanup()

	if err := a.Retention.Start(); err != nil {
		logger.Log.Fatalf("Invalid retention schedule: %v", err)
	}
	defer a.Retention.Stop()

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
		return
	}

	logger.Log.Info("Server exited properly")
}
