package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/safewalk/sos-dispatcher/internal/auth"
	"github.com/safewalk/sos-dispatcher/internal/config"
	"github.com/safewalk/sos-dispatcher/internal/firebaseapp"
	"github.com/safewalk/sos-dispatcher/internal/logger"
	"github.com/safewalk/sos-dispatcher/internal/metrics"
	"github.com/safewalk/sos-dispatcher/internal/notifications"
	"github.com/safewalk/sos-dispatcher/internal/sos"
	"github.com/safewalk/sos-dispatcher/internal/soslog"
	"github.com/safewalk/sos-dispatcher/internal/storage/pg"
	"github.com/safewalk/sos-dispatcher/internal/users"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	log := logger.New(logger.FromConfig(cfg.LogLevel, cfg.LogFormat))
	slog.SetDefault(log.Logger)

	// Set Gin mode
	log.Info("setting gin mode", slog.String("mode", cfg.GinMode))
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	app, err := firebaseapp.Init(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredJSON)
	if err != nil {
		fatal(log, "failed to initialize firebase", err)
	}
	defer app.Close()

	tokenValidator, err := newTokenValidator(ctx, cfg, app, log)
	if err != nil {
		fatal(log, "failed to initialize token validator", err)
	}

	auditStore, closeAudit, err := newAuditStore(cfg, app, log)
	if err != nil {
		fatal(log, "failed to initialize delivery log store", err)
	}
	defer closeAudit()

	// Initialize services
	appMetrics := metrics.New()
	userStore := users.NewFirestoreStore(app.Firestore)
	pushService := notifications.NewService(app.Messaging, log, cfg.PushDryRun, notifications.DebugOptions{
		Enabled:   cfg.PushDebugCurl,
		CredJSON:  cfg.FirebaseCredJSON,
		ProjectID: cfg.FirebaseProjectID,
	})
	sosService := sos.NewService(userStore, pushService, auditStore, appMetrics, log, sos.Options{
		Title:             cfg.Notification.Title,
		BodySuffix:        cfg.Notification.BodySuffix,
		DefaultSenderName: cfg.Notification.DefaultSenderName,
		LookupConcurrency: cfg.ContactLookupConcurrency,
	})

	// Initialize handlers
	sosHandler := sos.NewHandler(sosService, log)
	authMiddleware := auth.NewCallableAuthMiddleware(tokenValidator, log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLoggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(appMetrics.Handler()))

	// Callable routes, reachable with and without the region prefix.
	callable := router.Group("/")
	callable.Use(authMiddleware.Authenticate())
	{
		callable.POST(fmt.Sprintf("/%s/%s", cfg.FunctionRegion, cfg.FunctionName), sosHandler.SendSOSPush)
		callable.POST("/"+cfg.FunctionName, sosHandler.SendSOSPush)
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", logger.RequestIDHeader},
		ExposedHeaders: []string{logger.RequestIDHeader},
	})

	port := ":" + cfg.Port
	srv := &http.Server{
		Addr:              port,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("🚨 sos dispatcher listening",
		slog.String("addr", port),
		slog.String("region", cfg.FunctionRegion),
		slog.String("function", cfg.FunctionName),
		slog.String("audit_backend", cfg.AuditBackend),
		slog.Bool("dry_run", cfg.PushDryRun))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "failed to start server", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	log.Info("✅ server exited")
}

func newTokenValidator(ctx context.Context, cfg *config.Config, app *firebaseapp.App, log *logger.Logger) (auth.TokenValidator, error) {
	switch cfg.ValidatorType {
	case config.ValidatorFirebase:
		log.Info("creating firebase token validator", slog.String("project_id", cfg.FirebaseProjectID))
		return auth.NewFirebaseTokenValidator(app.Auth), nil

	case config.ValidatorJWK:
		if cfg.JWTJWKSURL == "" {
			log.Warn("JWT_JWKS_URL is empty, token signatures will not be verified")
		}
		validator, err := auth.NewTokenValidator(ctx, cfg.JWTJWKSURL)
		if err != nil {
			return nil, err
		}
		return validator, nil

	default:
		return nil, fmt.Errorf("validator type must be either %q or %q", config.ValidatorFirebase, config.ValidatorJWK)
	}
}

func newAuditStore(cfg *config.Config, app *firebaseapp.App, log *logger.Logger) (soslog.Store, func(), error) {
	switch cfg.AuditBackend {
	case config.AuditBackendPostgres:
		db, err := pg.InitDatabase(cfg.DatabaseURL, pg.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetime) * time.Minute,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("writing delivery logs to postgres")
		return soslog.NewPostgresStore(db.DB), func() { _ = db.Close() }, nil

	default:
		log.Info("writing delivery logs to firestore", slog.String("collection", soslog.CollectionName))
		return soslog.NewFirestoreStore(app.Firestore), func() {}, nil
	}
}

func fatal(log *logger.Logger, msg string, err error) {
	log.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
