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

	"github.com/PelvK/planillas-buena-fe/config"
	"github.com/PelvK/planillas-buena-fe/db"
	"github.com/PelvK/planillas-buena-fe/handlers"
	"github.com/PelvK/planillas-buena-fe/middleware"
	"github.com/PelvK/planillas-buena-fe/obs"
	"github.com/PelvK/planillas-buena-fe/pdf"
	"github.com/PelvK/planillas-buena-fe/repositories"
	api "github.com/PelvK/planillas-buena-fe/routes"
	"github.com/PelvK/planillas-buena-fe/services"
	"github.com/PelvK/planillas-buena-fe/storage"
	_ "github.com/lib/pq"
)

const sessionSweepInterval = time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth_mode", cfg.AuthMode))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	obs.Init()

	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("object storage not configured, archival disabled")
	}

	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	planillaRepo := repositories.NewPostgresPlanillaRepository(dbConn)
	jugadorRepo := repositories.NewPostgresJugadorRepository(dbConn)
	personaRepo := repositories.NewPostgresPersonaRepository(dbConn)
	profileRepo := repositories.NewPostgresProfileRepository(dbConn)
	sessionRepo := repositories.NewPostgresSessionRepository(dbConn)
	assignmentRepo := repositories.NewPostgresAssignmentRepository(dbConn)
	auditRepo := repositories.NewPostgresAuditRepository(dbConn)

	auditService := services.NewAuditService(auditRepo, profileRepo)
	authService := services.NewAuthService(profileRepo, dbConn)
	teamService := services.NewTeamService(teamRepo, planillaRepo, profileRepo, assignmentRepo)
	profileService := services.NewProfileService(dbConn, profileRepo)

	renderer := pdf.NewRenderer(cfg.PDFTemplatePath)
	exportService := services.NewExportService(planillaRepo, jugadorRepo, personaRepo,
		profileRepo, assignmentRepo, renderer, uploader, logger)

	planillaService := services.NewPlanillaService(dbConn, planillaRepo, teamRepo,
		jugadorRepo, personaRepo, profileRepo, assignmentRepo, auditService,
		exportService, cfg.CredentialsEmailDomain, logger)
	jugadorService := services.NewJugadorService(dbConn, jugadorRepo, planillaRepo,
		teamRepo, profileRepo, assignmentRepo, auditService, logger)
	personaService := services.NewPersonaService(dbConn, personaRepo, planillaRepo,
		profileRepo, assignmentRepo, auditService, logger)

	authenticator, err := middleware.NewAuthenticator(middleware.Mode(cfg.AuthMode),
		cfg.JWTSecretKey, cfg.SessionTTL, sessionRepo, logger)
	if err != nil {
		logger.Error("failed to initialize authenticator", slog.Any("error", err))
		os.Exit(1)
	}

	router := api.SetupRoutes(api.Handlers{
		Auth:     handlers.NewAuthHandler(authService, authenticator),
		Team:     handlers.NewTeamHandler(teamService),
		Planilla: handlers.NewPlanillaHandler(planillaService, auditService, exportService),
		Jugador:  handlers.NewJugadorHandler(jugadorService),
		Persona:  handlers.NewPersonaHandler(personaService),
		Profile:  handlers.NewProfileHandler(profileService),
	}, authenticator, cfg.AllowedOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AuthMode == "session" {
		go sweepExpiredSessions(ctx, sessionRepo, logger)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func sweepExpiredSessions(ctx context.Context, sessions repositories.SessionRepository, logger *slog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := sessions.DeleteExpired(ctx)
			if err != nil {
				logger.Error("failed to sweep expired sessions", slog.Any("error", err))
				continue
			}
			if deleted > 0 {
				logger.Info("expired sessions removed", slog.Int64("count", deleted))
			}
		}
	}
}
