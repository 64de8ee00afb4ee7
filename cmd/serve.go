package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"duo-journal-backend/internal/catalog"
	"duo-journal-backend/internal/config"
	"duo-journal-backend/internal/handlers"
	"duo-journal-backend/internal/middleware"
	"duo-journal-backend/internal/migrations"
	"duo-journal-backend/internal/repository"
	"duo-journal-backend/internal/services"
	"duo-journal-backend/internal/timeline"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ServeOptions holds flags of the serve command
type ServeOptions struct {
	SkipMigrations bool
}

// NewServeCommand creates the serve command
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipMigrations, "skip-migrations", false, "do not apply pending migrations on start")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, opts *ServeOptions) error {
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if !opts.SkipMigrations {
		applied, err := migrations.Up(ctx, db, cfg.Database.Schema)
		if err != nil {
			return err
		}
		log.Info().Int("applied", applied).Msg("Migrations complete")
	}

	cat, err := catalog.Load(cfg.Journal.CatalogPath)
	if err != nil {
		return err
	}
	policy, err := cfg.Journal.Policy()
	if err != nil {
		return err
	}
	pusher, err := services.NewPusher(cfg.APNs)
	if err != nil {
		return err
	}

	var s3Client *s3.Client
	if cfg.AWS.S3Bucket != "" {
		if s3Client, err = services.NewS3Client(ctx, cfg.AWS); err != nil {
			return err
		}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	coupleRepo := repository.NewCoupleRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	specialDateRepo := repository.NewSpecialDateRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)

	// Initialize services
	wsHub := services.NewWSHub()
	userService := services.NewUserService(userRepo, resetRepo, cfg.JWT.Secret, cfg.Journal.PasswordResetTTL)
	coupleService := services.NewCoupleService(coupleRepo, userRepo, wsHub)
	entryService := services.NewEntryService(entryRepo, coupleService, cat, wsHub, timeline.Options{
		Policy:     policy,
		DateLayout: cfg.Journal.DateLayout,
	})
	specialDateService := services.NewSpecialDateService(specialDateRepo, coupleService, cat)
	notificationService := services.NewNotificationService(notificationRepo, specialDateRepo, userRepo, coupleService, wsHub, pusher)
	promptService := services.NewPromptService(cat)
	exportService := services.NewExportService(entryService, coupleService, s3Client, cfg.AWS.S3Bucket)

	// Initialize handlers
	router := handlers.NewRouter(handlers.Handlers{
		User:         handlers.NewUserHandler(userService),
		Couple:       handlers.NewCoupleHandler(coupleService),
		Entry:        handlers.NewEntryHandler(entryService),
		SpecialDate:  handlers.NewSpecialDateHandler(specialDateService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Prompt:       handlers.NewPromptHandler(promptService),
		Export:       handlers.NewExportHandler(exportService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, userService, coupleService),
	}, middleware.AuthMiddleware(userService), middleware.CORS)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("entry_policy", string(policy)).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}
