package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"floorida/internal/auth"
	"floorida/internal/db"
	api "floorida/internal/http"
	"floorida/internal/planner"
	"floorida/internal/repo"
	"floorida/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect db: %w", err)
		}
		defer pool.Close()

		if serveMigrate {
			if err := migrate(ctx, pool); err != nil {
				return err
			}
		}

		authManager := auth.NewManager(cfg.JWTSecret)
		repository := repo.New(pool)
		plan := planner.New(planner.Config{
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.PlannerTimeout,
		})
		svc := service.New(repository, authManager, plan)
		svc.TokenTTL = cfg.TokenTTL
		svc.CharacterImageURL = cfg.CharacterImageURL()

		handler := &api.API{Service: svc, Auth: authManager, Origins: cfg.CORSOrigins}
		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("server listening on %s", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()
		if cfg.OpenAIKey == "" {
			color.Yellow("OPENAI_API_KEY not set, AI schedules use the day-by-day plan")
		}

		select {
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}
