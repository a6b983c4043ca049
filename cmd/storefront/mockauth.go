package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront-client/internal/auth"
	"storefront-client/internal/config"
	"storefront-client/internal/mockauth"
	"storefront-client/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func mockAuthCmd() *cobra.Command {
	var seeds []string
	var secret string
	cmd := &cobra.Command{
		Use:   "mock-auth",
		Short: "Run an in-memory auth service for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if secret != "" {
				cfg.MockAuth.JWTSecret = secret
			}
			return runMockAuth(cmd.Context(), cfg, seeds)
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret (defaults to MOCK_AUTH_JWT_SECRET)")
	cmd.Flags().StringArrayVar(&seeds, "seed", nil, "seed user phone:password:first:last[:role], repeatable")
	return cmd
}

func runMockAuth(parent context.Context, cfg config.Config, seeds []string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.App.Env).With("component", "mock-auth")
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewManager(cfg.MockAuth)
	if err != nil {
		return err
	}
	svc := mockauth.NewService(tokens)
	for _, s := range seeds {
		if err := seedUser(svc, s); err != nil {
			return err
		}
	}

	h := mockauth.Handlers{Service: svc, Tokens: tokens}
	srv := &http.Server{
		Addr:              cfg.MockAuthAddr(),
		Handler:           h.Router(log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("mock auth listening", "addr", srv.Addr, "seeded", len(seeds))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func seedUser(svc *mockauth.Service, spec string) error {
	parts := strings.Split(spec, ":")
	if len(parts) < 4 || len(parts) > 5 {
		return fmt.Errorf("invalid seed %q: want phone:password:first:last[:role]", spec)
	}
	var roles []string
	if len(parts) == 5 && parts[4] != "" {
		roles = append(roles, parts[4])
	}
	if _, err := svc.Register(parts[0], parts[1], parts[2], parts[3], "", roles...); err != nil {
		return fmt.Errorf("seed %s: %w", parts[0], err)
	}
	return nil
}
