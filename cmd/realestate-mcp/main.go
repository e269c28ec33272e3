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

	"github.com/spf13/cobra"

	"github.com/kdata-labs/realestate-mcp/auth"
	"github.com/kdata-labs/realestate-mcp/instrumentation"
	"github.com/kdata-labs/realestate-mcp/internal/config"
	"github.com/kdata-labs/realestate-mcp/mcpserver"
	"github.com/kdata-labs/realestate-mcp/security"
	"github.com/kdata-labs/realestate-mcp/storage/memory"
	"github.com/kdata-labs/realestate-mcp/upstream/molit"
	"github.com/kdata-labs/realestate-mcp/upstream/odcloud"
	"github.com/kdata-labs/realestate-mcp/upstream/onbid"
)

// version is set at build time via -ldflags
var version = "dev"

const (
	tokenRequestsPerSecond = 10
	tokenRequestBurst      = 20
	shutdownTimeout        = 10 * time.Second
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "realestate-mcp",
		Short:   "Korean real estate data MCP server with OAuth protection",
		Version: version,
		Long: `An MCP server exposing Korean real estate open data: MOLIT transaction
records, Applyhome subscription data and Onbid public auctions. The /mcp
endpoint can be protected with locally issued OAuth tokens or tokens
delegated to an external identity provider. Configuration is read from
the environment (MCP_*, OAUTH_*, AUTH0_* and API key variables).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
	return cmd
}

func run(ctx context.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	inst, err := instrumentation.New(instrumentation.Config{
		ServiceName:    "realestate-mcp",
		ServiceVersion: version,
		Enabled:        cfg.MetricsEnabled,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize instrumentation: %w", err)
	}

	store := memory.New()
	store.SetLogger(logger)
	store.SetInstrumentation(inst)
	defer store.Stop()

	authCfg := cfg.AuthConfig(logger)
	mux := http.NewServeMux()

	var delegated *auth.DelegatedVerifier
	if authCfg.Enabled {
		var issuer *auth.Issuer
		if authCfg.ClientID != "" {
			issuer, err = auth.NewIssuer(authCfg, store)
			if err != nil {
				return fmt.Errorf("failed to create token issuer: %w", err)
			}
			issuer.SetMetrics(inst.Metrics())
		}

		if authCfg.Provider.Configured() {
			delegated, err = auth.NewDelegatedVerifier(ctx, authCfg)
			if err != nil {
				return fmt.Errorf("failed to create delegated verifier: %w", err)
			}
			delegated.SetMetrics(inst.Metrics())
			delegated.SetTracer(inst.Tracer("auth"))
		}

		limiter := security.NewRateLimiter(tokenRequestsPerSecond, tokenRequestBurst, logger)
		defer limiter.Stop()

		authHandler := auth.NewHandler(authCfg, issuer)
		authHandler.SetRateLimiter(limiter, false, 0)
		authHandler.SetMetrics(inst.Metrics())
		authHandler.SetTracer(inst.Tracer("auth"))
		authHandler.RegisterRoutes(mux)
	} else {
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}

	guard := auth.NewGuard(authCfg, store, delegated)
	guard.SetMetrics(inst.Metrics())
	guard.SetTracer(inst.Tracer("auth"))

	toolHandler := mcpserver.NewHandler(
		newMolitClient(cfg, logger, inst),
		newOdcloudClient(cfg, logger, inst),
		newOnbidClient(cfg, logger, inst),
		logger,
	)
	mcpSrv := mcpserver.New(toolHandler, version)
	mux.Handle(mcpserver.EndpointPath, guard.Middleware(mcpSrv.HTTPHandler()))

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           security.RequestIDMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.ListenAddr(),
			"auth_enabled", authCfg.Enabled,
			"delegation", authCfg.Provider.Configured())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutting down", "reason", "context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return inst.Shutdown(shutdownCtx)
}

func newMolitClient(cfg *config.Config, logger *slog.Logger, inst *instrumentation.Instrumentation) *molit.Client {
	if cfg.DataGoKrAPIKey == "" {
		return nil
	}
	return molit.NewClient(cfg.DataGoKrAPIKey,
		molit.WithLogger(logger),
		molit.WithMetrics(inst.Metrics()))
}

func newOdcloudClient(cfg *config.Config, logger *slog.Logger, inst *instrumentation.Instrumentation) *odcloud.Client {
	// The shared data.go.kr key doubles as an odcloud service key
	serviceKey := cfg.OdcloudServiceKey
	if serviceKey == "" {
		serviceKey = cfg.DataGoKrAPIKey
	}
	if cfg.OdcloudAPIKey == "" && serviceKey == "" {
		return nil
	}
	return odcloud.NewClient(cfg.OdcloudAPIKey, serviceKey,
		odcloud.WithLogger(logger),
		odcloud.WithMetrics(inst.Metrics()))
}

func newOnbidClient(cfg *config.Config, logger *slog.Logger, inst *instrumentation.Instrumentation) *onbid.Client {
	key := cfg.OnbidAPIKey
	if key == "" {
		key = cfg.DataGoKrAPIKey
	}
	if key == "" {
		return nil
	}
	return onbid.NewClient(key,
		onbid.WithLogger(logger),
		onbid.WithMetrics(inst.Metrics()))
}
