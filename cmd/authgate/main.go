package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/guilleojeda/community-content-tracker-sub000/internal/authorizer"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/config"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/identity"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/jwks"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/observability/logger"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/rate"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/risk"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/security"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/token"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/transport"
)

func main() {
	// .env is optional; real deployments export the variables directly.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:   "authgate",
		Short: "Authorization gateway for the community content platform",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("AUTHGATE_CONFIG", "config.yaml"), "path to config.yaml")

	root.AddCommand(serveCmd(&cfgPath))
	root.AddCommand(checkTokenCmd(&cfgPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP decision service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       os.Getenv("LOG_LEVEL"),
				ServiceName: "authgate",
			})
			defer func() { _ = logger.Sync() }()
			log := logger.L()

			if cfg.Issuer() == "" {
				return fmt.Errorf("COGNITO_USER_POOL_ID and AWS_REGION are required")
			}
			if cfg.Storage.DSN == "" {
				return fmt.Errorf("DATABASE_URL is required for the identity store")
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			verifier := token.New(
				token.Config{
					UserPoolID: cfg.Cognito.UserPoolID,
					Region:     cfg.Cognito.Region,
					Audiences:  cfg.AudienceList(),
					Issuer:     cfg.Issuer(),
				},
				jwks.NewResolver(cfg.JWKSURL()),
				identity.NewPGStore(pool),
				token.WithCache(cfg.Auth.TokenCacheTTL, 1000),
			)

			var limiter rate.Limiter
			if cfg.Rate.Enabled {
				var inner rate.Limiter
				if cfg.Rate.RedisAddr != "" {
					client := rdb.NewClient(&rdb.Options{
						Addr: cfg.Rate.RedisAddr,
						DB:   cfg.Rate.RedisDB,
					})
					defer func() { _ = client.Close() }()
					inner = rate.NewRedisLimiter(client, "authgate:", cfg.Rate.MaxRequests, cfg.RateWindow())
				} else {
					inner = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.RateWindow())
				}
				limiter = rate.NewFailOpen(inner, int64(cfg.Rate.MaxRequests))
			}

			authz := authorizer.New(
				verifier,
				limiter,
				risk.NewScorer(cfg.Auth.AdminPathPrefix),
				security.NewLogSink(logger.Named("security")),
				authorizer.WithVerifyTimeout(cfg.Auth.VerifyTimeout),
				authorizer.WithAdminPathPrefix(cfg.Auth.AdminPathPrefix),
			)

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           transport.NewRouter(transport.Deps{Authorizer: authz}),
				ReadHeaderTimeout: 5 * time.Second,
			}

			stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				log.Info("gateway listening", logger.Any("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-stop.Done():
			}

			log.Info("shutting down")
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func checkTokenCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-token [token]",
		Short: "Verify a bearer token's signature and claims (no identity lookup)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: "warn"})

			raw := ""
			if len(args) == 1 {
				raw = args[0]
			} else {
				b, err := os.ReadFile("/dev/stdin")
				if err != nil {
					return err
				}
				raw = strings.TrimSpace(string(b))
			}

			verifier := token.New(
				token.Config{
					UserPoolID: cfg.Cognito.UserPoolID,
					Region:     cfg.Cognito.Region,
					Audiences:  cfg.AudienceList(),
					Issuer:     cfg.Issuer(),
				},
				jwks.NewResolver(cfg.JWKSURL()),
				nil, // claims-only verification never touches the store
			)

			claims, err := verifier.VerifyClaims(cmd.Context(), raw)
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(claims, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
}
