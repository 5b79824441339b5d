// Command server runs the HTTP API.
//
// Configuration comes from the environment, optionally seeded from a .env
// file in the working directory. See internal/config for the keys.
//
// @title          Go API Scaffold
// @version        1.0
// @description    HTTP server scaffold with a centralized error-response pipeline.
// @license.name   MIT
// @BasePath       /
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-api-scaffold/docs"
	"github.com/tbourn/go-api-scaffold/internal/config"
	httpapi "github.com/tbourn/go-api-scaffold/internal/http"
	"github.com/tbourn/go-api-scaffold/internal/http/handlers"
	"github.com/tbourn/go-api-scaffold/internal/observability"
	"github.com/tbourn/go-api-scaffold/internal/sysutil"
)

// version is stamped at build time: -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	docs.SwaggerInfo.Version = ver

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver, cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}

	if err := handlers.ConfigureValidator(); err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	r := gin.New()
	if err := httpapi.RegisterRoutes(r, cfg); err != nil {
		return err
	}

	log.Info().
		Str("version", ver).
		Str("env", cfg.AppEnv).
		Str("api_base", cfg.APIBasePath).
		Msg("starting server")
	return serve(ctx, newServer(cfg, r), cfg.ShutdownTimeout, shutdownOTel)
}

func newServer(cfg config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// serve runs srv until ctx is cancelled or the listener fails, then drains
// in-flight requests for up to timeout and runs cleanup.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration, cleanup func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := srv.Shutdown(shCtx)
		if cleanup != nil {
			err = errors.Join(err, cleanup(shCtx))
		}
		return err
	})

	return g.Wait()
}
