package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	jwttoken "riskflow/internal/jwt_token"
	"riskflow/internal/platform/config"
	"riskflow/internal/platform/httpserver"
	"riskflow/internal/platform/logger"
	"riskflow/internal/platform/metrics"
	"riskflow/internal/workflow/handler"
	"riskflow/pkg/platform/httputil"
	authmw "riskflow/pkg/platform/middleware/auth"
	"riskflow/pkg/platform/middleware/metadata"
	"riskflow/pkg/platform/middleware/request"
	"riskflow/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	configPath := flag.String("config", os.Getenv("RISKFLOW_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("riskflow exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UsingDefaultSigningKey() {
		log.Warn("using development JWT signing key; set RISKFLOW_JWT_SIGNING_KEY in production")
	}

	reg := metrics.NewRegistry()
	app, err := buildApp(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer app.Close()

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	h := handler.New(app.registry, app.traces, app.audit, log)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler(reg))
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log))
		h.Register(r, app.submitMiddleware()...)
	})

	log.Info("starting riskflow",
		"addr", cfg.Server.Addr,
		"workflows", app.registry.Names(),
		"trace_backend", cfg.TraceStore.Backend,
		"audit_backend", cfg.Audit.Backend,
		"review_backend", cfg.Review.Backend,
		"rate_limit", cfg.RateLimit.Enabled,
	)
	return httpserver.Run(ctx, httpserver.New(cfg.Server.Addr, r), cfg.Server.ShutdownTimeout, log)
}
