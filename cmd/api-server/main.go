package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"safepath/internal/auth"
	"safepath/internal/dashboard"
	"safepath/internal/events"
	"safepath/internal/generation"
	"safepath/internal/images"
	"safepath/internal/llm"
	"safepath/internal/metrics"
	"safepath/internal/middleware"
	"safepath/internal/safety"
	"safepath/internal/sessions"
	"safepath/internal/stories"
	"safepath/internal/students"
	"safepath/internal/tracing"
	"safepath/pkg/database"
	"safepath/pkg/logger"
	"safepath/pkg/utils"
)

func main() {
	configPath := flag.String("config", envOr("SAFEPATH_CONFIG", "safepath.yaml"), "optional YAML config file")
	flag.Parse()

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", "err", err)
	}
}

func run(cfg *utils.Config, log *logger.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Env, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.Open(database.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.CORSOriginList()))

	// Optional: avoid “trusted all proxies” warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	hub := events.NewHub()

	router.GET("/ready", func(c *gin.Context) {
		pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok", "events": hub.Stats()})
	})
	router.GET("/metrics", metrics.Handler())

	if cfg.Images.Mode == images.ModeRender {
		if err := os.MkdirAll(cfg.Images.Dir, 0o755); err != nil {
			return fmt.Errorf("ensure images dir: %w", err)
		}
		router.Static("/"+strings.Trim(cfg.Images.URLPath, "/"), cfg.Images.Dir)
	}

	tokens := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}

	llmClient := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.Timeout, log)
	var reviewer safety.Reviewer
	if cfg.Safety.EnableLLMReview {
		reviewer = safety.NewLLMReviewer(llmClient, cfg.Safety.ReviewModel, log)
	}

	storyRepo := stories.NewRepo(db)
	storySvc := stories.NewService(
		storyRepo,
		generation.NewOrchestrator(llmClient, cfg.LLM, log),
		safety.NewCritic(cfg.Safety, reviewer, log),
		images.New(cfg.Images, log),
		stories.Policy{
			FallbackToDefault: cfg.LLM.FallbackToDefault,
			StrictSafety:      cfg.Safety.Strict,
			RejectUnapproved:  cfg.Safety.RejectUnapproved,
		},
		log,
	)
	studentRepo := students.NewRepo(db)
	sessionRepo := sessions.NewRepo(db)

	api := router.Group(cfg.App.APIPrefix)
	auth.NewHandler(auth.NewRepo(db), tokens, log).RegisterRoutes(api.Group("/auth"))
	students.NewHandler(studentRepo).RegisterRoutes(api.Group("/students"))
	stories.NewHandler(storySvc, tokens, hub).RegisterRoutes(api.Group("/stories"))
	sessions.NewHandler(sessionRepo, storyRepo, studentRepo, hub).RegisterRoutes(api)
	dashboard.NewHandler(dashboard.NewService(db, sessionRepo), tokens).RegisterRoutes(api.Group("/dashboard"))
	events.NewHandler(hub, tokens, cfg.CORSOriginList(), log).RegisterRoutes(api.Group("/events"))

	httpSrv := &http.Server{
		Addr:              cfg.App.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP API server listening", "addr", cfg.App.Addr, "db_driver", cfg.Database.Driver)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", "err", err)
	}
	log.Info("server stopped")
	return nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
