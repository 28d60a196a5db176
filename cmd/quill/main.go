package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"quill/internal/config"
	"quill/internal/handler"
	"quill/internal/imaging"
	"quill/internal/logging"
	"quill/internal/maintenance"
	"quill/internal/middleware"
	"quill/internal/render"
	"quill/internal/session"
	"quill/internal/store"
	"quill/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Quill - a small blogging platform\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  QUILL_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  QUILL_DB_PATH           SQLite database path (default: ./data/quill.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  QUILL_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  QUILL_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  QUILL_UPLOADS_DIR       Image upload directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  QUILL_DO_SEED           Seed demo content on startup (default: false)\n")
	}

	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("quill %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the audit log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}
	if cfg.DoSeed {
		if err := store.SeedDemo(ctx, db); err != nil {
			return fmt.Errorf("seeding demo content: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	processor := imaging.NewProcessor(cfg.UploadsDir)

	sched := maintenance.New(db, logger, cfg.EventRetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting maintenance scheduler: %w", err)
	}
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	blogHandler := handler.NewBlogHandler(db, renderer)
	postHandler := handler.NewPostHandler(db, renderer, processor)
	commentHandler := handler.NewCommentHandler(db, renderer)
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection)
	profileHandler := handler.NewProfileHandler(db, renderer)
	healthHandler := handler.NewHealthHandler(db, sessionManager, cfg.UploadsDir)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sessionManager.LoadAndSave)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	r.Get(handler.RouteHealth, healthHandler.Health)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		err := renderer.RenderStatus(w, req, "errors/404", http.StatusNotFound, render.TemplateData{
			Title: "Page Not Found",
		})
		if err != nil {
			http.Error(w, "Not Found", http.StatusNotFound)
		}
	})

	// Uploaded post images
	fileServer := http.FileServer(http.Dir(cfg.UploadsDir))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	// Authentication routes
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.OptionalLoadUser(sessionManager, db))

		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteLogout, authHandler.Logout)
		r.Get(handler.RouteRegister, authHandler.RegisterForm)
		r.Post(handler.RouteRegister, authHandler.Register)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))

		r.Get(handler.RoutePostCreate, postHandler.NewForm)
		r.Post(handler.RoutePostCreate, postHandler.Create)
		r.Get(handler.RoutePostEdit, postHandler.EditForm)
		r.Post(handler.RoutePostEdit, postHandler.Update)
		r.Get(handler.RoutePostDelete, postHandler.DeleteConfirm)
		r.Post(handler.RoutePostDelete, postHandler.Delete)

		r.Post(handler.RouteCommentCreate, commentHandler.Create)
		r.Get(handler.RouteCommentEdit, commentHandler.EditForm)
		r.Post(handler.RouteCommentEdit, commentHandler.Update)
		r.Get(handler.RouteCommentDelete, commentHandler.DeleteConfirm)
		r.Post(handler.RouteCommentDelete, commentHandler.Delete)

		r.Get(handler.RouteProfileEdit, profileHandler.EditForm)
		r.Post(handler.RouteProfileEdit, profileHandler.Update)
	})

	// Public routes. The category catch-all goes last so it cannot
	// shadow any other pattern.
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.OptionalLoadUser(sessionManager, db))

		r.Get(handler.RouteRoot, blogHandler.Index)
		r.Get(handler.RoutePostDetail, blogHandler.PostDetail)
		r.Get(handler.RouteProfile, blogHandler.Profile)
		r.Get(handler.RouteCategorySlug, blogHandler.Category)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
