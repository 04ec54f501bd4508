package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"talenthub/internal/domain/assessment"
	"talenthub/internal/domain/audit"
	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/competency"
	"talenthub/internal/domain/core"
	"talenthub/internal/domain/cv"
	"talenthub/internal/domain/emails"
	"talenthub/internal/domain/notifications"
	"talenthub/internal/domain/profile"
	"talenthub/internal/domain/retention"
	"talenthub/internal/domain/team"
	"talenthub/internal/domain/timesheet"
	"talenthub/internal/domain/workrequest"
	"talenthub/internal/platform/config"
	"talenthub/internal/platform/crypto"
	"talenthub/internal/platform/db"
	"talenthub/internal/platform/email"
	"talenthub/internal/platform/jobs"
	"talenthub/internal/platform/metrics"
	assessmenthandler "talenthub/internal/transport/http/handlers/assessment"
	audithandler "talenthub/internal/transport/http/handlers/audit"
	authhandler "talenthub/internal/transport/http/handlers/auth"
	competencyhandler "talenthub/internal/transport/http/handlers/competency"
	corehandler "talenthub/internal/transport/http/handlers/core"
	cvhandler "talenthub/internal/transport/http/handlers/cv"
	emailshandler "talenthub/internal/transport/http/handlers/emails"
	notificationshandler "talenthub/internal/transport/http/handlers/notifications"
	profilehandler "talenthub/internal/transport/http/handlers/profile"
	systemhandler "talenthub/internal/transport/http/handlers/system"
	teamhandler "talenthub/internal/transport/http/handlers/team"
	timesheethandler "talenthub/internal/transport/http/handlers/timesheet"
	workrequesthandler "talenthub/internal/transport/http/handlers/workrequest"
	"talenthub/internal/transport/http/middleware"
)

const (
	rateWindow      = time.Minute
	shutdownTimeout = 15 * time.Second
	staleEmailAge   = 5 * time.Minute
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// New connects to the database, prepares the schema and builds the router.
// Background workers are not started until Run.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	app := &App{Config: cfg, DB: pool, Jobs: jobs.New(jobs.NewStore(pool), cfg.EmailQueueSize), Logger: logger}
	if cfg.MetricsEnabled {
		app.Metrics = metrics.New()
	}

	router, err := app.routes(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	app.Router = router
	return app, nil
}

func (a *App) routes(ctx context.Context) (http.Handler, error) {
	cfg, pool := a.Config, a.DB

	auditSvc := audit.New(pool)
	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL, cfg.VerificationTTL)
	emailSvc := emails.NewService(emails.NewStore(pool), email.New(cfg), cfg.EmailFrom, a.Jobs)
	notifySvc := notifications.New(notifications.NewStore(pool), emailSvc)
	coreSvc := core.NewService(core.NewStore(pool), authSvc, emailSvc, cfg.PublicBaseURL)
	teamSvc := team.NewService(team.NewStore(pool), notifySvc)
	competencySvc := competency.NewService(competency.NewStore(pool))
	assessmentSvc := assessment.NewService(assessment.NewStore(pool), notifySvc)
	requestSvc := workrequest.NewService(workrequest.NewStore(pool), notifySvc)
	timesheetSvc := timesheet.NewService(timesheet.NewStore(pool), requestSvc)
	profileSvc := profile.NewService(profile.NewStore(pool), notifySvc)

	cvSvc := cv.NewService(coreSvc, assessmentSvc, cfg.CVDir)
	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("data encryption key: %w", err)
	}
	cvSvc.Sealer = sealer
	authSvc.Sealer = sealer

	if cfg.FrameworkFile != "" {
		if err := importFramework(ctx, competencySvc, cfg.FrameworkFile); err != nil {
			return nil, err
		}
	}

	idem := middleware.NewIdempotencyStore(pool)
	retentionSvc := retention.NewService(pool)
	tasks := map[string]jobs.Task{
		emails.JobRetry: func(ctx context.Context) (any, error) {
			count, err := emailSvc.RetryStale(ctx, staleEmailAge)
			return map[string]int{"requeued": count}, err
		},
		retention.JobSweep: func(ctx context.Context) (any, error) {
			return retentionSvc.Sweep(ctx)
		},
	}
	a.Jobs.Every(ctx, cfg.EmailRetryInterval, emails.JobRetry, tasks[emails.JobRetry])
	a.Jobs.Every(ctx, cfg.RetentionInterval, retention.JobSweep, tasks[retention.JobSweep])

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger(a.Logger))
	if a.Metrics != nil {
		router.Use(middleware.Metrics(a.Metrics))
	}
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, authSvc))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, rateWindow))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, rateWindow))

	systemHandler := systemhandler.NewHandler(pool, a.Metrics, authSvc)
	systemHandler.Jobs, systemHandler.Tasks = a.Jobs, tasks
	systemHandler.RegisterPublicRoutes(router)

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authSvc, auditSvc)
		authHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			authHandler.RegisterRoutes(r)
			corehandler.NewHandler(coreSvc, authSvc, auditSvc).RegisterRoutes(r)
			teamhandler.NewHandler(teamSvc, authSvc, auditSvc).RegisterRoutes(r)
			competencyhandler.NewHandler(competencySvc, authSvc, auditSvc).RegisterRoutes(r)
			assessmenthandler.NewHandler(assessmentSvc, authSvc, auditSvc).RegisterRoutes(r)
			workrequesthandler.NewHandler(requestSvc, authSvc, auditSvc, idem).RegisterRoutes(r)
			timesheethandler.NewHandler(timesheetSvc, authSvc).RegisterRoutes(r)
			profilehandler.NewHandler(profileSvc, authSvc, auditSvc, idem).RegisterRoutes(r)
			cvhandler.NewHandler(cvSvc, authSvc, auditSvc).RegisterRoutes(r)
			emailshandler.NewHandler(emailSvc, authSvc, auditSvc).RegisterRoutes(r)
			notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
			audithandler.NewHandler(auditSvc, authSvc).RegisterRoutes(r)
			systemHandler.RegisterRoutes(r)
		})
	})

	if cfg.FrontendDir != "" {
		router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	}
	return router, nil
}

func importFramework(ctx context.Context, svc *competency.Service, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open competency framework: %w", err)
	}
	defer f.Close()

	fw, err := competency.ParseFramework(f)
	if err != nil {
		return fmt.Errorf("parse competency framework: %w", err)
	}
	summary, err := svc.ImportFramework(ctx, fw)
	if err != nil {
		return fmt.Errorf("import competency framework: %w", err)
	}
	slog.Info("competency framework imported", "path", path, "summary", summary)
	return nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests and
// background jobs.
func (a *App) Run(ctx context.Context) error {
	a.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("talenthub server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("http shutdown incomplete", "err", err)
	}
	a.Jobs.Wait()
	return nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
