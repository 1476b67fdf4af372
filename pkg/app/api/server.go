// Package api implements app.Runner for the API server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goalstake/goalstake/internal/metrics"
	"github.com/goalstake/goalstake/pkg/app"
	apphttp "github.com/goalstake/goalstake/pkg/app/http"
	"github.com/goalstake/goalstake/pkg/auth"
	authservice "github.com/goalstake/goalstake/pkg/auth/service"
	"github.com/goalstake/goalstake/pkg/config"
	goalservice "github.com/goalstake/goalstake/pkg/goal/service"
	"github.com/goalstake/goalstake/pkg/goalstore"
	"github.com/goalstake/goalstake/pkg/noncestore"
	"github.com/goalstake/goalstake/pkg/pgutil"
)

const defaultRequestTimeout = 60

// Server holds cfg to init the api server.
type Server struct {
	cfg *config.APIServerConfig
}

var _ app.Runner = (*Server)(nil)

// NewServer initializes new api server.
func NewServer(cfg *config.APIServerConfig) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting API server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer db.Close()

	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	issuer, err := auth.NewSessionIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.CookieSecure)
	if err != nil {
		return fmt.Errorf("setup session issuer: %w", err)
	}

	nonces := noncestore.NewStore(db, cfg.Auth.NonceTTL)
	goals := goalstore.NewStore(db)

	authSvc := authservice.NewLog(
		authservice.NewService(nonces, issuer, logger),
		logger,
	)
	goalSvc := goalservice.NewLog(
		goalservice.NewService(goals, logger),
		logger,
	)

	stopPurge := s.startNoncePurge(ctx, nonces, logger)
	defer stopPurge()

	router := s.setupRouter(authSvc, goalSvc, issuer, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Stop background work before the deferred DB close kicks in.
	stopPurge()

	return err
}

// startNoncePurge sweeps expired challenges on a fixed interval. The sweep
// is hygiene; nonce correctness is enforced at consume time.
func (s *Server) startNoncePurge(ctx context.Context, nonces noncestore.Store, logger *zap.Logger) func() {
	if s.cfg.Auth.NoncePurgeInterval <= 0 {
		return func() {}
	}

	logger.Info("Starting nonce purge loop", zap.Duration("interval", s.cfg.Auth.NoncePurgeInterval))

	purgeCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.cfg.Auth.NoncePurgeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-purgeCtx.Done():
				return
			case <-ticker.C:
				purged, err := nonces.PurgeExpired(purgeCtx)
				if err != nil {
					logger.Warn("Nonce purge failed", zap.Error(err))
					continue
				}
				if purged > 0 {
					metrics.NoncesPurged.Add(float64(purged))
					logger.Debug("Purged expired nonces", zap.Int64("count", purged))
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (s *Server) setupRouter(
	authSvc authservice.Service,
	goalSvc goalservice.Service,
	issuer *auth.SessionIssuer,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Second * defaultRequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			authservice.RegisterRoutes(ar, authSvc, issuer, logger)
		})

		// Goal endpoints require a valid session cookie
		api.Group(func(gr chi.Router) {
			gr.Use(auth.RequireSession(issuer))
			goalservice.RegisterRoutes(gr, goalSvc, logger)
		})
	})

	return r
}
