// Command quill-server starts the quill REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/and161185/quill/internal/config"
	"github.com/and161185/quill/internal/crypto"
	"github.com/and161185/quill/internal/limiter"
	"github.com/and161185/quill/internal/migrate"
	"github.com/and161185/quill/internal/repository/postgres"
	"github.com/and161185/quill/internal/revoke"
	httpserver "github.com/and161185/quill/internal/server/http"
	"github.com/and161185/quill/internal/service"
	"github.com/and161185/quill/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func newLogger(dev bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// main loads configuration, runs migrations, and serves HTTP until SIGINT/SIGTERM.
func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		_, _ = os.Stderr.WriteString("load .env: " + err.Error() + "\n")
		os.Exit(2)
	}
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}

	logger := newLogger(cfg.Dev())
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("pagination", string(cfg.Pagination)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.MigrateOnStart {
		if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
			return err
		}
	} else if pending, err := migrate.Pending(ctx, cfg.DatabaseDSN); err != nil {
		logger.Warn("migration status", zap.Error(err))
	} else if len(pending) > 0 {
		logger.Warn("pending migrations", zap.Int64s("versions", pending))
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	var revoker revoke.Revoker = revoke.Nop{}
	if cfg.RedisAddr != "" {
		rdb, err := revoke.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		revoker = revoke.NewRedis(rdb)
	} else {
		logger.Info("token revocation disabled (no REDIS_ADDR)")
	}

	var throttle limiter.Limiter = limiter.Nop{}
	if cfg.LoginMaxFails > 0 {
		throttle = limiter.NewPG(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)
	}

	// Services
	authSvc := service.NewAuthService(service.AuthDeps{
		Users:      postgres.NewUserRepo(db),
		Sessions:   postgres.NewSessionRepo(db),
		Tokens:     token.NewManager([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTTL),
		Hasher:     crypto.NewHasher(cfg.HashConcurrency),
		Limiter:    throttle,
		Revoker:    revoker,
		RefreshTTL: cfg.RefreshTTL,
	})
	articleRepo := postgres.NewArticleRepo(db)
	articleSvc := service.NewArticleService(articleRepo)
	commentSvc := service.NewCommentService(postgres.NewCommentRepo(db), articleRepo)

	api := httpserver.New(authSvc, articleSvc, commentSvc, logger, httpserver.Options{
		Pagination:   cfg.Pagination,
		CookieDomain: cfg.CookieDomain,
		CookieSecure: cfg.CookieSecure,
		CORSOrigins:  cfg.CORSOrigins,
		RateLimit:    rate.Limit(cfg.RateLimitRPS),
		RateBurst:    cfg.RateLimitBurst,
		TrustProxy:   cfg.TrustProxy,
		Pinger:       db,
	})
	defer api.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return g.Wait()
}
