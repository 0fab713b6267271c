// Package server wires the auth backend together and runs it until a
// shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpserver"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/verification"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpserver.HTTPServer
}

// NewApp builds every component from c. Missing signing secrets fail with
// an error wrapping common.ErrConfig before anything is opened.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogBackend, c.LogLevel, os.Stdout)

	tokens, err := auth.NewTokenService(c.AccessSecret, c.RefreshSecret,
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	db, rm, err := openStore(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	sender, err := newSender(c, logger)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	issuer := verification.NewIssuer(sender, c.MailTimeout, logger, m)
	us := services.NewUserService(db, rm, auth.NewBcryptHasher(c.BcryptCost), tokens, issuer, logger, m)
	gate := auth.NewGate(tokens, rm.Users(db))

	h := httpserver.NewHandlers(us, logger, httpserver.Options{
		Transport:    c.RefreshTokenTransport,
		CookieSecure: c.CookieSecure,
		CookieMaxAge: c.RefreshTokenValidityDuration,
	})
	router := httpserver.NewRouter(h, gate, m, registry)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: httpserver.NewHTTPServer(c.EndpointAddrHTTP, router, logger, c.ShutdownTimeout),
	}, nil
}

// openStore connects to postgres and applies migrations, or falls back to
// the in-memory store when no DSN is configured.
func openStore(ctx context.Context, c *config.Config, logger logging.Logger) (*sql.DB, repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN configured, using in-memory user store")
		return nil, repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}
	return db, rm, nil
}

func newSender(c *config.Config, logger logging.Logger) (mail.Sender, error) {
	if c.SMTPHost == "" {
		return mail.NewLogSender(logger), nil
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
		Timeout:  c.MailTimeout,
	})
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until ctx is cancelled, a signal arrives or the server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(gctx)
	})

	err := g.Wait()
	closeDB(app.db)

	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return err
}
