// Package app initializes and runs the service.
// It configures logging, storage, authentication, and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/patric-chuzhbe/twitterapi/internal/auth"
	"github.com/patric-chuzhbe/twitterapi/internal/config"
	"github.com/patric-chuzhbe/twitterapi/internal/db/jsondb"
	"github.com/patric-chuzhbe/twitterapi/internal/db/memorystorage"
	"github.com/patric-chuzhbe/twitterapi/internal/db/postgresdb"
	"github.com/patric-chuzhbe/twitterapi/internal/db/storage"
	"github.com/patric-chuzhbe/twitterapi/internal/ipchecker"
	"github.com/patric-chuzhbe/twitterapi/internal/logger"
	"github.com/patric-chuzhbe/twitterapi/internal/models"
	"github.com/patric-chuzhbe/twitterapi/internal/passwords"
	"github.com/patric-chuzhbe/twitterapi/internal/router"
	"github.com/patric-chuzhbe/twitterapi/internal/service"
	"github.com/patric-chuzhbe/twitterapi/internal/validation"
)

// App holds the configuration, the storage backend and the HTTP handler of
// the service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	httpHandler http.Handler
}

type initOptions struct {
	cfg *config.Config
}

type InitOption func(*initOptions)

// WithConfig skips reading the configuration from the environment.
func WithConfig(cfg *config.Config) InitOption {
	return func(options *initOptions) {
		options.cfg = cfg
	}
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up the router and middleware
func New(optionsProto ...InitOption) (*App, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	var err error
	app := &App{cfg: options.cfg}

	if app.cfg == nil {
		app.cfg, err = config.New()
		if err != nil {
			return nil, err
		}
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if app.cfg.AuthSecretKey == config.DefaultAuthSecretKey {
		logger.Log.Warnln("AUTH_SECRET_KEY is not set, tokens are signed with the built-in development key")
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	validator, err := validation.New()
	if err != nil {
		return nil, errors.Join(err, app.db.Close())
	}

	checker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, errors.Join(err, app.db.Close())
	}

	authenticator := auth.New(
		app.cfg.AuthCookieName,
		[]byte(app.cfg.AuthSecretKey),
		app.cfg.AuthTokenTTL,
		auth.WithRequired(app.cfg.RequireAuth),
	)

	svc := service.New(app.db, passwords.New(app.cfg.BcryptCost), authenticator)

	app.httpHandler = router.New(
		svc,
		validator,
		authenticator,
		checker,
		router.WithGzip(app.cfg.EnableGzip),
	)

	return app, nil
}

// Run starts the HTTP server and serves until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.serve(ctx)
}

func (a *App) serve(ctx context.Context) error {
	logger.Log.Infow("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:         a.cfg.RunAddr,
		Handler:      a.httpHandler,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Finishing in-flight requests and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Join(fmt.Errorf("server shutdown error: %w", err), a.db.Close())
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return errors.Join(fmt.Errorf("server error: %w", err), a.db.Close())
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch cfg.ResolveStorageType() {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		db, err := postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			postgresdb.WithDriver(cfg.DatabaseDriver),
		)
		if err != nil {
			return nil, err
		}
		logger.Log.Infow("storage selected", "type", config.StorageTypePostgres, "driver", cfg.DatabaseDriver)
		return db, nil

	case models.StorageTypeFile:
		db, err := jsondb.New(cfg.UsersFileName, cfg.PostsFileName)
		if err != nil {
			return nil, err
		}
		logger.Log.Infow(
			"storage selected",
			"type", config.StorageTypeFile,
			"users", cfg.UsersFileName,
			"posts", cfg.PostsFileName,
		)
		return db, nil
	}

	db, err := memorystorage.New()
	if err != nil {
		return nil, err
	}
	logger.Log.Infow("storage selected", "type", config.StorageTypeMemory)

	return db, nil
}
