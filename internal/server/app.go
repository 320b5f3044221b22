// Package server initializes and runs the PennyPlan auth server.
// It wires the user store, token issuer, Google verifier and mail
// dispatcher into the HTTP API and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/pennyplan/internal/logging"
	"github.com/dmitrijs2005/pennyplan/internal/server/auth"
	"github.com/dmitrijs2005/pennyplan/internal/server/config"
	"github.com/dmitrijs2005/pennyplan/internal/server/identity"
	"github.com/dmitrijs2005/pennyplan/internal/server/notify"
	"github.com/dmitrijs2005/pennyplan/internal/server/password"
	"github.com/dmitrijs2005/pennyplan/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pennyplan/internal/server/rest"
	"github.com/dmitrijs2005/pennyplan/internal/server/services"
	"github.com/dmitrijs2005/pennyplan/internal/telemetry"
)

const serviceName = "pennyplan-auth"

type App struct {
	config     *config.Config
	logger     logging.Logger
	store      repomanager.RepositoryManager
	dispatcher *notify.Dispatcher
	server     *rest.HTTPServer
	shutdown   telemetry.ShutdownFunc
}

// NewApp builds every component from c, logging JSON to stdout.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (_ *App, err error) {
	logger := logging.NewJSONLogger(logOut, c.LogLevel).With("service", serviceName)

	shutdown, err := telemetry.Setup(ctx, serviceName, c.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}

	store, err := repomanager.New(ctx, repomanager.Options{
		Driver:        c.StoreDriver,
		DatabaseDSN:   c.DatabaseDSN,
		MongoURI:      c.MongoURI,
		MongoDatabase: c.MongoDatabase,
	})
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = store.Close(ctx)
			_ = shutdown(ctx)
		}
	}()

	if err = store.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := password.New(c.PasswordHasher, c.BcryptCost)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer([]byte(c.SecretKey), c.TokenValidityDuration)
	if err != nil {
		return nil, err
	}

	var verifier identity.Verifier
	if c.GoogleEnabled() {
		gv, verr := identity.NewGoogleVerifier(identity.GoogleConfig{
			ClientID:             c.GoogleClientID,
			JWKSURL:              c.GoogleJWKSURL,
			Timeout:              c.GoogleVerifyTimeout,
			RequireVerifiedEmail: c.RequireVerifiedEmail,
		})
		if verr != nil {
			err = fmt.Errorf("google verifier init error: %w", verr)
			return nil, err
		}
		verifier = gv
	} else {
		logger.Warn(ctx, "GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	mailer, err := newMailer(c, logger)
	if err != nil {
		return nil, err
	}

	dispatcher := notify.NewDispatcher(mailer, notify.DispatcherConfig{
		QueueSize: c.NotificationQueueSize,
		Workers:   c.NotificationWorkers,
		Timeout:   c.NotificationTimeout,
	}, logger)

	us := services.NewUserService(store.Users(), hasher, issuer, verifier, dispatcher, logger)

	srv := rest.NewHTTPServer(rest.Options{
		Address:         c.HTTPAddr,
		APIPrefix:       c.APIPrefix,
		FrontendURL:     c.FrontendURL,
		RequestTimeout:  c.RequestTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
		Google: rest.GoogleOAuthConfig{
			ClientID:     c.GoogleClientID,
			ClientSecret: c.GoogleClientSecret,
			RedirectURL:  c.GoogleRedirectURL,
			FrontendURL:  c.FrontendURL,
		},
	}, logger, us, store)

	return &App{
		config:     c,
		logger:     logger,
		store:      store,
		dispatcher: dispatcher,
		server:     srv,
		shutdown:   shutdown,
	}, nil
}

func newMailer(c *config.Config, logger logging.Logger) (notify.Mailer, error) {
	if !c.SMTPEnabled() {
		logger.Warn(context.Background(), "SMTP_HOST not set, emails will only be logged")
		return notify.NewLogMailer(logger), nil
	}

	m, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
		Timeout:  c.NotificationTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("mailer init error: %w", err)
	}
	return m, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) drainNotificationErrors(ctx context.Context) {
	for err := range app.dispatcher.Errors() {
		app.logger.Error(ctx, "notification failed", "error", err)
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// drains pending notifications and releases the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "address", app.config.HTTPAddr, "store", app.config.StoreDriver)

	app.initSignalHandler(cancelFunc)
	app.dispatcher.Start()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.drainNotificationErrors(context.WithoutCancel(ctx))
	}()

	runErr := app.server.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "http server stopped", "error", runErr)
	}

	cleanup := context.WithoutCancel(ctx)

	app.dispatcher.Close()
	wg.Wait()

	if err := app.store.Close(cleanup); err != nil {
		app.logger.Error(cleanup, "store close error", "error", err)
	}
	if err := app.shutdown(cleanup); err != nil {
		app.logger.Error(cleanup, "telemetry shutdown error", "error", err)
	}

	app.logger.Info(cleanup, "App stopped")
	return runErr
}
