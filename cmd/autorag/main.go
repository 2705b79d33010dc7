package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	autorag "github.com/nehasharma2210/AutoRag"
	"github.com/nehasharma2210/AutoRag/compute"
	"github.com/nehasharma2210/AutoRag/config"
	"github.com/nehasharma2210/AutoRag/federated"
	"github.com/nehasharma2210/AutoRag/federated/google"
	"github.com/nehasharma2210/AutoRag/middleware/sessionware"
	"github.com/nehasharma2210/AutoRag/notify"
)

type App struct {
	config *config.App
	bunDB  *bun.DB
	repo   autorag.RepositoryManager
	issuer *autorag.TokenService
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("autorag"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	mainLogger := lgr.GetLogger("main")

	cfg, err := config.Load()
	if err != nil {
		mainLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		mainLogger.Error("failed to initialize persistence", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		mainLogger.Error("failed to initialize http server", "error", err)
		os.Exit(1)
	}

	app.srv.Serve(app.config.Server.Addr())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.config.Database.DSN)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := autorag.RunMigrations(ctx, db, app.GetLogger("migrations")); err != nil {
		return err
	}

	app.bunDB = db
	app.repo = autorag.NewRepositoryManager(db)

	return app.repo.Validate()
}

func WithHTTPServer(_ context.Context, app *App) error {
	issuer, err := autorag.NewTokenService(app.config.Auth, app.GetLogger("tokens"))
	if err != nil {
		return err
	}
	app.issuer = issuer

	verifier := autorag.NewEmailVerifier(
		app.repo.Accounts(),
		autorag.WithVerifierLogger(app.GetLogger("verification")),
	)

	dispatcher := notify.NewDispatcher(
		notify.EmailJSConfig{
			ServiceID:  app.config.EmailJS.ServiceID,
			TemplateID: app.config.EmailJS.TemplateID,
			PublicKey:  app.config.EmailJS.PublicKey,
			APIURL:     app.config.EmailJS.APIURL,
		},
		notify.SMTPConfig{
			Host:      app.config.SMTP.Host,
			Port:      app.config.SMTP.Port,
			Username:  app.config.SMTP.Username,
			Password:  app.config.SMTP.Password,
			From:      app.config.SMTP.From,
			Secure:    app.config.SMTP.Secure,
			ContactTo: app.config.SMTP.ContactTo,
		},
		notify.WithPublicBaseURL(app.config.Server.PublicBaseURL),
		notify.WithDispatcherLogger(app.GetLogger("notify")),
	)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})
	srv.Router().WithLogger(app.GetLogger("router"))

	p := srv.Router()

	p.Get("/api/health", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]any{"ok": true})
	}).SetName("health")

	controller := autorag.RegisterAccountRoutes(p,
		autorag.WithControllerRepo(app.repo),
		autorag.WithControllerIssuer(issuer),
		autorag.WithControllerVerifier(verifier),
		autorag.WithControllerNotifier(dispatcher),
		autorag.WithControllerLogger(app.GetLogger("accounts")),
		autorag.WithControllerPublicBaseURL(app.config.Server.PublicBaseURL),
		autorag.WithControllerDebug(app.config.Server.Debug),
	)

	protected := sessionware.New(sessionware.Config{
		Validator:  issuer,
		ContextKey: app.config.Auth.GetContextKey(),
	})

	autorag.RegisterProtectedAccountRoutes(p, controller, protected)

	registerFederatedRoutes(app, p)
	registerComputeRoutes(app, p, protected)

	app.srv = srv
	return nil
}

func registerFederatedRoutes(app *App, p router.Router[*fiber.App]) {
	providerCfg := google.Config{
		ClientID:     app.config.Google.ClientID,
		ClientSecret: app.config.Google.ClientSecret,
		RedirectURI:  app.config.Google.RedirectURI,
	}

	encKey, macKey := app.config.Google.StateKeys(app.config.Auth.SigningKey)

	resolver := federated.NewResolver(
		google.New(providerCfg),
		app.repo.Accounts(),
		app.issuer,
		federated.ResolverConfig{
			StateEncryptionKey: encKey,
			StateHMACKey:       macKey,
			StateTTL:           app.config.Google.StateTTL,
		},
		federated.WithResolverLogger(app.GetLogger("federated")),
	)

	federated.NewHTTPController(resolver, federated.HTTPConfig{
		PublicBaseURL:   app.config.Server.PublicBaseURL,
		MissingSettings: providerCfg.MissingSettings(),
		Logger:          app.GetLogger("federated:http"),
	}).RegisterRoutes(p)
}

func registerComputeRoutes(app *App, p router.Router[*fiber.App], protected router.MiddlewareFunc) {
	proxy := compute.NewProxy(
		app.config.LLM.BaseURL,
		compute.WithQueryTimeout(app.config.LLM.Timeout()),
		compute.WithProxyLogger(app.GetLogger("compute")),
	)

	controller := compute.NewHTTPController(proxy,
		compute.WithControllerLogger(app.GetLogger("compute:http")),
	)

	controller.RegisterHealthRoute(p)
	controller.RegisterQueryRoute(p, protected)
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
