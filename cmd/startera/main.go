package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/startera/internal/apiclient"
	"github.com/startera/internal/authflow"
	"github.com/startera/internal/config"
	"github.com/startera/internal/httpclient"
	"github.com/startera/internal/i18n"
	"github.com/startera/internal/kvstore"
	"github.com/startera/internal/logger"
	"github.com/startera/internal/navigation"
	"github.com/startera/internal/notify"
	"github.com/startera/internal/session"
)

// app bundles everything a command needs
type app struct {
	cfg        *config.ClientConfig
	logger     *slog.Logger
	kv         kvstore.Store
	store      *session.Store
	bus        *notify.Bus
	toaster    *notify.Toaster
	nav        *navigation.History
	catalog    *i18n.Catalog
	api        *apiclient.Client
	controller *authflow.Controller
}

func newApp(ctx context.Context, cfg *config.ClientConfig) (*app, error) {
	appLogger := logger.InitLogger(cfg.Environment, os.Stderr)

	kv, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bus := notify.NewBus()
	renderer := notify.NewTerminalRenderer(os.Stdout)
	nav := navigation.NewHistory(func(route string) {
		fmt.Fprintf(os.Stdout, "→ %s\n", route)
	})
	catalog := i18n.MustLoad()
	api := apiclient.NewClient(cfg.APIURL, httpclient.NewRealHTTPClient(cfg.HTTPTimeout), appLogger)
	store := session.NewStore(kv)

	a := &app{
		cfg:     cfg,
		logger:  appLogger,
		kv:      kv,
		store:   store,
		bus:     bus,
		toaster: notify.NewToaster(bus, cfg.ToastTimeout, renderer.Follow()),
		nav:     nav,
		catalog: catalog,
		api:     api,
	}
	a.controller = authflow.NewController(api, store, bus, nav, catalog, authflow.Options{
		DemoDelay:     cfg.DemoDelay,
		AfterRegister: cfg.AfterRegister,
	}, appLogger)
	return a, nil
}

func openStore(ctx context.Context, cfg *config.ClientConfig) (kvstore.Store, error) {
	if cfg.RedisAddr != "" {
		return kvstore.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	}
	return kvstore.OpenSQLite(cfg.StatePath)
}

func (a *app) Close() {
	a.toaster.Close()
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("failed to close state store", "error", err)
	}
}

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	root, release := newRootCommand()
	err := root.ExecuteContext(ctx)
	release()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
