package tbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/DenisKhanov/RelayBOT/internal/logcfg"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/api/telegram"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/config"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/repository"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	pollTimeoutSec    = 60
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// App initializes the dependencies and runs the relay bot.
type App struct {
	serviceProvider *ServiceProvider // Lazily built components
	config          *config.Config   // Configuration loaded from the environment
}

// NewApp creates a new instance of the application.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}
	if err := app.initDeps(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
	}

	for _, f := range inits {
		if err := f(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	if err = logcfg.RunLoggerConfig(cfg.EnvLogsLevel, cfg.EnvLogFileName); err != nil {
		return err
	}
	a.config = cfg
	logrus.Infof("Config loaded: update mode %s, storage %s", cfg.EnvUpdateMode, cfg.EnvStorageBackend)
	return nil
}

func (a *App) initServiceProvider(_ context.Context) error {
	a.serviceProvider = NewServiceProvider(a.config)
	return nil
}

// Run receives updates until ctx is canceled or SIGINT/SIGTERM arrives, then closes the store.
// The file store is also snapshotted every SAVE_INTERVAL.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := a.serviceProvider.Store(ctx)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	if fileStore, ok := store.(*repository.UsersState); ok {
		g.Go(func() error {
			return runSnapshots(gCtx, fileStore, a.config.EnvSaveInterval)
		})
	}
	if a.config.EnvUpdateMode == config.UpdateModeWebhook {
		g.Go(func() error { return a.runWebhook(gCtx) })
	} else {
		g.Go(func() error { return a.runPolling(gCtx) })
	}

	err = g.Wait()
	logrus.Info("Shutting down, closing the store")
	if closeErr := store.Close(); closeErr != nil {
		logrus.WithError(closeErr).Error("Error while closing the store")
		err = errors.Join(err, closeErr)
	}
	return err
}

// runPolling long-polls getUpdates and handles every update on its own goroutine.
// In-flight updates are finished before it returns.
func (a *App) runPolling(ctx context.Context) error {
	botAPI, err := a.serviceProvider.BotAPI()
	if err != nil {
		return err
	}
	client, err := a.serviceProvider.Client()
	if err != nil {
		return err
	}
	bot, err := a.serviceProvider.BotService(ctx)
	if err != nil {
		return err
	}
	// getUpdates is refused while a webhook is set.
	if err = client.DeleteWebhook(); err != nil {
		logrus.WithError(err).Warn("Failed to delete webhook")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = pollTimeoutSec
	updates := botAPI.GetUpdatesChan(updateConfig)
	defer botAPI.StopReceivingUpdates()

	var wg sync.WaitGroup
	defer wg.Wait()

	logrus.Info("Polling for updates")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Stopping update polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram update channel closed")
			}
			wg.Add(1)
			go func(update tgbotapi.Update) {
				defer wg.Done()
				telegram.Dispatch(context.WithoutCancel(ctx), bot, update)
			}(update)
		}
	}
}

// runWebhook registers the webhook and serves deliveries until ctx is done.
func (a *App) runWebhook(ctx context.Context) error {
	client, err := a.serviceProvider.Client()
	if err != nil {
		return err
	}
	handler, err := a.serviceProvider.WebhookHandler(ctx)
	if err != nil {
		return err
	}
	path, err := webhookPath(a.config.EnvWebhookURL)
	if err != nil {
		return err
	}
	if err = client.RegisterWebhook(a.config.EnvWebhookURL, a.config.EnvWebhookSecret); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              a.config.EnvWebhookListenAddr,
		Handler:           handler.Router(path),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Infof("Webhook server listening on %s%s", server.Addr, path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logrus.Info("Shutting down webhook server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// runSnapshots saves the file store every interval until ctx is done.
func runSnapshots(ctx context.Context, store *repository.UsersState, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := store.SaveBatchToFile(); err != nil {
				logrus.WithError(err).Error("Error while saving state on ticker")
			}
		}
	}
}

// webhookPath is the route Telegram will POST to, taken from the registered URL.
func webhookPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse webhook url: %w", err)
	}
	if u.Path == "" {
		return "/", nil
	}
	return u.Path, nil
}
