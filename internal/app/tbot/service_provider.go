// Package tbot wires the relay bot together: configuration, the Telegram client, the state
// store and the update loop.
package tbot

import (
	"context"
	"fmt"
	"sync"

	botHand "github.com/DenisKhanov/RelayBOT/internal/tg_bot/api/http"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/api/telegram"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/config"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/repository"
	botServ "github.com/DenisKhanov/RelayBOT/internal/tg_bot/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Store is a state repository the app can seed and close.
type Store interface {
	botServ.StateRepository
	SeedChannelOptions(ctx context.Context, options []models.ChannelOption) error
	Close() error
}

// ServiceProvider builds every bot component once and hands out the same instance afterwards.
type ServiceProvider struct {
	cfg *config.Config

	botAPI     *tgbotapi.BotAPI
	client     *telegram.Client
	store      Store
	botService *botServ.RelayBotServices
	webhook    *botHand.Handler

	botAPIOnce     sync.Once
	clientOnce     sync.Once
	storeOnce      sync.Once
	botServiceOnce sync.Once
	webhookOnce    sync.Once

	botAPIErr error
	storeErr  error
}

// NewServiceProvider creates a provider for the given configuration.
func NewServiceProvider(cfg *config.Config) *ServiceProvider {
	return &ServiceProvider{cfg: cfg}
}

// BotAPI returns the Telegram Bot API instance.
func (s *ServiceProvider) BotAPI() (*tgbotapi.BotAPI, error) {
	s.botAPIOnce.Do(func() {
		if err := tgbotapi.SetLogger(logrus.StandardLogger()); err != nil {
			logrus.WithError(err).Warn("Failed to route bot API logs through logrus")
		}
		s.botAPI, s.botAPIErr = tgbotapi.NewBotAPI(s.cfg.EnvBotToken)
		if s.botAPIErr != nil {
			s.botAPIErr = fmt.Errorf("create bot API: %w", s.botAPIErr)
			return
		}
		s.botAPI.Debug = s.cfg.EnvBotDebug
		logrus.Infof("BotAPI initialized for @%s", s.botAPI.Self.UserName)
	})
	return s.botAPI, s.botAPIErr
}

// Client returns the messenger built on top of the bot API.
func (s *ServiceProvider) Client() (*telegram.Client, error) {
	botAPI, err := s.BotAPI()
	if err != nil {
		return nil, err
	}
	s.clientOnce.Do(func() {
		s.client = telegram.NewClient(botAPI)
		logrus.Info("Telegram client initialized")
	})
	return s.client, nil
}

// Store returns the configured state store, seeded with the channel options.
func (s *ServiceProvider) Store(ctx context.Context) (Store, error) {
	s.storeOnce.Do(func() {
		store, err := openStore(ctx, s.cfg)
		if err != nil {
			s.storeErr = err
			return
		}
		options, err := repository.LoadChannelSeed(s.cfg.EnvChannelsSeedFile)
		if err == nil {
			err = store.SeedChannelOptions(ctx, options)
		}
		if err != nil {
			_ = store.Close()
			s.storeErr = fmt.Errorf("seed channel options: %w", err)
			return
		}
		s.store = store
		logrus.Infof("%s store initialized", s.cfg.EnvStorageBackend)
	})
	return s.store, s.storeErr
}

// BotService returns the relay bot service.
func (s *ServiceProvider) BotService(ctx context.Context) (*botServ.RelayBotServices, error) {
	client, err := s.Client()
	if err != nil {
		return nil, err
	}
	store, err := s.Store(ctx)
	if err != nil {
		return nil, err
	}
	s.botServiceOnce.Do(func() {
		s.botService = botServ.NewRelayBot(client, store, s.cfg.AdminSet(), s.cfg.EnvStartCommand)
		logrus.Infof("BotService initialized with %d admins", len(s.cfg.AdminSet()))
	})
	return s.botService, nil
}

// WebhookHandler returns the HTTP handler that receives webhook deliveries.
func (s *ServiceProvider) WebhookHandler(ctx context.Context) (*botHand.Handler, error) {
	bot, err := s.BotService(ctx)
	if err != nil {
		return nil, err
	}
	s.webhookOnce.Do(func() {
		s.webhook = botHand.NewHandler(bot, s.cfg.EnvWebhookSecret)
		logrus.Info("Webhook handler initialized")
	})
	return s.webhook, nil
}

// openStore connects the backend selected by STORAGE_BACKEND.
func openStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.EnvStorageBackend {
	case config.StorageFile:
		store := repository.NewUsersStateMap(cfg.EnvStoragePath)
		if err := store.ReadFileToMemory(); err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageMySQL, config.StoragePostgres:
		store, err := repository.OpenSQL(ctx, repository.Dialect(cfg.EnvStorageBackend), cfg.EnvDatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err = store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case config.StorageRedis:
		store, err := repository.OpenRedis(ctx, cfg.EnvRedisAddr, cfg.EnvRedisPassword, cfg.EnvRedisDB)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.EnvStorageBackend)
	}
}
