package tbot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/config"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookPath(t *testing.T) {
	cases := map[string]string{
		"https://bot.example.com/tg/hook": "/tg/hook",
		"https://bot.example.com":         "/",
		"https://bot.example.com/":        "/",
	}
	for raw, want := range cases {
		got, err := webhookPath(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := webhookPath("://broken")
	assert.Error(t, err)
}

func TestStoreSeedsFileBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	provider := NewServiceProvider(&config.Config{EnvStorageBackend: config.StorageFile, EnvStoragePath: path})

	store, err := provider.Store(ctx)
	require.NoError(t, err)
	options, err := store.ListChannelOptions(ctx)
	require.NoError(t, err)
	assert.Len(t, options, len(models.DefaultChannelOptions()))

	again, err := provider.Store(ctx)
	require.NoError(t, err)
	assert.Same(t, store, again)

	require.NoError(t, store.SaveUserState(ctx, models.NewUserState(42)))
	require.NoError(t, store.Close())
	_, err = os.Stat(path)
	assert.NoError(t, err)

	reopened, err := openStore(ctx, &config.Config{EnvStorageBackend: config.StorageFile, EnvStoragePath: path})
	require.NoError(t, err)
	_, err = reopened.GetUserState(ctx, 42)
	assert.NoError(t, err)
}

func TestStoreUsesSeedFile(t *testing.T) {
	ctx := context.Background()
	seed := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("channels:\n  - name: News\n    channel_id: \"@news\"\n    row: 1\n"), 0o600))
	provider := NewServiceProvider(&config.Config{EnvStorageBackend: config.StorageFile, EnvChannelsSeedFile: seed})

	store, err := provider.Store(ctx)
	require.NoError(t, err)
	options, err := store.ListChannelOptions(ctx)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "News", options[0].Name)
	assert.Equal(t, "@news", options[0].ChannelID)
}

func TestStoreFailsOnBrokenSeed(t *testing.T) {
	provider := NewServiceProvider(&config.Config{
		EnvStorageBackend:   config.StorageFile,
		EnvChannelsSeedFile: filepath.Join(t.TempDir(), "missing.yaml"),
	})

	_, err := provider.Store(context.Background())
	assert.Error(t, err)
}

func TestOpenStoreRedis(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)

	store, err := openStore(ctx, &config.Config{EnvStorageBackend: config.StorageRedis, EnvRedisAddr: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	assert.IsType(t, &repository.RedisStore{}, store)

	require.NoError(t, store.SaveMediaConfig(ctx, models.MediaChannelConfig{ChannelID: "-1001234567890"}))
	cfg, err := store.GetMediaConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "-1001234567890", cfg.ChannelID)
}

func TestOpenStoreErrors(t *testing.T) {
	ctx := context.Background()

	_, err := openStore(ctx, &config.Config{EnvStorageBackend: "sqlite"})
	assert.ErrorContains(t, err, "unknown storage backend")

	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()
	_, err = openStore(ctx, &config.Config{EnvStorageBackend: config.StorageRedis, EnvRedisAddr: addr})
	assert.Error(t, err)
}

func TestRunSnapshotsSavesUntilCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := repository.NewUsersStateMap(path)
	require.NoError(t, store.SaveUserState(context.Background(), models.NewUserState(7)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runSnapshots(ctx, store, 10*time.Millisecond) }()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runSnapshots did not stop")
	}
}
