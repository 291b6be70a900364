// Package repository provides the persistent state stores of the relay bot.
// The file store keeps everything in memory and persists snapshots to a JSON file;
// the SQL and Redis stores write through on every call.
package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// snapshot is the on-disk layout of the file store.
type snapshot struct {
	Users    map[int64]*models.UserState    `json:"users"`
	Channels map[int64]models.ChannelOption `json:"channels"`
	Media    *models.MediaChannelConfig     `json:"media,omitempty"`
}

// UsersState manages the bot state in memory and on disk.
type UsersState struct {
	BatchBuffer     map[int64]*models.UserState    // In-memory store of user states by user ID.
	channels        map[int64]models.ChannelOption // Channel options by row ID.
	media           *models.MediaChannelConfig     // nil until first saved.
	storageFilePath string                         // File path for persisting the state, empty for memory only.
	mu              *sync.RWMutex                  // Protects all the maps above.
}

// NewUsersStateMap creates a new UsersState instance with an empty memory buffer.
// Arguments:
//   - envStoragePath: file path where the state is persisted, empty to keep it in memory only.
//
// Returns a pointer to a UsersState.
func NewUsersStateMap(envStoragePath string) *UsersState {
	return &UsersState{
		BatchBuffer:     make(map[int64]*models.UserState),
		channels:        make(map[int64]models.ChannelOption),
		storageFilePath: envStoragePath,
		mu:              &sync.RWMutex{},
	}
}

// GetUserState returns a copy of the stored state or models.ErrUserNotFound.
func (m *UsersState) GetUserState(_ context.Context, userID int64) (*models.UserState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.BatchBuffer[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return state.Clone(), nil
}

// SaveUserState inserts or replaces the state of state.UserID.
func (m *UsersState) SaveUserState(_ context.Context, state *models.UserState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := state.Clone()
	stored.UpdatedAt = time.Now().UTC()
	m.BatchBuffer[state.UserID] = stored
	return nil
}

// ListUserIDs returns every known user ID in ascending order.
func (m *UsersState) ListUserIDs(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.BatchBuffer))
	for id := range m.BatchBuffer {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ListChannelOptions returns the options ordered by row and position.
func (m *UsersState) ListChannelOptions(_ context.Context) ([]models.ChannelOption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	options := make([]models.ChannelOption, 0, len(m.channels))
	for _, opt := range m.channels {
		options = append(options, opt)
	}
	models.SortChannelOptions(options)
	return options, nil
}

// GetChannelOption returns the option with the given row ID or models.ErrChannelNotFound.
func (m *UsersState) GetChannelOption(_ context.Context, id int64) (models.ChannelOption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opt, ok := m.channels[id]
	if !ok {
		return models.ChannelOption{}, models.ErrChannelNotFound
	}
	return opt, nil
}

// UpdateChannelOption overwrites an existing option.
func (m *UsersState) UpdateChannelOption(_ context.Context, opt models.ChannelOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.channels[opt.ID]; !ok {
		return models.ErrChannelNotFound
	}
	m.channels[opt.ID] = opt
	return nil
}

// SeedChannelOptions stores options only when none exist yet.
func (m *UsersState) SeedChannelOptions(_ context.Context, options []models.ChannelOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.channels) > 0 {
		return nil
	}
	for _, opt := range options {
		m.channels[opt.ID] = opt
	}
	logrus.Infof("Seeded %d channel options", len(options))
	return nil
}

// GetMediaConfig returns the media channel config or models.ErrMediaConfigNotFound.
func (m *UsersState) GetMediaConfig(_ context.Context) (models.MediaChannelConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.media == nil {
		return models.MediaChannelConfig{}, models.ErrMediaConfigNotFound
	}
	return *m.media, nil
}

// SaveMediaConfig replaces the media channel config.
func (m *UsersState) SaveMediaConfig(_ context.Context, cfg models.MediaChannelConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.media = &cfg
	return nil
}

// ReadFileToMemory loads the snapshot file into memory. A missing or empty file leaves the store empty.
func (m *UsersState) ReadFileToMemory() error {
	if m.storageFilePath == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.storageFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("Storage file %s does not exist, starting with empty buffer", m.storageFilePath)
			return nil
		}
		err = fmt.Errorf("failed to read storage file %s: %w", m.storageFilePath, err)
		logrus.WithError(err).Error("Error reading storage file")
		return err
	}

	if len(data) == 0 {
		logrus.Infof("Storage file %s is empty, starting with empty buffer", m.storageFilePath)
		return nil
	}

	var snap snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		err = fmt.Errorf("failed to unmarshal storage file %s: %w", m.storageFilePath, err)
		logrus.WithError(err).Error("Error parsing storage file")
		return err
	}

	if snap.Users != nil {
		m.BatchBuffer = snap.Users
	}
	if snap.Channels != nil {
		m.channels = snap.Channels
	}
	m.media = snap.Media
	logrus.Infof("Loaded %d user states and %d channel options from %s", len(m.BatchBuffer), len(m.channels), m.storageFilePath)
	return nil
}

// SaveBatchToFile persists the in-memory state to the storage file through a temp file and rename.
func (m *UsersState) SaveBatchToFile() error {
	if m.storageFilePath == "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	startTime := time.Now()

	tempPath := m.storageFilePath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		err = fmt.Errorf("failed to open temp file %s: %w", tempPath, err)
		logrus.WithError(err).Error("Error saving batch to file")
		return err
	}

	writer := bufio.NewWriter(file)
	snap := snapshot{Users: m.BatchBuffer, Channels: m.channels, Media: m.media}
	if err = json.NewEncoder(writer).Encode(snap); err != nil {
		_ = file.Close()
		err = fmt.Errorf("failed to encode batch to temp file %s: %w", tempPath, err)
		logrus.WithError(err).Error("Error encoding batch")
		return err
	}
	if err = writer.Flush(); err != nil {
		_ = file.Close()
		err = fmt.Errorf("failed to flush temp file %s: %w", tempPath, err)
		logrus.WithError(err).Error("Error flushing batch")
		return err
	}
	if err = file.Close(); err != nil {
		err = fmt.Errorf("failed to close temp file %s: %w", tempPath, err)
		logrus.WithError(err).Error("Error closing batch file")
		return err
	}

	if err = os.Rename(tempPath, m.storageFilePath); err != nil {
		err = fmt.Errorf("failed to rename temp file %s to %s: %w", tempPath, m.storageFilePath, err)
		logrus.WithError(err).Error("Error finalizing batch save")
		return err
	}

	logrus.Infof("Saved %d user states to %s in %v", len(m.BatchBuffer), m.storageFilePath, time.Since(startTime))
	return nil
}

// Close flushes the snapshot.
func (m *UsersState) Close() error {
	return m.SaveBatchToFile()
}
