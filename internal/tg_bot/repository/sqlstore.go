package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // postgres driver
	"github.com/sirupsen/logrus"
)

// Dialect is the SQL flavour the store talks.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

const userColumns = "user_id, user_mode_override, editing_kind, editing_option_id, selected_channel, anonymous, pinned_chat_id, pinned_message_id, updated_at"

// SQLStore keeps the bot state in MySQL or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQL connects to the database and checks the connection.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	driver := "postgres"
	if dialect == DialectMySQL {
		driver = "mysql"
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return NewSQLStore(db, dialect), nil
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	boolType, autoID := "BOOLEAN", "BIGINT AUTO_INCREMENT"
	if s.dialect == DialectPostgres {
		autoID = "BIGSERIAL"
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_states (
			user_id BIGINT PRIMARY KEY,
			user_mode_override ` + boolType + ` NOT NULL DEFAULT FALSE,
			editing_kind VARCHAR(32) NOT NULL DEFAULT '',
			editing_option_id BIGINT NOT NULL DEFAULT 0,
			selected_channel VARCHAR(255) NOT NULL DEFAULT '',
			anonymous ` + boolType + ` NULL,
			pinned_chat_id BIGINT NULL,
			pinned_message_id BIGINT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS channel_options (
			id ` + autoID + ` PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			channel_id VARCHAR(255) NOT NULL,
			row_index INT NOT NULL DEFAULT 0,
			position_index INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS media_channel_config (
			id INT PRIMARY KEY,
			channel_id VARCHAR(255) NOT NULL DEFAULT '',
			spoiler_enabled ` + boolType + ` NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	logrus.Infof("%s schema is up to date", s.dialect)
	return nil
}

// GetUserState returns the stored state or models.ErrUserNotFound.
func (s *SQLStore) GetUserState(ctx context.Context, userID int64) (*models.UserState, error) {
	query := s.rebind("SELECT " + userColumns + " FROM user_states WHERE user_id = ?")

	var (
		state         models.UserState
		editingKind   string
		anonymous     sql.NullBool
		pinnedChatID  sql.NullInt64
		pinnedMessage sql.NullInt64
		updatedAt     sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&state.UserID,
		&state.UserModeOverride,
		&editingKind,
		&state.Editing.OptionID,
		&state.SelectedChannel,
		&anonymous,
		&pinnedChatID,
		&pinnedMessage,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}

	state.Editing.Kind = models.EditingKind(editingKind)
	if anonymous.Valid {
		state.SetAnonymous(anonymous.Bool)
	}
	if pinnedChatID.Valid && pinnedMessage.Valid {
		state.PinnedMessage = &models.PinnedMessageRef{ChatID: pinnedChatID.Int64, MessageID: int(pinnedMessage.Int64)}
	}
	state.UpdatedAt = updatedAt.Time
	return &state, nil
}

// SaveUserState upserts the state keyed by user ID.
func (s *SQLStore) SaveUserState(ctx context.Context, state *models.UserState) error {
	var (
		anonymous     sql.NullBool
		pinnedChatID  sql.NullInt64
		pinnedMessage sql.NullInt64
	)
	if state.Anonymous != nil {
		anonymous = sql.NullBool{Bool: *state.Anonymous, Valid: true}
	}
	if state.PinnedMessage != nil {
		pinnedChatID = sql.NullInt64{Int64: state.PinnedMessage.ChatID, Valid: true}
		pinnedMessage = sql.NullInt64{Int64: int64(state.PinnedMessage.MessageID), Valid: true}
	}

	query := s.upsert("user_states", "user_id", strings.Split(userColumns, ", "))
	_, err := s.db.ExecContext(ctx, query,
		state.UserID,
		state.UserModeOverride,
		string(state.Editing.Kind),
		state.Editing.OptionID,
		state.SelectedChannel,
		anonymous,
		pinnedChatID,
		pinnedMessage,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save user %d: %w", state.UserID, err)
	}
	return nil
}

// ListUserIDs returns every known user ID in ascending order.
func (s *SQLStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id FROM user_states ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListChannelOptions returns the options ordered by row and position.
func (s *SQLStore) ListChannelOptions(ctx context.Context) ([]models.ChannelOption, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, channel_id, row_index, position_index FROM channel_options ORDER BY row_index, position_index, id")
	if err != nil {
		return nil, fmt.Errorf("list channel options: %w", err)
	}
	defer rows.Close()

	var options []models.ChannelOption
	for rows.Next() {
		var opt models.ChannelOption
		if err = rows.Scan(&opt.ID, &opt.Name, &opt.ChannelID, &opt.RowNumber, &opt.Position); err != nil {
			return nil, fmt.Errorf("scan channel option: %w", err)
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

// GetChannelOption returns the option with the given row ID or models.ErrChannelNotFound.
func (s *SQLStore) GetChannelOption(ctx context.Context, id int64) (models.ChannelOption, error) {
	query := s.rebind("SELECT id, name, channel_id, row_index, position_index FROM channel_options WHERE id = ?")

	var opt models.ChannelOption
	err := s.db.QueryRowContext(ctx, query, id).Scan(&opt.ID, &opt.Name, &opt.ChannelID, &opt.RowNumber, &opt.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChannelOption{}, models.ErrChannelNotFound
	}
	if err != nil {
		return models.ChannelOption{}, fmt.Errorf("get channel option %d: %w", id, err)
	}
	return opt, nil
}

// UpdateChannelOption overwrites an existing option.
func (s *SQLStore) UpdateChannelOption(ctx context.Context, opt models.ChannelOption) error {
	query := s.rebind("UPDATE channel_options SET name = ?, channel_id = ?, row_index = ?, position_index = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, opt.Name, opt.ChannelID, opt.RowNumber, opt.Position, opt.ID)
	if err != nil {
		return fmt.Errorf("update channel option %d: %w", opt.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update channel option %d: %w", opt.ID, err)
	}
	if affected == 0 {
		// MySQL reports 0 for an unchanged row, so tell "missing" apart from "same values".
		if _, err = s.GetChannelOption(ctx, opt.ID); err != nil {
			return err
		}
	}
	return nil
}

// SeedChannelOptions inserts options in one transaction when the table is empty.
func (s *SQLStore) SeedChannelOptions(ctx context.Context, options []models.ChannelOption) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM channel_options").Scan(&count); err != nil {
		return fmt.Errorf("count channel options: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := s.rebind("INSERT INTO channel_options (id, name, channel_id, row_index, position_index) VALUES (?, ?, ?, ?, ?)")
	for _, opt := range options {
		if _, err = tx.ExecContext(ctx, query, opt.ID, opt.Name, opt.ChannelID, opt.RowNumber, opt.Position); err != nil {
			return fmt.Errorf("seed channel option %d: %w", opt.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	logrus.Infof("Seeded %d channel options", len(options))
	return nil
}

// GetMediaConfig returns the media channel config or models.ErrMediaConfigNotFound.
func (s *SQLStore) GetMediaConfig(ctx context.Context) (models.MediaChannelConfig, error) {
	query := s.rebind("SELECT channel_id, spoiler_enabled FROM media_channel_config WHERE id = ?")

	var cfg models.MediaChannelConfig
	err := s.db.QueryRowContext(ctx, query, models.MediaConfigID).Scan(&cfg.ChannelID, &cfg.SpoilerEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MediaChannelConfig{}, models.ErrMediaConfigNotFound
	}
	if err != nil {
		return models.MediaChannelConfig{}, fmt.Errorf("get media config: %w", err)
	}
	return cfg, nil
}

// SaveMediaConfig upserts the media channel config row.
func (s *SQLStore) SaveMediaConfig(ctx context.Context, cfg models.MediaChannelConfig) error {
	query := s.upsert("media_channel_config", "id", []string{"id", "channel_id", "spoiler_enabled", "updated_at"})
	if _, err := s.db.ExecContext(ctx, query, models.MediaConfigID, cfg.ChannelID, cfg.SpoilerEnabled, time.Now().UTC()); err != nil {
		return fmt.Errorf("save media config: %w", err)
	}
	return nil
}

// rebind turns ? placeholders into $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// upsert builds an insert-or-update statement keyed by key.
func (s *SQLStore) upsert(table, key string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)

	updates := make([]string, 0, len(columns)-1)
	for _, col := range columns {
		if col == key {
			continue
		}
		if s.dialect == DialectPostgres {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		} else {
			updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", col, col))
		}
	}

	if s.dialect == DialectPostgres {
		return s.rebind(fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s", insert, key, strings.Join(updates, ", ")))
	}
	return fmt.Sprintf("%s ON DUPLICATE KEY UPDATE %s", insert, strings.Join(updates, ", "))
}
