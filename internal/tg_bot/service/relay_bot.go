// Package service implements the relay bot: the per-user conversation state machine,
// content relay to destination channels, broadcast fan-out and the pinned setup panel.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// Messenger delivers messages to the messaging platform.
type Messenger interface {
	Send(ctx context.Context, out models.Outbound) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, keyboard models.Keyboard) error
	Pin(ctx context.Context, chatID int64, messageID int) error
	Unpin(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// StateRepository persists user states, channel options and the media channel config.
type StateRepository interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SaveUserState(ctx context.Context, state *models.UserState) error
	ListUserIDs(ctx context.Context) ([]int64, error)
	ListChannelOptions(ctx context.Context) ([]models.ChannelOption, error)
	GetChannelOption(ctx context.Context, id int64) (models.ChannelOption, error)
	UpdateChannelOption(ctx context.Context, opt models.ChannelOption) error
	GetMediaConfig(ctx context.Context) (models.MediaChannelConfig, error)
	SaveMediaConfig(ctx context.Context, cfg models.MediaChannelConfig) error
}

// RelayBotServices handles inbound messages and callbacks. It keeps no per-event state,
// everything durable lives in the repository.
type RelayBotServices struct {
	Messenger    Messenger          // Outbound platform calls
	Repo         StateRepository    // Users, channel options and media config
	admins       map[int64]struct{} // Telegram IDs with admin rights
	startCommand string             // Text that always opens the menu
}

// NewRelayBot creates the service.
// Arguments:
//   - messenger: platform client used for every outbound call.
//   - repo: state store.
//   - admins: set of administrator IDs, resolved once from configuration.
//   - startCommand: command that opens the menu, "/start" when empty.
func NewRelayBot(messenger Messenger, repo StateRepository, admins map[int64]struct{}, startCommand string) *RelayBotServices {
	if startCommand == "" {
		startCommand = constant.DEFAULT_START_COMMAND
	}
	if admins == nil {
		admins = map[int64]struct{}{}
	}
	return &RelayBotServices{
		Messenger:    messenger,
		Repo:         repo,
		admins:       admins,
		startCommand: startCommand,
	}
}

// HandleMessage processes one inbound message. It never panics and never returns an error:
// failures are logged and reported to the sender.
func (b *RelayBotServices) HandleMessage(ctx context.Context, msg models.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"userID": msg.Sender.ID,
				"panic":  r,
			}).Errorf("Recovered while handling message: %s", debug.Stack())
			b.notify(ctx, b.replyChat(msg.ChatID, msg.Sender.ID), noticeFor(nil))
		}
	}()

	if msg.Sender.IsBot || msg.IsPinnedNotice {
		return
	}
	if err := b.handleMessage(ctx, msg); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"userID": msg.Sender.ID,
			"kind":   msg.Kind.String(),
		}).Error("Failed to handle message")
		b.notify(ctx, b.replyChat(msg.ChatID, msg.Sender.ID), noticeFor(err))
	}
}

func (b *RelayBotServices) handleMessage(ctx context.Context, msg models.InboundMessage) error {
	state, err := b.loadState(ctx, msg.Sender.ID)
	if err != nil {
		return err
	}
	chatID := b.replyChat(msg.ChatID, msg.Sender.ID)

	if b.isEffectiveAdmin(state) && state.Editing.Kind == models.EditingBroadcast {
		return b.broadcast(ctx, state, msg, chatID)
	}
	if b.isStartCommand(msg) {
		return b.showStartMenu(ctx, state, chatID)
	}
	switch state.Editing.Kind {
	case models.EditingMediaChannel:
		return b.applyMediaChannel(ctx, state, msg, chatID)
	case models.EditingChannelOption:
		optionID, _ := state.Editing.ChannelOption()
		return b.applyChannelOption(ctx, state, optionID, msg, chatID)
	}
	if state.IsConfigured() {
		return b.relay(ctx, state, msg, chatID)
	}
	return b.showStartMenu(ctx, state, chatID)
}

// applyMediaChannel stores the media channel ID sent by an admin.
func (b *RelayBotServices) applyMediaChannel(ctx context.Context, state *models.UserState, msg models.InboundMessage, chatID int64) error {
	channelID := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(channelID, constant.MEDIA_CHANNEL_PREFIX) || len(channelID) < constant.MEDIA_CHANNEL_MIN_LEN {
		return newUserError(ErrValidation, constant.EMOJI_CROSS_MARK+
			" Invalid channel ID. It must start with -100, for example -1001234567890.", nil)
	}

	cfg, err := b.mediaConfig(ctx)
	if err != nil {
		return err
	}
	cfg.ChannelID = channelID
	if err = b.Repo.SaveMediaConfig(ctx, cfg); err != nil {
		return storeError("save media config", err)
	}

	state.Editing = models.NoEditing()
	if err = b.saveState(ctx, state); err != nil {
		return err
	}
	logrus.WithField("channelID", channelID).Info("Media channel updated")

	b.notify(ctx, chatID, fmt.Sprintf("%s Media channel set: %s", constant.EMOJI_CHECK_MARK, channelID))
	return b.sendMediaSettings(ctx, chatID, cfg)
}

// applyChannelOption rewrites a channel option from "<name> <channelId...>".
func (b *RelayBotServices) applyChannelOption(ctx context.Context, state *models.UserState, optionID int64, msg models.InboundMessage, chatID int64) error {
	fields := strings.Fields(msg.Text)
	if len(fields) < 2 {
		return newUserError(ErrValidation, constant.EMOJI_CROSS_MARK+
			" Invalid format. Send: <name> <channel ID>, for example: News -1001234567890", nil)
	}

	opt, err := b.Repo.GetChannelOption(ctx, optionID)
	if errors.Is(err, models.ErrChannelNotFound) {
		state.Editing = models.NoEditing()
		if err = b.saveState(ctx, state); err != nil {
			return err
		}
		return newUserError(ErrValidation, constant.EMOJI_CROSS_MARK+" This channel no longer exists.", nil)
	}
	if err != nil {
		return storeError("get channel option", err)
	}

	opt.Name = fields[0]
	opt.ChannelID = strings.Join(fields[1:], " ")
	if err = b.Repo.UpdateChannelOption(ctx, opt); err != nil {
		return storeError("update channel option", err)
	}

	state.Editing = models.NoEditing()
	if err = b.saveState(ctx, state); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"optionID": opt.ID, "channelID": opt.ChannelID}).Info("Channel option updated")

	b.notify(ctx, chatID, fmt.Sprintf("%s Channel updated: %s → %s", constant.EMOJI_CHECK_MARK, opt.Name, opt.ChannelID))
	return b.sendManagementPanel(ctx, chatID)
}

func (b *RelayBotServices) isStartCommand(msg models.InboundMessage) bool {
	if msg.Kind != models.KindText {
		return false
	}
	return strings.TrimSpace(msg.Text) == b.startCommand
}

func (b *RelayBotServices) isAdmin(userID int64) bool {
	_, ok := b.admins[userID]
	return ok
}

// isEffectiveAdmin reports whether the user acts as an admin right now.
func (b *RelayBotServices) isEffectiveAdmin(state *models.UserState) bool {
	return b.isAdmin(state.UserID) && !state.UserModeOverride
}

// loadState returns the user's state, creating it on first contact.
func (b *RelayBotServices) loadState(ctx context.Context, userID int64) (*models.UserState, error) {
	state, err := b.Repo.GetUserState(ctx, userID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, storeError("get user state", err)
	}

	state = models.NewUserState(userID)
	if err = b.saveState(ctx, state); err != nil {
		return nil, err
	}
	logrus.WithField("userID", userID).Info("New user registered")
	return state, nil
}

func (b *RelayBotServices) saveState(ctx context.Context, state *models.UserState) error {
	if err := b.Repo.SaveUserState(ctx, state); err != nil {
		return storeError("save user state", err)
	}
	return nil
}

// mediaConfig returns the stored media config or the default one when none exists.
func (b *RelayBotServices) mediaConfig(ctx context.Context) (models.MediaChannelConfig, error) {
	cfg, err := b.Repo.GetMediaConfig(ctx)
	if errors.Is(err, models.ErrMediaConfigNotFound) {
		return models.DefaultMediaChannelConfig(), nil
	}
	if err != nil {
		return models.MediaChannelConfig{}, storeError("get media config", err)
	}
	return cfg, nil
}

// sendText sends a plain text message with an optional inline keyboard.
func (b *RelayBotServices) sendText(ctx context.Context, chatID int64, text string, keyboard models.Keyboard) (int, error) {
	id, err := b.Messenger.Send(ctx, models.Outbound{
		Kind:        models.KindText,
		Destination: strconv.FormatInt(chatID, 10),
		Text:        text,
		Keyboard:    keyboard,
	})
	if err != nil {
		return 0, newUserError(ErrUpstreamDelivery, "", err)
	}
	return id, nil
}

// notify sends a best-effort notice; a failure is only logged.
func (b *RelayBotServices) notify(ctx context.Context, chatID int64, text string) {
	if _, err := b.sendText(ctx, chatID, text, nil); err != nil {
		logrus.WithError(err).WithField("chatID", chatID).Warn("Failed to send notice")
	}
}

// replyChat returns the chat to answer in; private chats share the user's ID.
func (b *RelayBotServices) replyChat(chatID, userID int64) int64 {
	if chatID != 0 {
		return chatID
	}
	return userID
}
