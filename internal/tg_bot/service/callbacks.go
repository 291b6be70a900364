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

// HandleCallback processes one inline button press. The callback is answered exactly once,
// with a short notice when handling fails.
func (b *RelayBotServices) HandleCallback(ctx context.Context, cb models.CallbackEvent) {
	var notice string
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"userID": cb.Sender.ID,
				"data":   cb.Data,
				"panic":  r,
			}).Errorf("Recovered while handling callback: %s", debug.Stack())
			notice = noticeFor(nil)
		}
		if err := b.Messenger.AnswerCallback(ctx, cb.ID, notice); err != nil {
			logrus.WithError(err).WithField("callbackID", cb.ID).Warn("Failed to answer callback")
		}
	}()

	var err error
	notice, err = b.handleCallback(ctx, cb)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"userID": cb.Sender.ID,
			"data":   cb.Data,
		}).Error("Failed to handle callback")
		notice = noticeFor(err)
	}
}

// handleCallback performs the transition named by the callback data and returns the
// acknowledgement text.
func (b *RelayBotServices) handleCallback(ctx context.Context, cb models.CallbackEvent) (string, error) {
	state, err := b.loadState(ctx, cb.Sender.ID)
	if err != nil {
		return "", err
	}
	chatID := b.replyChat(cb.ChatID, cb.Sender.ID)
	data := cb.Data

	switch {
	case strings.HasPrefix(data, constant.BUTTON_CODE_SELECT_CHANNEL_PREFIX):
		return b.selectChannel(ctx, state, cb, chatID, strings.TrimPrefix(data, constant.BUTTON_CODE_SELECT_CHANNEL_PREFIX))
	case data == constant.BUTTON_CODE_SET_ANONYMOUS || data == constant.BUTTON_CODE_SET_PUBLIC:
		return b.setAnonymous(ctx, state, cb, chatID, data == constant.BUTTON_CODE_SET_ANONYMOUS)
	case data == constant.BUTTON_CODE_RESTART_SETUP:
		return "", b.sendSelectionMenu(ctx, state, chatID)
	case data == constant.BUTTON_CODE_BACK_TO_ADMIN:
		if !b.isAdmin(state.UserID) {
			return "", nil
		}
		state.UserModeOverride = false
		state.Editing = models.NoEditing()
		if err = b.saveState(ctx, state); err != nil {
			return "", err
		}
		return "", b.sendAdminMenu(ctx, chatID)
	}

	if !b.isEffectiveAdmin(state) {
		logrus.WithFields(logrus.Fields{"userID": state.UserID, "data": data}).Debug("Ignoring callback")
		return "", nil
	}
	return b.handleAdminCallback(ctx, state, chatID, data)
}

// handleAdminCallback serves the buttons available in admin mode only.
func (b *RelayBotServices) handleAdminCallback(ctx context.Context, state *models.UserState, chatID int64, data string) (string, error) {
	var err error
	switch {
	case data == constant.BUTTON_CODE_USER_MODE:
		state.UserModeOverride = true
		state.Editing = models.NoEditing()
		if err = b.saveState(ctx, state); err != nil {
			return "", err
		}
		return constant.EMOJI_BUST + " User mode", b.sendSelectionMenu(ctx, state, chatID)

	case data == constant.BUTTON_CODE_BROADCAST_MODE:
		state.Editing = models.BroadcastEditing()
		if err = b.saveState(ctx, state); err != nil {
			return "", err
		}
		_, err = b.sendText(ctx, chatID, constant.EMOJI_LOUDSPEAKER+
			" Send the message to broadcast. It will be copied to every user of the bot.", nil)
		return "", err

	case data == constant.BUTTON_CODE_ADMIN_PANEL:
		return "", b.sendManagementPanel(ctx, chatID)

	case data == constant.BUTTON_CODE_BACK_TO_MAIN:
		if !state.Editing.IsNone() {
			state.Editing = models.NoEditing()
			if err = b.saveState(ctx, state); err != nil {
				return "", err
			}
		}
		return "", b.sendAdminMenu(ctx, chatID)

	case data == constant.BUTTON_CODE_MEDIA_SETTINGS:
		cfg, err := b.mediaConfig(ctx)
		if err != nil {
			return "", err
		}
		return "", b.sendMediaSettings(ctx, chatID, cfg)

	case data == constant.BUTTON_CODE_SET_MEDIA_CHANNEL:
		state.Editing = models.MediaChannelEditing()
		if err = b.saveState(ctx, state); err != nil {
			return "", err
		}
		_, err = b.sendText(ctx, chatID, constant.EMOJI_MEMO+
			" Send the media channel ID. It starts with -100, for example -1001234567890.", nil)
		return "", err

	case data == constant.BUTTON_CODE_VIEW_MEDIA_CHANNEL:
		cfg, err := b.mediaConfig(ctx)
		if err != nil {
			return "", err
		}
		if _, err = b.sendText(ctx, chatID, constant.EMOJI_CLIPBOARD+" Current media settings\n\n"+mediaSummary(cfg), nil); err != nil {
			return "", err
		}
		return "", b.sendMediaSettings(ctx, chatID, cfg)

	case data == constant.BUTTON_CODE_TOGGLE_SPOILER:
		return b.toggleSpoiler(ctx, chatID)

	case strings.HasPrefix(data, constant.BUTTON_CODE_EDIT_CHANNEL_PREFIX):
		return b.startChannelEdit(ctx, state, chatID, strings.TrimPrefix(data, constant.BUTTON_CODE_EDIT_CHANNEL_PREFIX))
	}

	logrus.WithField("data", data).Debug("Unknown callback data")
	return "", nil
}

// selectChannel stores the chosen destination. When the posting mode is already known the
// setup is finalized, otherwise the selection menu is redrawn in place.
func (b *RelayBotServices) selectChannel(ctx context.Context, state *models.UserState, cb models.CallbackEvent, chatID int64, channelID string) (string, error) {
	options, err := b.Repo.ListChannelOptions(ctx)
	if err != nil {
		return "", storeError("list channel options", err)
	}
	known := false
	for _, opt := range options {
		if opt.ChannelID == channelID {
			known = true
			break
		}
	}
	if !known {
		return constant.EMOJI_CROSS_MARK + " Unknown channel", nil
	}

	state.SelectedChannel = channelID
	if err = b.saveState(ctx, state); err != nil {
		return "", err
	}

	if state.Anonymous != nil {
		return "", b.finalize(ctx, state, chatID, cb.MessageID)
	}
	text, keyboard, err := b.selectionMenu(ctx, state)
	if err != nil {
		return "", err
	}
	if err = b.Messenger.EditText(ctx, chatID, cb.MessageID, text, keyboard); err != nil {
		return "", newUserError(ErrUpstreamDelivery, "", err)
	}
	return "", nil
}

// setAnonymous stores the posting mode and finalizes the setup.
func (b *RelayBotServices) setAnonymous(ctx context.Context, state *models.UserState, cb models.CallbackEvent, chatID int64, anonymous bool) (string, error) {
	if state.SelectedChannel == "" {
		return constant.EMOJI_WARNING + " Select a channel first", nil
	}

	state.SetAnonymous(anonymous)
	if err := b.saveState(ctx, state); err != nil {
		return "", err
	}
	return "", b.finalize(ctx, state, chatID, cb.MessageID)
}

// toggleSpoiler flips the spoiler flag of the media channel. A missing config is created
// from the default, so the first toggle disables the spoiler.
func (b *RelayBotServices) toggleSpoiler(ctx context.Context, chatID int64) (string, error) {
	cfg, err := b.mediaConfig(ctx)
	if err != nil {
		return "", err
	}
	cfg.SpoilerEnabled = !cfg.SpoilerEnabled
	if err = b.Repo.SaveMediaConfig(ctx, cfg); err != nil {
		return "", storeError("save media config", err)
	}
	logrus.WithField("spoilerEnabled", cfg.SpoilerEnabled).Info("Media spoiler toggled")

	notice := constant.EMOJI_UNLOCK + " Spoiler disabled"
	if cfg.SpoilerEnabled {
		notice = constant.EMOJI_LOCK + " Spoiler enabled"
	}
	return notice, b.sendMediaSettings(ctx, chatID, cfg)
}

// startChannelEdit asks for the new name and destination of a channel option.
func (b *RelayBotServices) startChannelEdit(ctx context.Context, state *models.UserState, chatID int64, rawID string) (string, error) {
	optionID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return constant.EMOJI_CROSS_MARK + " Unknown channel", nil
	}
	opt, err := b.Repo.GetChannelOption(ctx, optionID)
	if errors.Is(err, models.ErrChannelNotFound) {
		return constant.EMOJI_CROSS_MARK + " Unknown channel", nil
	}
	if err != nil {
		return "", storeError("get channel option", err)
	}

	state.Editing = models.ChannelOptionEditing(opt.ID)
	if err = b.saveState(ctx, state); err != nil {
		return "", err
	}
	prompt := fmt.Sprintf("%s Editing \"%s\" → %s\n\nSend the new name and channel ID separated by a space, for example:\nNews -1001234567890",
		constant.EMOJI_PENCIL, opt.Name, opt.ChannelID)
	_, err = b.sendText(ctx, chatID, prompt, nil)
	return "", err
}
