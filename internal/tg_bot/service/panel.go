package service

import (
	"context"
	"fmt"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// finalize turns the message that completed the setup into the user's pinned panel.
// The message is edited in place, the previous panel in the same chat is unpinned, the new
// one is pinned, and its reference is stored even when pinning fails.
func (b *RelayBotServices) finalize(ctx context.Context, state *models.UserState, chatID int64, messageID int) error {
	text, keyboard := b.panelBody(ctx, state)
	if err := b.Messenger.EditText(ctx, chatID, messageID, text, keyboard); err != nil {
		return newUserError(ErrUpstreamDelivery, "", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"userID":    state.UserID,
		"chatID":    chatID,
		"messageID": messageID,
	})
	if prev := state.PinnedMessage; prev != nil && prev.ChatID == chatID && prev.MessageID != messageID {
		if err := b.Messenger.Unpin(ctx, prev.ChatID, prev.MessageID); err != nil {
			log.WithError(err).WithField("previousID", prev.MessageID).Warn("Failed to unpin previous panel")
		}
	}
	if err := b.Messenger.Pin(ctx, chatID, messageID); err != nil {
		log.WithError(err).Warn("Failed to pin panel")
	}

	state.PinnedMessage = &models.PinnedMessageRef{ChatID: chatID, MessageID: messageID}
	return b.saveState(ctx, state)
}

func (b *RelayBotServices) panelBody(ctx context.Context, state *models.UserState) (string, models.Keyboard) {
	text := fmt.Sprintf("%s Setup complete!\n\nChannel: %s\nMode: %s\n\nEverything you send now is posted to this channel.",
		constant.EMOJI_PARTY, b.lookupChannelName(ctx, state.SelectedChannel), modeName(state))

	keyboard := models.Keyboard{
		{button(constant.BUTTON_TEXT_RESTART_SETUP, constant.BUTTON_CODE_RESTART_SETUP)},
	}
	if b.isAdmin(state.UserID) && state.UserModeOverride {
		keyboard = append(keyboard, []models.Button{button(constant.BUTTON_TEXT_BACK_TO_ADMIN, constant.BUTTON_CODE_BACK_TO_ADMIN)})
	}
	return text, keyboard
}
