package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/markup"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

var relayLabels = map[models.ContentKind]string{
	models.KindText:      "Message",
	models.KindVoice:     "Voice message",
	models.KindPhoto:     "Photo",
	models.KindVideo:     "Video",
	models.KindVideoNote: "Video note",
}

// relay posts the content of a configured user to its destination.
func (b *RelayBotServices) relay(ctx context.Context, state *models.UserState, msg models.InboundMessage, chatID int64) error {
	if msg.MediaGroupID != "" {
		logrus.WithFields(logrus.Fields{
			"userID":       state.UserID,
			"mediaGroupID": msg.MediaGroupID,
		}).Debug("Relaying album item on its own")
	}

	switch msg.Kind {
	case models.KindText, models.KindVoice:
		return b.relayToChannel(ctx, state, msg, chatID)
	case models.KindPhoto, models.KindVideo, models.KindVideoNote:
		return b.relayMedia(ctx, state, msg, chatID)
	case models.KindSticker:
		b.notify(ctx, chatID, constant.EMOJI_CROSS_MARK+" Stickers are not supported.")
	default:
		b.notify(ctx, chatID, constant.EMOJI_CROSS_MARK+" This message type is not supported. Send text, voice, photo or video.")
	}
	return nil
}

// relayToChannel sends text and voice messages to the selected channel.
func (b *RelayBotServices) relayToChannel(ctx context.Context, state *models.UserState, msg models.InboundMessage, chatID int64) error {
	body := markup.Reconstruct(msg.Text, msg.Entities)
	if !state.IsAnonymous() {
		body += markup.Bold(markup.Escape(fmt.Sprintf(" — from %s (ID: %d)", displayName(msg.Sender), msg.Sender.ID)))
	}

	name := b.lookupChannelName(ctx, state.SelectedChannel)
	_, err := b.Messenger.Send(ctx, models.Outbound{
		Kind:        msg.Kind,
		Destination: state.SelectedChannel,
		Text:        body,
		ParseMode:   models.ParseHTML,
		FileID:      msg.FileID,
	})
	if err != nil {
		return newUserError(ErrUpstreamDelivery,
			fmt.Sprintf("%s Failed to send to %s.", constant.EMOJI_CROSS_MARK, name), err)
	}

	mode := "anonymously"
	if !state.IsAnonymous() {
		mode = "publicly"
	}
	b.notify(ctx, chatID, fmt.Sprintf("%s %s sent %s to %s!", constant.EMOJI_CHECK_MARK, relayLabels[msg.Kind], mode, name))
	return nil
}

// relayMedia sends photos, videos and video notes to the media channel.
func (b *RelayBotServices) relayMedia(ctx context.Context, state *models.UserState, msg models.InboundMessage, chatID int64) error {
	cfg, err := b.mediaConfig(ctx)
	if err != nil {
		return err
	}
	if !cfg.IsConfigured() {
		return newUserError(ErrConfigurationMissing, constant.EMOJI_CROSS_MARK+
			" The media channel is not configured yet. Please ask an administrator to set it.", nil)
	}

	caption := markup.Reconstruct(msg.Text, msg.Entities)
	if !state.IsAnonymous() {
		name := b.lookupChannelName(ctx, state.SelectedChannel)
		caption += markup.Bold(markup.Escape(fmt.Sprintf(" from %s #%s", displayName(msg.Sender), hashtag(name))))
	}

	_, err = b.Messenger.Send(ctx, models.Outbound{
		Kind:        msg.Kind,
		Destination: cfg.ChannelID,
		Text:        caption,
		ParseMode:   models.ParseHTML,
		FileID:      msg.FileID,
		Spoiler:     cfg.SpoilerEnabled,
	})
	if err != nil {
		return newUserError(ErrUpstreamDelivery,
			fmt.Sprintf("%s Failed to send the %s.", constant.EMOJI_CROSS_MARK, strings.ToLower(relayLabels[msg.Kind])), err)
	}

	notice := fmt.Sprintf("%s %s sent!", constant.EMOJI_CHECK_MARK, relayLabels[msg.Kind])
	if cfg.SpoilerEnabled {
		notice = fmt.Sprintf("%s %s sent with a spoiler!", constant.EMOJI_CHECK_MARK, relayLabels[msg.Kind])
	}
	b.notify(ctx, chatID, notice)
	return nil
}

// displayName prefers @username, then the full name, then a placeholder.
func displayName(s models.Sender) string {
	if s.Username != "" {
		return "@" + s.Username
	}
	if name := strings.TrimSpace(s.FirstName + " " + s.LastName); name != "" {
		return name
	}
	return constant.UNKNOWN_DISPLAY_NAME
}

// hashtag turns a channel name into a single hashtag word.
func hashtag(name string) string {
	return strings.Join(strings.Fields(name), "_")
}
