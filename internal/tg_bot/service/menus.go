package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
)

func button(text, data string) models.Button {
	return models.Button{Text: text, Data: data}
}

// showStartMenu opens the admin main menu or, for everyone else, the channel selection.
func (b *RelayBotServices) showStartMenu(ctx context.Context, state *models.UserState, chatID int64) error {
	if b.isEffectiveAdmin(state) {
		return b.sendAdminMenu(ctx, chatID)
	}
	return b.sendSelectionMenu(ctx, state, chatID)
}

func (b *RelayBotServices) sendAdminMenu(ctx context.Context, chatID int64) error {
	keyboard := models.Keyboard{
		{button(constant.BUTTON_TEXT_USER_MODE, constant.BUTTON_CODE_USER_MODE)},
		{button(constant.BUTTON_TEXT_BROADCAST_MODE, constant.BUTTON_CODE_BROADCAST_MODE)},
		{button(constant.BUTTON_TEXT_ADMIN_PANEL, constant.BUTTON_CODE_ADMIN_PANEL)},
	}
	_, err := b.sendText(ctx, chatID, constant.EMOJI_CROWN+" Admin mode. Choose an action:", keyboard)
	return err
}

func (b *RelayBotServices) sendSelectionMenu(ctx context.Context, state *models.UserState, chatID int64) error {
	text, keyboard, err := b.selectionMenu(ctx, state)
	if err != nil {
		return err
	}
	_, err = b.sendText(ctx, chatID, text, keyboard)
	return err
}

// selectionMenu renders the channel list grouped by row, followed by the anonymity choice.
func (b *RelayBotServices) selectionMenu(ctx context.Context, state *models.UserState) (string, models.Keyboard, error) {
	options, err := b.Repo.ListChannelOptions(ctx)
	if err != nil {
		return "", nil, storeError("list channel options", err)
	}

	var keyboard models.Keyboard
	for _, row := range models.GroupChannelRows(options) {
		buttons := make([]models.Button, 0, len(row))
		for _, opt := range row {
			mark := constant.EMOJI_WHITE_CIRCLE
			if opt.ChannelID == state.SelectedChannel {
				mark = constant.EMOJI_CHECK_MARK
			}
			buttons = append(buttons, button(mark+" "+opt.Name, constant.BUTTON_CODE_SELECT_CHANNEL_PREFIX+opt.ChannelID))
		}
		keyboard = append(keyboard, buttons)
	}

	anonymousText, publicText := constant.BUTTON_TEXT_ANONYMOUS, constant.BUTTON_TEXT_PUBLIC
	if state.Anonymous != nil {
		if *state.Anonymous {
			anonymousText = constant.EMOJI_CHECK_MARK + " " + anonymousText
		} else {
			publicText = constant.EMOJI_CHECK_MARK + " " + publicText
		}
	}
	keyboard = append(keyboard, []models.Button{
		button(anonymousText, constant.BUTTON_CODE_SET_ANONYMOUS),
		button(publicText, constant.BUTTON_CODE_SET_PUBLIC),
	})

	channel := "not selected"
	if state.SelectedChannel != "" {
		channel = channelName(options, state.SelectedChannel)
	}
	text := fmt.Sprintf("Choose a channel and a posting mode.\n\nChannel: %s\nMode: %s", channel, modeName(state))
	return text, keyboard, nil
}

// sendManagementPanel lists the channel options with their edit buttons.
func (b *RelayBotServices) sendManagementPanel(ctx context.Context, chatID int64) error {
	options, err := b.Repo.ListChannelOptions(ctx)
	if err != nil {
		return storeError("list channel options", err)
	}

	var sb strings.Builder
	sb.WriteString(constant.EMOJI_GEAR + " Admin panel\n\nChannels:\n")
	for i, opt := range options {
		fmt.Fprintf(&sb, "%d. %s → %s\n", i+1, opt.Name, opt.ChannelID)
	}
	sb.WriteString("\nPress a channel to rename it or change its destination.")

	var keyboard models.Keyboard
	for _, row := range models.GroupChannelRows(options) {
		buttons := make([]models.Button, 0, len(row))
		for _, opt := range row {
			buttons = append(buttons, button(constant.EMOJI_PENCIL+" "+opt.Name,
				constant.BUTTON_CODE_EDIT_CHANNEL_PREFIX+strconv.FormatInt(opt.ID, 10)))
		}
		keyboard = append(keyboard, buttons)
	}
	keyboard = append(keyboard, []models.Button{
		button(constant.BUTTON_TEXT_MEDIA_SETTINGS, constant.BUTTON_CODE_MEDIA_SETTINGS),
		button(constant.BUTTON_TEXT_BACK_TO_MAIN, constant.BUTTON_CODE_BACK_TO_MAIN),
	})

	_, err = b.sendText(ctx, chatID, sb.String(), keyboard)
	return err
}

func (b *RelayBotServices) sendMediaSettings(ctx context.Context, chatID int64, cfg models.MediaChannelConfig) error {
	toggle := constant.BUTTON_TEXT_SPOILER_ON
	if cfg.SpoilerEnabled {
		toggle = constant.BUTTON_TEXT_SPOILER_OFF
	}
	keyboard := models.Keyboard{
		{button(constant.BUTTON_TEXT_SET_MEDIA_CHANNEL, constant.BUTTON_CODE_SET_MEDIA_CHANNEL)},
		{button(toggle, constant.BUTTON_CODE_TOGGLE_SPOILER)},
		{button(constant.BUTTON_TEXT_VIEW_MEDIA_CHANNEL, constant.BUTTON_CODE_VIEW_MEDIA_CHANNEL)},
		{button(constant.BUTTON_TEXT_BACK_TO_PANEL, constant.BUTTON_CODE_ADMIN_PANEL)},
	}
	text := constant.EMOJI_CLAPPER + " Media settings\n\nPhotos, videos and video notes are posted to the media channel.\n\n" +
		mediaSummary(cfg)
	_, err := b.sendText(ctx, chatID, text, keyboard)
	return err
}

func mediaSummary(cfg models.MediaChannelConfig) string {
	channel := "not set"
	if cfg.IsConfigured() {
		channel = cfg.ChannelID
	}
	spoiler := "disabled"
	if cfg.SpoilerEnabled {
		spoiler = "enabled"
	}
	return fmt.Sprintf("Channel: %s\nSpoiler: %s", channel, spoiler)
}

func modeName(state *models.UserState) string {
	switch {
	case state.Anonymous == nil:
		return "not selected"
	case *state.Anonymous:
		return "anonymous"
	default:
		return "public"
	}
}

// channelName returns the display name of a destination, or the destination itself when
// no option points at it.
func channelName(options []models.ChannelOption, channelID string) string {
	for _, opt := range options {
		if opt.ChannelID == channelID {
			return opt.Name
		}
	}
	return channelID
}

// lookupChannelName is channelName over the stored options; store errors fall back to the ID.
func (b *RelayBotServices) lookupChannelName(ctx context.Context, channelID string) string {
	options, err := b.Repo.ListChannelOptions(ctx)
	if err != nil {
		return channelID
	}
	return channelName(options, channelID)
}
