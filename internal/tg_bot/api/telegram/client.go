// Package telegram adapts go-telegram-bot-api to the relay bot: it delivers outbound
// messages and converts inbound updates into platform-independent events.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// BotAPI is the part of *tgbotapi.BotAPI the client needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Client sends messages through the Telegram Bot API.
type Client struct {
	bot BotAPI
}

// NewClient creates a Client on top of a bot API instance.
func NewClient(bot BotAPI) *Client {
	return &Client{bot: bot}
}

// Send delivers one outbound message and returns the ID of the sent message.
func (c *Client) Send(ctx context.Context, out models.Outbound) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if out.Spoiler && supportsSpoiler(out.Kind) {
		return c.sendWithSpoiler(out)
	}

	chattable, err := buildChattable(out)
	if err != nil {
		return 0, err
	}
	msg, err := c.bot.Send(chattable)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"kind":        out.Kind.String(),
			"destination": out.Destination,
		}).Error("Failed to send message")
		return 0, fmt.Errorf("send %s to %s: %w", out.Kind, out.Destination, err)
	}
	return msg.MessageID, nil
}

// EditText replaces the text and inline keyboard of a message sent by the bot.
func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, text string, keyboard models.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if markup := inlineMarkup(keyboard); markup != nil {
		edit.ReplyMarkup = markup
	}
	if _, err := c.bot.Request(edit); err != nil {
		return fmt.Errorf("edit message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// Pin pins a message without notifying the chat members.
func (c *Client) Pin(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pin := tgbotapi.PinChatMessageConfig{ChatID: chatID, MessageID: messageID, DisableNotification: true}
	if _, err := c.bot.Request(pin); err != nil {
		return fmt.Errorf("pin message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// Unpin unpins a single message.
func (c *Client) Unpin(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unpin := tgbotapi.UnpinChatMessageConfig{ChatID: chatID, MessageID: messageID}
	if _, err := c.bot.Request(unpin); err != nil {
		return fmt.Errorf("unpin message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query, optionally with a short notice.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback %s: %w", callbackID, err)
	}
	return nil
}

// RegisterWebhook points Telegram at url. secret, when set, is echoed back by Telegram
// in the X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (c *Client) RegisterWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	if _, err := c.bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook switches the bot back to getUpdates delivery.
func (c *Client) DeleteWebhook() error {
	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

func supportsSpoiler(kind models.ContentKind) bool {
	return kind == models.KindPhoto || kind == models.KindVideo || kind == models.KindVideoNote
}

// sendWithSpoiler builds the request by hand because the library config types have no has_spoiler field.
func (c *Client) sendWithSpoiler(out models.Outbound) (int, error) {
	var method, field string
	switch out.Kind {
	case models.KindPhoto:
		method, field = "sendPhoto", "photo"
	case models.KindVideo:
		method, field = "sendVideo", "video"
	default:
		method, field = "sendVideoNote", "video_note"
	}

	params := tgbotapi.Params{}
	if chatID, err := strconv.ParseInt(out.Destination, 10, 64); err == nil {
		params.AddNonZero64("chat_id", chatID)
	} else {
		params.AddNonEmpty("chat_id", out.Destination)
	}
	params.AddNonEmpty(field, out.FileID)
	if out.Kind != models.KindVideoNote {
		params.AddNonEmpty("caption", out.Text)
		params.AddNonEmpty("parse_mode", string(out.ParseMode))
	}
	params.AddBool("has_spoiler", true)
	if markup := inlineMarkup(out.Keyboard); markup != nil {
		if err := params.AddInterface("reply_markup", markup); err != nil {
			return 0, fmt.Errorf("encode reply markup: %w", err)
		}
	}

	resp, err := c.bot.MakeRequest(method, params)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"kind":        out.Kind.String(),
			"destination": out.Destination,
		}).Error("Failed to send message with spoiler")
		return 0, fmt.Errorf("send %s with spoiler to %s: %w", out.Kind, out.Destination, err)
	}

	var msg tgbotapi.Message
	if err = json.Unmarshal(resp.Result, &msg); err != nil {
		return 0, fmt.Errorf("decode %s response: %w", method, err)
	}
	return msg.MessageID, nil
}

func baseChat(destination string, keyboard models.Keyboard) tgbotapi.BaseChat {
	chat := tgbotapi.BaseChat{}
	if chatID, err := strconv.ParseInt(destination, 10, 64); err == nil {
		chat.ChatID = chatID
	} else {
		chat.ChannelUsername = destination
	}
	if markup := inlineMarkup(keyboard); markup != nil {
		chat.ReplyMarkup = *markup
	}
	return chat
}

func baseFile(out models.Outbound) tgbotapi.BaseFile {
	return tgbotapi.BaseFile{
		BaseChat: baseChat(out.Destination, out.Keyboard),
		File:     tgbotapi.FileID(out.FileID),
	}
}

func buildChattable(out models.Outbound) (tgbotapi.Chattable, error) {
	if out.Destination == "" {
		return nil, fmt.Errorf("send %s: empty destination", out.Kind)
	}
	parseMode := string(out.ParseMode)

	switch out.Kind {
	case models.KindText:
		return tgbotapi.MessageConfig{
			BaseChat:  baseChat(out.Destination, out.Keyboard),
			Text:      out.Text,
			ParseMode: parseMode,
		}, nil
	case models.KindPhoto:
		return tgbotapi.PhotoConfig{BaseFile: baseFile(out), Caption: out.Text, ParseMode: parseMode}, nil
	case models.KindVideo:
		return tgbotapi.VideoConfig{BaseFile: baseFile(out), Caption: out.Text, ParseMode: parseMode}, nil
	case models.KindVoice:
		return tgbotapi.VoiceConfig{BaseFile: baseFile(out), Caption: out.Text, ParseMode: parseMode}, nil
	case models.KindAudio:
		return tgbotapi.AudioConfig{BaseFile: baseFile(out), Caption: out.Text, ParseMode: parseMode}, nil
	case models.KindAnimation:
		return tgbotapi.AnimationConfig{BaseFile: baseFile(out), Caption: out.Text, ParseMode: parseMode}, nil
	case models.KindDocument:
		return tgbotapi.DocumentConfig{BaseFile: baseFile(out), Caption: out.Text, ParseMode: parseMode}, nil
	case models.KindVideoNote:
		return tgbotapi.VideoNoteConfig{BaseFile: baseFile(out)}, nil
	case models.KindSticker:
		return tgbotapi.StickerConfig{BaseFile: baseFile(out)}, nil
	case models.KindContact:
		if out.Contact == nil {
			return nil, fmt.Errorf("send contact: missing payload")
		}
		return tgbotapi.ContactConfig{
			BaseChat:    baseChat(out.Destination, out.Keyboard),
			PhoneNumber: out.Contact.PhoneNumber,
			FirstName:   out.Contact.FirstName,
			LastName:    out.Contact.LastName,
			VCard:       out.Contact.VCard,
		}, nil
	case models.KindLocation:
		if out.Location == nil {
			return nil, fmt.Errorf("send location: missing payload")
		}
		return tgbotapi.LocationConfig{
			BaseChat:             baseChat(out.Destination, out.Keyboard),
			Latitude:             out.Location.Latitude,
			Longitude:            out.Location.Longitude,
			LivePeriod:           out.Location.LivePeriod,
			Heading:              out.Location.Heading,
			ProximityAlertRadius: out.Location.ProximityAlertRadius,
		}, nil
	case models.KindPoll:
		if out.Poll == nil {
			return nil, fmt.Errorf("send poll: missing payload")
		}
		return tgbotapi.SendPollConfig{
			BaseChat:              baseChat(out.Destination, out.Keyboard),
			Question:              out.Poll.Question,
			Options:               out.Poll.Options,
			IsAnonymous:           out.Poll.IsAnonymous,
			Type:                  out.Poll.Type,
			AllowsMultipleAnswers: out.Poll.AllowsMultipleAnswers,
			CorrectOptionID:       out.Poll.CorrectOptionID,
			Explanation:           out.Poll.Explanation,
			IsClosed:              out.Poll.IsClosed,
		}, nil
	default:
		return nil, fmt.Errorf("send: unsupported kind %s", out.Kind)
	}
}

func inlineMarkup(keyboard models.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(keyboard) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
