package telegram

import (
	"context"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// UpdateHandler consumes the events produced from Telegram updates.
type UpdateHandler interface {
	HandleMessage(ctx context.Context, msg models.InboundMessage)
	HandleCallback(ctx context.Context, cb models.CallbackEvent)
}

// Dispatch converts one update and hands it to the handler.
// Updates other than private messages and callback queries are ignored.
func Dispatch(ctx context.Context, h UpdateHandler, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg, ok := ToInbound(update.Message)
		if !ok {
			logrus.Debugf("Skipping message %d without sender", update.Message.MessageID)
			return
		}
		h.HandleMessage(ctx, msg)
	case update.CallbackQuery != nil:
		h.HandleCallback(ctx, ToCallback(update.CallbackQuery))
	default:
		logrus.Debugf("Skipping update %d", update.UpdateID)
	}
}

// ToInbound converts a Telegram message. It reports false for messages without a sender.
func ToInbound(msg *tgbotapi.Message) (models.InboundMessage, bool) {
	if msg == nil || msg.From == nil {
		return models.InboundMessage{}, false
	}

	in := models.InboundMessage{
		MessageID:      msg.MessageID,
		Sender:         toSender(msg.From),
		IsPinnedNotice: msg.PinnedMessage != nil,
		MediaGroupID:   msg.MediaGroupID,
		Text:           msg.Caption,
		Entities:       toEntities(msg.CaptionEntities),
		Keyboard:       toKeyboard(msg.ReplyMarkup),
	}
	if msg.Chat != nil {
		in.ChatID = msg.Chat.ID
	}

	switch {
	case msg.Text != "":
		in.Kind = models.KindText
		in.Text = msg.Text
		in.Entities = toEntities(msg.Entities)
	case msg.Voice != nil:
		in.Kind, in.FileID = models.KindVoice, msg.Voice.FileID
	case msg.Video != nil:
		in.Kind, in.FileID = models.KindVideo, msg.Video.FileID
	case msg.VideoNote != nil:
		in.Kind, in.FileID = models.KindVideoNote, msg.VideoNote.FileID
	case len(msg.Photo) > 0:
		in.Kind, in.FileID = models.KindPhoto, msg.Photo[len(msg.Photo)-1].FileID
	case msg.Sticker != nil:
		in.Kind, in.FileID = models.KindSticker, msg.Sticker.FileID
	case msg.Animation != nil:
		// Animations also carry a Document, so they are matched first.
		in.Kind, in.FileID = models.KindAnimation, msg.Animation.FileID
	case msg.Audio != nil:
		in.Kind, in.FileID = models.KindAudio, msg.Audio.FileID
	case msg.Document != nil:
		in.Kind, in.FileID = models.KindDocument, msg.Document.FileID
	case msg.Contact != nil:
		in.Kind = models.KindContact
		in.Contact = &models.Contact{
			PhoneNumber: msg.Contact.PhoneNumber,
			FirstName:   msg.Contact.FirstName,
			LastName:    msg.Contact.LastName,
			VCard:       msg.Contact.VCard,
		}
	case msg.Location != nil:
		in.Kind = models.KindLocation
		in.Location = &models.Location{
			Latitude:             msg.Location.Latitude,
			Longitude:            msg.Location.Longitude,
			LivePeriod:           msg.Location.LivePeriod,
			Heading:              msg.Location.Heading,
			ProximityAlertRadius: msg.Location.ProximityAlertRadius,
		}
	case msg.Poll != nil:
		in.Kind = models.KindPoll
		in.Poll = toPoll(msg.Poll)
	default:
		in.Kind = models.KindOther
	}
	return in, true
}

// ToCallback converts a callback query.
func ToCallback(q *tgbotapi.CallbackQuery) models.CallbackEvent {
	cb := models.CallbackEvent{
		ID:   q.ID,
		Data: q.Data,
	}
	if q.From != nil {
		cb.Sender = toSender(q.From)
	}
	if q.Message != nil {
		cb.MessageID = q.Message.MessageID
		if q.Message.Chat != nil {
			cb.ChatID = q.Message.Chat.ID
		}
	}
	return cb
}

func toSender(u *tgbotapi.User) models.Sender {
	return models.Sender{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsBot:     u.IsBot,
	}
}

func toEntities(entities []tgbotapi.MessageEntity) []models.FormattingEntity {
	if len(entities) == 0 {
		return nil
	}
	out := make([]models.FormattingEntity, 0, len(entities))
	for _, e := range entities {
		fe := models.FormattingEntity{
			Offset: e.Offset,
			Length: e.Length,
			Kind:   models.EntityKind(e.Type),
			URL:    e.URL,
		}
		if e.User != nil {
			fe.UserID = e.User.ID
		}
		out = append(out, fe)
	}
	return out
}

func toKeyboard(markup *tgbotapi.InlineKeyboardMarkup) models.Keyboard {
	if markup == nil || len(markup.InlineKeyboard) == 0 {
		return nil
	}
	keyboard := make(models.Keyboard, 0, len(markup.InlineKeyboard))
	for _, row := range markup.InlineKeyboard {
		buttons := make([]models.Button, 0, len(row))
		for _, b := range row {
			button := models.Button{Text: b.Text}
			switch {
			case b.URL != nil:
				button.URL = *b.URL
			case b.CallbackData != nil:
				button.Data = *b.CallbackData
			default:
				// Login, game and switch-inline buttons cannot be copied.
				continue
			}
			buttons = append(buttons, button)
		}
		if len(buttons) > 0 {
			keyboard = append(keyboard, buttons)
		}
	}
	return keyboard
}

func toPoll(p *tgbotapi.Poll) *models.Poll {
	options := make([]string, 0, len(p.Options))
	for _, o := range p.Options {
		options = append(options, o.Text)
	}
	return &models.Poll{
		Question:              p.Question,
		Options:               options,
		IsAnonymous:           p.IsAnonymous,
		Type:                  p.Type,
		AllowsMultipleAnswers: p.AllowsMultipleAnswers,
		CorrectOptionID:       int64(p.CorrectOptionID),
		Explanation:           p.Explanation,
		IsClosed:              p.IsClosed,
	}
}
