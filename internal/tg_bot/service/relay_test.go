package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayTextAnonymous(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	saveState(t, repo, configuredUser(true))

	msg := textFrom(userID, "hello world")
	msg.Entities = []models.FormattingEntity{{Offset: 6, Length: 5, Kind: models.EntityBold}}
	bot.HandleMessage(context.Background(), msg)

	require.Len(t, messenger.sent, 2)
	assert.Equal(t, models.Outbound{
		Kind:        models.KindText,
		Destination: "channel_a",
		Text:        "hello <b>world</b>",
		ParseMode:   models.ParseHTML,
	}, messenger.sent[0])
	assert.Equal(t, "✅ Message sent anonymously to Channel A!", messenger.sent[1].Text)
	assert.Equal(t, "100", messenger.sent[1].Destination)
}

func TestRelayTextPublic(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	saveState(t, repo, configuredUser(false))

	bot.HandleMessage(context.Background(), textFrom(userID, "a<b"))

	require.Len(t, messenger.sent, 2)
	assert.Equal(t, "a&lt;b<b> — from @ann (ID: 100)</b>", messenger.sent[0].Text)
	assert.Equal(t, "✅ Message sent publicly to Channel A!", messenger.sent[1].Text)
}

func TestRelayVoiceKeepsCaption(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	saveState(t, repo, configuredUser(false))

	bot.HandleMessage(context.Background(), models.InboundMessage{
		ChatID: userID,
		Sender: models.Sender{ID: userID, FirstName: "Ann", LastName: "Lee"},
		Kind:   models.KindVoice,
		FileID: "voice-1",
		Text:   "listen",
	})

	require.Len(t, messenger.sent, 2)
	out := messenger.sent[0]
	assert.Equal(t, models.KindVoice, out.Kind)
	assert.Equal(t, "voice-1", out.FileID)
	assert.Equal(t, "channel_a", out.Destination)
	assert.Equal(t, "listen<b> — from Ann Lee (ID: 100)</b>", out.Text)
	assert.Contains(t, messenger.sent[1].Text, "Voice message sent publicly")
}

func TestRelayMediaWithoutMediaChannel(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	saveState(t, repo, configuredUser(true))

	bot.HandleMessage(context.Background(), models.InboundMessage{
		ChatID: userID,
		Sender: models.Sender{ID: userID},
		Kind:   models.KindPhoto,
		FileID: "photo-1",
	})

	require.Len(t, messenger.sent, 1)
	assert.Equal(t, "100", messenger.sent[0].Destination)
	assert.Contains(t, messenger.sent[0].Text, "media channel is not configured")
}

func TestRelayMediaToMediaChannel(t *testing.T) {
	ctx := context.Background()
	bot, messenger, repo := newTestBot(t)
	saveState(t, repo, configuredUser(false))
	require.NoError(t, repo.SaveMediaConfig(ctx, models.MediaChannelConfig{ChannelID: "-1001234567890", SpoilerEnabled: true}))

	bot.HandleMessage(ctx, models.InboundMessage{
		ChatID: userID,
		Sender: models.Sender{ID: userID, FirstName: "Ann", LastName: "Lee"},
		Kind:   models.KindPhoto,
		FileID: "photo-1",
		Text:   "cap",
	})

	require.Len(t, messenger.sent, 2)
	out := messenger.sent[0]
	assert.Equal(t, "-1001234567890", out.Destination)
	assert.True(t, out.Spoiler)
	assert.Equal(t, "photo-1", out.FileID)
	assert.Equal(t, "cap<b> from Ann Lee #Channel_A</b>", out.Text)
	assert.Equal(t, "✅ Photo sent with a spoiler!", messenger.sent[1].Text)

	require.NoError(t, repo.SaveMediaConfig(ctx, models.MediaChannelConfig{ChannelID: "-1001234567890"}))
	bot.HandleMessage(ctx, models.InboundMessage{
		ChatID: userID,
		Sender: models.Sender{ID: userID},
		Kind:   models.KindVideoNote,
		FileID: "note-1",
	})
	require.Len(t, messenger.sent, 4)
	assert.False(t, messenger.sent[2].Spoiler)
	assert.Equal(t, models.KindVideoNote, messenger.sent[2].Kind)
	assert.Equal(t, "✅ Video note sent!", messenger.sent[3].Text)
}

func TestRelayUnsupportedKinds(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	saveState(t, repo, configuredUser(true))

	bot.HandleMessage(context.Background(), models.InboundMessage{ChatID: userID, Sender: models.Sender{ID: userID}, Kind: models.KindSticker, FileID: "s"})
	bot.HandleMessage(context.Background(), models.InboundMessage{ChatID: userID, Sender: models.Sender{ID: userID}, Kind: models.KindDocument, FileID: "d"})

	require.Len(t, messenger.sent, 2)
	assert.Contains(t, messenger.sent[0].Text, "Stickers are not supported")
	assert.Contains(t, messenger.sent[1].Text, "not supported")
	for _, out := range messenger.sent {
		assert.Equal(t, "100", out.Destination)
	}
}

func TestRelayDeliveryFailure(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	saveState(t, repo, configuredUser(true))
	messenger.sendErr = func(out models.Outbound) error {
		if out.Destination == "channel_a" {
			return errors.New("Bad Request: chat not found")
		}
		return nil
	}

	bot.HandleMessage(context.Background(), textFrom(userID, "hello"))

	require.Len(t, messenger.sent, 2)
	assert.Equal(t, "❌ Failed to send to Channel A.", messenger.sent[1].Text)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "@ann", displayName(models.Sender{Username: "ann", FirstName: "Ann"}))
	assert.Equal(t, "Ann Lee", displayName(models.Sender{FirstName: "Ann", LastName: "Lee"}))
	assert.Equal(t, "Ann", displayName(models.Sender{FirstName: "Ann"}))
	assert.Equal(t, "User", displayName(models.Sender{}))
}

func TestPublicSuffixEscapesName(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	saveState(t, repo, configuredUser(false))

	msg := textFrom(userID, "hi")
	msg.Sender = models.Sender{ID: userID, FirstName: "<Tom>"}
	bot.HandleMessage(context.Background(), msg)

	assert.Equal(t, "hi<b> — from &lt;Tom&gt; (ID: 100)</b>", messenger.sent[0].Text)
}
