package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastCountsFailuresAndCompletes(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	admin := models.NewUserState(adminID)
	admin.Editing = models.BroadcastEditing()
	saveState(t, repo, admin)
	for _, id := range []int64{2, 3, 4} {
		saveState(t, repo, models.NewUserState(id))
	}
	messenger.sendErr = func(out models.Outbound) error {
		if out.Destination == "3" {
			return errors.New("Forbidden: bot was blocked by the user")
		}
		return nil
	}

	bot.HandleMessage(context.Background(), textFrom(adminID, "news"))

	for _, id := range []int64{2, 3, 4} {
		require.Len(t, messenger.sentTo(id), 1, "recipient %d", id)
		assert.Equal(t, "news", messenger.sentTo(id)[0].Text)
	}
	toAdmin := messenger.sentTo(adminID)
	require.Len(t, toAdmin, 2)
	assert.Contains(t, toAdmin[0].Text, "2 succeeded, 1 failed")
	assert.Contains(t, toAdmin[1].Text, "Admin mode")
	assert.True(t, loadState(t, repo, adminID).Editing.IsNone())
}

func TestBroadcastRequiresEffectiveAdmin(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	admin := models.NewUserState(adminID)
	admin.Editing = models.BroadcastEditing()
	admin.UserModeOverride = true
	saveState(t, repo, admin)
	saveState(t, repo, models.NewUserState(2))

	bot.HandleMessage(context.Background(), textFrom(adminID, "news"))

	assert.Empty(t, messenger.sentTo(2))
}

func TestCopyMessage(t *testing.T) {
	keyboard := models.Keyboard{{{Text: "site", URL: "https://example.com"}}}
	cases := map[string]struct {
		in   models.InboundMessage
		want models.Outbound
	}{
		"plain text": {
			in:   models.InboundMessage{Kind: models.KindText, Text: "a<b"},
			want: models.Outbound{Kind: models.KindText, Destination: "7", Text: "a<b"},
		},
		"formatted text": {
			in: models.InboundMessage{
				Kind:     models.KindText,
				Text:     "hello world",
				Entities: []models.FormattingEntity{{Offset: 6, Length: 5, Kind: models.EntityBold}},
				Keyboard: keyboard,
			},
			want: models.Outbound{
				Kind:        models.KindText,
				Destination: "7",
				Text:        "hello <b>world</b>",
				ParseMode:   models.ParseHTML,
				Keyboard:    keyboard,
			},
		},
		"document with caption": {
			in:   models.InboundMessage{Kind: models.KindDocument, FileID: "d", Text: "report"},
			want: models.Outbound{Kind: models.KindDocument, Destination: "7", FileID: "d", Text: "report"},
		},
		"sticker": {
			in:   models.InboundMessage{Kind: models.KindSticker, FileID: "s", Text: "ignored"},
			want: models.Outbound{Kind: models.KindSticker, Destination: "7", FileID: "s"},
		},
		"location": {
			in:   models.InboundMessage{Kind: models.KindLocation, Location: &models.Location{Latitude: 1, Longitude: 2}},
			want: models.Outbound{Kind: models.KindLocation, Destination: "7", Location: &models.Location{Latitude: 1, Longitude: 2}},
		},
		"poll": {
			in:   models.InboundMessage{Kind: models.KindPoll, Poll: &models.Poll{Question: "q", Options: []string{"a", "b"}}},
			want: models.Outbound{Kind: models.KindPoll, Destination: "7", Poll: &models.Poll{Question: "q", Options: []string{"a", "b"}}},
		},
		"other": {
			in:   models.InboundMessage{Kind: models.KindOther},
			want: models.Outbound{Kind: models.KindText, Destination: "7", Text: "📢 Broadcast message"},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, copyMessage(tc.in, "7"))
		})
	}
}
