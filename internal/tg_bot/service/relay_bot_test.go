package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminID int64 = 1
	userID  int64 = 100
)

type editCall struct {
	ChatID    int64
	MessageID int
	Text      string
	Keyboard  models.Keyboard
}

type answerCall struct {
	ID   string
	Text string
}

// fakeMessenger records every platform call.
type fakeMessenger struct {
	sent    []models.Outbound
	edits   []editCall
	pins    []models.PinnedMessageRef
	unpins  []models.PinnedMessageRef
	answers []answerCall
	sendErr func(out models.Outbound) error
	editErr error
	pinErr  error
	nextID  int
}

func (f *fakeMessenger) Send(_ context.Context, out models.Outbound) (int, error) {
	f.sent = append(f.sent, out)
	if f.sendErr != nil {
		if err := f.sendErr(out); err != nil {
			return 0, err
		}
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeMessenger) EditText(_ context.Context, chatID int64, messageID int, text string, keyboard models.Keyboard) error {
	f.edits = append(f.edits, editCall{ChatID: chatID, MessageID: messageID, Text: text, Keyboard: keyboard})
	return f.editErr
}

func (f *fakeMessenger) Pin(_ context.Context, chatID int64, messageID int) error {
	f.pins = append(f.pins, models.PinnedMessageRef{ChatID: chatID, MessageID: messageID})
	return f.pinErr
}

func (f *fakeMessenger) Unpin(_ context.Context, chatID int64, messageID int) error {
	f.unpins = append(f.unpins, models.PinnedMessageRef{ChatID: chatID, MessageID: messageID})
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, callbackID, text string) error {
	f.answers = append(f.answers, answerCall{ID: callbackID, Text: text})
	return nil
}

// sentTo returns the messages delivered to chatID.
func (f *fakeMessenger) sentTo(chatID int64) []models.Outbound {
	var out []models.Outbound
	for _, o := range f.sent {
		if o.Destination == strconv.FormatInt(chatID, 10) {
			out = append(out, o)
		}
	}
	return out
}

func (f *fakeMessenger) lastTo(t *testing.T, chatID int64) models.Outbound {
	t.Helper()
	out := f.sentTo(chatID)
	require.NotEmpty(t, out, "nothing sent to %d", chatID)
	return out[len(out)-1]
}

func hasButton(keyboard models.Keyboard, data string) bool {
	for _, row := range keyboard {
		for _, b := range row {
			if b.Data == data {
				return true
			}
		}
	}
	return false
}

// failingRepo fails every user state read.
type failingRepo struct {
	StateRepository
	err error
}

func (r failingRepo) GetUserState(context.Context, int64) (*models.UserState, error) {
	return nil, r.err
}

// panickingRepo panics on every user state read.
type panickingRepo struct {
	StateRepository
}

func (panickingRepo) GetUserState(context.Context, int64) (*models.UserState, error) {
	panic("boom")
}

func newTestBot(t *testing.T) (*RelayBotServices, *fakeMessenger, *repository.UsersState) {
	t.Helper()
	repo := repository.NewUsersStateMap("")
	require.NoError(t, repo.SeedChannelOptions(context.Background(), models.DefaultChannelOptions()))
	messenger := &fakeMessenger{}
	bot := NewRelayBot(messenger, repo, map[int64]struct{}{adminID: {}}, "")
	return bot, messenger, repo
}

func saveState(t *testing.T, repo *repository.UsersState, state *models.UserState) {
	t.Helper()
	require.NoError(t, repo.SaveUserState(context.Background(), state))
}

func loadState(t *testing.T, repo *repository.UsersState, id int64) *models.UserState {
	t.Helper()
	state, err := repo.GetUserState(context.Background(), id)
	require.NoError(t, err)
	return state
}

func configuredUser(anonymous bool) *models.UserState {
	state := models.NewUserState(userID)
	state.SelectedChannel = "channel_a"
	state.SetAnonymous(anonymous)
	return state
}

func textFrom(id int64, text string) models.InboundMessage {
	return models.InboundMessage{
		MessageID: 1,
		ChatID:    id,
		Sender:    models.Sender{ID: id, Username: "ann", FirstName: "Ann"},
		Kind:      models.KindText,
		Text:      text,
	}
}

func TestHandleMessageIgnoresBotsAndPinNotices(t *testing.T) {
	bot, messenger, repo := newTestBot(t)

	fromBot := textFrom(userID, "/start")
	fromBot.Sender.IsBot = true
	bot.HandleMessage(context.Background(), fromBot)

	pinned := textFrom(userID, "")
	pinned.IsPinnedNotice = true
	bot.HandleMessage(context.Background(), pinned)

	assert.Empty(t, messenger.sent)
	_, err := repo.GetUserState(context.Background(), userID)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestStartCommandOpensMenuForRole(t *testing.T) {
	bot, messenger, repo := newTestBot(t)

	bot.HandleMessage(context.Background(), textFrom(userID, "/start"))
	menu := messenger.lastTo(t, userID)
	assert.True(t, hasButton(menu.Keyboard, "select_channel_channel_a"))
	assert.True(t, hasButton(menu.Keyboard, "set_anonymous_true"))
	assert.Equal(t, models.ParsePlain, menu.ParseMode)

	// The first contact registers the user.
	ids, err := repo.ListUserIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{userID}, ids)

	bot.HandleMessage(context.Background(), textFrom(adminID, "/start"))
	adminMenu := messenger.lastTo(t, adminID)
	assert.Contains(t, adminMenu.Text, "Admin mode")
	assert.True(t, hasButton(adminMenu.Keyboard, "user_mode"))
	assert.True(t, hasButton(adminMenu.Keyboard, "broadcast_mode"))
	assert.True(t, hasButton(adminMenu.Keyboard, "admin_panel"))
}

func TestStartCommandMatchesWholeText(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	saveState(t, repo, configuredUser(true))

	bot.HandleMessage(context.Background(), textFrom(userID, "/start promo"))
	require.Len(t, messenger.sent, 2)
	assert.Equal(t, "channel_a", messenger.sent[0].Destination)
	assert.Equal(t, "/start promo", messenger.sent[0].Text)

	bot.HandleMessage(context.Background(), textFrom(userID, " /start "))
	menu := messenger.lastTo(t, userID)
	assert.True(t, hasButton(menu.Keyboard, "select_channel_channel_a"))
}

func TestStartCommandWinsOverChannelEditing(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	admin := models.NewUserState(adminID)
	admin.Editing = models.ChannelOptionEditing(2)
	saveState(t, repo, admin)

	bot.HandleMessage(context.Background(), textFrom(adminID, "/start"))

	assert.Contains(t, messenger.lastTo(t, adminID).Text, "Admin mode")
	opt, err := repo.GetChannelOption(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Channel B", opt.Name)
}

func TestUnconfiguredUserGetsSelectionMenu(t *testing.T) {
	bot, messenger, repo := newTestBot(t)
	state := models.NewUserState(userID)
	state.SelectedChannel = "channel_a"
	saveState(t, repo, state)

	bot.HandleMessage(context.Background(), textFrom(userID, "hello"))

	require.Len(t, messenger.sent, 1)
	assert.Equal(t, "100", messenger.sent[0].Destination)
	assert.Contains(t, messenger.sent[0].Text, "Channel: Channel A")
	assert.Contains(t, messenger.sent[0].Text, "Mode: not selected")
}

func TestMediaChannelEditing(t *testing.T) {
	ctx := context.Background()
	bot, messenger, repo := newTestBot(t)
	admin := models.NewUserState(adminID)
	admin.Editing = models.MediaChannelEditing()
	saveState(t, repo, admin)

	bot.HandleMessage(ctx, textFrom(adminID, "12345"))
	assert.Contains(t, messenger.lastTo(t, adminID).Text, "Invalid channel ID")
	assert.Equal(t, models.MediaChannelEditing(), loadState(t, repo, adminID).Editing)
	_, err := repo.GetMediaConfig(ctx)
	assert.ErrorIs(t, err, models.ErrMediaConfigNotFound)

	bot.HandleMessage(ctx, textFrom(adminID, "  -1001234567890 "))
	cfg, err := repo.GetMediaConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.MediaChannelConfig{ChannelID: "-1001234567890", SpoilerEnabled: true}, cfg)
	assert.True(t, loadState(t, repo, adminID).Editing.IsNone())

	settings := messenger.lastTo(t, adminID)
	assert.Contains(t, settings.Text, "Channel: -1001234567890")
	assert.True(t, hasButton(settings.Keyboard, "toggle_spoiler"))
}

func TestChannelOptionEditing(t *testing.T) {
	ctx := context.Background()
	bot, messenger, repo := newTestBot(t)
	admin := models.NewUserState(adminID)
	admin.Editing = models.ChannelOptionEditing(2)
	saveState(t, repo, admin)

	bot.HandleMessage(ctx, textFrom(adminID, "News"))
	assert.Contains(t, messenger.lastTo(t, adminID).Text, "Invalid format")
	id, ok := loadState(t, repo, adminID).Editing.ChannelOption()
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)

	bot.HandleMessage(ctx, textFrom(adminID, "News  @news_channel extra"))
	opt, err := repo.GetChannelOption(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "News", opt.Name)
	assert.Equal(t, "@news_channel extra", opt.ChannelID)
	assert.True(t, loadState(t, repo, adminID).Editing.IsNone())

	panel := messenger.lastTo(t, adminID)
	assert.Contains(t, panel.Text, "2. News → @news_channel extra")
	assert.True(t, hasButton(panel.Keyboard, "edit_channel_2"))
	assert.True(t, hasButton(panel.Keyboard, "media_settings"))
}

func TestStoreFailureIsReportedAsTransient(t *testing.T) {
	messenger := &fakeMessenger{}
	bot := NewRelayBot(messenger, failingRepo{err: errors.New("connection refused")}, nil, "")

	assert.NotPanics(t, func() {
		bot.HandleMessage(context.Background(), textFrom(userID, "hi"))
	})
	require.Len(t, messenger.sent, 1)
	assert.Contains(t, messenger.sent[0].Text, "please try again")
}

func TestHandleMessageRecoversFromPanic(t *testing.T) {
	messenger := &fakeMessenger{}
	bot := NewRelayBot(messenger, panickingRepo{}, nil, "")

	assert.NotPanics(t, func() {
		bot.HandleMessage(context.Background(), textFrom(userID, "hi"))
	})
	require.Len(t, messenger.sent, 1)
	assert.True(t, strings.Contains(messenger.sent[0].Text, "Something went wrong"))
}

func TestNoticeFor(t *testing.T) {
	assert.Contains(t, noticeFor(storeError("get", errors.New("x"))), "please try again")
	assert.Equal(t, "custom", noticeFor(newUserError(ErrValidation, "custom", nil)))
	assert.Contains(t, noticeFor(newUserError(ErrUpstreamDelivery, "", errors.New("x"))), "Failed to send")

	err := newUserError(ErrUpstreamDelivery, "", context.Canceled)
	assert.ErrorIs(t, err, ErrUpstreamDelivery)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrValidation)
}
