package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/constant"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/markup"
	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const broadcastPlaceholder = constant.EMOJI_LOUDSPEAKER + " Broadcast message"

// broadcast copies msg to every known user except the sender, one recipient at a time.
// A failed delivery is counted and the loop goes on.
func (b *RelayBotServices) broadcast(ctx context.Context, state *models.UserState, msg models.InboundMessage, chatID int64) error {
	userIDs, err := b.Repo.ListUserIDs(ctx)
	if err != nil {
		return storeError("list users", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"broadcastID": uuid.NewString(),
		"senderID":    state.UserID,
		"kind":        msg.Kind.String(),
	})
	log.Infof("Broadcast started for %d users", len(userIDs))

	var succeeded, failed int
	for _, userID := range userIDs {
		if userID == state.UserID {
			continue
		}
		if _, err = b.Messenger.Send(ctx, copyMessage(msg, strconv.FormatInt(userID, 10))); err != nil {
			failed++
			log.WithError(err).WithField("recipientID", userID).Warn("Broadcast delivery failed")
			continue
		}
		succeeded++
	}
	log.WithFields(logrus.Fields{"succeeded": succeeded, "failed": failed}).Info("Broadcast finished")

	state.Editing = models.NoEditing()
	if err = b.saveState(ctx, state); err != nil {
		return err
	}
	b.notify(ctx, chatID, fmt.Sprintf("%s Broadcast finished: %d succeeded, %d failed",
		constant.EMOJI_LOUDSPEAKER, succeeded, failed))
	return b.sendAdminMenu(ctx, chatID)
}

// copyMessage builds a copy of msg addressed to destination. Text and captions keep their
// formatting; HTML is used only when the original carried entities.
func copyMessage(msg models.InboundMessage, destination string) models.Outbound {
	out := models.Outbound{
		Kind:        msg.Kind,
		Destination: destination,
		Keyboard:    msg.Keyboard,
	}

	withText := func() {
		out.Text = msg.Text
		if len(msg.Entities) > 0 {
			out.Text = markup.Reconstruct(msg.Text, msg.Entities)
			out.ParseMode = models.ParseHTML
		}
	}

	switch msg.Kind {
	case models.KindText:
		withText()
	case models.KindPhoto, models.KindVideo, models.KindAudio, models.KindVoice, models.KindAnimation, models.KindDocument:
		out.FileID = msg.FileID
		withText()
	case models.KindSticker, models.KindVideoNote:
		out.FileID = msg.FileID
	case models.KindContact:
		out.Contact = msg.Contact
	case models.KindLocation:
		out.Location = msg.Location
	case models.KindPoll:
		out.Poll = msg.Poll
	default:
		out.Kind = models.KindText
		out.Text = broadcastPlaceholder
	}
	return out
}
