package models

import "time"

// EditingKind names the free-text input a user is expected to send next.
type EditingKind string

const (
	EditingNone          EditingKind = ""               // No pending input
	EditingBroadcast     EditingKind = "broadcast"      // Next message is copied to every user
	EditingMediaChannel  EditingKind = "media_channel"  // Next message is the media channel ID
	EditingChannelOption EditingKind = "channel_option" // Next message is "<name> <channelId>"
)

// EditingState is the tagged editing state of a user. OptionID is only meaningful
// when Kind is EditingChannelOption.
type EditingState struct {
	Kind     EditingKind `json:"kind,omitempty"`     // Which input is pending
	OptionID int64       `json:"optionId,omitempty"` // Channel option being edited
}

// NoEditing returns the empty editing state.
func NoEditing() EditingState { return EditingState{} }

// BroadcastEditing returns the state of an admin composing a broadcast.
func BroadcastEditing() EditingState { return EditingState{Kind: EditingBroadcast} }

// MediaChannelEditing returns the state of an admin entering the media channel ID.
func MediaChannelEditing() EditingState { return EditingState{Kind: EditingMediaChannel} }

// ChannelOptionEditing returns the state of an admin rewriting the channel option with the given ID.
func ChannelOptionEditing(optionID int64) EditingState {
	return EditingState{Kind: EditingChannelOption, OptionID: optionID}
}

// ChannelOption reports the option under edit, if any.
func (e EditingState) ChannelOption() (int64, bool) {
	if e.Kind != EditingChannelOption {
		return 0, false
	}
	return e.OptionID, true
}

// IsNone reports whether no input is pending.
func (e EditingState) IsNone() bool {
	return e.Kind == EditingNone
}

// PinnedMessageRef points at the panel message currently pinned for a user.
type PinnedMessageRef struct {
	ChatID    int64 `json:"chatID"`
	MessageID int   `json:"messageID"`
}

// UserState is the persisted per-user conversation state.
// Whether the user is an administrator is not stored here, it is derived from configuration.
type UserState struct {
	UserID           int64             `json:"userID"`                  // Telegram user ID
	UserModeOverride bool              `json:"userModeOverride"`        // Admin acting as an ordinary user
	Editing          EditingState      `json:"editing"`                 // Pending free-text input
	SelectedChannel  string            `json:"selectedChannel"`         // Relay destination, empty until chosen
	Anonymous        *bool             `json:"anonymous,omitempty"`     // nil until the user picks a mode
	PinnedMessage    *PinnedMessageRef `json:"pinnedMessage,omitempty"` // Current pinned panel
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// NewUserState returns the state of a user seen for the first time.
func NewUserState(userID int64) *UserState {
	return &UserState{UserID: userID}
}

// IsAnonymous reports the effective anonymity flag. An undecided user counts as anonymous.
func (u *UserState) IsAnonymous() bool {
	return u.Anonymous == nil || *u.Anonymous
}

// IsConfigured reports whether both the channel and the anonymity mode have been chosen.
func (u *UserState) IsConfigured() bool {
	return u.SelectedChannel != "" && u.Anonymous != nil
}

// SetAnonymous stores the chosen anonymity mode.
func (u *UserState) SetAnonymous(anonymous bool) {
	u.Anonymous = &anonymous
}

// Clone returns a deep copy of the state.
func (u *UserState) Clone() *UserState {
	c := *u
	if u.Anonymous != nil {
		a := *u.Anonymous
		c.Anonymous = &a
	}
	if u.PinnedMessage != nil {
		p := *u.PinnedMessage
		c.PinnedMessage = &p
	}
	return &c
}
