package models

// ContentKind is the kind of payload carried by an inbound message.
type ContentKind int

const (
	KindOther ContentKind = iota
	KindText
	KindVoice
	KindPhoto
	KindVideo
	KindVideoNote
	KindSticker
	KindAnimation
	KindAudio
	KindDocument
	KindContact
	KindLocation
	KindPoll
)

var contentKindNames = map[ContentKind]string{
	KindOther:     "other",
	KindText:      "text",
	KindVoice:     "voice",
	KindPhoto:     "photo",
	KindVideo:     "video",
	KindVideoNote: "video_note",
	KindSticker:   "sticker",
	KindAnimation: "animation",
	KindAudio:     "audio",
	KindDocument:  "document",
	KindContact:   "contact",
	KindLocation:  "location",
	KindPoll:      "poll",
}

func (k ContentKind) String() string {
	if name, ok := contentKindNames[k]; ok {
		return name
	}
	return "other"
}

// EntityKind is the Telegram entity type, e.g. "bold" or "text_link".
type EntityKind string

const (
	EntityBold          EntityKind = "bold"
	EntityItalic        EntityKind = "italic"
	EntityCode          EntityKind = "code"
	EntityPre           EntityKind = "pre"
	EntityUnderline     EntityKind = "underline"
	EntityStrikethrough EntityKind = "strikethrough"
	EntityTextLink      EntityKind = "text_link"
	EntityTextMention   EntityKind = "text_mention"
)

// FormattingEntity marks a styled range of a text. Offset and Length are UTF-16 code units.
type FormattingEntity struct {
	Offset int
	Length int
	Kind   EntityKind
	URL    string // text_link only
	UserID int64  // text_mention only
}

// Sender is the author of an inbound event.
type Sender struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	IsBot     bool
}

// Contact is a shared phone contact.
type Contact struct {
	PhoneNumber string
	FirstName   string
	LastName    string
	VCard       string
}

// Location is a shared point on the map.
type Location struct {
	Latitude             float64
	Longitude            float64
	LivePeriod           int
	Heading              int
	ProximityAlertRadius int
}

// Poll is a shared poll.
type Poll struct {
	Question              string
	Options               []string
	IsAnonymous           bool
	Type                  string
	AllowsMultipleAnswers bool
	CorrectOptionID       int64
	Explanation           string
	IsClosed              bool
}

// Button is an inline keyboard button. Exactly one of Data and URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is an inline keyboard, row by row.
type Keyboard [][]Button

// InboundMessage is a platform-independent view of a received message.
type InboundMessage struct {
	MessageID      int
	ChatID         int64
	Sender         Sender
	IsPinnedNotice bool // Service message announcing a pin
	Kind           ContentKind
	Text           string             // Message text or media caption
	Entities       []FormattingEntity // Entities of Text
	FileID         string             // Media payload; the largest size for photos
	MediaGroupID   string
	Contact        *Contact
	Location       *Location
	Poll           *Poll
	Keyboard       Keyboard // Inline keyboard attached by the author
}

// CallbackEvent is a press on an inline keyboard button.
type CallbackEvent struct {
	ID        string
	Sender    Sender
	ChatID    int64 // Chat of the message carrying the keyboard, 0 if unknown
	MessageID int   // Message carrying the keyboard, 0 if unknown
	Data      string
}

// ParseMode selects how the platform interprets outbound text.
type ParseMode string

const (
	ParsePlain ParseMode = ""
	ParseHTML  ParseMode = "HTML"
)

// Outbound describes one message to deliver.
type Outbound struct {
	Kind        ContentKind
	Destination string // Numeric chat ID or channel @username
	Text        string // Text, or caption for media
	ParseMode   ParseMode
	FileID      string
	Spoiler     bool
	Keyboard    Keyboard
	Contact     *Contact
	Location    *Location
	Poll        *Poll
}
