package constant

const (
	EMOJI_CHECK_MARK   = "\U00002705"           //✅
	EMOJI_WHITE_CIRCLE = "\U000026AA"           //⚪
	EMOJI_CROSS_MARK   = "\U0000274C"           //❌
	EMOJI_CROWN        = "\U0001F451"           //👑
	EMOJI_LOUDSPEAKER  = "\U0001F4E2"           //📢
	EMOJI_GEAR         = "\U00002699\U0000FE0F" //⚙️
	EMOJI_CLAPPER      = "\U0001F3AC"           //🎬
	EMOJI_MEMO         = "\U0001F4DD"           //📝
	EMOJI_EYE          = "\U0001F441\U0000FE0F" //👁️
	EMOJI_BACK         = "\U000021A9\U0000FE0F" //↩️
	EMOJI_PENCIL       = "\U0000270F\U0000FE0F" //✏️
	EMOJI_LOCK         = "\U0001F512"           //🔒
	EMOJI_UNLOCK       = "\U0001F513"           //🔓
	EMOJI_REPEAT       = "\U0001F504"           //🔄
	EMOJI_PARTY        = "\U0001F389"           //🎉
	EMOJI_BUST         = "\U0001F464"           //👤
	EMOJI_CLIPBOARD    = "\U0001F4CB"           //📋
	EMOJI_WARNING      = "\U000026A0\U0000FE0F" //⚠️

	BUTTON_TEXT_USER_MODE          = "I want to post"
	BUTTON_TEXT_BROADCAST_MODE     = "I want to broadcast"
	BUTTON_TEXT_ADMIN_PANEL        = "Admin panel"
	BUTTON_TEXT_MEDIA_SETTINGS     = EMOJI_CLAPPER + " Media settings"
	BUTTON_TEXT_BACK_TO_MAIN       = EMOJI_BACK + " Back to main menu"
	BUTTON_TEXT_SET_MEDIA_CHANNEL  = EMOJI_MEMO + " Set media channel"
	BUTTON_TEXT_SPOILER_OFF        = EMOJI_UNLOCK + " Disable spoiler"
	BUTTON_TEXT_SPOILER_ON         = EMOJI_LOCK + " Enable spoiler"
	BUTTON_TEXT_VIEW_MEDIA_CHANNEL = EMOJI_EYE + " View current settings"
	BUTTON_TEXT_BACK_TO_PANEL      = EMOJI_BACK + " Back to admin panel"
	BUTTON_TEXT_ANONYMOUS          = "Post anonymously"
	BUTTON_TEXT_PUBLIC             = "Post with my name"
	BUTTON_TEXT_RESTART_SETUP      = EMOJI_REPEAT + " Start over"
	BUTTON_TEXT_BACK_TO_ADMIN      = EMOJI_BACK + " Back to admin mode"

	BUTTON_CODE_USER_MODE          = "user_mode"
	BUTTON_CODE_BROADCAST_MODE     = "broadcast_mode"
	BUTTON_CODE_ADMIN_PANEL        = "admin_panel"
	BUTTON_CODE_MEDIA_SETTINGS     = "media_settings"
	BUTTON_CODE_SET_MEDIA_CHANNEL  = "set_media_channel"
	BUTTON_CODE_VIEW_MEDIA_CHANNEL = "view_media_channel"
	BUTTON_CODE_TOGGLE_SPOILER     = "toggle_spoiler"
	BUTTON_CODE_BACK_TO_MAIN       = "back_to_main"
	BUTTON_CODE_BACK_TO_ADMIN      = "back_to_admin"
	BUTTON_CODE_SET_ANONYMOUS      = "set_anonymous_true"
	BUTTON_CODE_SET_PUBLIC         = "set_anonymous_false"
	BUTTON_CODE_RESTART_SETUP      = "restart_setup"

	// Prefixes followed by an identifier.
	BUTTON_CODE_SELECT_CHANNEL_PREFIX = "select_channel_" // + channel destination
	BUTTON_CODE_EDIT_CHANNEL_PREFIX   = "edit_channel_"   // + channel option row ID

	DEFAULT_START_COMMAND = "/start"
	MEDIA_CHANNEL_PREFIX  = "-100"
	MEDIA_CHANNEL_MIN_LEN = 10
	UNKNOWN_DISPLAY_NAME  = "User"
)
