package models

// InboundMessage is a Slack message after transport decoding, shared by the
// Events API and Socket Mode paths.
type InboundMessage struct {
	UserID      string `json:"user"`
	ChannelID   string `json:"channel"`
	ChannelType string `json:"channel_type"` // "im" for direct messages
	Text        string `json:"text"`
	Timestamp   string `json:"ts"`
	ThreadTS    string `json:"thread_ts,omitempty"`
	BotID       string `json:"bot_id,omitempty"`
	SubType     string `json:"subtype,omitempty"`
	Mention     bool   `json:"-"` // delivered as app_mention
}

func (m InboundMessage) IsDirect() bool {
	return m.ChannelType == "im"
}

func (m InboundMessage) FromBot() bool {
	return m.BotID != "" || m.SubType == "bot_message"
}

// ConversationTurn is one exchange kept in short-term memory for general replies.
type ConversationTurn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}
