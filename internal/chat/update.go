// Package chat defines the transport-neutral types the bot's state
// machines work with: typed inbound updates, tagged callback actions,
// outbound messages, and the Sender boundary with its retry policy.
// The Telegram adapter in the telegram subpackage maps these onto the
// Bot API.
package chat

// UserInfo identifies the platform user behind an update.
type UserInfo struct {
	ID        int64
	Username  string
	FirstName string
}

type UpdateKind int

const (
	UpdateCommand UpdateKind = iota
	UpdateText
	UpdatePhoto
	UpdateCallback
)

// Update is one typed inbound event from the messaging platform.
type Update struct {
	Kind   UpdateKind
	ChatID int64
	From   UserInfo

	// Command fields (Kind == UpdateCommand). Command carries the name
	// without the leading slash; Args the rest of the line.
	Command string
	Args    string

	// Text is set for UpdateText.
	Text string

	// PhotoFileID is the platform file handle for UpdatePhoto.
	PhotoFileID string

	// Callback fields (Kind == UpdateCallback).
	CallbackID string
	MessageID  int
	Payload    string
}

// MessageRef points at an existing outbound message for in-place menu
// edits.
type MessageRef struct {
	ChatID    int64
	MessageID int
}
