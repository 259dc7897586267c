package chat

import "context"

// Button is one inline keyboard button. The action is encoded into the
// callback payload by the platform adapter.
type Button struct {
	Label  string
	Action Action
}

// Message is an outbound text message. Keyboard attaches inline
// buttons; Choices attaches a one-time reply keyboard (used for the
// registration yes/no prompts); RemoveChoices clears a previously sent
// reply keyboard.
type Message struct {
	ChatID        int64
	Text          string
	Keyboard      [][]Button
	Choices       []string
	RemoveChoices bool
}

// PhotoMessage re-sends a previously uploaded image by its platform
// file handle, with an optional caption and inline keyboard.
type PhotoMessage struct {
	ChatID   int64
	FileID   string
	Caption  string
	Keyboard [][]Button
}

// Sender is the outbound boundary to the messaging platform. All
// business logic goes through it; the retry policy wraps exactly this
// interface and nothing else.
type Sender interface {
	SendMessage(ctx context.Context, msg Message) error
	SendPhoto(ctx context.Context, msg PhotoMessage) error
	EditMessage(ctx context.Context, ref MessageRef, text string, keyboard [][]Button) error
	EditCaption(ctx context.Context, ref MessageRef, caption string) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}
