// Package telegram adapts the Telegram Bot API to the transport-neutral
// chat types.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Pijatow/isocrates-bot/internal/chat"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps a Bot API client. It implements chat.Sender and converts
// long-poll updates into chat.Update values.
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
}

func New(token string, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	logger = logger.With("component", "telegram")
	logger.Info("authorized", "username", api.Self.UserName)
	return &Bot{api: api, logger: logger}, nil
}

// Username is the bot's public handle, used to build referral links.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Updates starts long polling and converts updates until the context
// is cancelled. The returned channel is closed on shutdown.
func (b *Bot) Updates(ctx context.Context) <-chan chat.Update {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	raw := b.api.GetUpdatesChan(cfg)

	out := make(chan chat.Update)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				b.api.StopReceivingUpdates()
				return
			case upd, ok := <-raw:
				if !ok {
					return
				}
				converted, ok := convert(upd)
				if !ok {
					continue
				}
				select {
				case out <- converted:
				case <-ctx.Done():
					b.api.StopReceivingUpdates()
					return
				}
			}
		}
	}()
	return out
}

func convert(upd tgbotapi.Update) (chat.Update, bool) {
	if cq := upd.CallbackQuery; cq != nil && cq.Message != nil {
		return chat.Update{
			Kind:       chat.UpdateCallback,
			ChatID:     cq.Message.Chat.ID,
			From:       userInfo(cq.From),
			CallbackID: cq.ID,
			MessageID:  cq.Message.MessageID,
			Payload:    cq.Data,
		}, true
	}

	msg := upd.Message
	if msg == nil || msg.From == nil {
		return chat.Update{}, false
	}
	base := chat.Update{ChatID: msg.Chat.ID, From: userInfo(msg.From)}

	switch {
	case msg.IsCommand():
		base.Kind = chat.UpdateCommand
		base.Command = msg.Command()
		base.Args = msg.CommandArguments()
	case len(msg.Photo) > 0:
		base.Kind = chat.UpdatePhoto
		// Telegram lists sizes ascending; keep the largest.
		base.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Text != "":
		base.Kind = chat.UpdateText
		base.Text = msg.Text
	default:
		return chat.Update{}, false
	}
	return base, true
}

func userInfo(from *tgbotapi.User) chat.UserInfo {
	if from == nil {
		return chat.UserInfo{}
	}
	return chat.UserInfo{ID: from.ID, Username: from.UserName, FirstName: from.FirstName}
}

func (b *Bot) SendMessage(_ context.Context, msg chat.Message) error {
	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	switch {
	case len(msg.Keyboard) > 0:
		out.ReplyMarkup = inlineKeyboard(msg.Keyboard)
	case len(msg.Choices) > 0:
		out.ReplyMarkup = choiceKeyboard(msg.Choices)
	case msg.RemoveChoices:
		out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}
	if _, err := b.api.Send(out); err != nil {
		return fmt.Errorf("send message to %d: %w", msg.ChatID, err)
	}
	return nil
}

func (b *Bot) SendPhoto(_ context.Context, msg chat.PhotoMessage) error {
	out := tgbotapi.NewPhoto(msg.ChatID, tgbotapi.FileID(msg.FileID))
	out.Caption = msg.Caption
	if len(msg.Keyboard) > 0 {
		out.ReplyMarkup = inlineKeyboard(msg.Keyboard)
	}
	if _, err := b.api.Send(out); err != nil {
		return fmt.Errorf("send photo to %d: %w", msg.ChatID, err)
	}
	return nil
}

func (b *Bot) EditMessage(_ context.Context, ref chat.MessageRef, text string, keyboard [][]chat.Button) error {
	var out tgbotapi.Chattable
	if len(keyboard) > 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(ref.ChatID, ref.MessageID, text, inlineKeyboard(keyboard))
		out = edit
	} else {
		out = tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	}
	if _, err := b.api.Send(out); err != nil {
		return fmt.Errorf("edit message %d/%d: %w", ref.ChatID, ref.MessageID, err)
	}
	return nil
}

func (b *Bot) EditCaption(_ context.Context, ref chat.MessageRef, caption string) error {
	edit := tgbotapi.EditMessageCaptionConfig{
		BaseEdit: tgbotapi.BaseEdit{ChatID: ref.ChatID, MessageID: ref.MessageID},
		Caption:  caption,
	}
	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("edit caption %d/%d: %w", ref.ChatID, ref.MessageID, err)
	}
	return nil
}

func (b *Bot) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	if _, err := b.api.Request(cb); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func inlineKeyboard(rows [][]chat.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action.Payload()))
		}
		out = append(out, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

func choiceKeyboard(choices []string) tgbotapi.ReplyKeyboardMarkup {
	buttons := make([]tgbotapi.KeyboardButton, 0, len(choices))
	for _, c := range choices {
		buttons = append(buttons, tgbotapi.NewKeyboardButton(c))
	}
	kb := tgbotapi.NewOneTimeReplyKeyboard(buttons)
	kb.ResizeKeyboard = true
	return kb
}
