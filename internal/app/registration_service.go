package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Pijatow/isocrates-bot/internal/chat"
	"github.com/Pijatow/isocrates-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// Reply keyboard labels for the registration flow.
const (
	ChoiceRegisterYes = "Yes, Register Me!"
	ChoiceRegisterNo  = "No, thanks."
	ChoiceDiscountYes = "Yes, I have a code"
	ChoiceDiscountNo  = "No, continue to payment"
)

type EventStore interface {
	GetActive(ctx context.Context) (domain.Event, error)
}

type RegistrationStore interface {
	Create(ctx context.Context, reg domain.Registration) (domain.Registration, error)
	FindByUserAndEvent(ctx context.Context, userID, eventID int64) (*domain.Registration, error)
	AttachReceipt(ctx context.Context, registrationID int64, fileID string) error
}

type DiscountStore interface {
	GetValid(ctx context.Context, eventID int64, code string) (domain.DiscountCode, error)
	ConsumeUse(ctx context.Context, discountID int64) error
}

// RegistrationService drives one user through the registration flow:
// greet, yes/no, optional discount, receipt upload, pending review.
type RegistrationService struct {
	events      EventStore
	regs        RegistrationStore
	discounts   DiscountStore
	sender      chat.Sender
	logger      *slog.Logger
	adminChatID int64
}

func NewRegistrationService(events EventStore, regs RegistrationStore, discounts DiscountStore,
	sender chat.Sender, logger *slog.Logger, adminChatID int64) *RegistrationService {
	return &RegistrationService{
		events:      events,
		regs:        regs,
		discounts:   discounts,
		sender:      sender,
		logger:      logger.With("component", "registration"),
		adminChatID: adminChatID,
	}
}

// Start opens the registration conversation. With no active event, or
// when the user already holds a registration for it, the conversation
// ends immediately with a status message.
func (s *RegistrationService) Start(ctx context.Context, user chat.UserInfo) (Conversation, error) {
	event, err := s.events.GetActive(ctx)
	if errors.Is(err, domain.ErrNoActiveEvent) {
		return Conversation{}, s.sender.SendMessage(ctx, chat.Message{
			ChatID: user.ID,
			Text:   "There is no event open for registration right now. Check back later!",
		})
	}
	if err != nil {
		return Conversation{}, err
	}

	existing, err := s.regs.FindByUserAndEvent(ctx, user.ID, event.ID)
	if err != nil {
		return Conversation{}, err
	}
	if existing != nil {
		return Conversation{}, s.reportStatus(ctx, user, event, *existing)
	}

	text := fmt.Sprintf(
		"Welcome to the Isocrates event bot!\n\n'%s' is now open for registration.\n%s\nDate: %s\n\nWould you like to sign up?",
		event.Name, event.Description, event.Date,
	)
	err = s.sender.SendMessage(ctx, chat.Message{
		ChatID:  user.ID,
		Text:    text,
		Choices: []string{ChoiceRegisterYes, ChoiceRegisterNo},
	})
	if err != nil {
		return Conversation{}, err
	}
	return Conversation{State: RegStateChoosing, Event: event}, nil
}

func (s *RegistrationService) reportStatus(ctx context.Context, user chat.UserInfo, event domain.Event, reg domain.Registration) error {
	var text string
	switch reg.Status {
	case domain.StatusConfirmed:
		ticket := ""
		if reg.TicketCode != nil {
			ticket = *reg.TicketCode
		}
		text = fmt.Sprintf("You are already confirmed for '%s'. Your ticket code: %s", event.Name, ticket)
	case domain.StatusPendingVerification:
		text = fmt.Sprintf("Your registration for '%s' is awaiting approval. We'll notify you once it's reviewed.", event.Name)
	default:
		text = fmt.Sprintf("Your registration for '%s' was not approved. Please contact an admin for details.", event.Name)
	}
	return s.sender.SendMessage(ctx, chat.Message{ChatID: user.ID, Text: text, RemoveChoices: true})
}

// HandleChoice consumes the yes/no answer from the Choosing state.
func (s *RegistrationService) HandleChoice(ctx context.Context, conv Conversation, user chat.UserInfo, yes bool) (Conversation, error) {
	if !yes {
		err := s.sender.SendMessage(ctx, chat.Message{
			ChatID:        user.ID,
			Text:          "No problem. Hope to see you next time!",
			RemoveChoices: true,
		})
		return Conversation{}, err
	}

	if !conv.Event.IsPaid {
		return s.confirmNow(ctx, conv, user, decimal.Zero)
	}

	text := fmt.Sprintf(
		"'%s' is a paid event. The fee is %s.\n\nDo you have a discount code?",
		conv.Event.Name, formatFee(conv.Event.Fee),
	)
	err := s.sender.SendMessage(ctx, chat.Message{
		ChatID:  user.ID,
		Text:    text,
		Choices: []string{ChoiceDiscountYes, ChoiceDiscountNo},
	})
	if err != nil {
		return Conversation{}, err
	}
	conv.State = RegStateDiscountPrompt
	return conv, nil
}

// HandleDiscountChoice consumes the yes/no answer from DiscountPrompt.
func (s *RegistrationService) HandleDiscountChoice(ctx context.Context, conv Conversation, user chat.UserInfo, yes bool) (Conversation, error) {
	if yes {
		err := s.sender.SendMessage(ctx, chat.Message{
			ChatID:        user.ID,
			Text:          "Please enter your discount code:",
			RemoveChoices: true,
		})
		if err != nil {
			return Conversation{}, err
		}
		conv.State = RegStateDiscountCode
		return conv, nil
	}

	conv.FinalFee = conv.Event.Fee
	if err := s.sendPaymentInstructions(ctx, conv, user); err != nil {
		return Conversation{}, err
	}
	conv.State = RegStateReceipt
	return conv, nil
}

// HandleDiscountCode validates a submitted code. An invalid code
// re-prompts in the same state without consuming a use. A code that
// brings the fee to zero confirms the registration immediately,
// skipping the receipt step.
func (s *RegistrationService) HandleDiscountCode(ctx context.Context, conv Conversation, user chat.UserInfo, code string) (Conversation, error) {
	discount, err := s.discounts.GetValid(ctx, conv.Event.ID, domain.NormalizeCode(code))
	if errors.Is(err, domain.ErrDiscountNotFound) {
		sendErr := s.sender.SendMessage(ctx, chat.Message{
			ChatID: user.ID,
			Text:   "That code is not valid for this event. Try another code, or /cancel to stop.",
		})
		return conv, sendErr
	}
	if err != nil {
		return Conversation{}, err
	}

	conv.DiscountID = &discount.ID
	conv.FinalFee = discount.Apply(conv.Event.Fee)

	if conv.FinalFee.IsZero() {
		next, err := s.confirmNow(ctx, conv, user, conv.FinalFee)
		if err != nil {
			return next, err
		}
		if err := s.discounts.ConsumeUse(ctx, discount.ID); err != nil {
			s.logger.Error("consume discount use", "discount_id", discount.ID, "error", err)
		}
		return next, nil
	}

	text := fmt.Sprintf("Code accepted! Your fee is now %s.", formatFee(conv.FinalFee))
	if err := s.sender.SendMessage(ctx, chat.Message{ChatID: user.ID, Text: text}); err != nil {
		return Conversation{}, err
	}
	if err := s.sendPaymentInstructions(ctx, conv, user); err != nil {
		return Conversation{}, err
	}
	conv.State = RegStateReceipt
	return conv, nil
}

// HandleReceipt consumes the uploaded receipt image, records the
// pending registration, and forwards the receipt to the admin channel.
func (s *RegistrationService) HandleReceipt(ctx context.Context, conv Conversation, user chat.UserInfo, fileID string) (Conversation, error) {
	reg, err := s.regs.Create(ctx, domain.Registration{
		UserID:     user.ID,
		EventID:    conv.Event.ID,
		Status:     domain.StatusPendingVerification,
		DiscountID: conv.DiscountID,
		FinalFee:   conv.FinalFee,
	})
	if errors.Is(err, domain.ErrDuplicateRegistration) {
		sendErr := s.sender.SendMessage(ctx, chat.Message{
			ChatID: user.ID,
			Text:   "You already have a registration for this event.",
		})
		return Conversation{}, sendErr
	}
	if err != nil {
		return Conversation{}, err
	}

	if err := s.regs.AttachReceipt(ctx, reg.ID, fileID); err != nil {
		return Conversation{}, err
	}
	if conv.DiscountID != nil {
		if err := s.discounts.ConsumeUse(ctx, *conv.DiscountID); err != nil {
			s.logger.Error("consume discount use", "discount_id", *conv.DiscountID, "error", err)
		}
	}

	caption := fmt.Sprintf(
		"New receipt for '%s'\nUser: %s (@%s)\nUser ID: %d\nAmount due: %s\nRegistration ID: %d",
		conv.Event.Name, user.FirstName, user.Username, user.ID, formatFee(conv.FinalFee), reg.ID,
	)
	if err := s.sender.SendPhoto(ctx, chat.PhotoMessage{
		ChatID:  s.adminChatID,
		FileID:  fileID,
		Caption: caption,
	}); err != nil {
		return Conversation{}, err
	}

	err = s.sender.SendMessage(ctx, chat.Message{
		ChatID: user.ID,
		Text:   "Thanks! Your receipt has been received and is awaiting review. We'll notify you once it's approved.",
	})
	return Conversation{}, err
}

// Cancel aborts the conversation from any state.
func (s *RegistrationService) Cancel(ctx context.Context, user chat.UserInfo) (Conversation, error) {
	err := s.sender.SendMessage(ctx, chat.Message{
		ChatID:        user.ID,
		Text:          "Registration cancelled.",
		RemoveChoices: true,
	})
	return Conversation{}, err
}

func (s *RegistrationService) confirmNow(ctx context.Context, conv Conversation, user chat.UserInfo, fee decimal.Decimal) (Conversation, error) {
	ticket := NewTicketCode()
	_, err := s.regs.Create(ctx, domain.Registration{
		UserID:     user.ID,
		EventID:    conv.Event.ID,
		Status:     domain.StatusConfirmed,
		DiscountID: conv.DiscountID,
		FinalFee:   fee,
		TicketCode: &ticket,
	})
	if errors.Is(err, domain.ErrDuplicateRegistration) {
		sendErr := s.sender.SendMessage(ctx, chat.Message{
			ChatID:        user.ID,
			Text:          "You already have a registration for this event.",
			RemoveChoices: true,
		})
		return Conversation{}, sendErr
	}
	if err != nil {
		return Conversation{}, err
	}

	s.logger.Info("registration confirmed", "user_id", user.ID, "event_id", conv.Event.ID, "ticket", ticket)
	err = s.sender.SendMessage(ctx, chat.Message{
		ChatID: user.ID,
		Text: fmt.Sprintf(
			"You are confirmed for '%s'! 🎉\nYour ticket code: %s\nKeep it safe — you'll need it at the door.",
			conv.Event.Name, ticket,
		),
		RemoveChoices: true,
	})
	return Conversation{}, err
}

func (s *RegistrationService) sendPaymentInstructions(ctx context.Context, conv Conversation, user chat.UserInfo) error {
	text := fmt.Sprintf(
		"%s\n\nAmount due: %s\n\nAfter payment, please upload a clear photo or screenshot of your receipt.",
		conv.Event.PaymentDetails, formatFee(conv.FinalFee),
	)
	return s.sender.SendMessage(ctx, chat.Message{ChatID: user.ID, Text: text, RemoveChoices: true})
}

func formatFee(fee decimal.Decimal) string {
	if fee.IsZero() {
		return "Free"
	}
	return fee.StringFixed(0) + " Toman"
}
