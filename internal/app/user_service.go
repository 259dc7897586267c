package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Pijatow/isocrates-bot/internal/chat"
	"github.com/Pijatow/isocrates-bot/internal/domain"
)

type UserStore interface {
	Upsert(ctx context.Context, user domain.User) error
	Get(ctx context.Context, userID int64) (domain.User, error)
	FindByReferralCode(ctx context.Context, code string) (domain.User, error)
	SetReferralCode(ctx context.Context, userID int64, code string) error
	SetReferredBy(ctx context.Context, userID, inviterID int64) error
	IncrementReferralCount(ctx context.Context, userID int64) error
	ReferralInfo(ctx context.Context, userID int64) (domain.ReferralInfo, error)
}

type TicketLookupStore interface {
	FindByUserAndEvent(ctx context.Context, userID, eventID int64) (*domain.Registration, error)
}

type ActiveEventStore interface {
	GetActive(ctx context.Context) (domain.Event, error)
}

// UserService owns user records and the commands that do not belong to
// either state machine: referral links, ticket lookup, and help.
type UserService struct {
	users   UserStore
	regs    TicketLookupStore
	events  ActiveEventStore
	sender  chat.Sender
	logger  *slog.Logger
	botName string
}

func NewUserService(users UserStore, regs TicketLookupStore, events ActiveEventStore,
	sender chat.Sender, logger *slog.Logger, botName string) *UserService {
	return &UserService{
		users:   users,
		regs:    regs,
		events:  events,
		sender:  sender,
		logger:  logger.With("component", "user"),
		botName: botName,
	}
}

// Touch records the user on every contact. A referral argument on the
// first /start credits the inviter once; later contacts and
// self-referrals are ignored.
func (s *UserService) Touch(ctx context.Context, user chat.UserInfo, referralArg string) error {
	existing, err := s.users.Get(ctx, user.ID)
	known := err == nil
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	if err := s.users.Upsert(ctx, domain.User{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
	}); err != nil {
		return err
	}

	code := domain.NormalizeCode(referralArg)
	if code == "" || (known && existing.ReferredBy != nil) {
		return nil
	}
	if known {
		// Already contacted us without being referred; no retroactive
		// credit.
		return nil
	}

	inviter, err := s.users.FindByReferralCode(ctx, code)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Info("unknown referral code on first contact", "code", code, "user_id", user.ID)
		return nil
	}
	if err != nil {
		return err
	}
	if inviter.ID == user.ID {
		return nil
	}

	if err := s.users.SetReferredBy(ctx, user.ID, inviter.ID); err != nil {
		return err
	}
	if err := s.users.IncrementReferralCount(ctx, inviter.ID); err != nil {
		return err
	}
	s.logger.Info("referral credited", "inviter_id", inviter.ID, "user_id", user.ID)

	err = s.sender.SendMessage(ctx, chat.Message{
		ChatID: inviter.ID,
		Text:   fmt.Sprintf("🎉 %s joined through your referral link!", displayName(user)),
	})
	if err != nil {
		s.logger.Error("notify inviter", "inviter_id", inviter.ID, "error", err)
	}
	return nil
}

// MyReferral shows the user's referral link and score, minting a code
// on first use.
func (s *UserService) MyReferral(ctx context.Context, user chat.UserInfo) error {
	info, err := s.users.ReferralInfo(ctx, user.ID)
	if err != nil {
		return err
	}
	if info.Code == "" {
		code := NewReferralCode()
		if err := s.users.SetReferralCode(ctx, user.ID, code); err != nil {
			return err
		}
		// Re-read: a concurrent mint may have won.
		info, err = s.users.ReferralInfo(ctx, user.ID)
		if err != nil {
			return err
		}
	}

	text := fmt.Sprintf(
		"Your referral link:\nhttps://t.me/%s?start=%s\n\nFriends joined so far: %d",
		s.botName, info.Code, info.Count,
	)
	return s.sender.SendMessage(ctx, chat.Message{ChatID: user.ID, Text: text})
}

// MyTicket re-sends the user's ticket for the active event.
func (s *UserService) MyTicket(ctx context.Context, user chat.UserInfo) error {
	event, err := s.events.GetActive(ctx)
	if errors.Is(err, domain.ErrNoActiveEvent) {
		return s.sender.SendMessage(ctx, chat.Message{
			ChatID: user.ID,
			Text:   "There is no event open right now.",
		})
	}
	if err != nil {
		return err
	}

	reg, err := s.regs.FindByUserAndEvent(ctx, user.ID, event.ID)
	if err != nil {
		return err
	}

	var text string
	switch {
	case reg == nil:
		text = fmt.Sprintf("You are not registered for '%s'. Send /start to sign up.", event.Name)
	case reg.Status == domain.StatusConfirmed && reg.TicketCode != nil:
		text = fmt.Sprintf("Your ticket for '%s': %s", event.Name, *reg.TicketCode)
	case reg.Status == domain.StatusPendingVerification:
		text = fmt.Sprintf("Your registration for '%s' is still awaiting approval.", event.Name)
	default:
		text = fmt.Sprintf("Your registration for '%s' was not approved. Please contact an admin.", event.Name)
	}
	return s.sender.SendMessage(ctx, chat.Message{ChatID: user.ID, Text: text})
}

// Help lists the commands available to the user.
func (s *UserService) Help(ctx context.Context, user chat.UserInfo, isAdmin bool) error {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	b.WriteString("/start — register for the current event\n")
	b.WriteString("/myticket — show your ticket\n")
	b.WriteString("/myreferral — get your referral link\n")
	b.WriteString("/cancel — abort the current conversation\n")
	b.WriteString("/help — this message\n")
	if isAdmin {
		b.WriteString("/admin — open the admin panel\n")
	}
	return s.sender.SendMessage(ctx, chat.Message{ChatID: user.ID, Text: b.String()})
}

func displayName(user chat.UserInfo) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	return fmt.Sprintf("User %d", user.ID)
}
