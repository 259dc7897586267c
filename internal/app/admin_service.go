package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Pijatow/isocrates-bot/internal/chat"
	"github.com/Pijatow/isocrates-bot/internal/domain"
	"github.com/shopspring/decimal"
)

type AdminEventStore interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	Get(ctx context.Context, eventID int64) (domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	SetActive(ctx context.Context, eventID int64) error
	Delete(ctx context.Context, eventID int64) error
}

type AdminDiscountStore interface {
	Create(ctx context.Context, d domain.DiscountCode) (domain.DiscountCode, error)
	ListByEvent(ctx context.Context, eventID int64) ([]domain.DiscountCode, error)
	Delete(ctx context.Context, discountID int64) error
}

type AdminRegistrationStore interface {
	NextPendingWithReceipt(ctx context.Context) (domain.PendingReview, error)
	UpdateStatus(ctx context.Context, registrationID int64, status domain.RegistrationStatus, ticketCode *string) (*string, error)
	Participants(ctx context.Context, eventID int64) ([]domain.Participant, error)
}

// AdminService drives the nested admin menus: pending-registration
// review, event management, discount management, and participant
// listing. Every handler re-verifies the caller before doing anything;
// an unauthorized caller gets a rejection, a warning log, and no state
// change.
type AdminService struct {
	events    AdminEventStore
	discounts AdminDiscountStore
	regs      AdminRegistrationStore
	sender    chat.Sender
	logger    *slog.Logger
	admins    map[int64]bool
}

func NewAdminService(events AdminEventStore, discounts AdminDiscountStore, regs AdminRegistrationStore,
	sender chat.Sender, logger *slog.Logger, admins map[int64]bool) *AdminService {
	return &AdminService{
		events:    events,
		discounts: discounts,
		regs:      regs,
		sender:    sender,
		logger:    logger.With("component", "admin"),
		admins:    admins,
	}
}

// IsAdmin reports whether the user may enter the admin panel.
func (s *AdminService) IsAdmin(userID int64) bool {
	return s.admins[userID]
}

func (s *AdminService) authorize(ctx context.Context, user chat.UserInfo) bool {
	if s.admins[user.ID] {
		return true
	}
	s.logger.Warn("unauthorized admin access attempt",
		"user_id", user.ID, "username", user.Username)
	if err := s.sender.SendMessage(ctx, chat.Message{
		ChatID: user.ID,
		Text:   "Sorry, this command is for admins only.",
	}); err != nil {
		s.logger.Error("send rejection", "error", err)
	}
	return false
}

// display sends a new message or edits an existing one in place,
// depending on whether the caller arrived via a button press. The
// wizard-completion paths call the same render helpers directly, so
// there is no synthetic callback anywhere.
func (s *AdminService) display(ctx context.Context, chatID int64, edit *chat.MessageRef, text string, keyboard [][]chat.Button) error {
	if edit != nil {
		return s.sender.EditMessage(ctx, *edit, text, keyboard)
	}
	return s.sender.SendMessage(ctx, chat.Message{ChatID: chatID, Text: text, Keyboard: keyboard})
}

// Panel shows the top-level admin menu.
func (s *AdminService) Panel(ctx context.Context, user chat.UserInfo, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return AdminConversation{}, nil
	}
	keyboard := [][]chat.Button{
		{{Label: "View Pending Registrations", Action: chat.Action{Kind: chat.ActionViewPending}}},
		{{Label: "Manage Events", Action: chat.Action{Kind: chat.ActionManageEvents}}},
	}
	if err := s.display(ctx, user.ID, edit, "Admin Control Panel:", keyboard); err != nil {
		return AdminConversation{}, err
	}
	return AdminConversation{State: AdminStateChoosing}, nil
}

// ViewPending presents the oldest pending registration with a receipt.
// One registration is reviewed per invocation; the admin re-enters the
// panel for the next.
func (s *AdminService) ViewPending(ctx context.Context, user chat.UserInfo, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return AdminConversation{}, nil
	}

	review, err := s.regs.NextPendingWithReceipt(ctx)
	if errors.Is(err, domain.ErrNoPendingRegistration) {
		return AdminConversation{}, s.display(ctx, user.ID, edit, "No pending registrations found.", nil)
	}
	if err != nil {
		return AdminConversation{}, err
	}

	caption := fmt.Sprintf(
		"Pending registration for '%s'\nUser: %s (@%s)\nUser ID: %d\nRegistration ID: %d",
		review.EventName, review.FirstName, review.Username, review.UserID, review.RegistrationID,
	)
	keyboard := [][]chat.Button{{
		{Label: "✅ Approve", Action: chat.Action{Kind: chat.ActionApprove, RegistrationID: review.RegistrationID, UserID: review.UserID}},
		{Label: "❌ Reject", Action: chat.Action{Kind: chat.ActionReject, RegistrationID: review.RegistrationID, UserID: review.UserID}},
	}}
	err = s.sender.SendPhoto(ctx, chat.PhotoMessage{
		ChatID:   user.ID,
		FileID:   review.ReceiptFileID,
		Caption:  caption,
		Keyboard: keyboard,
	})
	return AdminConversation{}, err
}

// Approve confirms a registration, issues its ticket, and notifies the
// registrant. The store keeps the first ticket ever written for the
// row, so a repeated approval resends the original code instead of the
// freshly minted one.
func (s *AdminService) Approve(ctx context.Context, user chat.UserInfo, action chat.Action, ref chat.MessageRef) error {
	if !s.authorize(ctx, user) {
		return nil
	}

	ticket := NewTicketCode()
	stored, err := s.regs.UpdateStatus(ctx, action.RegistrationID, domain.StatusConfirmed, &ticket)
	if err != nil {
		return err
	}
	if stored != nil {
		ticket = *stored
	}
	s.logger.Info("registration approved", "registration_id", action.RegistrationID, "by", user.ID)

	if err := s.sender.EditCaption(ctx, ref, fmt.Sprintf("✅ Registration %d approved.", action.RegistrationID)); err != nil {
		return err
	}
	return s.sender.SendMessage(ctx, chat.Message{
		ChatID: action.UserID,
		Text: fmt.Sprintf(
			"Congratulations! Your registration has been approved.\nYour ticket code: %s",
			ticket,
		),
	})
}

// Reject marks a registration rejected and notifies the registrant.
func (s *AdminService) Reject(ctx context.Context, user chat.UserInfo, action chat.Action, ref chat.MessageRef) error {
	if !s.authorize(ctx, user) {
		return nil
	}

	if _, err := s.regs.UpdateStatus(ctx, action.RegistrationID, domain.StatusRejected, nil); err != nil {
		return err
	}
	s.logger.Info("registration rejected", "registration_id", action.RegistrationID, "by", user.ID)

	if err := s.sender.EditCaption(ctx, ref, fmt.Sprintf("❌ Registration %d rejected.", action.RegistrationID)); err != nil {
		return err
	}
	return s.sender.SendMessage(ctx, chat.Message{
		ChatID: action.UserID,
		Text:   "Unfortunately, your registration could not be approved. Please contact an admin for details.",
	})
}

// ManageEvents shows the event list menu.
func (s *AdminService) ManageEvents(ctx context.Context, user chat.UserInfo, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return AdminConversation{}, nil
	}
	if err := s.renderManageEvents(ctx, user.ID, edit); err != nil {
		return AdminConversation{}, err
	}
	return AdminConversation{State: AdminStateManagingEvents}, nil
}

func (s *AdminService) renderManageEvents(ctx context.Context, chatID int64, edit *chat.MessageRef) error {
	events, err := s.events.List(ctx)
	if err != nil {
		return err
	}

	var keyboard [][]chat.Button
	for _, event := range events {
		label := fmt.Sprintf("%s (%s)", event.Name, event.Date)
		if event.IsActive {
			label = "✅ " + label
		}
		keyboard = append(keyboard, []chat.Button{
			{Label: label, Action: chat.Action{Kind: chat.ActionViewEvent, EventID: event.ID}},
		})
	}
	keyboard = append(keyboard,
		[]chat.Button{{Label: "➕ Create New Event", Action: chat.Action{Kind: chat.ActionCreateEvent}}},
		[]chat.Button{{Label: "⬅️ Back to Admin Panel", Action: chat.Action{Kind: chat.ActionAdminBack}}},
	)
	return s.display(ctx, chatID, edit, "Event Management:", keyboard)
}

// ViewEvent shows one event's detail menu.
func (s *AdminService) ViewEvent(ctx context.Context, user chat.UserInfo, eventID int64, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return AdminConversation{}, nil
	}
	if err := s.renderViewEvent(ctx, user.ID, eventID, edit); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			conv, renderErr := s.ManageEvents(ctx, user, edit)
			if renderErr != nil {
				return AdminConversation{}, renderErr
			}
			return conv, nil
		}
		return AdminConversation{}, err
	}
	return AdminConversation{State: AdminStateViewingEvent, SelectedEventID: eventID}, nil
}

func (s *AdminService) renderViewEvent(ctx context.Context, chatID, eventID int64, edit *chat.MessageRef) error {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return err
	}

	status := "inactive"
	if event.IsActive {
		status = "active"
	}
	text := fmt.Sprintf(
		"Event: %s\nDate: %s\nFee: %s\nReminders: %s hours before\nStatus: %s\n\n%s",
		event.Name, event.Date, formatFee(event.Fee), event.Reminders, status, event.Description,
	)
	keyboard := [][]chat.Button{
		{{Label: "🎯 Set as Active", Action: chat.Action{Kind: chat.ActionSetActive, EventID: event.ID}}},
		{{Label: "🏷 Discount Codes", Action: chat.Action{Kind: chat.ActionManageDiscounts, EventID: event.ID}}},
		{{Label: "👥 Participants", Action: chat.Action{Kind: chat.ActionViewParticipants, EventID: event.ID}}},
		{{Label: "🗑 Delete Event", Action: chat.Action{Kind: chat.ActionDeleteEvent, EventID: event.ID}}},
		{{Label: "⬅️ Back to Events", Action: chat.Action{Kind: chat.ActionManageEvents}}},
	}
	return s.display(ctx, chatID, edit, text, keyboard)
}

// SetActiveEvent makes the event the sole active one and returns to
// the event list.
func (s *AdminService) SetActiveEvent(ctx context.Context, user chat.UserInfo, eventID int64, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return AdminConversation{}, nil
	}
	if err := s.events.SetActive(ctx, eventID); err != nil && !errors.Is(err, domain.ErrEventNotFound) {
		return AdminConversation{}, err
	}
	s.logger.Info("event set active", "event_id", eventID, "by", user.ID)
	return s.ManageEvents(ctx, user, edit)
}

// DeleteEvent removes the event with its registrations and discount
// codes, then returns to the event list. The store guarantees the
// cascade is all-or-nothing.
func (s *AdminService) DeleteEvent(ctx context.Context, user chat.UserInfo, eventID int64, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return AdminConversation{}, nil
	}
	if err := s.events.Delete(ctx, eventID); err != nil && !errors.Is(err, domain.ErrEventNotFound) {
		return AdminConversation{}, err
	}
	s.logger.Info("event deleted", "event_id", eventID, "by", user.ID)
	return s.ManageEvents(ctx, user, edit)
}

// ViewParticipants lists an event's registrations with their statuses.
func (s *AdminService) ViewParticipants(ctx context.Context, user chat.UserInfo, eventID int64, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return AdminConversation{}, nil
	}

	participants, err := s.regs.Participants(ctx, eventID)
	if err != nil {
		return AdminConversation{}, err
	}

	var b strings.Builder
	b.WriteString("Participants:\n")
	if len(participants) == 0 {
		b.WriteString("(none yet)\n")
	}
	for _, p := range participants {
		ticket := "-"
		if p.TicketCode != nil {
			ticket = *p.TicketCode
		}
		fmt.Fprintf(&b, "• %s (@%s) — %s, %s, ticket %s\n",
			p.FirstName, p.Username, p.Status, formatFee(p.FinalFee), ticket)
	}
	keyboard := [][]chat.Button{
		{{Label: "⬅️ Back to Event", Action: chat.Action{Kind: chat.ActionViewEvent, EventID: eventID}}},
	}
	if err := s.display(ctx, user.ID, edit, b.String(), keyboard); err != nil {
		return AdminConversation{}, err
	}
	return AdminConversation{State: AdminStateViewingEvent, SelectedEventID: eventID}, nil
}

// PromptEventName starts the event creation wizard.
func (s *AdminService) PromptEventName(ctx context.Context, user chat.UserInfo, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return AdminConversation{}, nil
	}
	if err := s.display(ctx, user.ID, edit, "Please enter the name for the new event:", nil); err != nil {
		return AdminConversation{}, err
	}
	return AdminConversation{State: AdminStateEventName}, nil
}

// HandlePaidChoice consumes the paid/free button of the event wizard.
func (s *AdminService) HandlePaidChoice(ctx context.Context, conv AdminConversation, user chat.UserInfo, paid bool, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return conv, nil
	}
	conv.EventDraft.IsPaid = paid
	if paid {
		if err := s.display(ctx, user.ID, edit, "Enter the registration fee (a number, in Toman):", nil); err != nil {
			return conv, err
		}
		conv.State = AdminStateEventFee
		return conv, nil
	}

	conv.EventDraft.Fee = decimal.Zero
	if err := s.display(ctx, user.ID, edit, remindersPrompt, nil); err != nil {
		return conv, err
	}
	conv.State = AdminStateEventReminders
	return conv, nil
}

// HandleDiscountKind consumes the percent/fixed button of the discount
// wizard.
func (s *AdminService) HandleDiscountKind(ctx context.Context, conv AdminConversation, user chat.UserInfo, kind domain.DiscountKind, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return conv, nil
	}
	conv.DiscountDraft.Kind = kind
	prompt := "Enter the discount value (percentage, 1-100):"
	if kind == domain.DiscountFixed {
		prompt = "Enter the discount amount (in Toman):"
	}
	if err := s.display(ctx, user.ID, edit, prompt, nil); err != nil {
		return conv, err
	}
	conv.State = AdminStateDiscountValue
	return conv, nil
}

// ManageDiscounts shows the discount list for the selected event.
func (s *AdminService) ManageDiscounts(ctx context.Context, user chat.UserInfo, eventID int64, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return AdminConversation{}, nil
	}
	if err := s.renderManageDiscounts(ctx, user.ID, eventID, edit); err != nil {
		return AdminConversation{}, err
	}
	return AdminConversation{State: AdminStateManagingDiscounts, SelectedEventID: eventID}, nil
}

func (s *AdminService) renderManageDiscounts(ctx context.Context, chatID, eventID int64, edit *chat.MessageRef) error {
	discounts, err := s.discounts.ListByEvent(ctx, eventID)
	if err != nil {
		return err
	}

	var keyboard [][]chat.Button
	for _, d := range discounts {
		unit := "%"
		if d.Kind == domain.DiscountFixed {
			unit = " Toman"
		}
		label := fmt.Sprintf("🗑 %s (−%s%s, %d uses left)", d.Code, d.Value, unit, d.UsesLeft)
		keyboard = append(keyboard, []chat.Button{
			{Label: label, Action: chat.Action{Kind: chat.ActionDeleteDiscount, DiscountID: d.ID}},
		})
	}
	keyboard = append(keyboard,
		[]chat.Button{{Label: "➕ Create Discount Code", Action: chat.Action{Kind: chat.ActionCreateDiscount}}},
		[]chat.Button{{Label: "⬅️ Back to Event", Action: chat.Action{Kind: chat.ActionViewEvent, EventID: eventID}}},
	)
	return s.display(ctx, chatID, edit, "Discount codes (tap to delete):", keyboard)
}

// PromptDiscountCode starts the discount creation wizard.
func (s *AdminService) PromptDiscountCode(ctx context.Context, conv AdminConversation, user chat.UserInfo, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return conv, nil
	}
	if err := s.display(ctx, user.ID, edit, "Enter the discount code text:", nil); err != nil {
		return conv, err
	}
	conv.State = AdminStateDiscountCode
	conv.DiscountDraft = DiscountDraft{}
	return conv, nil
}

// DeleteDiscount removes a code and re-renders the discount list.
func (s *AdminService) DeleteDiscount(ctx context.Context, conv AdminConversation, user chat.UserInfo, discountID int64, edit *chat.MessageRef) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return conv, nil
	}
	if err := s.discounts.Delete(ctx, discountID); err != nil && !errors.Is(err, domain.ErrDiscountNotFound) {
		return conv, err
	}
	s.logger.Info("discount deleted", "discount_id", discountID, "by", user.ID)
	return s.ManageDiscounts(ctx, user, conv.SelectedEventID, edit)
}

const remindersPrompt = "Enter the reminder schedule as comma-separated hours before the event (e.g. 24, 1):"

// HandleText consumes free-text replies inside the admin wizards.
// Invalid input re-prompts within the same state.
func (s *AdminService) HandleText(ctx context.Context, conv AdminConversation, user chat.UserInfo, text string) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return conv, nil
	}
	text = strings.TrimSpace(text)

	switch conv.State {
	case AdminStateEventName:
		if text == "" {
			return conv, s.prompt(ctx, user.ID, "The event needs a name. Please enter one:")
		}
		conv.EventDraft.Name = text
		conv.State = AdminStateEventDescription
		return conv, s.prompt(ctx, user.ID, "Great. Now enter a short description:")

	case AdminStateEventDescription:
		conv.EventDraft.Description = text
		conv.State = AdminStateEventDate
		return conv, s.prompt(ctx, user.ID, "Enter the event date and time in YYYY-MM-DD HH:MM format:")

	case AdminStateEventDate:
		if _, err := time.Parse(domain.EventDateLayout, text); err != nil {
			return conv, s.prompt(ctx, user.ID, "That doesn't look like YYYY-MM-DD HH:MM. Please try again:")
		}
		conv.EventDraft.Date = text
		conv.State = AdminStateEventPaid
		keyboard := [][]chat.Button{{
			{Label: "Paid", Action: chat.Action{Kind: chat.ActionEventPaidYes}},
			{Label: "Free", Action: chat.Action{Kind: chat.ActionEventPaidNo}},
		}}
		return conv, s.sender.SendMessage(ctx, chat.Message{ChatID: user.ID, Text: "Is this a paid event?", Keyboard: keyboard})

	case AdminStateEventFee:
		fee, err := decimal.NewFromString(text)
		if err != nil || fee.IsNegative() || fee.IsZero() {
			return conv, s.prompt(ctx, user.ID, "The fee must be a positive number. Please try again:")
		}
		conv.EventDraft.Fee = fee
		conv.State = AdminStateEventPayment
		return conv, s.prompt(ctx, user.ID, "Enter the payment instructions shown to registrants:")

	case AdminStateEventPayment:
		conv.EventDraft.PaymentDetails = text
		conv.State = AdminStateEventReminders
		return conv, s.prompt(ctx, user.ID, remindersPrompt)

	case AdminStateEventReminders:
		reminders, err := domain.ParseReminderList(text)
		if err != nil {
			return conv, s.prompt(ctx, user.ID, "Reminders must be comma-separated positive hours (e.g. 24, 1). Please try again:")
		}
		conv.EventDraft.Reminders = reminders
		return s.saveEvent(ctx, conv, user)

	case AdminStateDiscountCode:
		code := domain.NormalizeCode(text)
		if code == "" {
			return conv, s.prompt(ctx, user.ID, "The code can't be empty. Please enter one:")
		}
		conv.DiscountDraft.Code = code
		conv.State = AdminStateDiscountKind
		keyboard := [][]chat.Button{{
			{Label: "Percentage", Action: chat.Action{Kind: chat.ActionDiscountPercent}},
			{Label: "Fixed Amount", Action: chat.Action{Kind: chat.ActionDiscountFixed}},
		}}
		return conv, s.sender.SendMessage(ctx, chat.Message{ChatID: user.ID, Text: "What kind of discount is it?", Keyboard: keyboard})

	case AdminStateDiscountValue:
		value, err := decimal.NewFromString(text)
		if err != nil || !value.IsPositive() {
			return conv, s.prompt(ctx, user.ID, "The value must be a positive number. Please try again:")
		}
		if conv.DiscountDraft.Kind == domain.DiscountPercent && value.GreaterThan(decimal.NewFromInt(100)) {
			return conv, s.prompt(ctx, user.ID, "A percentage can't exceed 100. Please try again:")
		}
		conv.DiscountDraft.Value = value
		conv.State = AdminStateDiscountUses
		return conv, s.prompt(ctx, user.ID, "How many times can this code be used?")

	case AdminStateDiscountUses:
		uses, err := strconv.Atoi(text)
		if err != nil || uses <= 0 {
			return conv, s.prompt(ctx, user.ID, "The use count must be a positive integer. Please try again:")
		}
		conv.DiscountDraft.Uses = uses
		return s.saveDiscount(ctx, conv, user)
	}

	return conv, nil
}

func (s *AdminService) prompt(ctx context.Context, chatID int64, text string) error {
	return s.sender.SendMessage(ctx, chat.Message{ChatID: chatID, Text: text})
}

// saveEvent persists the wizard draft as the new sole active event. A
// save failure reports a generic error and falls back to the event
// menu instead of leaving the wizard stuck.
func (s *AdminService) saveEvent(ctx context.Context, conv AdminConversation, user chat.UserInfo) (AdminConversation, error) {
	draft := conv.EventDraft
	event, err := s.events.Create(ctx, domain.Event{
		Name:           draft.Name,
		Description:    draft.Description,
		Date:           draft.Date,
		IsPaid:         draft.IsPaid,
		Fee:            draft.Fee,
		PaymentDetails: draft.PaymentDetails,
		Reminders:      draft.Reminders,
	})
	if err != nil {
		s.logger.Error("save event", "error", err)
		if sendErr := s.prompt(ctx, user.ID, "Something went wrong saving the event. Please start over."); sendErr != nil {
			return AdminConversation{}, sendErr
		}
		if renderErr := s.renderManageEvents(ctx, user.ID, nil); renderErr != nil {
			return AdminConversation{}, renderErr
		}
		return AdminConversation{State: AdminStateManagingEvents}, nil
	}

	s.logger.Info("event created", "event_id", event.ID, "name", event.Name, "by", user.ID)
	if err := s.prompt(ctx, user.ID, fmt.Sprintf("✅ New event '%s' created and set as active.", event.Name)); err != nil {
		return AdminConversation{}, err
	}
	if err := s.renderManageEvents(ctx, user.ID, nil); err != nil {
		return AdminConversation{}, err
	}
	return AdminConversation{State: AdminStateManagingEvents}, nil
}

// saveDiscount persists the discount draft against the selected event.
func (s *AdminService) saveDiscount(ctx context.Context, conv AdminConversation, user chat.UserInfo) (AdminConversation, error) {
	draft := conv.DiscountDraft
	created, err := s.discounts.Create(ctx, domain.DiscountCode{
		EventID:  conv.SelectedEventID,
		Code:     draft.Code,
		Kind:     draft.Kind,
		Value:    draft.Value,
		UsesLeft: draft.Uses,
	})
	if err != nil {
		msg := "Something went wrong saving the discount code. Please start over."
		if errors.Is(err, domain.ErrDuplicateDiscount) {
			msg = fmt.Sprintf("A code '%s' already exists for this event.", draft.Code)
		} else {
			s.logger.Error("save discount", "error", err)
		}
		if sendErr := s.prompt(ctx, user.ID, msg); sendErr != nil {
			return AdminConversation{}, sendErr
		}
		return s.ManageDiscounts(ctx, user, conv.SelectedEventID, nil)
	}

	s.logger.Info("discount created", "discount_id", created.ID, "code", created.Code, "by", user.ID)
	if err := s.prompt(ctx, user.ID, fmt.Sprintf("✅ Discount code '%s' created.", created.Code)); err != nil {
		return AdminConversation{}, err
	}
	return s.ManageDiscounts(ctx, user, conv.SelectedEventID, nil)
}

// Cancel aborts any admin action and clears transient wizard data.
func (s *AdminService) Cancel(ctx context.Context, user chat.UserInfo) (AdminConversation, error) {
	if !s.authorize(ctx, user) {
		return AdminConversation{}, nil
	}
	err := s.sender.SendMessage(ctx, chat.Message{ChatID: user.ID, Text: "Admin action cancelled."})
	return AdminConversation{}, err
}
