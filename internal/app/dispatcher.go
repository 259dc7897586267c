package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Pijatow/isocrates-bot/internal/chat"
	"github.com/Pijatow/isocrates-bot/internal/clock"
	"github.com/Pijatow/isocrates-bot/internal/domain"
)

// reminderTickInterval is how often the scheduler scans for due
// reminders. It equals the reminder window, so each reminder moment is
// covered by exactly one tick.
const reminderTickInterval = time.Minute

// Beat records that the event loop is alive. The watchdog restarts the
// process when beats stop arriving.
type Beat func(now time.Time) error

// Dispatcher is the bot's single event loop. It owns all conversation
// state and serializes every update, reminder tick, and heartbeat
// through one goroutine, so the state machines never need locks. The
// heartbeat is written from this same loop: a wedged loop stops
// beating and gets restarted from outside.
type Dispatcher struct {
	updates   <-chan chat.Update
	sender    chat.Sender
	reg       *RegistrationService
	admin     *AdminService
	users     *UserService
	reminders *ReminderService
	beat      Beat
	beatEvery time.Duration
	clock     clock.Clock
	logger    *slog.Logger

	convs      map[int64]Conversation
	adminConvs map[int64]AdminConversation
}

func NewDispatcher(updates <-chan chat.Update, sender chat.Sender,
	reg *RegistrationService, admin *AdminService, users *UserService, reminders *ReminderService,
	beat Beat, beatEvery time.Duration, clk clock.Clock, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		updates:    updates,
		sender:     sender,
		reg:        reg,
		admin:      admin,
		users:      users,
		reminders:  reminders,
		beat:       beat,
		beatEvery:  beatEvery,
		clock:      clk,
		logger:     logger.With("component", "dispatcher"),
		convs:      make(map[int64]Conversation),
		adminConvs: make(map[int64]AdminConversation),
	}
}

// Run drives the loop until the context is cancelled, the update
// channel closes, or the network is declared down. A network-down
// return means the caller should clear the heartbeat and exit so the
// watchdog relaunches a fresh process.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.beat(d.clock.Now()); err != nil {
		return err
	}
	// A reminder moment crossing the boot minute must not wait out the
	// first full ticker interval.
	if err := d.reminderPass(ctx); err != nil {
		return err
	}

	reminderTick := time.NewTicker(reminderTickInterval)
	defer reminderTick.Stop()
	heartbeatTick := time.NewTicker(d.beatEvery)
	defer heartbeatTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case upd, ok := <-d.updates:
			if !ok {
				return nil
			}
			if err := d.Handle(ctx, upd); err != nil {
				if errors.Is(err, chat.ErrNetworkDown) {
					return err
				}
				d.logger.Error("update failed",
					"chat_id", upd.ChatID, "user_id", upd.From.ID, "error", err)
			}

		case <-reminderTick.C:
			if err := d.reminderPass(ctx); err != nil {
				return err
			}

		case <-heartbeatTick.C:
			if err := d.beat(d.clock.Now()); err != nil {
				d.logger.Error("heartbeat write failed", "error", err)
			}
		}
	}
}

// reminderPass runs one reminder scan; only a network-down error stops
// the loop.
func (d *Dispatcher) reminderPass(ctx context.Context) error {
	if err := d.reminders.Tick(ctx); err != nil {
		if errors.Is(err, chat.ErrNetworkDown) {
			return err
		}
		d.logger.Error("reminder pass failed", "error", err)
	}
	return nil
}

// Handle routes one update through the state machines.
func (d *Dispatcher) Handle(ctx context.Context, upd chat.Update) error {
	switch upd.Kind {
	case chat.UpdateCommand:
		return d.handleCommand(ctx, upd)
	case chat.UpdateText:
		return d.handleText(ctx, upd)
	case chat.UpdatePhoto:
		return d.handlePhoto(ctx, upd)
	case chat.UpdateCallback:
		return d.handleCallback(ctx, upd)
	}
	return nil
}

func (d *Dispatcher) handleCommand(ctx context.Context, upd chat.Update) error {
	userID := upd.From.ID

	switch upd.Command {
	case "start":
		arg := strings.TrimSpace(upd.Args)
		if err := d.users.Touch(ctx, upd.From, arg); err != nil {
			d.logger.Error("record user", "user_id", userID, "error", err)
		}
		conv, err := d.reg.Start(ctx, upd.From)
		d.setConv(userID, conv)
		return err

	case "admin":
		conv, err := d.admin.Panel(ctx, upd.From, nil)
		d.setAdminConv(userID, conv)
		return err

	case "cancel":
		return d.cancel(ctx, upd.From)

	case "myticket":
		return d.users.MyTicket(ctx, upd.From)

	case "myreferral":
		return d.users.MyReferral(ctx, upd.From)

	default:
		// Unknown commands get the help text too.
		fallthrough
	case "help":
		return d.users.Help(ctx, upd.From, d.admin.IsAdmin(userID))
	}
}

func (d *Dispatcher) cancel(ctx context.Context, user chat.UserInfo) error {
	adminConv, inAdmin := d.adminConvs[user.ID]
	delete(d.convs, user.ID)
	delete(d.adminConvs, user.ID)

	if inAdmin && adminConv.State != AdminStateIdle {
		_, err := d.admin.Cancel(ctx, user)
		return err
	}
	_, err := d.reg.Cancel(ctx, user)
	return err
}

func (d *Dispatcher) handleText(ctx context.Context, upd chat.Update) error {
	userID := upd.From.ID

	if adminConv, ok := d.adminConvs[userID]; ok && adminTextState(adminConv.State) {
		next, err := d.admin.HandleText(ctx, adminConv, upd.From, upd.Text)
		d.setAdminConv(userID, next)
		return err
	}

	conv, ok := d.convs[userID]
	if !ok {
		return nil
	}

	var (
		next Conversation
		err  error
	)
	switch conv.State {
	case RegStateChoosing:
		switch upd.Text {
		case ChoiceRegisterYes:
			next, err = d.reg.HandleChoice(ctx, conv, upd.From, true)
		case ChoiceRegisterNo:
			next, err = d.reg.HandleChoice(ctx, conv, upd.From, false)
		default:
			return nil
		}
	case RegStateDiscountPrompt:
		switch upd.Text {
		case ChoiceDiscountYes:
			next, err = d.reg.HandleDiscountChoice(ctx, conv, upd.From, true)
		case ChoiceDiscountNo:
			next, err = d.reg.HandleDiscountChoice(ctx, conv, upd.From, false)
		default:
			return nil
		}
	case RegStateDiscountCode:
		next, err = d.reg.HandleDiscountCode(ctx, conv, upd.From, upd.Text)
	default:
		return nil
	}

	d.setConv(userID, next)
	return err
}

func adminTextState(state AdminState) bool {
	switch state {
	case AdminStateEventName, AdminStateEventDescription, AdminStateEventDate,
		AdminStateEventFee, AdminStateEventPayment, AdminStateEventReminders,
		AdminStateDiscountCode, AdminStateDiscountValue, AdminStateDiscountUses:
		return true
	}
	return false
}

func (d *Dispatcher) handlePhoto(ctx context.Context, upd chat.Update) error {
	userID := upd.From.ID
	conv, ok := d.convs[userID]
	if !ok || conv.State != RegStateReceipt {
		return nil
	}
	next, err := d.reg.HandleReceipt(ctx, conv, upd.From, upd.PhotoFileID)
	d.setConv(userID, next)
	return err
}

func (d *Dispatcher) handleCallback(ctx context.Context, upd chat.Update) error {
	if err := d.sender.AnswerCallback(ctx, upd.CallbackID, "", false); err != nil {
		if errors.Is(err, chat.ErrNetworkDown) {
			return err
		}
		d.logger.Error("answer callback", "error", err)
	}

	action, err := chat.ParseAction(upd.Payload)
	if err != nil {
		d.logger.Warn("undecodable callback ignored",
			"payload", upd.Payload, "user_id", upd.From.ID)
		return nil
	}

	userID := upd.From.ID
	ref := chat.MessageRef{ChatID: upd.ChatID, MessageID: upd.MessageID}
	adminConv := d.adminConvs[userID]

	var next AdminConversation
	switch action.Kind {
	case chat.ActionViewPending:
		next, err = d.admin.ViewPending(ctx, upd.From, &ref)
	case chat.ActionManageEvents:
		next, err = d.admin.ManageEvents(ctx, upd.From, &ref)
	case chat.ActionAdminBack:
		next, err = d.admin.Panel(ctx, upd.From, &ref)
	case chat.ActionCreateEvent:
		next, err = d.admin.PromptEventName(ctx, upd.From, &ref)
	case chat.ActionViewEvent:
		next, err = d.admin.ViewEvent(ctx, upd.From, action.EventID, &ref)
	case chat.ActionSetActive:
		next, err = d.admin.SetActiveEvent(ctx, upd.From, action.EventID, &ref)
	case chat.ActionDeleteEvent:
		next, err = d.admin.DeleteEvent(ctx, upd.From, action.EventID, &ref)
	case chat.ActionViewParticipants:
		next, err = d.admin.ViewParticipants(ctx, upd.From, action.EventID, &ref)
	case chat.ActionManageDiscounts:
		next, err = d.admin.ManageDiscounts(ctx, upd.From, action.EventID, &ref)
	case chat.ActionCreateDiscount:
		next, err = d.admin.PromptDiscountCode(ctx, adminConv, upd.From, &ref)
	case chat.ActionDeleteDiscount:
		next, err = d.admin.DeleteDiscount(ctx, adminConv, upd.From, action.DiscountID, &ref)
	case chat.ActionEventPaidYes:
		next, err = d.admin.HandlePaidChoice(ctx, adminConv, upd.From, true, &ref)
	case chat.ActionEventPaidNo:
		next, err = d.admin.HandlePaidChoice(ctx, adminConv, upd.From, false, &ref)
	case chat.ActionDiscountPercent:
		next, err = d.admin.HandleDiscountKind(ctx, adminConv, upd.From, domain.DiscountPercent, &ref)
	case chat.ActionDiscountFixed:
		next, err = d.admin.HandleDiscountKind(ctx, adminConv, upd.From, domain.DiscountFixed, &ref)
	case chat.ActionApprove:
		return d.admin.Approve(ctx, upd.From, action, ref)
	case chat.ActionReject:
		return d.admin.Reject(ctx, upd.From, action, ref)
	default:
		return nil
	}

	d.setAdminConv(userID, next)
	return err
}

func (d *Dispatcher) setConv(userID int64, conv Conversation) {
	if conv.State == RegStateIdle {
		delete(d.convs, userID)
		return
	}
	d.convs[userID] = conv
}

func (d *Dispatcher) setAdminConv(userID int64, conv AdminConversation) {
	if conv.State == AdminStateIdle {
		delete(d.adminConvs, userID)
		return
	}
	d.adminConvs[userID] = conv
}
