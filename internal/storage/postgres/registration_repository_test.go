package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/Pijatow/isocrates-bot/internal/domain"
	"github.com/Pijatow/isocrates-bot/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestRegistrationRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewRegistrationRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	setup := func(ctx context.Context) int64 {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertUser(t, ctx, pool, 42, "sam")
		testutil.InsertUser(t, ctx, pool, 43, "ines")
		return testutil.InsertEvent(t, ctx, pool, domain.Event{
			Name: "Workshop", IsActive: true, Fee: decimal.NewFromInt(100000),
		})
	}

	t.Run("duplicate live registration is rejected", func(t *testing.T) {
		ctx := context.Background()
		eventID := setup(ctx)

		_, err := repo.Create(ctx, domain.Registration{
			UserID: 42, EventID: eventID, Status: domain.StatusPendingVerification, FinalFee: decimal.Zero,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		_, err = repo.Create(ctx, domain.Registration{
			UserID: 42, EventID: eventID, Status: domain.StatusPendingVerification, FinalFee: decimal.Zero,
		})
		if !errors.Is(err, domain.ErrDuplicateRegistration) {
			t.Fatalf("expected ErrDuplicateRegistration, got %v", err)
		}
	})

	t.Run("a rejected registration does not block a new one", func(t *testing.T) {
		ctx := context.Background()
		eventID := setup(ctx)

		testutil.InsertRegistration(t, ctx, pool, domain.Registration{
			UserID: 42, EventID: eventID, Status: domain.StatusRejected, FinalFee: decimal.Zero,
		})

		_, err := repo.Create(ctx, domain.Registration{
			UserID: 42, EventID: eventID, Status: domain.StatusPendingVerification, FinalFee: decimal.Zero,
		})
		if err != nil {
			t.Fatalf("expected re-registration after rejection, got %v", err)
		}
	})

	t.Run("ticket code is assigned exactly once", func(t *testing.T) {
		ctx := context.Background()
		eventID := setup(ctx)

		regID := testutil.InsertRegistration(t, ctx, pool, domain.Registration{
			UserID: 42, EventID: eventID, Status: domain.StatusPendingVerification, FinalFee: decimal.Zero,
		})

		first := "TKT-FIRST"
		stored, err := repo.UpdateStatus(ctx, regID, domain.StatusConfirmed, &first)
		if err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if stored == nil || *stored != first {
			t.Fatalf("expected ticket %q reported, got %v", first, stored)
		}

		second := "TKT-SECOND"
		stored, err = repo.UpdateStatus(ctx, regID, domain.StatusConfirmed, &second)
		if err != nil {
			t.Fatalf("re-confirm: %v", err)
		}
		if stored == nil || *stored != first {
			t.Fatalf("re-confirm must report the kept ticket %q, got %v", first, stored)
		}

		reg, err := repo.FindByUserAndEvent(ctx, 42, eventID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if reg == nil || reg.TicketCode == nil || *reg.TicketCode != first {
			t.Fatalf("expected ticket %q kept, got %+v", first, reg)
		}

		if _, err := repo.UpdateStatus(ctx, 99999, domain.StatusConfirmed, nil); !errors.Is(err, domain.ErrRegistrationNotFound) {
			t.Fatalf("expected ErrRegistrationNotFound, got %v", err)
		}
	})

	t.Run("NextPendingWithReceipt returns the oldest reviewable", func(t *testing.T) {
		ctx := context.Background()
		eventID := setup(ctx)

		_, err := repo.NextPendingWithReceipt(ctx)
		if !errors.Is(err, domain.ErrNoPendingRegistration) {
			t.Fatalf("expected ErrNoPendingRegistration, got %v", err)
		}

		// No receipt yet: not reviewable.
		first := testutil.InsertRegistration(t, ctx, pool, domain.Registration{
			UserID: 42, EventID: eventID, Status: domain.StatusPendingVerification, FinalFee: decimal.Zero,
		})
		receipt := "file-2"
		testutil.InsertRegistration(t, ctx, pool, domain.Registration{
			UserID: 43, EventID: eventID, Status: domain.StatusPendingVerification,
			ReceiptFileID: &receipt, FinalFee: decimal.Zero,
		})

		review, err := repo.NextPendingWithReceipt(ctx)
		if err != nil {
			t.Fatalf("next pending: %v", err)
		}
		if review.UserID != 43 || review.ReceiptFileID != "file-2" || review.EventName != "Workshop" {
			t.Fatalf("unexpected review: %+v", review)
		}

		if err := repo.AttachReceipt(ctx, first, "file-1"); err != nil {
			t.Fatalf("attach receipt: %v", err)
		}
		review, err = repo.NextPendingWithReceipt(ctx)
		if err != nil {
			t.Fatalf("next pending: %v", err)
		}
		if review.RegistrationID != first {
			t.Fatalf("expected the older registration first, got %+v", review)
		}
	})

	t.Run("ConfirmedAttendees and Participants", func(t *testing.T) {
		ctx := context.Background()
		eventID := setup(ctx)

		ticket := "TKT-A"
		testutil.InsertRegistration(t, ctx, pool, domain.Registration{
			UserID: 42, EventID: eventID, Status: domain.StatusConfirmed,
			FinalFee: decimal.NewFromInt(50000), TicketCode: &ticket,
		})
		testutil.InsertRegistration(t, ctx, pool, domain.Registration{
			UserID: 43, EventID: eventID, Status: domain.StatusPendingVerification, FinalFee: decimal.Zero,
		})

		attendees, err := repo.ConfirmedAttendees(ctx, eventID)
		if err != nil {
			t.Fatalf("confirmed attendees: %v", err)
		}
		if len(attendees) != 1 || attendees[0] != 42 {
			t.Fatalf("expected only user 42, got %v", attendees)
		}

		participants, err := repo.Participants(ctx, eventID)
		if err != nil {
			t.Fatalf("participants: %v", err)
		}
		if len(participants) != 2 {
			t.Fatalf("expected 2 participants, got %d", len(participants))
		}
		if participants[0].Username != "sam" || participants[0].TicketCode == nil {
			t.Fatalf("unexpected first participant: %+v", participants[0])
		}
	})
}
