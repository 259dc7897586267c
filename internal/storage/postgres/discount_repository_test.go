package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/Pijatow/isocrates-bot/internal/domain"
	"github.com/Pijatow/isocrates-bot/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestDiscountRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewDiscountRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	setup := func(ctx context.Context) int64 {
		testutil.TruncateAll(t, ctx, pool)
		return testutil.InsertEvent(t, ctx, pool, domain.Event{
			Name: "Workshop", IsActive: true, Fee: decimal.NewFromInt(100000),
		})
	}

	t.Run("Create enforces one code per event", func(t *testing.T) {
		ctx := context.Background()
		eventID := setup(ctx)

		_, err := repo.Create(ctx, domain.DiscountCode{
			EventID: eventID, Code: "HALF", Kind: domain.DiscountPercent,
			Value: decimal.NewFromInt(50), UsesLeft: 5,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		_, err = repo.Create(ctx, domain.DiscountCode{
			EventID: eventID, Code: "HALF", Kind: domain.DiscountFixed,
			Value: decimal.NewFromInt(1000), UsesLeft: 1,
		})
		if !errors.Is(err, domain.ErrDuplicateDiscount) {
			t.Fatalf("expected ErrDuplicateDiscount, got %v", err)
		}

		_, err = repo.Create(ctx, domain.DiscountCode{
			EventID: 99999, Code: "GHOST", Kind: domain.DiscountPercent,
			Value: decimal.NewFromInt(10), UsesLeft: 1,
		})
		if !errors.Is(err, domain.ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})

	t.Run("GetValid hides exhausted codes", func(t *testing.T) {
		ctx := context.Background()
		eventID := setup(ctx)

		id := testutil.InsertDiscount(t, ctx, pool, domain.DiscountCode{
			EventID: eventID, Code: "ONCE", Kind: domain.DiscountPercent,
			Value: decimal.NewFromInt(10), UsesLeft: 1,
		})

		d, err := repo.GetValid(ctx, eventID, "ONCE")
		if err != nil {
			t.Fatalf("get valid: %v", err)
		}
		if d.ID != id {
			t.Fatalf("unexpected discount: %+v", d)
		}

		if err := repo.ConsumeUse(ctx, id); err != nil {
			t.Fatalf("consume: %v", err)
		}
		_, err = repo.GetValid(ctx, eventID, "ONCE")
		if !errors.Is(err, domain.ErrDiscountNotFound) {
			t.Fatalf("expected ErrDiscountNotFound once exhausted, got %v", err)
		}
	})

	t.Run("ConsumeUse never goes below zero", func(t *testing.T) {
		ctx := context.Background()
		eventID := setup(ctx)

		id := testutil.InsertDiscount(t, ctx, pool, domain.DiscountCode{
			EventID: eventID, Code: "ONCE", Kind: domain.DiscountPercent,
			Value: decimal.NewFromInt(10), UsesLeft: 1,
		})

		if err := repo.ConsumeUse(ctx, id); err != nil {
			t.Fatalf("first consume: %v", err)
		}
		if err := repo.ConsumeUse(ctx, id); !errors.Is(err, domain.ErrDiscountExhausted) {
			t.Fatalf("expected ErrDiscountExhausted, got %v", err)
		}

		var left int
		if err := pool.QueryRow(ctx, `SELECT uses_left FROM discount_codes WHERE discount_id = $1`, id).Scan(&left); err != nil {
			t.Fatalf("read uses_left: %v", err)
		}
		if left != 0 {
			t.Fatalf("expected uses_left 0, got %d", left)
		}
	})

	t.Run("Delete and ListByEvent", func(t *testing.T) {
		ctx := context.Background()
		eventID := setup(ctx)

		keep := testutil.InsertDiscount(t, ctx, pool, domain.DiscountCode{
			EventID: eventID, Code: "KEEP", Kind: domain.DiscountFixed,
			Value: decimal.NewFromInt(1000), UsesLeft: 3,
		})
		drop := testutil.InsertDiscount(t, ctx, pool, domain.DiscountCode{
			EventID: eventID, Code: "DROP", Kind: domain.DiscountPercent,
			Value: decimal.NewFromInt(20), UsesLeft: 3,
		})

		if err := repo.Delete(ctx, drop); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := repo.Delete(ctx, drop); !errors.Is(err, domain.ErrDiscountNotFound) {
			t.Fatalf("expected ErrDiscountNotFound, got %v", err)
		}

		discounts, err := repo.ListByEvent(ctx, eventID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(discounts) != 1 || discounts[0].ID != keep {
			t.Fatalf("expected only KEEP, got %+v", discounts)
		}
	})
}
