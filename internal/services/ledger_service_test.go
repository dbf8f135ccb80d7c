package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wishgift/internal/core"
	"wishgift/internal/storage"
)

// newTestService wires a service over a throwaway database with no AMQP
// client; publishing degrades to a logged warning.
func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "wishgift.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	svc := NewLedgerService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func seedWishlist(t *testing.T, svc *LedgerService) (core.User, core.Wishlist) {
	t.Helper()
	ctx := context.Background()
	user, err := svc.storage.CreateUser(ctx, core.User{Username: "hana", Email: "hana@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	wl, err := svc.storage.CreateWishlist(ctx, core.Wishlist{
		UserID:     user.ID,
		Title:      "Birthday",
		ExpiryDate: time.Now().AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("create wishlist: %v", err)
	}
	return user, wl
}

func testContributor() core.Contributor {
	return core.Contributor{Name: "Pat", Email: "pat@example.com"}
}

func TestGiftWholeItemOverpayment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user, wl := seedWishlist(t, svc)

	entry, contrib, err := svc.GiftWholeItem(ctx, GiftRequest{
		WishlistID:  wl.ID,
		Name:        "Record player",
		Price:       core.Money{Cents: 5000},
		Amount:      core.Money{Cents: 7500},
		Contributor: testContributor(),
	})
	if err != nil {
		t.Fatalf("gift: %v", err)
	}
	if entry.Status != core.StatusFilled || entry.AmountPaid.Cents != 7500 {
		t.Fatalf("entry = paid %d status %s, want 7500 Filled", entry.AmountPaid.Cents, entry.Status)
	}
	if contrib.Amount.Cents != 7500 {
		t.Fatalf("contribution = %d, want the full tendered 7500", contrib.Amount.Cents)
	}

	owner, _ := svc.storage.GetUser(ctx, user.ID)
	if owner.CashOnHand.Cents != 2500 {
		t.Fatalf("cash on hand = %d, want 2500", owner.CashOnHand.Cents)
	}
}

func TestGiftWholeItemBelowPrice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, wl := seedWishlist(t, svc)

	_, _, err := svc.GiftWholeItem(ctx, GiftRequest{
		WishlistID:  wl.ID,
		Name:        "Record player",
		Price:       core.Money{Cents: 5000},
		Amount:      core.Money{Cents: 4999},
		Contributor: testContributor(),
	})
	if !errors.Is(err, core.ErrAmountBelowPrice) {
		t.Fatalf("got %v, want ErrAmountBelowPrice", err)
	}
}

func TestGiftWholeItemFromCatalog(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, wl := seedWishlist(t, svc)

	v, _ := svc.storage.CreateVendor(ctx, core.Vendor{Name: "Hi-Fi Corner", Email: "shop@hifi.test"})
	item, err := svc.storage.CreateItem(ctx, core.CatalogItem{
		VendorID:  v.ID,
		Name:      "Turntable",
		Price:     core.Money{Cents: 19900},
		ImageURLs: []string{"https://img.test/tt.jpg"},
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	// Price comes from the catalog, so an amount below it is rejected even if
	// the request claims a lower price.
	_, _, err = svc.GiftWholeItem(ctx, GiftRequest{
		WishlistID:  wl.ID,
		ItemID:      &item.ID,
		Price:       core.Money{Cents: 100},
		Amount:      core.Money{Cents: 100},
		Contributor: testContributor(),
	})
	if !errors.Is(err, core.ErrAmountBelowPrice) {
		t.Fatalf("got %v, want ErrAmountBelowPrice", err)
	}

	entry, _, err := svc.GiftWholeItem(ctx, GiftRequest{
		WishlistID:  wl.ID,
		ItemID:      &item.ID,
		Amount:      core.Money{Cents: 19900},
		Contributor: testContributor(),
	})
	if err != nil {
		t.Fatalf("gift from catalog: %v", err)
	}
	if entry.Name != "Turntable" || entry.Price.Cents != 19900 {
		t.Fatalf("entry = %+v, want catalog name and price", entry)
	}

	got, _ := svc.storage.GetItem(ctx, item.ID)
	if got.AddedToWishlistCount != 1 {
		t.Fatalf("wishlist count = %d, want 1", got.AddedToWishlistCount)
	}
}

func TestContributeToEntryTopUpOnFilled(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user, wl := seedWishlist(t, svc)

	entry, _, err := svc.GiftWholeItem(ctx, GiftRequest{
		WishlistID:  wl.ID,
		Name:        "Camera",
		Price:       core.Money{Cents: 5000},
		Amount:      core.Money{Cents: 5000},
		Contributor: testContributor(),
	})
	if err != nil {
		t.Fatalf("gift: %v", err)
	}

	updated, _, err := svc.ContributeToEntry(ctx, entry.ID, core.Money{Cents: 1000}, testContributor())
	if err != nil {
		t.Fatalf("top-up: %v", err)
	}
	if updated.AmountPaid.Cents != 6000 || updated.Status != core.StatusFilled {
		t.Fatalf("entry = paid %d status %s, want 6000 Filled", updated.AmountPaid.Cents, updated.Status)
	}

	// Top-ups never touch the owner's balance.
	owner, _ := svc.storage.GetUser(ctx, user.ID)
	if owner.CashOnHand.Cents != 0 {
		t.Fatalf("cash on hand = %d, want 0", owner.CashOnHand.Cents)
	}
}

func TestContributeToEntryValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, wl := seedWishlist(t, svc)
	entry, _, err := svc.GiftWholeItem(ctx, GiftRequest{
		WishlistID:  wl.ID,
		Name:        "Lamp",
		Price:       core.Money{Cents: 2000},
		Amount:      core.Money{Cents: 2000},
		Contributor: testContributor(),
	})
	if err != nil {
		t.Fatalf("gift: %v", err)
	}

	if _, _, err := svc.ContributeToEntry(ctx, entry.ID, core.Money{Cents: 0}, testContributor()); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("zero amount: got %v, want ErrInvalidAmount", err)
	}
	anon := core.Contributor{Name: "Pat"}
	if _, _, err := svc.ContributeToEntry(ctx, entry.ID, core.Money{Cents: 100}, anon); !errors.Is(err, core.ErrContributorInfoMissing) {
		t.Fatalf("missing contact: got %v, want ErrContributorInfoMissing", err)
	}
	if _, _, err := svc.ContributeToEntry(ctx, 9876, core.Money{Cents: 100}, testContributor()); !errors.Is(err, core.ErrEntryNotFound) {
		t.Fatalf("unknown entry: got %v, want ErrEntryNotFound", err)
	}
}

func TestGetWishlistOverview(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, wl := seedWishlist(t, svc)

	for _, cents := range []int64{2000, 3000} {
		if _, _, err := svc.GiftWholeItem(ctx, GiftRequest{
			WishlistID:  wl.ID,
			Name:        "Entry",
			Price:       core.Money{Cents: cents},
			Amount:      core.Money{Cents: cents},
			Contributor: testContributor(),
		}); err != nil {
			t.Fatalf("gift: %v", err)
		}
	}

	ov, err := svc.GetWishlistOverview(ctx, wl.ID)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(ov.Entries) != 2 || ov.TotalPrice.Cents != 5000 || ov.TotalContributed.Cents != 5000 {
		t.Fatalf("overview = %+v", ov)
	}
	if ov.Remaining.Cents != 0 {
		t.Fatalf("remaining = %d, want 0", ov.Remaining.Cents)
	}
}

func TestListContributionsUnknownEntry(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ListContributions(context.Background(), 555)
	if !errors.Is(err, core.ErrEntryNotFound) {
		t.Fatalf("got %v, want ErrEntryNotFound", err)
	}
}
