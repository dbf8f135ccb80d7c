package core

import (
	"errors"
	"testing"
	"time"
)

func TestContributorValidate(t *testing.T) {
	cases := []struct {
		c    Contributor
		want error
	}{
		{Contributor{Name: "Ada", Email: "ada@example.com"}, nil},
		{Contributor{Name: "Ada", Phone: "555-0101"}, nil},
		{Contributor{Name: "Ada"}, ErrContributorInfoMissing},
		{Contributor{Email: "ada@example.com"}, ErrEmptyName},
		{Contributor{Name: "  ", Email: "ada@example.com"}, ErrEmptyName},
		{Contributor{Name: "Ada", Email: " ", Phone: " "}, ErrContributorInfoMissing},
	}
	for i, tc := range cases {
		err := tc.c.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestWishlistEntryValidate(t *testing.T) {
	good := WishlistEntry{Name: "Espresso machine", Price: Money{Cents: 25000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []WishlistEntry{
		{Name: "", Price: Money{Cents: 100}},
		{Name: "x", Price: Money{Cents: 0}},
		{Name: "x", Price: Money{Cents: -5}},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestWishlistValidate(t *testing.T) {
	good := Wishlist{Title: "Birthday", ExpiryDate: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Wishlist{Title: "", ExpiryDate: good.ExpiryDate}).Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("got %v, want ErrEmptyTitle", err)
	}
	if err := (Wishlist{Title: "Birthday"}).Validate(); !errors.Is(err, ErrInvalidExpiry) {
		t.Fatalf("got %v, want ErrInvalidExpiry", err)
	}
}

func TestCatalogItemValidate(t *testing.T) {
	good := CatalogItem{Name: "Mug", Price: Money{Cents: 1200}, ImageURLs: []string{"a.jpg"}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	noImages := good
	noImages.ImageURLs = nil
	if err := noImages.Validate(); err == nil {
		t.Fatal("expected error for zero images")
	}
	tooMany := good
	tooMany.ImageURLs = make([]string, 8)
	if err := tooMany.Validate(); err == nil {
		t.Fatal("expected error for more than 7 images")
	}
}
