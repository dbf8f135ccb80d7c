package memory

import (
	"context"
	"testing"

	"wishgift/internal/core"
	"wishgift/internal/storage"
)

func TestMemoryStoreAppend(t *testing.T) {
	s := New()

	ref, err := s.Append(context.Background(), storage.ExportRecord{
		Contribution: core.Contribution{ID: 1, EntryID: 2, Name: "Pat", Amount: core.Money{Cents: 1234}},
		EntryName:    "Kettle",
		WishlistID:   9,
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	recs := s.Records()
	if len(recs) != 1 || recs[0].EntryName != "Kettle" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}
