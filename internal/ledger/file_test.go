package ledger

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"vmbroker/internal/orchestrator"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "instances.json"))

	record := orchestrator.Record{
		Provider:  "digitalocean",
		ImageType: "ubuntu-22-small",
		ID:        "123456",
		Address:   "203.0.113.10",
		CreatedAt: 1700000000,
		TTL:       3600,
	}
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("Put() unexpected error = %v", err)
	}

	got, ok, err := store.Get(ctx, "123456")
	if err != nil {
		t.Fatalf("Get() unexpected error = %v", err)
	}
	if !ok {
		t.Fatal("Get() did not find the record")
	}
	if !reflect.DeepEqual(got, record) {
		t.Errorf("Get() = %+v, want %+v", got, record)
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "instances.json"))

	_, ok, err := store.Get(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("Get() unexpected error = %v", err)
	}
	if ok {
		t.Error("Get() reported a record in an empty ledger")
	}
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "instances.json"))

	if err := store.Put(ctx, orchestrator.Record{ID: "a"}); err != nil {
		t.Fatalf("Put() unexpected error = %v", err)
	}
	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() unexpected error = %v", err)
	}
	if _, ok, _ := store.Get(ctx, "a"); ok {
		t.Error("record survived Delete()")
	}

	// Deleting again is a no-op.
	if err := store.Delete(ctx, "a"); err != nil {
		t.Errorf("Delete() of absent record = %v", err)
	}
}

func TestFileStoreListSortedByCreation(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "instances.json"))

	for _, record := range []orchestrator.Record{
		{ID: "newest", CreatedAt: 300},
		{ID: "oldest", CreatedAt: 100},
		{ID: "middle", CreatedAt: 200},
	} {
		if err := store.Put(ctx, record); err != nil {
			t.Fatalf("Put(%s) unexpected error = %v", record.ID, err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() unexpected error = %v", err)
	}
	want := []string{"oldest", "middle", "newest"}
	if len(list) != len(want) {
		t.Fatalf("List() returned %d records, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("List()[%d].ID = %q, want %q", i, list[i].ID, id)
		}
	}
}

func TestFileStorePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "instances.json")

	first := NewFileStore(path)
	if err := first.Put(ctx, orchestrator.Record{ID: "kept", CreatedAt: 1}); err != nil {
		t.Fatalf("Put() unexpected error = %v", err)
	}

	second := NewFileStore(path)
	_, ok, err := second.Get(ctx, "kept")
	if err != nil {
		t.Fatalf("Get() unexpected error = %v", err)
	}
	if !ok {
		t.Error("record did not survive reopening the ledger")
	}
}
