package cart_test

import (
	"context"
	"testing"

	"RetroStore/internal/cart"
	"RetroStore/pkg/kit"
)

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := cart.NewFileStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("fresh load: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("fresh store not empty: %v", entries)
	}

	want := []cart.Entry{
		{ProductID: "p1", Quantity: 2, Size: "M", Color: "Black"},
		{ProductID: "p2", Quantity: 1, Size: "L", Color: "Pink"},
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened, err := cart.NewFileStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFileStore_SaveNotifies(t *testing.T) {
	notifier := kit.NewNotifier()
	events := notifier.Subscribe()

	store, err := cart.NewFileStore(t.TempDir(), notifier)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(context.Background(), []cart.Entry{{ProductID: "p1", Quantity: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	select {
	case e := <-events:
		if e != cart.EventCartChanged {
			t.Fatalf("event=%q", e)
		}
	default:
		t.Fatalf("save published no change event")
	}
}
