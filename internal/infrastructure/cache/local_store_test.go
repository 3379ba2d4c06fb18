package cache

import (
	"context"
	"encoding/json"
	"testing"

	"store-sync/internal/domain/localstate"
)

func TestLocalStore_NotifySubscribe(t *testing.T) {
	s := NewLocalStore(nil)

	var first, second []localstate.Event
	cancelFirst := s.Subscribe(func(ev localstate.Event) { first = append(first, ev) })
	s.Subscribe(func(ev localstate.Event) { second = append(second, ev) })

	s.Notify(localstate.EventCartChanged)
	if len(first) != 1 || len(second) != 1 || first[0] != localstate.EventCartChanged {
		t.Fatalf("expected delivery to both subscribers: %v %v", first, second)
	}

	cancelFirst()
	cancelFirst()
	s.Notify(localstate.EventWishlistChanged)
	if len(first) != 1 {
		t.Fatalf("cancelled subscriber must not receive events: %v", first)
	}
	if len(second) != 2 || second[1] != localstate.EventWishlistChanged {
		t.Fatalf("remaining subscriber mismatch: %v", second)
	}
}

func TestLocalStore_DegradesWithoutBackend(t *testing.T) {
	s := NewLocalStore(nil)
	ctx := context.Background()

	st, err := s.Get(ctx, "dev1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if st.Cart != nil || st.Wishlist != nil {
		t.Fatalf("expected empty state, got %+v", st)
	}

	if err := s.SetCart(ctx, "dev1", json.RawMessage(`[]`)); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := s.Clear(ctx, "dev1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestLocalStore_EmptyDeviceID(t *testing.T) {
	s := NewLocalStore(nil)
	ctx := context.Background()

	if _, err := s.Get(ctx, ""); err == nil {
		t.Fatalf("expected error for empty device id")
	}
	if err := s.Set(ctx, "", localstate.State{}); err == nil {
		t.Fatalf("expected error for empty device id")
	}
	if err := s.Clear(ctx, ""); err == nil {
		t.Fatalf("expected error for empty device id")
	}
}
