package localstate

import (
	"context"
	"encoding/json"
)

// State is the device-local shopping state. Payloads are opaque to the
// session service; absent values are represented as nil.
type State struct {
	Cart     json.RawMessage
	Wishlist json.RawMessage
}

// Event is a payload-free change signal. Observers re-read the store.
type Event string

const (
	EventCartChanged     Event = "cart-changed"
	EventWishlistChanged Event = "wishlist-changed"
)

// Store is the ephemeral, device-scoped cache of cart and wishlist
// state, plus the event primitive the UI subscribes to.
type Store interface {
	Get(ctx context.Context, deviceID string) (State, error)
	Set(ctx context.Context, deviceID string, st State) error
	SetCart(ctx context.Context, deviceID string, cart json.RawMessage) error
	SetWishlist(ctx context.Context, deviceID string, wishlist json.RawMessage) error
	Clear(ctx context.Context, deviceID string) error

	Notify(ev Event)
	Subscribe(fn func(Event)) (cancel func())
}
