package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"store-sync/internal/domain/localstate"
)

// LocalStore is the Redis-backed device-scoped cache of cart and
// wishlist state. Keys live under device:{deviceID}:* and carry no TTL;
// the session service clears them on logout.
type LocalStore struct {
	r *Redis

	mu     sync.Mutex
	nextID int
	subs   map[int]func(localstate.Event)
}

func NewLocalStore(r *Redis) *LocalStore {
	return &LocalStore{r: r, subs: make(map[int]func(localstate.Event))}
}

func cartKey(deviceID string) string     { return fmt.Sprintf("device:%s:cart", deviceID) }
func wishlistKey(deviceID string) string { return fmt.Sprintf("device:%s:wishlist", deviceID) }

func (s *LocalStore) Get(ctx context.Context, deviceID string) (localstate.State, error) {
	if deviceID == "" {
		return localstate.State{}, errors.New("empty device id")
	}

	var st localstate.State

	var cart json.RawMessage
	found, err := s.r.GetJSON(ctx, cartKey(deviceID), &cart)
	if err != nil {
		return localstate.State{}, err
	}
	if found {
		st.Cart = cart
	}

	var wishlist json.RawMessage
	found, err = s.r.GetJSON(ctx, wishlistKey(deviceID), &wishlist)
	if err != nil {
		return localstate.State{}, err
	}
	if found {
		st.Wishlist = wishlist
	}

	return st, nil
}

// Set overwrites both slots. Nil fields clear the corresponding key so
// a restore never leaves stale state behind.
func (s *LocalStore) Set(ctx context.Context, deviceID string, st localstate.State) error {
	if deviceID == "" {
		return errors.New("empty device id")
	}

	if st.Cart != nil {
		if err := s.r.SetJSON(ctx, cartKey(deviceID), st.Cart, 0); err != nil {
			return err
		}
	} else if err := s.r.Delete(ctx, cartKey(deviceID)); err != nil {
		return err
	}

	if st.Wishlist != nil {
		if err := s.r.SetJSON(ctx, wishlistKey(deviceID), st.Wishlist, 0); err != nil {
			return err
		}
	} else if err := s.r.Delete(ctx, wishlistKey(deviceID)); err != nil {
		return err
	}

	return nil
}

func (s *LocalStore) SetCart(ctx context.Context, deviceID string, cart json.RawMessage) error {
	if deviceID == "" {
		return errors.New("empty device id")
	}
	return s.r.SetJSON(ctx, cartKey(deviceID), cart, 0)
}

func (s *LocalStore) SetWishlist(ctx context.Context, deviceID string, wishlist json.RawMessage) error {
	if deviceID == "" {
		return errors.New("empty device id")
	}
	return s.r.SetJSON(ctx, wishlistKey(deviceID), wishlist, 0)
}

func (s *LocalStore) Clear(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return errors.New("empty device id")
	}
	return s.r.Delete(ctx, cartKey(deviceID), wishlistKey(deviceID))
}

// Notify delivers a payload-free change event to every subscriber
// synchronously. Observers re-read the store for content.
func (s *LocalStore) Notify(ev localstate.Event) {
	s.mu.Lock()
	fns := make([]func(localstate.Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *LocalStore) Subscribe(fn func(localstate.Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
