package ws

import (
	"encoding/json"
	"sync/atomic"
	"time"
)

// SessionChangedEvent tells connected UIs the authenticated identity
// changed. UserID is empty on sign-out.
type SessionChangedEvent struct {
	Type      string `json:"type"`
	UserID    string `json:"userId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// StateChangedEvent carries no payload: observers re-read the local
// store.
type StateChangedEvent struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

var defaultHub atomic.Pointer[Hub]

func SetDefaultHub(h *Hub) {
	defaultHub.Store(h)
}

func NotifySessionChanged(userID string) {
	h := defaultHub.Load()
	if h == nil {
		return
	}

	evt := SessionChangedEvent{
		Type:      "session_changed",
		UserID:    userID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.Broadcast(b)
}

func NotifyStateChanged(eventType string) {
	h := defaultHub.Load()
	if h == nil {
		return
	}

	evt := StateChangedEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.Broadcast(b)
}
