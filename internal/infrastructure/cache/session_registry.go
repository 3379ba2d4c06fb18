package cache

import (
	"context"
	"fmt"
	"time"
)

// SessionRegistry tracks active sessions in Redis so tokens can be
// revoked before expiry. When Redis is down the registry fails open:
// token validity alone decides, and forced sign-out degrades to the
// token's natural expiry.
type SessionRegistry struct {
	r *Redis
}

func NewSessionRegistry(r *Redis) *SessionRegistry {
	return &SessionRegistry{r: r}
}

func sessionKey(userID, sessionID string) string {
	return fmt.Sprintf("session:%s:%s", userID, sessionID)
}

func (s *SessionRegistry) Add(ctx context.Context, userID, sessionID string, ttl time.Duration) error {
	return s.r.SetJSON(ctx, sessionKey(userID, sessionID), true, ttl)
}

func (s *SessionRegistry) Active(ctx context.Context, userID, sessionID string) (bool, error) {
	if !s.r.Available() {
		return true, nil
	}
	ok, err := s.r.Exists(ctx, sessionKey(userID, sessionID))
	if err != nil {
		return true, nil
	}
	return ok, nil
}

func (s *SessionRegistry) Remove(ctx context.Context, userID, sessionID string) error {
	return s.r.Delete(ctx, sessionKey(userID, sessionID))
}

func (s *SessionRegistry) RemoveAll(ctx context.Context, userID string) error {
	return s.r.DeleteByPattern(ctx, fmt.Sprintf("session:%s:*", userID))
}
