package middleware

import (
	"errors"
	"strings"

	identity "store-sync/internal/domain/identity"
	"store-sync/internal/domain/profile"
	"store-sync/internal/usecase/session"

	"github.com/gofiber/fiber/v3"
)

const (
	CtxSessionKey = "session"
	CtxUserIDKey  = "user_id"
	CtxEmailKey   = "email"
	CtxTokenKey   = "token"
)

type AuthMiddleware struct {
	provider identity.Provider
	sessions *session.Service
}

func NewAuthMiddleware(provider identity.Provider, sessions *session.Service) *AuthMiddleware {
	return &AuthMiddleware{provider: provider, sessions: sessions}
}

// Middleware requires an active session and stashes it in the request
// context.
func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := bearerTokenFromHeader(c.Get("Authorization"))
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		ident, sess, err := m.provider.Resolve(c.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrNoSession) {
				return NewAppError(fiber.StatusUnauthorized, "Session expired", nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
		}

		c.Locals(CtxSessionKey, sess)
		c.Locals(CtxUserIDKey, ident.ID)
		c.Locals(CtxEmailKey, ident.Email)
		c.Locals(CtxTokenKey, token)

		return c.Next()
	}
}

// RequireAdmin runs after Middleware and rejects callers whose stored
// profile is not an admin. The disabled-account policy fires here too:
// CurrentSession forces sign-out on a disabled profile.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, _ := c.Locals(CtxTokenKey).(string)
		if token == "" {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		p, err := m.sessions.CurrentSession(c.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrAccountDisabled) {
				return NewAppError(fiber.StatusForbidden, "Account disabled", nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
		}
		if p == nil {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}
		if p.Role != profile.RoleAdmin {
			return NewAppError(fiber.StatusForbidden, "Forbidden", nil, nil)
		}

		return c.Next()
	}
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
