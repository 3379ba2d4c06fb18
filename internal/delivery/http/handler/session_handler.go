package handler

import (
	"errors"
	"strings"

	"store-sync/internal/delivery/http/middleware"
	identity "store-sync/internal/domain/identity"
	"store-sync/internal/pkg/response"
	"store-sync/internal/usecase/session"

	"github.com/gofiber/fiber/v3"
)

const deviceIDHeader = "X-Device-ID"

type SessionHandler struct {
	svc *session.Service
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

func NewSessionHandler(svc *session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) RegisterRoutes(r fiber.Router, authMw *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/password-reset", h.ResetPassword)
	r.Get("/session", h.CurrentSession)

	if authMw != nil {
		r.Post("/logout", h.Logout, authMw.Middleware())
	}
}

func (h *SessionHandler) Register(c fiber.Ctx) error {
	var req registerRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	p, err := h.svc.Register(c.Context(), session.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return mapSessionError(err)
	}

	return response.Success(c, fiber.StatusCreated, "registered", map[string]any{"profile": p})
}

func (h *SessionHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	p, sess, err := h.svc.Login(c.Context(), session.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return mapSessionError(err)
	}

	// best-effort restore of migrated cart/wishlist, never on the
	// critical path of login success
	if deviceID := deviceIDOf(c); deviceID != "" {
		h.svc.RestoreLocalState(c.Context(), p.ID, deviceID)
	}

	data := map[string]any{
		"profile": p,
		"token":   sess.Token,
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}

func (h *SessionHandler) Logout(c fiber.Ctx) error {
	sess, ok := c.Locals(middleware.CtxSessionKey).(identity.Session)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	if err := h.svc.Logout(c.Context(), sess, deviceIDOf(c)); err != nil {
		return mapSessionError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *SessionHandler) CurrentSession(c fiber.Ctx) error {
	token := bearerToken(c.Get("Authorization"))

	p, err := h.svc.CurrentSession(c.Context(), token)
	if err != nil {
		return mapSessionError(err)
	}
	if p == nil {
		return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{"profile": p})
}

func (h *SessionHandler) ResetPassword(c fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.svc.ResetPassword(c.Context(), req.Email); err != nil {
		return mapSessionError(err)
	}
	return response.Success(c, fiber.StatusOK, "password reset initiated", nil)
}

func deviceIDOf(c fiber.Ctx) string {
	return strings.TrimSpace(c.Get(deviceIDHeader))
}

func bearerToken(authHeader string) string {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func mapSessionError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, session.ErrEmailInUse):
		return middleware.NewAppError(fiber.StatusConflict, "Email already registered", nil, err)
	case errors.Is(err, session.ErrInvalidEmail):
		return middleware.NewAppError(fiber.StatusBadRequest, "Malformed email address", nil, err)
	case errors.Is(err, session.ErrWeakPassword):
		return middleware.NewAppError(fiber.StatusBadRequest, "Password does not meet minimum requirements", nil, err)
	case errors.Is(err, session.ErrAccountDisabled):
		return middleware.NewAppError(fiber.StatusForbidden, "Account disabled", nil, err)
	case errors.Is(err, session.ErrEmailNotVerified):
		return middleware.NewAppError(fiber.StatusForbidden, "Email address not verified", nil, err)
	case errors.Is(err, session.ErrAccountNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "No account for email", nil, err)
	case errors.Is(err, session.ErrProfileNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Profile not found", nil, err)
	case errors.Is(err, session.ErrWrongCredential):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Wrong email or password", nil, err)
	case errors.Is(err, session.ErrUnauthenticated):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, session.ErrRateLimited):
		return middleware.NewAppError(fiber.StatusTooManyRequests, "Too many attempts, try again later", nil, err)
	case errors.Is(err, session.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
