package handler

import (
	"encoding/json"

	"store-sync/internal/delivery/http/middleware"
	"store-sync/internal/domain/localstate"
	"store-sync/internal/pkg/response"
	"store-sync/internal/usecase/session"

	"github.com/gofiber/fiber/v3"
)

// StateHandler exposes the device-local cart/wishlist cache to the UI.
type StateHandler struct {
	local localstate.Store
	svc   *session.Service
}

func NewStateHandler(local localstate.Store, svc *session.Service) *StateHandler {
	return &StateHandler{local: local, svc: svc}
}

func (h *StateHandler) RegisterRoutes(r fiber.Router, authMw *middleware.AuthMiddleware) {
	if r == nil {
		return
	}

	r.Get("/", h.Get)
	r.Put("/cart", h.PutCart)
	r.Put("/wishlist", h.PutWishlist)

	if authMw != nil {
		r.Post("/restore", h.Restore, authMw.Middleware())
	}
}

func (h *StateHandler) Get(c fiber.Ctx) error {
	deviceID := deviceIDOf(c)
	if deviceID == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Missing device id", nil, nil)
	}

	st, err := h.local.Get(c.Context(), deviceID)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	data := map[string]any{
		"cart":     rawOrEmpty(st.Cart),
		"wishlist": rawOrEmpty(st.Wishlist),
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}

func (h *StateHandler) PutCart(c fiber.Ctx) error {
	deviceID := deviceIDOf(c)
	if deviceID == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Missing device id", nil, nil)
	}

	body, err := validPayload(c.Body())
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.local.SetCart(c.Context(), deviceID, body); err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	h.local.Notify(localstate.EventCartChanged)
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *StateHandler) PutWishlist(c fiber.Ctx) error {
	deviceID := deviceIDOf(c)
	if deviceID == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Missing device id", nil, nil)
	}

	body, err := validPayload(c.Body())
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.local.SetWishlist(c.Context(), deviceID, body); err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	h.local.Notify(localstate.EventWishlistChanged)
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

// Restore always reports success to the caller: the restore itself is
// best effort.
func (h *StateHandler) Restore(c fiber.Ctx) error {
	userID, _ := c.Locals(middleware.CtxUserIDKey).(string)
	if userID == "" {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	deviceID := deviceIDOf(c)
	if deviceID == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Missing device id", nil, nil)
	}

	h.svc.RestoreLocalState(c.Context(), userID, deviceID)
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func rawOrEmpty(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return json.RawMessage("[]")
	}
	return raw
}

func validPayload(body []byte) (json.RawMessage, error) {
	var out json.RawMessage
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
