package handler

import (
	"store-sync/internal/delivery/http/middleware"
	identity "store-sync/internal/domain/identity"
	"store-sync/internal/pkg/response"
	"store-sync/internal/usecase/session"

	"github.com/gofiber/fiber/v3"
)

type ProfileHandler struct {
	svc *session.Service
}

type updateProfileRequest struct {
	DisplayName             *string         `json:"displayName"`
	PhotoURL                *string         `json:"photoUrl"`
	PhoneNumber             *string         `json:"phoneNumber"`
	Address                 *string         `json:"address"`
	NotificationPreferences map[string]bool `json:"notificationPreferences"`
}

type setStatusRequest struct {
	Disabled bool `json:"disabled"`
}

func NewProfileHandler(svc *session.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router, authMw *middleware.AuthMiddleware) {
	if r == nil || authMw == nil {
		return
	}

	r.Patch("/me", h.UpdateMe, authMw.Middleware())

	admin := r.Group("", authMw.Middleware(), authMw.RequireAdmin())
	admin.Get("/", h.List)
	admin.Patch("/:id", h.Update)
	admin.Patch("/:id/status", h.SetStatus)
}

func (h *ProfileHandler) UpdateMe(c fiber.Ctx) error {
	sess, ok := c.Locals(middleware.CtxSessionKey).(identity.Session)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	ch, err := bindProfileChanges(c)
	if err != nil {
		return err
	}

	if err := h.svc.UpdateProfile(c.Context(), &sess, "", ch); err != nil {
		return mapSessionError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *ProfileHandler) List(c fiber.Ctx) error {
	profiles := h.svc.ListProfiles(c.Context())
	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{"profiles": profiles})
}

func (h *ProfileHandler) Update(c fiber.Ctx) error {
	targetID := c.Params("id")
	if targetID == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, nil)
	}

	sess, _ := c.Locals(middleware.CtxSessionKey).(identity.Session)

	ch, err := bindProfileChanges(c)
	if err != nil {
		return err
	}

	if err := h.svc.UpdateProfile(c.Context(), &sess, targetID, ch); err != nil {
		return mapSessionError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *ProfileHandler) SetStatus(c fiber.Ctx) error {
	targetID := c.Params("id")
	if targetID == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, nil)
	}

	var req setStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.svc.SetDisabled(c.Context(), targetID, req.Disabled); err != nil {
		return mapSessionError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func bindProfileChanges(c fiber.Ctx) (session.ProfileChanges, error) {
	var req updateProfileRequest
	if err := c.Bind().Body(&req); err != nil {
		return session.ProfileChanges{}, middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	return session.ProfileChanges{
		DisplayName:             req.DisplayName,
		PhotoURL:                req.PhotoURL,
		PhoneNumber:             req.PhoneNumber,
		Address:                 req.Address,
		NotificationPreferences: req.NotificationPreferences,
	}, nil
}
