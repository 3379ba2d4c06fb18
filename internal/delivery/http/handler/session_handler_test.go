package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v3"

	"store-sync/internal/delivery/http/middleware"
	"store-sync/internal/usecase/session"
)

func TestMapSessionError_StatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{session.ErrEmailInUse, fiber.StatusConflict},
		{session.ErrInvalidEmail, fiber.StatusBadRequest},
		{session.ErrWeakPassword, fiber.StatusBadRequest},
		{session.ErrInvalidInput, fiber.StatusBadRequest},
		{session.ErrAccountDisabled, fiber.StatusForbidden},
		{session.ErrEmailNotVerified, fiber.StatusForbidden},
		{session.ErrAccountNotFound, fiber.StatusNotFound},
		{session.ErrProfileNotFound, fiber.StatusNotFound},
		{session.ErrWrongCredential, fiber.StatusUnauthorized},
		{session.ErrUnauthenticated, fiber.StatusUnauthorized},
		{session.ErrRateLimited, fiber.StatusTooManyRequests},
		{session.ErrInternal, fiber.StatusInternalServerError},
		{errors.New("anything else"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		mapped := mapSessionError(tc.err)
		var appErr *middleware.AppError
		if !errors.As(mapped, &appErr) {
			t.Fatalf("%v: expected *AppError, got %T", tc.err, mapped)
		}
		if appErr.StatusCode != tc.want {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.want, appErr.StatusCode)
		}
		if !errors.Is(mapped, tc.err) {
			t.Fatalf("%v: mapped error must keep the cause on the chain", tc.err)
		}
	}
}

func TestMapSessionError_WrappedCause(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", session.ErrAccountDisabled)
	var appErr *middleware.AppError
	if !errors.As(mapSessionError(wrapped), &appErr) {
		t.Fatalf("expected *AppError")
	}
	if appErr.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for wrapped disabled error, got %d", appErr.StatusCode)
	}
}

func TestMapSessionError_Nil(t *testing.T) {
	if got := mapSessionError(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
