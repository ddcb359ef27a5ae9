package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gruppe-adler/demcache/internal/cache"
	"github.com/gruppe-adler/demcache/internal/mosaic"
	"github.com/gruppe-adler/demcache/internal/tiles"
	"github.com/gruppe-adler/demcache/internal/validate"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, no_tiles, insufficient_storage, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errFromPipeline maps pipeline failures to responses.
func errFromPipeline(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, validate.ErrInvalidInput):
		return errBadRequest(c, err.Error())
	case errors.Is(err, tiles.ErrNoTilesAvailable):
		return newError(c, fiber.StatusNotFound, "no_tiles", err.Error())
	case errors.Is(err, cache.ErrInsufficientDiskSpace):
		return newError(c, fiber.StatusInsufficientStorage, "insufficient_storage", err.Error())
	case errors.Is(err, cache.ErrUnsafeCacheRoot):
		return newError(c, fiber.StatusConflict, "unsafe_cache_root", err.Error())
	case errors.Is(err, mosaic.ErrMergeFailed):
		return newError(c, fiber.StatusInternalServerError, "merge_failed", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return newError(c, fiber.StatusGatewayTimeout, "timeout", err.Error())
	}
	return errInternal(c, err.Error())
}
