// Package httperr is the single point where application errors become
// HTTP responses. Every response body has the shape {message, error?}.
package httperr

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

type Error struct {
	Status  int
	Message string
	Err     error // diagnostic detail; logged, never sent on 5xx
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation is a missing or invalid client-supplied field.
func Validation(message string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Message: message}
}

// Conflict is a duplicate on a unique field (category name, email).
func Conflict(message string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Message: message}
}

// NotFound is a referenced entity that does not exist.
func NotFound(message string) *Error {
	return &Error{Status: fiber.StatusNotFound, Message: message}
}

// Unauthorized carries one deliberately generic message for every auth
// failure mode so a caller cannot distinguish a missing header from an
// expired token from an unknown subject.
func Unauthorized() *Error {
	return &Error{Status: fiber.StatusUnauthorized, Message: "Not authorized"}
}

// InvalidCredentials is the login-path rejection; same vagueness rule.
func InvalidCredentials() *Error {
	return &Error{Status: fiber.StatusUnauthorized, Message: "Invalid credentials"}
}

// Storage wraps a persistence failure. The detail stays server-side.
func Storage(message string, err error) *Error {
	return &Error{Status: fiber.StatusInternalServerError, Message: message, Err: err}
}

// Handler is installed as the Fiber ErrorHandler. Anything that is not a
// taxonomy error or a fiber.Error becomes a generic 500 with the detail
// logged, so an unexpected failure never crashes the process or leaks.
func Handler(c *fiber.Ctx, err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Status >= fiber.StatusInternalServerError {
			log.Printf("server error on %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(appErr.Status).JSON(fiber.Map{"message": appErr.Message})
		}
		body := fiber.Map{"message": appErr.Message}
		if appErr.Err != nil {
			body["error"] = appErr.Err.Error()
		}
		return c.Status(appErr.Status).JSON(body)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
	}

	log.Printf("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
}
