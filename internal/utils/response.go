package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

// BulkSuccessResponse sends the outcome of a bulk upsert batch. Errors is
// null when every record succeeded so clients can test it directly.
func BulkSuccessResponse(c *fiber.Ctx, created, updated int, errors interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":   "Success",
		"ok":        true,
		"created":   created,
		"updated":   updated,
		"errors":    errors,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// BulkFailureResponse sends a 400 for a batch in which every record was
// rejected, carrying the per-record errors.
func BulkFailureResponse(c *fiber.Ctx, errors interface{}) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":    fiber.StatusBadRequest,
		"message":   "All records failed",
		"ok":        false,
		"errors":    errors,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      "bulk",
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
}

// BulkResponseStruct defines the schema for bulk upsert responses
type BulkResponseStruct struct {
	Message   string      `json:"message"`
	Ok        bool        `json:"ok"`
	Created   int         `json:"created"`
	Updated   int         `json:"updated"`
	Errors    interface{} `json:"errors"`
	Timestamp string      `json:"timestamp"`
}
