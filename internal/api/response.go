package api

import "github.com/gofiber/fiber/v2"

// Error codes
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeUpstreamError   = "UPSTREAM_ERROR"
	CodeServiceError    = "SERVICE_ERROR"
)

// ErrorResponse carries a top-level detail string for clients that read
// only that, plus a structured error.
type ErrorResponse struct {
	Detail string      `json:"detail"`
	Error  ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Detail: message,
		Error:  ErrorDetail{Code: code, Message: message},
	})
}

func validationError(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusBadRequest, CodeValidationError, message)
}

func unauthorized(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusUnauthorized, CodeUnauthorized, message)
}

func notFound(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusNotFound, CodeNotFound, message)
}

func upstreamError(c *fiber.Ctx, message string) error {
	return errorJSON(c, fiber.StatusBadGateway, CodeUpstreamError, message)
}

func serviceError(c *fiber.Ctx, status int, message string) error {
	return errorJSON(c, status, CodeServiceError, message)
}

// items wraps a list response. A nil slice is sent as [].
func items[T any](c *fiber.Ctx, list []T) error {
	if list == nil {
		list = []T{}
	}
	return c.JSON(fiber.Map{"items": list})
}

// errorHandler renders errors that escape handlers, including fiber's own
// 404 and 405, in the same envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"
	if fe, ok := err.(*fiber.Error); ok {
		status = fe.Code
		message = fe.Message
	}

	code := CodeServiceError
	switch status {
	case fiber.StatusNotFound:
		code = CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		code = CodeValidationError
	case fiber.StatusUnauthorized:
		code = CodeUnauthorized
	}
	return errorJSON(c, status, code, message)
}
