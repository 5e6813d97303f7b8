package errx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Envelope builds the JSON body the service returns for a failed call
func Envelope(err error) fiber.Map {
	body := fiber.Map{"success": false}

	var xerr *Error
	if errors.As(err, &xerr) {
		body["error"] = xerr.Message
		body["code"] = xerr.Code
		return body
	}

	body["error"] = err.Error()
	return body
}

// ToFiber writes err as an envelope using its HTTP status
func ToFiber(c *fiber.Ctx, err error) error {
	return c.Status(StatusOf(err)).JSON(Envelope(err))
}

// FiberErrorHandler is installed as fiber.Config.ErrorHandler
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"success": false, "error": fe.Message})
	}
	return ToFiber(c, err)
}
