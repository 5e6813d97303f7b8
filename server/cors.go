package server

import (
	"github.com/gofiber/fiber/v2"
)

const (
	AllowOrigin  = "*"
	AllowHeaders = "authorization, x-client-info, apikey, content-type, x-webhook-secret"
)

// corsHeaders is shared with the Lambda adapter
func corsHeaders() map[string]string {
	return map[string]string{
		fiber.HeaderAccessControlAllowOrigin:  AllowOrigin,
		fiber.HeaderAccessControlAllowHeaders: AllowHeaders,
	}
}

// corsMiddleware answers every preflight with 200 "ok", which browsers
// calling the functions endpoints expect, and stamps the headers on the rest
func corsMiddleware(c *fiber.Ctx) error {
	for k, v := range corsHeaders() {
		c.Set(k, v)
	}
	if c.Method() == fiber.MethodOptions {
		return c.Status(fiber.StatusOK).SendString("ok")
	}
	return c.Next()
}
