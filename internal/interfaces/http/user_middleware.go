package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// HeaderUserID cabecera con el usuario que origina la petición. La autenticación ocurre antes
// (gateway o proxy); aquí sólo se registra quién creó lotes, ventas y movimientos.
const HeaderUserID = "X-User-ID"

// LocalUserID key en c.Locals.
const LocalUserID = "user_id"

// UserMiddleware copia X-User-ID a c.Locals.
func UserMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID := strings.TrimSpace(c.Get(HeaderUserID)); userID != "" {
			c.Locals(LocalUserID, userID)
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (vacío si la petición no lo trae).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
