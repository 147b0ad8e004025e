package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kpis-api/internal/application/dto"
	"github.com/jhoicas/kpis-api/internal/application/users"
	"github.com/jhoicas/kpis-api/internal/domain"
)

// UserHandler maneja las peticiones del perfil propio.
type UserHandler struct {
	uc *users.UseCase
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *users.UseCase) *UserHandler {
	return &UserHandler{uc: uc}
}

// Me devuelve el perfil del usuario autenticado con su rol efectivo.
// GET /api/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	resp, err := h.uc.Profile(c.Context(), GetUserID(c), GetRole(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "el token no identifica a un usuario"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "el usuario no tiene perfil"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resp)
}
