package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kpis-api/internal/application/budgets"
	"github.com/jhoicas/kpis-api/internal/application/dto"
)

// BudgetHandler resumen de presupuestos por departamento (protegido).
type BudgetHandler struct {
	uc *budgets.UseCase
}

// NewBudgetHandler construye el handler.
func NewBudgetHandler(uc *budgets.UseCase) *BudgetHandler {
	return &BudgetHandler{uc: uc}
}

// Overview presupuesto vs. gasto del año fiscal (por defecto el actual).
// GET /api/budgets?year=2026
func (h *BudgetHandler) Overview(c *fiber.Ctx) error {
	year := time.Now().Year()
	if q := c.Query("year"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 2000 || n > 2100 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "año fiscal inválido"})
		}
		year = n
	}
	resp, err := h.uc.GetOverview(c.Context(), year)
	if err != nil {
		return remoteError(c, err)
	}
	return c.JSON(resp)
}
