package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kpis-api/internal/application/dto"
	"github.com/jhoicas/kpis-api/internal/application/invoices"
	"github.com/jhoicas/kpis-api/internal/domain"
)

// InvoiceHandler maneja las peticiones HTTP de facturas de proveedor (protegido).
type InvoiceHandler struct {
	uc *invoices.UseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *invoices.UseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// List lista facturas de proveedor con diagnósticos de extracción.
// GET /api/invoices?limit&offset&state
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros de paginación inválidos"})
	}
	resp, err := h.uc.ListInvoices(c.Context(), page, c.Query("state"))
	if err != nil {
		return remoteError(c, err)
	}
	return c.JSON(resp)
}

// GetByID detalle de una factura con sus adjuntos.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id, err := invoiceID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	resp, err := h.uc.GetInvoice(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return remoteError(c, err)
	}
	return c.JSON(resp)
}

// RefreshOCR reintento OCR manual de una factura (síncrono).
// POST /api/invoices/:id/refresh-ocr
func (h *InvoiceHandler) RefreshOCR(c *fiber.Ctx) error {
	id, err := invoiceID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	resp, err := h.uc.RefreshOne(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return remoteError(c, err)
	}
	return c.JSON(resp)
}

// Approve publica una factura en borrador. Requiere rol approver o admin.
// POST /api/invoices/:id/approve
func (h *InvoiceHandler) Approve(c *fiber.Ctx) error {
	id, err := invoiceID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	resp, err := h.uc.Approve(c.Context(), id, GetRole(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso de aprobación"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		case errors.Is(err, domain.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
		}
		return remoteError(c, err)
	}
	return c.JSON(resp)
}

func invoiceID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// remoteError traduce los fallos del ERP a códigos HTTP según su kind tipado.
func remoteError(c *fiber.Ctx, err error) error {
	switch domain.KindOf(err) {
	case domain.KindAuth:
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "ERP_AUTH", Message: "credenciales del ERP rechazadas"})
	case domain.KindPermission:
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "ERP_PERMISSION", Message: "el ERP denegó el acceso al modelo"})
	case domain.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "registro no encontrado en el ERP"})
	case domain.KindTimeout:
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{Code: "ERP_TIMEOUT", Message: "el ERP no respondió a tiempo"})
	case domain.KindNetwork, domain.KindUnavailable:
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "ERP_UNAVAILABLE", Message: "el ERP no está disponible"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
