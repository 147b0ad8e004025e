package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kpis-api/internal/application/dto"
	"github.com/jhoicas/kpis-api/internal/application/ocr"
)

// OCRStatusHandler expone el snapshot del store de notificaciones para el
// polling de los clientes. Nunca bloquea: el camino de lectura del store es
// lock-free.
type OCRStatusHandler struct {
	store *ocr.NotificationStore
}

// NewOCRStatusHandler construye el handler.
func NewOCRStatusHandler(store *ocr.NotificationStore) *OCRStatusHandler {
	return &OCRStatusHandler{store: store}
}

// Status devuelve el estado actual del refresco OCR.
// GET /api/ocr/refresh-status
func (h *OCRStatusHandler) Status(c *fiber.Ctx) error {
	return c.JSON(snapshotToDTO(h.store.Snapshot()))
}

func snapshotToDTO(snap ocr.RefreshSnapshot) dto.RefreshStatusResponse {
	resp := dto.RefreshStatusResponse{
		IsRunning: snap.IsRunning,
		StartTime: snap.StartedAt,
		LastError: snap.LastError,
	}
	if snap.LastError != "" {
		resp.LastErrorKind = string(snap.LastErrorKind)
	}
	if snap.Progress != nil {
		resp.Progress = &dto.RefreshProgressDTO{
			Completed: snap.Progress.Completed,
			Total:     snap.Progress.Total,
		}
	}
	if res := snap.LastResult; res != nil {
		resp.LastResult = &dto.RefreshResultDTO{
			BatchID:       res.BatchID.String(),
			TotalInvoices: res.TotalInvoices,
			Successful:    res.Successful,
			Failed:        res.Failed,
			Skipped:       res.Skipped,
			DurationMs:    res.Duration.Milliseconds(),
			CompletedAt:   res.CompletedAt,
		}
	}
	return resp
}
