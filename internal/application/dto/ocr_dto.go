package dto

import "time"

// RefreshProgressDTO avance del batch en curso.
type RefreshProgressDTO struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// RefreshResultDTO agregado terminal del último batch de refresco OCR.
type RefreshResultDTO struct {
	BatchID       string    `json:"batchId"`
	TotalInvoices int       `json:"totalInvoices"`
	Successful    int       `json:"successful"`
	Failed        int       `json:"failed"`
	Skipped       int       `json:"skipped"`
	DurationMs    int64     `json:"durationMs"`
	CompletedAt   time.Time `json:"completedAt"`
}

// RefreshStatusResponse snapshot del store de notificaciones, tal como lo
// consumen los clientes por polling (GET /api/ocr/refresh-status).
type RefreshStatusResponse struct {
	IsRunning     bool                `json:"isRunning"`
	StartTime     *time.Time          `json:"startTime,omitempty"`
	Progress      *RefreshProgressDTO `json:"progress,omitempty"`
	LastResult    *RefreshResultDTO   `json:"lastResult,omitempty"`
	LastError     string              `json:"lastError,omitempty"`
	LastErrorKind string              `json:"lastErrorKind,omitempty"`
}

// ManualRefreshResponse desenlace del reintento OCR manual de una factura.
type ManualRefreshResponse struct {
	InvoiceID int64  `json:"invoiceId"`
	Outcome   string `json:"outcome"` // triggered | skipped_no_attachment | failed
	Message   string `json:"message,omitempty"`
}
