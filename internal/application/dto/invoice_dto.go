package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceDTO factura de proveedor reformateada para el dashboard.
type InvoiceDTO struct {
	ID                  int64            `json:"id"`
	Number              string           `json:"number"`
	VendorName          string           `json:"vendorName"`
	State               string           `json:"state"`
	InvoiceDate         *time.Time       `json:"invoiceDate,omitempty"`
	AmountUntaxed       *decimal.Decimal `json:"amountUntaxed"` // null hasta que la extracción lo rellena
	AmountTotal         decimal.Decimal  `json:"amountTotal"`
	ExtractState        string           `json:"extractState,omitempty"`
	ExtractErrorMessage string           `json:"extractErrorMessage,omitempty"`
	HasAttachments      bool             `json:"hasAttachments"`
	IsZeroValue         bool             `json:"isZeroValue"`
}

// AttachmentDTO adjunto de una factura.
type AttachmentDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType,omitempty"`
}

// InvoiceListResponse página de facturas más los diagnósticos de extracción
// que el cliente usa para decidir si activa el polling del refresco.
type InvoiceListResponse struct {
	Invoices         []InvoiceDTO `json:"invoices"`
	Limit            int          `json:"limit"`
	Offset           int          `json:"offset"`
	ZeroValueCount   int          `json:"zeroValueCount"`
	RefreshTriggered bool         `json:"refreshTriggered"`
}

// InvoiceDetailResponse factura con sus adjuntos.
type InvoiceDetailResponse struct {
	Invoice     InvoiceDTO      `json:"invoice"`
	Attachments []AttachmentDTO `json:"attachments"`
}

// ApproveResponse confirmación de aprobación (publicación en el ERP).
type ApproveResponse struct {
	InvoiceID int64  `json:"invoiceId"`
	State     string `json:"state"`
}
