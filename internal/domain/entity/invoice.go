package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de extracción OCR del ERP para una factura de proveedor.
// El subsistema de refresco solo escribe ExtractStateNone (reset de error);
// el resto los produce el módulo de extracción del ERP.
const (
	ExtractStateNone    = "no_extract_requested"
	ExtractStateWaiting = "waiting_extraction"
	ExtractStateDone    = "done"
	ExtractStateError   = "error_status"
)

// Invoice es la vista local de una factura de proveedor del ERP (account.move).
// El ERP es el dueño del registro; este servicio solo lee y hace escrituras
// acotadas (linkage del adjunto principal, reset de estado de error OCR).
type Invoice struct {
	ID                  int64
	Number              string // name en el ERP; "/" mientras está en borrador
	VendorName          string
	State               string // draft | posted | cancel
	InvoiceDate         *time.Time
	AmountUntaxed       *decimal.Decimal // nil hasta que la extracción lo rellena
	AmountTotal         decimal.Decimal
	ExtractState        string
	ExtractErrorMessage string
	MainAttachmentID    *int64 // linkage que la extracción necesita; puede faltar aun con adjuntos
	AttachmentCount     int
}

// HasMainAttachment indica si el linkage al adjunto principal está presente.
func (i *Invoice) HasMainAttachment() bool {
	return i.MainAttachmentID != nil
}

// HasAttachments indica si la factura tiene al menos un adjunto en el ERP.
// Es la condición para que sea candidata a refresco OCR: sin adjuntos la
// extracción nunca va a poder procesar nada (ver skipped en el orquestador).
func (i *Invoice) HasAttachments() bool {
	return i.AttachmentCount > 0 || i.MainAttachmentID != nil
}

// Attachment es un adjunto del ERP (ir.attachment) ligado a una factura.
type Attachment struct {
	ID       int64
	Name     string
	MimeType string
	ResModel string // siempre account.move en este subsistema
	ResID    int64
}
