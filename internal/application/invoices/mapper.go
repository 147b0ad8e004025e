package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kpis-api/internal/application/ocr"
	"github.com/jhoicas/kpis-api/internal/domain/entity"
)

// Campos que pedimos al ERP para el listado/detalle de facturas.
var invoiceFields = []string{
	"id", "name", "invoice_partner_display_name", "state", "invoice_date",
	"amount_untaxed", "amount_total", "extract_state", "extract_error_message",
	"message_main_attachment_id", "message_attachment_count",
}

// mapInvoice convierte un registro crudo del ERP en la entidad local.
// El ERP serializa los campos vacíos como `false`, de ahí los helpers.
func mapInvoice(rec map[string]any) entity.Invoice {
	inv := entity.Invoice{
		ID:                  recInt64(rec, "id"),
		Number:              recString(rec, "name"),
		VendorName:          recString(rec, "invoice_partner_display_name"),
		State:               recString(rec, "state"),
		AmountTotal:         recDecimal(rec, "amount_total"),
		ExtractState:        recString(rec, "extract_state"),
		ExtractErrorMessage: recString(rec, "extract_error_message"),
		AttachmentCount:     int(recInt64(rec, "message_attachment_count")),
	}

	// amount_untaxed queda en nil mientras la extracción no lo rellena:
	// ausente, false o cero se tratan igual para el detector.
	if d, ok := recOptionalDecimal(rec, "amount_untaxed"); ok && !d.IsZero() {
		inv.AmountUntaxed = &d
	}

	if id, ok := ocr.ManyToOneID(rec["message_main_attachment_id"]); ok {
		inv.MainAttachmentID = &id
	}

	if s := recString(rec, "invoice_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			inv.InvoiceDate = &t
		}
	}
	return inv
}

func mapAttachment(rec map[string]any) entity.Attachment {
	return entity.Attachment{
		ID:       recInt64(rec, "id"),
		Name:     recString(rec, "name"),
		MimeType: recString(rec, "mimetype"),
		ResModel: recString(rec, "res_model"),
		ResID:    recInt64(rec, "res_id"),
	}
}

// ── Helpers de decodificación ─────────────────────────────────────────────────

func recString(rec map[string]any, key string) string {
	if s, ok := rec[key].(string); ok {
		return s
	}
	return "" // false, nil o tipo inesperado
}

func recInt64(rec map[string]any, key string) int64 {
	switch n := rec[key].(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func recDecimal(rec map[string]any, key string) decimal.Decimal {
	d, _ := recOptionalDecimal(rec, key)
	return d
}

func recOptionalDecimal(rec map[string]any, key string) (decimal.Decimal, bool) {
	switch n := rec[key].(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int64:
		return decimal.NewFromInt(n), true
	default:
		return decimal.Zero, false
	}
}
