package invoices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// El ERP serializa lo vacío como `false`; el mapper no debe confundirlo con
// valores reales ni romperse con tipos mezclados.
func TestMapInvoice_CamposVaciosComoFalse(t *testing.T) {
	inv := mapInvoice(map[string]any{
		"id":                           float64(42),
		"name":                         "FACT/2026/0042",
		"invoice_partner_display_name": false,
		"state":                        "draft",
		"invoice_date":                 false,
		"amount_untaxed":               false,
		"amount_total":                 false,
		"extract_state":                "no_extract_requested",
		"extract_error_message":        false,
		"message_main_attachment_id":   false,
		"message_attachment_count":     float64(0),
	})

	assert.Equal(t, int64(42), inv.ID)
	assert.Empty(t, inv.VendorName)
	assert.Nil(t, inv.InvoiceDate)
	assert.Nil(t, inv.AmountUntaxed)
	assert.True(t, inv.AmountTotal.IsZero())
	assert.Empty(t, inv.ExtractErrorMessage)
	assert.Nil(t, inv.MainAttachmentID)
	assert.False(t, inv.HasAttachments())
}

func TestMapInvoice_RegistroCompleto(t *testing.T) {
	inv := mapInvoice(map[string]any{
		"id":                           float64(7),
		"name":                         "FACT/2026/0007",
		"invoice_partner_display_name": "Proveedor Andino SAS",
		"state":                        "posted",
		"invoice_date":                 "2026-03-01",
		"amount_untaxed":               float64(840.25),
		"amount_total":                 float64(999.90),
		"extract_state":                "done",
		"extract_error_message":        false,
		"message_main_attachment_id":   []any{float64(301), "factura.pdf"},
		"message_attachment_count":     float64(2),
	})

	require.NotNil(t, inv.AmountUntaxed)
	assert.Equal(t, "840.25", inv.AmountUntaxed.String())
	assert.Equal(t, "999.9", inv.AmountTotal.String())
	require.NotNil(t, inv.MainAttachmentID)
	assert.Equal(t, int64(301), *inv.MainAttachmentID)
	require.NotNil(t, inv.InvoiceDate)
	assert.Equal(t, "2026-03-01", inv.InvoiceDate.Format("2006-01-02"))
	assert.True(t, inv.HasMainAttachment())
	assert.True(t, inv.HasAttachments())
}

// Un importe extraído en 0.00 sigue contando como "en cero" para el detector.
func TestMapInvoice_ImporteCeroQuedaEnNil(t *testing.T) {
	inv := mapInvoice(map[string]any{
		"id":             float64(1),
		"amount_untaxed": float64(0),
		"amount_total":   float64(0),
	})
	assert.Nil(t, inv.AmountUntaxed)
}
