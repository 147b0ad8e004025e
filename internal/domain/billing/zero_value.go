// Package billing contiene predicados puros sobre facturas de proveedor.
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kpis-api/internal/domain/entity"
)

// IsZeroValue indica si un monto extraído está ausente, nulo o es exactamente cero.
// Es el criterio para considerar una factura como "sin datos extraídos" (candidata
// a refresco OCR). Función pura, sin I/O.
func IsZeroValue(amount *decimal.Decimal) bool {
	return amount == nil || amount.IsZero()
}

// IsZeroValueInvoice aplica IsZeroValue sobre el monto sin impuestos de la factura.
func IsZeroValueInvoice(inv *entity.Invoice) bool {
	return IsZeroValue(inv.AmountUntaxed)
}

// RefreshCandidates devuelve los IDs de facturas en cero que además tienen
// adjuntos. Las que no tienen adjuntos se excluyen a propósito: el orquestador
// las marcaría skipped en cada pasada y entraríamos en un bucle de reintentos.
func RefreshCandidates(invoices []entity.Invoice) []int64 {
	var ids []int64
	for i := range invoices {
		inv := &invoices[i]
		if IsZeroValueInvoice(inv) && inv.HasAttachments() {
			ids = append(ids, inv.ID)
		}
	}
	return ids
}

// CountZeroValue cuenta las facturas en cero de un listado (diagnóstico para el cliente).
func CountZeroValue(invoices []entity.Invoice) int {
	n := 0
	for i := range invoices {
		if IsZeroValueInvoice(&invoices[i]) {
			n++
		}
	}
	return n
}
