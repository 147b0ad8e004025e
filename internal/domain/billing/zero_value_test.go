package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/kpis-api/internal/domain/billing"
	"github.com/jhoicas/kpis-api/internal/domain/entity"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestIsZeroValue(t *testing.T) {
	cases := []struct {
		name   string
		amount *decimal.Decimal
		want   bool
	}{
		{"nil es cero", nil, true},
		{"cero exacto es cero", dec("0"), true},
		{"cero con decimales es cero", dec("0.00"), true},
		{"monto extraído no es cero", dec("12.5"), false},
		{"monto negativo no es cero", dec("-3.10"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, billing.IsZeroValue(tc.amount))
		})
	}
}

func TestRefreshCandidates_SoloCeroConAdjuntos(t *testing.T) {
	mainAtt := int64(77)
	invoices := []entity.Invoice{
		{ID: 1, AmountUntaxed: nil, AttachmentCount: 2},            // candidata
		{ID: 2, AmountUntaxed: dec("150.00"), AttachmentCount: 1},  // con datos: no
		{ID: 3, AmountUntaxed: nil, AttachmentCount: 0},            // sin adjuntos: no (evita bucle de reintentos)
		{ID: 4, AmountUntaxed: dec("0"), MainAttachmentID: &mainAtt}, // cero con linkage: candidata
	}

	got := billing.RefreshCandidates(invoices)
	assert.Equal(t, []int64{1, 4}, got,
		"solo las facturas en cero con adjuntos deben ser candidatas a refresco")
}

func TestCountZeroValue(t *testing.T) {
	invoices := []entity.Invoice{
		{ID: 1},
		{ID: 2, AmountUntaxed: dec("99.99")},
		{ID: 3, AmountUntaxed: dec("0")},
	}
	assert.Equal(t, 2, billing.CountZeroValue(invoices))
}
