package invoices_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kpis-api/internal/application/dto"
	"github.com/jhoicas/kpis-api/internal/application/invoices"
	"github.com/jhoicas/kpis-api/internal/application/ocr"
	"github.com/jhoicas/kpis-api/internal/domain"
	"github.com/jhoicas/kpis-api/internal/domain/entity"
	"github.com/jhoicas/kpis-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

// fakeRecords sirve tanto al caso de uso como al orquestador en background,
// así que protege su estado con mutex.
type fakeRecords struct {
	mu       sync.Mutex
	invoices []map[string]any
	searches []string // modelos consultados
	executed []string // métodos ejecutados vía ExecuteKw
}

func (f *fakeRecords) SearchRead(_ context.Context, model string, criteria []any, _ []string, _, _ int) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, model)

	if model == ocr.ModelAttachment {
		return nil, nil
	}
	// Detalle / orquestador: filtrado por id.
	if len(criteria) > 0 {
		if c, ok := criteria[0].([]any); ok && c[0] == "id" {
			for _, rec := range f.invoices {
				if int64(rec["id"].(float64)) == c[2].(int64) {
					return []map[string]any{rec}, nil
				}
			}
			return nil, nil
		}
	}
	return f.invoices, nil
}

func (f *fakeRecords) Write(context.Context, string, []int64, map[string]any) error {
	return nil
}

func (f *fakeRecords) ExecuteKw(_ context.Context, _ string, method string, _ []any, _ map[string]any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, method)
	return true, nil
}

func (f *fakeRecords) executedMethods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

// invoiceRecord arma un registro tal como lo serializa el ERP: many2one como
// false o [id, nombre], números como float64, campos vacíos como false.
func invoiceRecord(id int64, amountUntaxed any, attachmentCount int, state string) map[string]any {
	return map[string]any{
		"id":                           float64(id),
		"name":                         "FACT/2026/0001",
		"invoice_partner_display_name": "Proveedor Andino SAS",
		"state":                        state,
		"invoice_date":                 "2026-08-15",
		"amount_untaxed":               amountUntaxed,
		"amount_total":                 float64(0),
		"extract_state":                "error_status",
		"extract_error_message":        "An error occurred during the extraction",
		"message_main_attachment_id":   false,
		"message_attachment_count":     float64(attachmentCount),
	}
}

func newUseCase(records *fakeRecords, autoRefresh bool) (*invoices.UseCase, *ocr.NotificationStore) {
	store := ocr.NewNotificationStore(logger.Nop())
	orch := ocr.NewRefreshOrchestrator(records, store, logger.Nop(), time.Minute)
	return invoices.NewUseCase(records, orch, store, autoRefresh, logger.Nop()), store
}

// ──────────────────────────────────────────────────────────────────────────────
// Listado
// ──────────────────────────────────────────────────────────────────────────────

func TestListInvoices_DisparaRefrescoConCandidatas(t *testing.T) {
	records := &fakeRecords{invoices: []map[string]any{
		invoiceRecord(1, false, 2, "draft"),            // en cero con adjuntos: candidata
		invoiceRecord(2, float64(150.50), 1, "posted"), // con importe: no candidata
		invoiceRecord(3, false, 0, "draft"),            // en cero pero sin adjuntos: no candidata
	}}
	uc, store := newUseCase(records, true)

	resp, err := uc.ListInvoices(context.Background(), dto.PageRequest{}, "")
	require.NoError(t, err)

	assert.Len(t, resp.Invoices, 3)
	assert.Equal(t, 2, resp.ZeroValueCount)
	assert.True(t, resp.RefreshTriggered)

	// El refresco corre en background; el listado no espera por él.
	require.Eventually(t, func() bool {
		snap := store.Snapshot()
		return !snap.IsRunning && snap.LastResult != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, store.Snapshot().LastResult.TotalInvoices,
		"solo la factura en cero con adjuntos entra al batch")
}

func TestListInvoices_NoDisparaConBatchEnCurso(t *testing.T) {
	records := &fakeRecords{invoices: []map[string]any{
		invoiceRecord(1, false, 2, "draft"),
	}}
	uc, store := newUseCase(records, true)
	store.StartRefresh([]int64{99}) // batch ya corriendo

	resp, err := uc.ListInvoices(context.Background(), dto.PageRequest{}, "")
	require.NoError(t, err)

	assert.False(t, resp.RefreshTriggered)
}

func TestListInvoices_NoDisparaConAutoRefreshApagado(t *testing.T) {
	records := &fakeRecords{invoices: []map[string]any{
		invoiceRecord(1, false, 2, "draft"),
	}}
	uc, _ := newUseCase(records, false)

	resp, err := uc.ListInvoices(context.Background(), dto.PageRequest{}, "")
	require.NoError(t, err)

	assert.False(t, resp.RefreshTriggered)
	assert.Equal(t, 1, resp.ZeroValueCount, "el conteo se reporta aunque no se dispare nada")
}

func TestListInvoices_ProyectaDiagnosticosDeExtraccion(t *testing.T) {
	records := &fakeRecords{invoices: []map[string]any{
		invoiceRecord(1, false, 2, "draft"),
	}}
	uc, _ := newUseCase(records, false)

	resp, err := uc.ListInvoices(context.Background(), dto.PageRequest{}, "")
	require.NoError(t, err)

	inv := resp.Invoices[0]
	assert.Nil(t, inv.AmountUntaxed, "un importe ausente no se confunde con cero")
	assert.True(t, inv.IsZeroValue)
	assert.True(t, inv.HasAttachments)
	assert.Equal(t, "error_status", inv.ExtractState)
	assert.Equal(t, "An error occurred during the extraction", inv.ExtractErrorMessage)
	require.NotNil(t, inv.InvoiceDate)
	assert.Equal(t, "2026-08-15", inv.InvoiceDate.Format("2006-01-02"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Detalle y reintento manual
// ──────────────────────────────────────────────────────────────────────────────

func TestGetInvoice_NoEncontradaDevuelveErrNotFound(t *testing.T) {
	uc, _ := newUseCase(&fakeRecords{}, false)

	_, err := uc.GetInvoice(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRefreshOne_SinAdjuntosSeOmite(t *testing.T) {
	records := &fakeRecords{invoices: []map[string]any{
		invoiceRecord(5, false, 0, "draft"),
	}}
	uc, _ := newUseCase(records, false)

	resp, err := uc.RefreshOne(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, "skipped_no_attachment", resp.Outcome)
	assert.NotContains(t, records.executedMethods(), "action_manual_send_for_ocr")
}

func TestRefreshOne_FacturaInexistente(t *testing.T) {
	uc, _ := newUseCase(&fakeRecords{}, false)

	_, err := uc.RefreshOne(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Aprobación
// ──────────────────────────────────────────────────────────────────────────────

func TestApprove_RolInsuficiente(t *testing.T) {
	uc, _ := newUseCase(&fakeRecords{}, false)

	_, err := uc.Approve(context.Background(), 1, entity.RoleViewer)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApprove_SoloFacturasEnBorrador(t *testing.T) {
	records := &fakeRecords{invoices: []map[string]any{
		invoiceRecord(1, float64(100), 1, "posted"),
	}}
	uc, _ := newUseCase(records, false)

	_, err := uc.Approve(context.Background(), 1, entity.RoleApprover)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestApprove_PublicaLaFactura(t *testing.T) {
	records := &fakeRecords{invoices: []map[string]any{
		invoiceRecord(1, float64(100), 1, "draft"),
	}}
	uc, _ := newUseCase(records, false)

	resp, err := uc.Approve(context.Background(), 1, entity.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, "posted", resp.State)
	assert.Contains(t, records.executedMethods(), "action_post")
}
