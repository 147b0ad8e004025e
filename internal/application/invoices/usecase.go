// Package invoices contiene los casos de uso del listado, detalle y
// aprobación de facturas de proveedor, y el disparo del refresco OCR.
package invoices

import (
	"context"
	"fmt"

	"github.com/jhoicas/kpis-api/internal/application/dto"
	"github.com/jhoicas/kpis-api/internal/application/ocr"
	"github.com/jhoicas/kpis-api/internal/application/ports"
	"github.com/jhoicas/kpis-api/internal/domain"
	"github.com/jhoicas/kpis-api/internal/domain/billing"
	"github.com/jhoicas/kpis-api/internal/domain/entity"
	"github.com/jhoicas/kpis-api/pkg/logger"
)

// UseCase casos de uso de facturas de proveedor. El ERP es la fuente de
// verdad; aquí solo se proyecta y se disparan acciones acotadas.
type UseCase struct {
	records      ports.RecordStore
	orchestrator *ocr.RefreshOrchestrator
	store        *ocr.NotificationStore
	autoRefresh  bool
	log          *logger.Logger
}

// NewUseCase construye el caso de uso. autoRefresh controla el disparo
// automático del refresco OCR desde el listado.
func NewUseCase(records ports.RecordStore, orchestrator *ocr.RefreshOrchestrator, store *ocr.NotificationStore, autoRefresh bool, log *logger.Logger) *UseCase {
	return &UseCase{
		records:      records,
		orchestrator: orchestrator,
		store:        store,
		autoRefresh:  autoRefresh,
		log:          log.Component("invoices"),
	}
}

// ListInvoices devuelve una página de facturas de proveedor (canceladas
// excluidas) con diagnósticos de extracción. Si detecta candidatas en cero con
// adjuntos y no hay batch corriendo, dispara el refresco en background; la
// respuesta HTTP nunca espera por él.
func (uc *UseCase) ListInvoices(ctx context.Context, page dto.PageRequest, state string) (*dto.InvoiceListResponse, error) {
	page.DefaultPage()

	criteria := []any{
		[]any{"move_type", "=", "in_invoice"},
		[]any{"state", "!=", "cancel"},
	}
	if state != "" {
		criteria = append(criteria, []any{"state", "=", state})
	}

	records, err := uc.records.SearchRead(ctx, ocr.ModelInvoice, criteria, invoiceFields, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	invs := make([]entity.Invoice, len(records))
	for i, rec := range records {
		invs[i] = mapInvoice(rec)
	}

	resp := &dto.InvoiceListResponse{
		Invoices:       make([]dto.InvoiceDTO, len(invs)),
		Limit:          page.Limit,
		Offset:         page.Offset,
		ZeroValueCount: billing.CountZeroValue(invs),
	}
	for i := range invs {
		resp.Invoices[i] = toInvoiceDTO(&invs[i])
	}

	if uc.autoRefresh {
		candidates := billing.RefreshCandidates(invs)
		if len(candidates) > 0 && !uc.store.Snapshot().IsRunning {
			uc.log.Info().Int("candidatas", len(candidates)).Msg("disparando refresco OCR desde el listado")
			uc.orchestrator.RefreshAsync(candidates)
			resp.RefreshTriggered = true
		}
	}
	return resp, nil
}

// GetInvoice devuelve una factura con sus adjuntos.
func (uc *UseCase) GetInvoice(ctx context.Context, id int64) (*dto.InvoiceDetailResponse, error) {
	records, err := uc.records.SearchRead(ctx, ocr.ModelInvoice,
		[]any{[]any{"id", "=", id}, []any{"move_type", "=", "in_invoice"}},
		invoiceFields, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}
	inv := mapInvoice(records[0])

	attRecords, err := uc.records.SearchRead(ctx, ocr.ModelAttachment,
		[]any{
			[]any{"res_model", "=", ocr.ModelInvoice},
			[]any{"res_id", "=", id},
		},
		[]string{"id", "name", "mimetype", "res_model", "res_id"}, 0, 0)
	if err != nil {
		return nil, err
	}

	resp := &dto.InvoiceDetailResponse{
		Invoice:     toInvoiceDTO(&inv),
		Attachments: make([]dto.AttachmentDTO, len(attRecords)),
	}
	for i, rec := range attRecords {
		att := mapAttachment(rec)
		resp.Attachments[i] = dto.AttachmentDTO{ID: att.ID, Name: att.Name, MimeType: att.MimeType}
	}
	return resp, nil
}

// RefreshOne ejecuta el reintento OCR manual de una sola factura, en el
// request path (síncrono): el operador que pulsa el botón quiere el desenlace.
func (uc *UseCase) RefreshOne(ctx context.Context, id int64) (*dto.ManualRefreshResponse, error) {
	outcome, err := uc.orchestrator.RepairAndTrigger(ctx, id)
	resp := &dto.ManualRefreshResponse{InvoiceID: id}
	switch outcome {
	case ocr.OutcomeSuccess:
		resp.Outcome = "triggered"
	case ocr.OutcomeSkipped:
		resp.Outcome = "skipped_no_attachment"
		resp.Message = "la factura no tiene adjuntos; no hay documento que extraer"
	case ocr.OutcomeFailed:
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, domain.ErrNotFound
		}
		resp.Outcome = "failed"
		resp.Message = err.Error()
	}
	return resp, nil
}

// Approve publica una factura en borrador (action_post). Requiere rol
// approver o admin; la comprobación vive aquí para que el handler quede plano.
func (uc *UseCase) Approve(ctx context.Context, id int64, role string) (*dto.ApproveResponse, error) {
	if role != entity.RoleApprover && role != entity.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	records, err := uc.records.SearchRead(ctx, ocr.ModelInvoice,
		[]any{[]any{"id", "=", id}, []any{"move_type", "=", "in_invoice"}},
		[]string{"id", "state"}, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}
	if st := recString(records[0], "state"); st != "draft" {
		return nil, fmt.Errorf("%w: la factura está en estado %q", domain.ErrConflict, st)
	}

	if _, err := uc.records.ExecuteKw(ctx, ocr.ModelInvoice, "action_post", []any{[]int64{id}}, nil); err != nil {
		return nil, err
	}
	uc.log.Info().Int64("invoice", id).Msg("factura aprobada (publicada en el ERP)")
	return &dto.ApproveResponse{InvoiceID: id, State: "posted"}, nil
}

func toInvoiceDTO(inv *entity.Invoice) dto.InvoiceDTO {
	return dto.InvoiceDTO{
		ID:                  inv.ID,
		Number:              inv.Number,
		VendorName:          inv.VendorName,
		State:               inv.State,
		InvoiceDate:         inv.InvoiceDate,
		AmountUntaxed:       inv.AmountUntaxed,
		AmountTotal:         inv.AmountTotal,
		ExtractState:        inv.ExtractState,
		ExtractErrorMessage: inv.ExtractErrorMessage,
		HasAttachments:      inv.HasAttachments(),
		IsZeroValue:         billing.IsZeroValueInvoice(inv),
	}
}
