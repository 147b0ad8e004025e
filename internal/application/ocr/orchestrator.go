package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/kpis-api/internal/application/ports"
	"github.com/jhoicas/kpis-api/internal/domain"
	"github.com/jhoicas/kpis-api/pkg/logger"
)

// BatchStore es el puerto del orquestador hacia el store de notificaciones.
// Lo implementa NotificationStore; los tests inyectan un recorder.
type BatchStore interface {
	StartRefresh(invoiceIDs []int64) uuid.UUID
	UpdateProgress(completed, total int)
	CompleteRefresh(result BatchResult)
	FailRefresh(message string)
}

// Modelos y campos del ERP que toca el refresco.
const (
	ModelInvoice    = "account.move"
	ModelAttachment = "ir.attachment"

	fieldMainAttachment = "message_main_attachment_id"
	methodSendForOCR    = "action_manual_send_for_ocr"
)

// Outcome resultado por factura dentro de un batch.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSkipped         // sin adjunto: fuera del alcance de la extracción, no es error
	OutcomeFailed
)

// RefreshOrchestrator ejecuta el refresco OCR de un conjunto de facturas:
//
//	reparar linkage del adjunto principal → reset de estado de error → re-disparar extracción
//
// Se ejecuta siempre en goroutine independiente (RefreshAsync) con su propio
// context.Background() + timeout global, desacoplado del ciclo HTTP. El único
// canal de observación es el NotificationStore.
//
// Procesa las facturas en secuencia, no en paralelo: cada factura implica
// varias escrituras dependientes sobre el mismo registro remoto y el servicio
// de extracción externo está rate-limited; además completed/total queda libre
// de carreras.
type RefreshOrchestrator struct {
	records ports.RecordStore
	store   BatchStore
	log     *logger.Logger
	timeout time.Duration // guarda global del batch
}

// NewRefreshOrchestrator construye el orquestador.
func NewRefreshOrchestrator(records ports.RecordStore, store BatchStore, log *logger.Logger, batchTimeout time.Duration) *RefreshOrchestrator {
	if batchTimeout <= 0 {
		batchTimeout = 5 * time.Minute
	}
	return &RefreshOrchestrator{
		records: records,
		store:   store,
		log:     log.Component("ocr-refresh"),
		timeout: batchTimeout,
	}
}

// RefreshAsync dispara el batch en una goroutine independiente. El caller
// recibe el control de inmediato; el desenlace solo es observable vía el store.
func (o *RefreshOrchestrator) RefreshAsync(invoiceIDs []int64) {
	go o.Run(invoiceIDs)
}

// Run es el núcleo síncrono del batch. Garantiza un terminal en el store en
// todos los caminos de salida: CompleteRefresh con el agregado, o FailRefresh
// si algo escapa del manejo por factura.
func (o *RefreshOrchestrator) Run(invoiceIDs []int64) BatchResult {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	batchID := o.store.StartRefresh(invoiceIDs)
	started := time.Now()
	log := o.log.With().Str("batch", batchID.String()).Int("total", len(invoiceIDs)).Logger()
	log.Info().Msg("batch de refresco OCR iniciado")

	result := BatchResult{BatchID: batchID, TotalInvoices: len(invoiceIDs)}

	defer func() {
		// Un panic aquí sería un bug nuestro, pero un batch en background no
		// puede morir en silencio: el store siempre recibe un terminal.
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("fallo inesperado del orquestador")
			o.store.FailRefresh(fmt.Sprintf("fallo inesperado del orquestador: %v", r))
		}
	}()

	for i, id := range invoiceIDs {
		outcome, err := o.RepairAndTrigger(ctx, id)
		switch outcome {
		case OutcomeSuccess:
			result.Successful++
		case OutcomeSkipped:
			result.Skipped++
			log.Debug().Int64("invoice", id).Msg("sin adjuntos; se omite la extracción")
		case OutcomeFailed:
			result.Failed++
			log.Warn().Int64("invoice", id).
				Str("kind", string(domain.KindOf(err))).
				Err(err).
				Msg("refresco fallido para la factura")
		}
		// Los pollers ven avance vivo tras cada factura, exitosa o no.
		o.store.UpdateProgress(i+1, len(invoiceIDs))
	}

	result.Duration = time.Since(started)
	result.CompletedAt = time.Now()
	o.store.CompleteRefresh(result)

	log.Info().
		Int("exitosas", result.Successful).
		Int("fallidas", result.Failed).
		Int("omitidas", result.Skipped).
		Dur("duracion", result.Duration).
		Msg("batch de refresco OCR terminado")
	return result
}

// RepairAndTrigger procesa una factura: repara el linkage si falta, resetea el
// estado de error de extracción y re-dispara el OCR. Cualquier error remoto se
// devuelve como fallo blando de esa factura; nunca aborta el batch.
//
// También lo usa el endpoint de reintento manual por factura.
func (o *RefreshOrchestrator) RepairAndTrigger(ctx context.Context, invoiceID int64) (Outcome, error) {
	// 1. Linkage del adjunto principal. Puede faltar aunque la factura tenga
	//    adjuntos; sin él la extracción no encuentra el documento.
	linked, err := o.hasMainAttachment(ctx, invoiceID)
	if err != nil {
		return OutcomeFailed, err
	}
	if !linked {
		attachmentID, found, err := o.findFirstAttachment(ctx, invoiceID)
		if err != nil {
			return OutcomeFailed, err
		}
		if !found {
			// Sin adjuntos no hay nada que extraer; el caller debe excluir
			// esta factura de futuros candidatos.
			return OutcomeSkipped, nil
		}
		if err := o.records.Write(ctx, ModelInvoice, []int64{invoiceID}, map[string]any{
			fieldMainAttachment: attachmentID,
		}); err != nil {
			return OutcomeFailed, err
		}
	}

	// 2. Reset incondicional del estado de error: un intento previo fallido
	//    deja estado sucio que bloquea la re-extracción, incluso con el
	//    linkage ya presente. Equivale al reintento manual de un operador.
	if err := o.records.Write(ctx, ModelInvoice, []int64{invoiceID}, map[string]any{
		"extract_state":         "no_extract_requested",
		"extract_error_message": false,
	}); err != nil {
		return OutcomeFailed, err
	}

	// 3. Re-disparar la extracción asíncrona del tercero.
	if _, err := o.records.ExecuteKw(ctx, ModelInvoice, methodSendForOCR, []any{[]int64{invoiceID}}, nil); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeSuccess, nil
}

// hasMainAttachment lee el linkage actual de la factura.
func (o *RefreshOrchestrator) hasMainAttachment(ctx context.Context, invoiceID int64) (bool, error) {
	records, err := o.records.SearchRead(ctx, ModelInvoice,
		[]any{[]any{"id", "=", invoiceID}},
		[]string{fieldMainAttachment}, 1, 0)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, domain.NewRemoteError("odoo.search_read "+ModelInvoice, domain.KindNotFound,
			fmt.Errorf("factura %d no existe en el ERP", invoiceID))
	}
	_, ok := ManyToOneID(records[0][fieldMainAttachment])
	return ok, nil
}

// findFirstAttachment busca cualquier adjunto que referencie la factura.
func (o *RefreshOrchestrator) findFirstAttachment(ctx context.Context, invoiceID int64) (int64, bool, error) {
	records, err := o.records.SearchRead(ctx, ModelAttachment,
		[]any{
			[]any{"res_model", "=", ModelInvoice},
			[]any{"res_id", "=", invoiceID},
		},
		[]string{"id"}, 1, 0)
	if err != nil {
		return 0, false, err
	}
	if len(records) == 0 {
		return 0, false, nil
	}
	id, ok := toInt64(records[0]["id"])
	if !ok {
		return 0, false, domain.NewRemoteError("odoo.search_read "+ModelAttachment, domain.KindServer,
			fmt.Errorf("id de adjunto con tipo inesperado: %T", records[0]["id"]))
	}
	return id, true, nil
}

// ManyToOneID interpreta un campo many2one del ERP: `false` cuando está vacío,
// `[id, display_name]` cuando apunta a un registro.
func ManyToOneID(v any) (int64, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) == 0 {
		return 0, false
	}
	return toInt64(pair[0])
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64: // encoding/json decodifica números JSON como float64
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
