// Package ocr implementa el subsistema de refresco OCR: el orquestador que
// repara el linkage de adjuntos y re-dispara la extracción, el store de
// notificaciones que los clientes consultan por polling, y el watcher que
// traduce las transiciones terminales en notificaciones de usuario.
package ocr

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/kpis-api/internal/domain"
	"github.com/jhoicas/kpis-api/pkg/logger"
)

// RefreshProgress avance del batch en curso.
type RefreshProgress struct {
	Completed int
	Total     int
}

// BatchResult resultado terminal de un batch de refresco.
// Skipped (sin adjunto) queda fuera de Successful y Failed: esas facturas no
// son un error pero tampoco deben reintentarse en cada listado.
type BatchResult struct {
	BatchID       uuid.UUID
	TotalInvoices int
	Successful    int
	Failed        int
	Skipped       int
	Duration      time.Duration
	CompletedAt   time.Time
}

// RefreshSnapshot lectura inmutable del estado del store. Los punteros que
// expone son copias; el lector nunca comparte memoria mutable con el escritor.
type RefreshSnapshot struct {
	IsRunning     bool
	BatchID       uuid.UUID
	StartedAt     *time.Time
	Progress      *RefreshProgress
	LastResult    *BatchResult
	LastError     string
	LastErrorKind domain.RemoteErrorKind // "" si LastError está vacío
}

// NotificationStore máquina de estados de un refresco OCR, de slot único:
// Idle → Running (StartRefresh) → Idle reteniendo LastResult o LastError
// (CompleteRefresh / FailRefresh). Un StartRefresh mientras hay otro batch
// corriendo pisa el estado (last-writer-wins); no hay cola de batches. El
// caso de uso de listado evita el solape en la práctica consultando
// Snapshot().IsRunning antes de disparar.
//
// Escritor único (el orquestador), lectores arbitrarios (handlers HTTP).
// El camino de lectura es lock-free: cada mutación construye un snapshot
// nuevo y lo intercambia atómicamente.
type NotificationStore struct {
	log *logger.Logger

	mu   sync.Mutex // serializa escritores (solo relevante si dos batches se pisan)
	snap atomic.Pointer[RefreshSnapshot]
}

// NewNotificationStore construye el store en estado Idle.
func NewNotificationStore(log *logger.Logger) *NotificationStore {
	s := &NotificationStore{log: log.Component("ocr-store")}
	s.snap.Store(&RefreshSnapshot{})
	return s
}

// StartRefresh transiciona a Running para un nuevo batch. El resultado o error
// del batch anterior sigue visible para los pollers hasta que este batch
// produzca su propio terminal.
func (s *NotificationStore) StartRefresh(invoiceIDs []int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snap.Load()
	if prev.IsRunning {
		s.log.Warn().
			Str("batch_anterior", prev.BatchID.String()).
			Msg("nuevo batch con otro en curso; se pisa el estado (slot único)")
	}

	now := time.Now()
	batchID := uuid.New()
	s.snap.Store(&RefreshSnapshot{
		IsRunning:     true,
		BatchID:       batchID,
		StartedAt:     &now,
		Progress:      &RefreshProgress{Completed: 0, Total: len(invoiceIDs)},
		LastResult:    prev.LastResult,
		LastError:     prev.LastError,
		LastErrorKind: prev.LastErrorKind,
	})
	return batchID
}

// UpdateProgress actualiza el avance del batch en curso. Solo válido en
// Running; el store no fuerza monotonicidad pero deja traza si un caller
// hace retroceder el progreso visible.
func (s *NotificationStore) UpdateProgress(completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snap.Load()
	if !prev.IsRunning {
		s.log.Warn().Int("completed", completed).Msg("UpdateProgress sin batch en curso; ignorado")
		return
	}
	if prev.Progress != nil && completed < prev.Progress.Completed {
		s.log.Warn().
			Int("antes", prev.Progress.Completed).
			Int("ahora", completed).
			Msg("progreso retrocede; el caller viola la monotonicidad esperada")
	}

	next := *prev
	next.Progress = &RefreshProgress{Completed: completed, Total: total}
	s.snap.Store(&next)
}

// CompleteRefresh cierra el batch con resultado. Vuelve a Idle, limpia el
// progreso y retiene result como "último resultado"; borra el último error
// (los terminales son mutuamente excluyentes).
func (s *NotificationStore) CompleteRefresh(result BatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snap.Load()
	if !prev.IsRunning {
		s.log.Warn().Msg("CompleteRefresh sin batch en curso")
	}
	r := result
	s.snap.Store(&RefreshSnapshot{
		IsRunning:  false,
		BatchID:    prev.BatchID,
		LastResult: &r,
	})
}

// FailRefresh cierra el batch con un error de nivel batch (fallo inesperado
// del orquestador, no un fallo por factura). Borra el último resultado.
func (s *NotificationStore) FailRefresh(message string) {
	s.failRefresh(message, domain.KindUnknown)
}

// FailRefreshErr variante que preserva el kind tipado del error remoto,
// para que el watcher no tenga que re-clasificar texto libre.
func (s *NotificationStore) FailRefreshErr(err error) {
	s.failRefresh(err.Error(), domain.KindOf(err))
}

func (s *NotificationStore) failRefresh(message string, kind domain.RemoteErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snap.Load()
	if !prev.IsRunning {
		s.log.Warn().Msg("FailRefresh sin batch en curso")
	}
	s.snap.Store(&RefreshSnapshot{
		IsRunning:     false,
		BatchID:       prev.BatchID,
		LastError:     message,
		LastErrorKind: kind,
	})
}

// Snapshot devuelve una copia inmutable del estado. Nunca bloquea.
func (s *NotificationStore) Snapshot() RefreshSnapshot {
	snap := *s.snap.Load()
	// Copias profundas de los punteros para que el caller no pueda mutar el estado compartido.
	if snap.StartedAt != nil {
		t := *snap.StartedAt
		snap.StartedAt = &t
	}
	if snap.Progress != nil {
		p := *snap.Progress
		snap.Progress = &p
	}
	if snap.LastResult != nil {
		r := *snap.LastResult
		snap.LastResult = &r
	}
	return snap
}
