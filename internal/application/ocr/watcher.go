package ocr

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/kpis-api/internal/application/dto"
	"github.com/jhoicas/kpis-api/internal/domain"
	"github.com/jhoicas/kpis-api/pkg/logger"
)

// Category categoría de cara al usuario para el desenlace de un refresco.
type Category string

const (
	CategoryNetwork     Category = "network"
	CategoryAuth        Category = "auth"
	CategoryPermission  Category = "permission"
	CategoryNotFound    Category = "not_found"
	CategoryServer      Category = "server"
	CategoryUnavailable Category = "unavailable"
	CategoryTimeout     Category = "timeout"
	CategoryGeneric     Category = "generic"
)

// SnapshotSource abstrae de dónde sale el snapshot: el endpoint HTTP
// (StatusClient) en producción, un fake en tests.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) (*dto.RefreshStatusResponse, error)
}

// Notifier recibe las notificaciones de usuario que el watcher decide emitir.
// La UI las presenta como toasts; el CLI las imprime.
type Notifier interface {
	Success(successful int, duration time.Duration)
	Warning(successful, failed int)
	Error(category Category, message string)
}

// Watcher hace polling del estado de refresco y convierte cada transición
// terminal nueva en exactamente una notificación. Deja de hacer polling en
// cuanto shouldPoll devuelve false o el contexto termina; el ticker se libera
// en todos los caminos de salida.
type Watcher struct {
	source     SnapshotSource
	notifier   Notifier
	shouldPoll func() bool
	interval   time.Duration
	log        *logger.Logger

	// identidad del último terminal ya notificado
	lastResultAt *time.Time
	lastError    string
}

// NewWatcher construye el watcher. interval <= 0 usa 3s.
func NewWatcher(source SnapshotSource, notifier Notifier, shouldPoll func() bool, interval time.Duration, log *logger.Logger) *Watcher {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if shouldPoll == nil {
		shouldPoll = func() bool { return true }
	}
	return &Watcher{
		source:     source,
		notifier:   notifier,
		shouldPoll: shouldPoll,
		interval:   interval,
		log:        log.Component("ocr-watcher"),
	}
}

// Run bloquea hasta que el contexto termina o la condición de polling se apaga.
func (w *Watcher) Run(ctx context.Context) {
	if !w.shouldPoll() {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug().Msg("watcher detenido por contexto")
			return
		case <-ticker.C:
			if !w.shouldPoll() {
				w.log.Debug().Msg("condición de polling apagada; watcher detenido")
				return
			}
			w.Poll(ctx)
		}
	}
}

// Poll hace una lectura y notifica si hay un terminal nuevo. Expuesto para
// que los tests ejerciten la deduplicación sin cronómetros.
func (w *Watcher) Poll(ctx context.Context) {
	snap, err := w.source.FetchSnapshot(ctx)
	if err != nil {
		// El polling es best-effort: un fetch fallido se reintenta en el
		// siguiente tick sin molestar al usuario.
		w.log.Warn().Err(err).Msg("lectura de snapshot fallida")
		return
	}
	w.observe(snap)
}

// observe aplica la deduplicación y clasifica el desenlace.
func (w *Watcher) observe(snap *dto.RefreshStatusResponse) {
	if res := snap.LastResult; res != nil {
		if w.lastResultAt != nil && w.lastResultAt.Equal(res.CompletedAt) {
			return // ya notificado
		}
		t := res.CompletedAt
		w.lastResultAt = &t
		w.lastError = ""

		switch {
		case res.Failed == 0:
			w.notifier.Success(res.Successful, time.Duration(res.DurationMs)*time.Millisecond)
		case res.Successful > 0:
			w.notifier.Warning(res.Successful, res.Failed)
		default:
			w.notifier.Error(CategoryGeneric, "ningún refresco OCR tuvo éxito")
		}
		return
	}

	if snap.LastError != "" && snap.LastError != w.lastError {
		w.lastError = snap.LastError
		w.lastResultAt = nil
		w.notifier.Error(categoryForSnapshot(snap), snap.LastError)
	}
}

// categoryForSnapshot usa el kind tipado cuando el snapshot lo trae; el match
// por substrings queda solo como fallback para snapshots antiguos que solo
// serializan el mensaje.
func categoryForSnapshot(snap *dto.RefreshStatusResponse) Category {
	if snap.LastErrorKind != "" {
		if cat, ok := CategoryForKind(domain.RemoteErrorKind(snap.LastErrorKind)); ok {
			return cat
		}
	}
	return ClassifyMessage(snap.LastError)
}

// CategoryForKind mapea la taxonomía tipada de errores remotos a categorías de usuario.
func CategoryForKind(kind domain.RemoteErrorKind) (Category, bool) {
	switch kind {
	case domain.KindNetwork:
		return CategoryNetwork, true
	case domain.KindTimeout:
		return CategoryTimeout, true
	case domain.KindAuth:
		return CategoryAuth, true
	case domain.KindPermission:
		return CategoryPermission, true
	case domain.KindNotFound:
		return CategoryNotFound, true
	case domain.KindServer:
		return CategoryServer, true
	case domain.KindUnavailable:
		return CategoryUnavailable, true
	default:
		return CategoryGeneric, false
	}
}

// ClassifyMessage clasifica un mensaje de error en texto libre por substrings.
func ClassifyMessage(message string) Category {
	m := strings.ToLower(message)
	switch {
	case containsAny(m, "network", "connection", "conexión", "dns", "refused"):
		return CategoryNetwork
	case containsAny(m, "timeout", "deadline", "timed out"):
		return CategoryTimeout
	case containsAny(m, "unauthorized", "credencial", "session expired", "login"):
		return CategoryAuth
	case containsAny(m, "forbidden", "permission", "permiso", "access"):
		return CategoryPermission
	case containsAny(m, "not found", "no encontrado", "does not exist"):
		return CategoryNotFound
	case containsAny(m, "unavailable", "rate limit", "too many requests", "503"):
		return CategoryUnavailable
	case containsAny(m, "server error", "internal", "500"):
		return CategoryServer
	default:
		return CategoryGeneric
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
