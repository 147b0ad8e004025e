// ocrwatch observa el estado del refresco OCR del API y presenta cada
// transición terminal como una notificación en consola. Es el equivalente de
// línea de comandos del polling que hace el dashboard en el navegador.
//
// Uso:
//
//	KPIS_API_URL=http://localhost:8080 KPIS_API_TOKEN=<jwt> go run ./cmd/ocrwatch
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/kpis-api/internal/application/ocr"
	"github.com/jhoicas/kpis-api/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{Env: "development", Level: "info"})

	baseURL := os.Getenv("KPIS_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	token := os.Getenv("KPIS_API_TOKEN")
	if token == "" {
		log.Fatal().Msg("KPIS_API_TOKEN requerido")
	}

	interval := 3 * time.Second
	if v := os.Getenv("KPIS_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			interval = d
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := ocr.NewStatusClient(baseURL, token)
	watcher := ocr.NewWatcher(client, consoleNotifier{log: log}, nil, interval, log)

	log.Info().Str("url", baseURL).Dur("interval", interval).Msg("observando el refresco OCR")
	watcher.Run(ctx)
	log.Info().Msg("watcher detenido")
}

// consoleNotifier imprime las notificaciones como lo haría el toast del dashboard.
type consoleNotifier struct {
	log *logger.Logger
}

func (n consoleNotifier) Success(successful int, duration time.Duration) {
	n.log.Info().
		Int("facturas", successful).
		Dur("duracion", duration).
		Msg("refresco OCR completado")
}

func (n consoleNotifier) Warning(successful, failed int) {
	n.log.Warn().
		Int("exitosas", successful).
		Int("fallidas", failed).
		Msg("refresco OCR parcial")
}

func (n consoleNotifier) Error(category ocr.Category, message string) {
	n.log.Error().
		Str("categoria", string(category)).
		Str("detalle", message).
		Msg("refresco OCR fallido")
}
