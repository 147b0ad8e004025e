package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jhoicas/kpis-api/internal/application/dto"
	"github.com/jhoicas/kpis-api/internal/domain"
)

// StatusClient lee el snapshot del refresco vía HTTP (GET /api/ocr/refresh-status).
// Es la pata remota del watcher cuando corre fuera del proceso del API.
type StatusClient struct {
	baseURL string
	token   string // Bearer token del dashboard
	client  *http.Client
}

// NewStatusClient construye el cliente del endpoint de estado.
func NewStatusClient(baseURL, token string) *StatusClient {
	return &StatusClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchSnapshot implementa SnapshotSource contra el endpoint HTTP.
func (c *StatusClient) FetchSnapshot(ctx context.Context) (*dto.RefreshStatusResponse, error) {
	const op = "status.fetch"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/ocr/refresh-status", nil)
	if err != nil {
		return nil, domain.NewRemoteError(op, domain.KindUnknown, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		kind := domain.KindNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = domain.KindTimeout
		}
		return nil, domain.NewRemoteError(op, kind, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var snap dto.RefreshStatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return nil, domain.NewRemoteError(op, domain.KindServer, fmt.Errorf("decodificar snapshot: %w", err))
		}
		return &snap, nil
	case http.StatusUnauthorized:
		return nil, domain.NewRemoteError(op, domain.KindAuth, errors.New("token inválido o expirado"))
	case http.StatusForbidden:
		return nil, domain.NewRemoteError(op, domain.KindPermission, errors.New("acceso denegado al estado de refresco"))
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		kind := domain.KindServer
		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests {
			kind = domain.KindUnavailable
		}
		return nil, domain.NewRemoteError(op, kind, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)))
	}
}
