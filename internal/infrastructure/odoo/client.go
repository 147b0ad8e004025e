// Package odoo implementa el cliente JSON-RPC hacia el ERP (endpoint /jsonrpc).
//
// El ERP se trata como un almacén de registros opaco: search_read, write y
// execute_kw. Los fallos de transporte y los faults RPC se clasifican aquí, en
// la frontera, en domain.RemoteErrorKind; las capas superiores nunca parsean
// mensajes de error en texto libre.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/kpis-api/internal/domain"
)

const (
	jsonrpcPath    = "/jsonrpc"
	serviceCommon  = "common"
	serviceObject  = "object"
	defaultTimeout = 15 * time.Second
)

// Config parámetros de conexión al ERP.
type Config struct {
	URL      string // base, ej. https://miempresa.odoo.com
	Database string
	Username string
	APIKey   string
	Timeout  time.Duration // timeout por llamada; 0 usa el default
}

// Client cliente JSON-RPC del ERP. Autentica perezosamente y cachea el uid.
// Seguro para uso concurrente.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu  sync.Mutex
	uid int // 0 = sin autenticar
}

// NewClient construye el cliente. No hace red; la autenticación es perezosa
// (o explícita vía Authenticate al arrancar).
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ── Tipos del wire JSON-RPC ───────────────────────────────────────────────────

type rpcRequest struct {
	Jsonrpc string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcFault       `json:"error"`
}

// rpcFault es el error estructurado que devuelve el ERP.
type rpcFault struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    *rpcFaultData `json:"data"`
}

type rpcFaultData struct {
	Name    string `json:"name"` // ej. odoo.exceptions.AccessError
	Message string `json:"message"`
}

func (f *rpcFault) detail() string {
	if f.Data != nil && f.Data.Message != "" {
		return f.Data.Message
	}
	return f.Message
}

// ── API pública ───────────────────────────────────────────────────────────────

// Authenticate valida credenciales contra el servicio common y cachea el uid.
// Llamarlo al arrancar es opcional; cualquier operación autentica si hace falta.
func (c *Client) Authenticate(ctx context.Context) error {
	_, err := c.ensureUID(ctx)
	return err
}

// SearchRead implementa ports.RecordStore.
func (c *Client) SearchRead(ctx context.Context, model string, criteria []any, fields []string, limit, offset int) ([]map[string]any, error) {
	kwargs := map[string]any{"fields": fields}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	if offset > 0 {
		kwargs["offset"] = offset
	}
	raw, err := c.executeRaw(ctx, model, "search_read", []any{criteria}, kwargs)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, wrapErr("odoo.search_read "+model, domain.KindServer, fmt.Errorf("decodificar respuesta: %w", err))
	}
	return records, nil
}

// Write implementa ports.RecordStore.
func (c *Client) Write(ctx context.Context, model string, ids []int64, values map[string]any) error {
	_, err := c.executeRaw(ctx, model, "write", []any{ids, values}, nil)
	return err
}

// ExecuteKw implementa ports.RecordStore.
func (c *Client) ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error) {
	raw, err := c.executeRaw(ctx, model, method, args, kwargs)
	if err != nil {
		return nil, err
	}
	var out any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, wrapErr("odoo.execute_kw "+model+"."+method, domain.KindServer, fmt.Errorf("decodificar respuesta: %w", err))
		}
	}
	return out, nil
}

// ── Núcleo ────────────────────────────────────────────────────────────────────

// ensureUID autentica una sola vez (doble chequeo bajo mutex).
func (c *Client) ensureUID(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid != 0 {
		return c.uid, nil
	}

	raw, err := c.call(ctx, serviceCommon, "login", []any{c.cfg.Database, c.cfg.Username, c.cfg.APIKey}, "odoo.login")
	if err != nil {
		return 0, err
	}
	var uid int
	if err := json.Unmarshal(raw, &uid); err != nil || uid == 0 {
		// El ERP responde `false` ante credenciales inválidas.
		return 0, wrapErr("odoo.login", domain.KindAuth, errors.New("credenciales rechazadas por el ERP"))
	}
	c.uid = uid
	return uid, nil
}

func (c *Client) executeRaw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	uid, err := c.ensureUID(ctx)
	if err != nil {
		return nil, err
	}
	op := "odoo." + method + " " + model
	rpcArgs := []any{c.cfg.Database, uid, c.cfg.APIKey, model, method, args}
	if kwargs != nil {
		rpcArgs = append(rpcArgs, kwargs)
	}
	return c.call(ctx, serviceObject, "execute_kw", rpcArgs, op)
}

// call hace una llamada JSON-RPC con timeout propio y clasifica los fallos.
func (c *Client) call(ctx context.Context, service, method string, args []any, op string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(rpcRequest{
		Jsonrpc: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      time.Now().UnixNano(),
	})
	if err != nil {
		return nil, wrapErr(op, domain.KindUnknown, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.URL, "/")+jsonrpcPath, bytes.NewReader(body))
	if err != nil {
		return nil, wrapErr(op, domain.KindUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := domain.KindNetwork
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = domain.KindTimeout
		}
		return nil, wrapErr(op, kind, err)
	}
	defer resp.Body.Close()

	if kind, ok := kindForStatus(resp.StatusCode); ok {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, wrapErr(op, kind, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(b)))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, wrapErr(op, domain.KindServer, fmt.Errorf("decodificar JSON-RPC: %w", err))
	}
	if rpcResp.Error != nil {
		return nil, wrapErr(op, kindForFault(rpcResp.Error), errors.New(rpcResp.Error.detail()))
	}
	return rpcResp.Result, nil
}

// ── Clasificación ─────────────────────────────────────────────────────────────

func kindForStatus(status int) (domain.RemoteErrorKind, bool) {
	switch {
	case status == http.StatusOK:
		return "", false
	case status == http.StatusUnauthorized:
		return domain.KindAuth, true
	case status == http.StatusForbidden:
		return domain.KindPermission, true
	case status == http.StatusNotFound:
		return domain.KindNotFound, true
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		return domain.KindUnavailable, true
	case status >= 500:
		return domain.KindServer, true
	default:
		return domain.KindUnknown, true
	}
}

// kindForFault mapea las excepciones estructuradas del ERP a la taxonomía local.
func kindForFault(f *rpcFault) domain.RemoteErrorKind {
	name := ""
	if f.Data != nil {
		name = f.Data.Name
	}
	switch {
	case strings.Contains(name, "AccessDenied"):
		return domain.KindAuth
	case strings.Contains(name, "AccessError"):
		return domain.KindPermission
	case strings.Contains(name, "MissingError"),
		strings.Contains(f.detail(), "does not exist"):
		return domain.KindNotFound
	default:
		return domain.KindServer
	}
}

func wrapErr(op string, kind domain.RemoteErrorKind, err error) error {
	return domain.NewRemoteError(op, kind, err)
}
