package odoo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kpis-api/internal/domain"
	"github.com/jhoicas/kpis-api/internal/infrastructure/odoo"
)

// ──────────────────────────────────────────────────────────────────────────────
// Servidor JSON-RPC falso
// ──────────────────────────────────────────────────────────────────────────────

type rpcCall struct {
	Params struct {
		Service string `json:"service"`
		Method  string `json:"method"`
		Args    []any  `json:"args"`
	} `json:"params"`
	ID int64 `json:"id"`
}

// fakeServer despacha según service/method: login siempre devuelve uid 7; el
// handler de objeto lo define cada test.
func fakeServer(t *testing.T, object func(w http.ResponseWriter, call rpcCall)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/jsonrpc", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var call rpcCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))

		if call.Params.Service == "common" && call.Params.Method == "login" {
			writeResult(w, call.ID, 7)
			return
		}
		object(w, call)
	}))
}

func writeResult(w http.ResponseWriter, id int64, result any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": id, "result": result})
}

func writeFault(w http.ResponseWriter, id int64, name, message string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    200,
			"message": "Odoo Server Error",
			"data":    map[string]any{"name": name, "message": message},
		},
	})
}

func newClient(url string) *odoo.Client {
	return odoo.NewClient(odoo.Config{
		URL:      url,
		Database: "empresa",
		Username: "api@empresa.co",
		APIKey:   "clave",
		Timeout:  2 * time.Second,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Autenticación
// ──────────────────────────────────────────────────────────────────────────────

// El uid se negocia una sola vez y se reutiliza en llamadas posteriores.
func TestClient_AutenticaUnaSolaVez(t *testing.T) {
	var logins atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		if call.Params.Service == "common" {
			logins.Add(1)
			writeResult(w, call.ID, 7)
			return
		}
		writeResult(w, call.ID, []any{})
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	_, err := c.SearchRead(context.Background(), "account.move", nil, []string{"id"}, 10, 0)
	require.NoError(t, err)
	_, err = c.SearchRead(context.Background(), "account.move", nil, []string{"id"}, 10, 0)
	require.NoError(t, err)

	assert.Equal(t, int32(1), logins.Load())
}

// El ERP responde `false` como result ante credenciales inválidas.
func TestClient_CredencialesInvalidas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		_ = json.NewDecoder(r.Body).Decode(&call)
		writeResult(w, call.ID, false)
	}))
	defer srv.Close()

	err := newClient(srv.URL).Authenticate(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
}

// ──────────────────────────────────────────────────────────────────────────────
// search_read
// ──────────────────────────────────────────────────────────────────────────────

func TestClient_SearchRead(t *testing.T) {
	srv := fakeServer(t, func(w http.ResponseWriter, call rpcCall) {
		// args: [db, uid, key, model, method, [criteria], kwargs]
		require.Len(t, call.Params.Args, 7)
		assert.Equal(t, "account.move", call.Params.Args[3])
		assert.Equal(t, "search_read", call.Params.Args[4])

		kwargs := call.Params.Args[6].(map[string]any)
		assert.Equal(t, float64(5), kwargs["limit"])

		writeResult(w, call.ID, []map[string]any{
			{"id": 1, "name": "FACT/2026/0001", "amount_untaxed": false},
		})
	})
	defer srv.Close()

	records, err := newClient(srv.URL).SearchRead(context.Background(), "account.move",
		[]any{[]any{"move_type", "=", "in_invoice"}}, []string{"id", "name", "amount_untaxed"}, 5, 0)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "FACT/2026/0001", records[0]["name"])
	assert.Equal(t, false, records[0]["amount_untaxed"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Clasificación de fallos
// ──────────────────────────────────────────────────────────────────────────────

func TestClient_FaultsDelERP(t *testing.T) {
	tests := []struct {
		name      string
		faultName string
		message   string
		want      domain.RemoteErrorKind
	}{
		{"sesión rechazada", "odoo.exceptions.AccessDenied", "Access Denied", domain.KindAuth},
		{"sin permisos", "odoo.exceptions.AccessError", "not allowed to modify", domain.KindPermission},
		{"registro ausente", "odoo.exceptions.MissingError", "Record does not exist", domain.KindNotFound},
		{"registro ausente por mensaje", "builtins.ValueError", "record does not exist or has been deleted", domain.KindNotFound},
		{"fallo genérico del servidor", "builtins.TypeError", "unsupported operand", domain.KindServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeServer(t, func(w http.ResponseWriter, call rpcCall) {
				writeFault(w, call.ID, tt.faultName, tt.message)
			})
			defer srv.Close()

			err := newClient(srv.URL).Write(context.Background(), "account.move",
				[]int64{1}, map[string]any{"extract_state": "no_extract_requested"})
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.KindOf(err))
			assert.Contains(t, err.Error(), tt.message, "el detalle del fault debe sobrevivir")
		})
	}
}

func TestClient_EstadosHTTP(t *testing.T) {
	tests := []struct {
		status int
		want   domain.RemoteErrorKind
	}{
		{http.StatusUnauthorized, domain.KindAuth},
		{http.StatusForbidden, domain.KindPermission},
		{http.StatusNotFound, domain.KindNotFound},
		{http.StatusTooManyRequests, domain.KindUnavailable},
		{http.StatusServiceUnavailable, domain.KindUnavailable},
		{http.StatusBadGateway, domain.KindServer},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := newClient(srv.URL).Authenticate(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.KindOf(err))
		})
	}
}

func TestClient_TimeoutSeClasificaComoTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c := odoo.NewClient(odoo.Config{
		URL: srv.URL, Database: "empresa", Username: "u", APIKey: "k",
		Timeout: 50 * time.Millisecond,
	})
	err := c.Authenticate(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindTimeout, domain.KindOf(err))
}

func TestClient_ServidorInalcanzable(t *testing.T) {
	// Puerto cerrado: connection refused.
	c := newClient("http://127.0.0.1:1")
	err := c.Authenticate(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
}
