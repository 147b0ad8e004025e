// Package ports define los puertos de salida de la capa de aplicación.
package ports

import "context"

// RecordStore es el puerto hacia el almacén de registros remoto (el ERP).
// Se trata como un object store opaco con search/read/write/execute; la
// autenticación y el transporte son responsabilidad de la implementación.
// Para tests se inyecta un mock.
type RecordStore interface {
	// SearchRead busca registros de un modelo y devuelve los campos pedidos.
	// domain usa la sintaxis de dominios del ERP: [["campo", "op", valor], ...].
	// limit <= 0 significa sin límite.
	SearchRead(ctx context.Context, model string, domain []any, fields []string, limit, offset int) ([]map[string]any, error)

	// Write actualiza campos de los registros indicados.
	Write(ctx context.Context, model string, ids []int64, values map[string]any) error

	// ExecuteKw invoca un método arbitrario del modelo (acciones de servidor).
	ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error)
}
