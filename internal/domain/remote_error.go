package domain

import (
	"errors"
	"fmt"
)

// RemoteErrorKind clasifica los fallos contra servicios remotos (ERP, endpoint de estado)
// en una taxonomía cerrada. Se produce en la frontera del cliente remoto, no se
// re-deriva del texto del mensaje en la capa de presentación.
type RemoteErrorKind string

const (
	KindNetwork     RemoteErrorKind = "network"      // fallo de transporte (DNS, conexión, reset)
	KindTimeout     RemoteErrorKind = "timeout"      // deadline o timeout por llamada
	KindAuth        RemoteErrorKind = "auth"         // credenciales inválidas o sesión expirada
	KindPermission  RemoteErrorKind = "permission"   // autenticado pero sin permiso sobre el modelo
	KindNotFound    RemoteErrorKind = "not_found"    // registro o modelo inexistente
	KindServer      RemoteErrorKind = "server"       // error interno del servicio remoto
	KindUnavailable RemoteErrorKind = "unavailable"  // servicio caído o rate-limited
	KindUnknown     RemoteErrorKind = "unknown"
)

// RemoteError envuelve un fallo de una operación remota con su operación y su tipo.
type RemoteError struct {
	Op   string // operación que falló, ej. "odoo.search_read account.move"
	Kind RemoteErrorKind
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemoteError construye un RemoteError con kind explícito.
func NewRemoteError(op string, kind RemoteErrorKind, err error) *RemoteError {
	return &RemoteError{Op: op, Kind: kind, Err: err}
}

// KindOf extrae el RemoteErrorKind de un error, o KindUnknown si no es un RemoteError.
func KindOf(err error) RemoteErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}
