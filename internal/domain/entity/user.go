package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Roles del dashboard (tabla user_roles en Supabase).
const (
	RoleAdmin    = "admin"
	RoleApprover = "approver"
	RoleViewer   = "viewer"
)

// User es la vista local de un empleado (tabla profiles de Supabase).
type User struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	Role         string
	DepartmentID *uuid.UUID
	CreatedAt    time.Time
}

// Department metadata de departamento (Supabase). AnalyticAccountID referencia
// la cuenta analítica del ERP con la que se cruzan los gastos.
type Department struct {
	ID                uuid.UUID
	Name              string
	AnalyticAccountID int64
}

// DepartmentBudget presupuesto anual de un departamento (Supabase, NUMERIC).
type DepartmentBudget struct {
	DepartmentID uuid.UUID
	FiscalYear   int
	Amount       decimal.Decimal
}
