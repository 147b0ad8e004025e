package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/kpis-api/internal/domain/entity"
)

// UserRepository puerto de lectura de identidad y roles (Supabase).
type UserRepository interface {
	// GetByID devuelve el perfil del usuario o nil si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// GetByEmail devuelve el perfil por email o nil si no existe.
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetRole devuelve el rol del usuario; "" si no tiene fila en user_roles.
	GetRole(ctx context.Context, id uuid.UUID) (string, error)
}

// DepartmentRepository puerto de lectura de departamentos y presupuestos (Supabase).
type DepartmentRepository interface {
	List(ctx context.Context) ([]entity.Department, error)
	// ListBudgets devuelve los presupuestos del año fiscal indicado.
	ListBudgets(ctx context.Context, fiscalYear int) ([]entity.DepartmentBudget, error)
}
