package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/kpis-api/internal/domain/entity"
	"github.com/jhoicas/kpis-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre Supabase.
// Lee profiles (identidad) y user_roles (rol del dashboard); la escritura de
// ambas tablas es de Supabase Auth y del panel de administración, no nuestra.
type UserRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepository construye el adaptador de lectura de usuarios.
func NewUserRepository(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// GetByID obtiene el perfil por ID, con su rol. nil si no existe.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, "p.id = $1", id)
}

// GetByEmail obtiene el perfil por email, con su rol. nil si no existe.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "p.email = $1", email)
}

// GetRole devuelve el rol del usuario; "" si no tiene fila en user_roles.
func (r *UserRepo) GetRole(ctx context.Context, id uuid.UUID) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

func (r *UserRepo) findOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	query := `
		SELECT p.id, p.email, p.full_name, COALESCE(ur.role, ''), p.department_id, p.created_at
		FROM profiles p
		LEFT JOIN user_roles ur ON ur.user_id = p.id
		WHERE ` + where
	var u entity.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Role, &u.DepartmentID, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
