package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/kpis-api/internal/domain/entity"
	"github.com/jhoicas/kpis-api/internal/domain/repository"
)

var _ repository.DepartmentRepository = (*DepartmentRepo)(nil)

// DepartmentRepo lectura de departamentos y presupuestos anuales (Supabase).
type DepartmentRepo struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository construye el adaptador.
func NewDepartmentRepository(pool *pgxpool.Pool) *DepartmentRepo {
	return &DepartmentRepo{pool: pool}
}

// List devuelve todos los departamentos con su cuenta analítica del ERP.
func (r *DepartmentRepo) List(ctx context.Context) ([]entity.Department, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(analytic_account_id, 0)
		FROM departments
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var out []entity.Department
	for rows.Next() {
		var d entity.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.AnalyticAccountID); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListBudgets devuelve los presupuestos del año fiscal (amount es NUMERIC,
// decodificado a decimal por el codec registrado en el pool).
func (r *DepartmentRepo) ListBudgets(ctx context.Context, fiscalYear int) ([]entity.DepartmentBudget, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT department_id, fiscal_year, amount
		FROM department_budgets
		WHERE fiscal_year = $1`, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []entity.DepartmentBudget
	for rows.Next() {
		var b entity.DepartmentBudget
		if err := rows.Scan(&b.DepartmentID, &b.FiscalYear, &b.Amount); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
