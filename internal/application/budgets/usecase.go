// Package budgets cruza los presupuestos por departamento (Supabase) con el
// gasto real sumado desde las líneas de factura del ERP.
package budgets

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kpis-api/internal/application/dto"
	"github.com/jhoicas/kpis-api/internal/application/ports"
	"github.com/jhoicas/kpis-api/internal/domain/repository"
	"github.com/jhoicas/kpis-api/pkg/logger"
)

var oneHundred = decimal.NewFromInt(100)

// UseCase resumen presupuesto vs. gasto por departamento.
type UseCase struct {
	departments repository.DepartmentRepository
	records     ports.RecordStore
	log         *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(departments repository.DepartmentRepository, records ports.RecordStore, log *logger.Logger) *UseCase {
	return &UseCase{departments: departments, records: records, log: log.Component("budgets")}
}

// GetOverview arma el resumen del año fiscal: presupuesto de Supabase, gasto
// sumado de las líneas de facturas de proveedor publicadas en el ERP, por la
// cuenta analítica de cada departamento. Sumas simples con decimal; nada más.
func (uc *UseCase) GetOverview(ctx context.Context, fiscalYear int) (*dto.BudgetOverviewResponse, error) {
	departments, err := uc.departments.List(ctx)
	if err != nil {
		return nil, err
	}
	budgets, err := uc.departments.ListBudgets(ctx, fiscalYear)
	if err != nil {
		return nil, err
	}
	budgetByDept := make(map[string]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		budgetByDept[b.DepartmentID.String()] = b.Amount
	}

	resp := &dto.BudgetOverviewResponse{FiscalYear: fiscalYear}
	for _, dept := range departments {
		spent, err := uc.spentForAnalyticAccount(ctx, dept.AnalyticAccountID, fiscalYear)
		if err != nil {
			return nil, err
		}
		budget := budgetByDept[dept.ID.String()]
		row := dto.DepartmentBudgetDTO{
			DepartmentID: dept.ID.String(),
			Name:         dept.Name,
			FiscalYear:   fiscalYear,
			Budget:       budget,
			Spent:        spent,
			Remaining:    budget.Sub(spent),
		}
		if budget.IsPositive() {
			row.UsedPct = spent.Div(budget).Mul(oneHundred).Round(2)
		}
		resp.Departments = append(resp.Departments, row)
	}
	return resp, nil
}

// spentForAnalyticAccount suma price_subtotal de las líneas de facturas de
// proveedor publicadas del año, imputadas a la cuenta analítica.
func (uc *UseCase) spentForAnalyticAccount(ctx context.Context, analyticAccountID int64, fiscalYear int) (decimal.Decimal, error) {
	if analyticAccountID == 0 {
		return decimal.Zero, nil
	}
	records, err := uc.records.SearchRead(ctx, "account.move.line",
		[]any{
			[]any{"analytic_account_id", "=", analyticAccountID},
			[]any{"move_id.move_type", "=", "in_invoice"},
			[]any{"parent_state", "=", "posted"},
			[]any{"date", ">=", fmt.Sprintf("%d-01-01", fiscalYear)},
			[]any{"date", "<=", fmt.Sprintf("%d-12-31", fiscalYear)},
		},
		[]string{"price_subtotal"}, 0, 0)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, rec := range records {
		if n, ok := rec["price_subtotal"].(float64); ok {
			total = total.Add(decimal.NewFromFloat(n))
		}
	}
	return total, nil
}
