package dto

import "github.com/shopspring/decimal"

// DepartmentBudgetDTO presupuesto vs. gasto de un departamento.
type DepartmentBudgetDTO struct {
	DepartmentID string          `json:"departmentId"`
	Name         string          `json:"name"`
	FiscalYear   int             `json:"fiscalYear"`
	Budget       decimal.Decimal `json:"budget"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	UsedPct      decimal.Decimal `json:"usedPct"` // 0–100, dos decimales
}

// BudgetOverviewResponse resumen de presupuestos para el dashboard.
type BudgetOverviewResponse struct {
	FiscalYear  int                   `json:"fiscalYear"`
	Departments []DepartmentBudgetDTO `json:"departments"`
}
