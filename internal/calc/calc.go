// Package calc derives financial figures from entity attributes. Every function
// is pure and works on money.Amount, never on floating point values.
package calc

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/shared"
)

// Defaults used when no policy overrides them.
var (
	DefaultTaxRate = decimal.RequireFromString("0.10")
)

const (
	DefaultOverloadThreshold = 80
	DefaultCapacity          = 5
)

var hundred = decimal.NewFromInt(100)

// Line is the input of a line item computation.
type Line struct {
	Quantity  int64
	UnitPrice money.Amount
}

// Totals are the derived sums of an invoice.
type Totals struct {
	Subtotal money.Amount `json:"subtotal"`
	Tax      money.Amount `json:"tax"`
	Total    money.Amount `json:"total"`
}

// Financials are the derived profit figures of a project.
type Financials struct {
	Revenue    money.Amount    `json:"revenue"`
	BudgetCost money.Amount    `json:"budget_cost"`
	Profit     money.Amount    `json:"profit"`
	Margin     decimal.Decimal `json:"margin"`
}

// Workload describes how busy an employee is.
type Workload struct {
	ActiveTasks int  `json:"active_tasks"`
	Capacity    int  `json:"capacity"`
	Percent     int  `json:"percent"`
	Display     int  `json:"display"`
	Overloaded  bool `json:"overloaded"`
}

// ComputeLineItem returns quantity × unitPrice. Prices finer than a cent and
// results wider than a NUMERIC(18,2) column are rejected.
func ComputeLineItem(quantity int64, unitPrice money.Amount) (money.Amount, error) {
	if quantity <= 0 {
		return money.Zero, shared.NewValidationError("quantity", "must be a positive integer")
	}
	if unitPrice.IsNegative() {
		return money.Zero, shared.NewValidationError("unit_price", "must not be negative")
	}
	if err := shared.CheckAmount("unit_price", unitPrice); err != nil {
		return money.Zero, err
	}
	amount := unitPrice.MulInt(quantity)
	if err := shared.CheckAmount("quantity", amount); err != nil {
		return money.Zero, err
	}
	return amount, nil
}

// ComputeInvoiceTotals sums the lines and applies the tax rate. Tax is rounded
// half away from zero to cents so that total == subtotal + tax holds exactly.
func ComputeInvoiceTotals(lines []Line, taxRate decimal.Decimal) (Totals, error) {
	if err := CheckTaxRate(taxRate); err != nil {
		return Totals{}, err
	}
	subtotal := money.Zero
	for _, line := range lines {
		amount, err := ComputeLineItem(line.Quantity, line.UnitPrice)
		if err != nil {
			return Totals{}, err
		}
		subtotal = subtotal.Add(amount)
	}
	tax := subtotal.MulRate(taxRate).Round()
	total := subtotal.Add(tax)
	if err := shared.CheckAmount("line_items", total); err != nil {
		return Totals{}, err
	}
	return Totals{Subtotal: subtotal, Tax: tax, Total: total}, nil
}

// CheckTaxRate accepts rates a NUMERIC(6,4) column stores unchanged.
func CheckTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return shared.NewValidationError("tax_rate", "must not be negative")
	}
	if rate.IsZero() {
		return nil
	}
	exp := int64(rate.Exponent())
	if exp < -maxRateDecimals && (exp < -40 || !rate.Equal(rate.Truncate(maxRateDecimals))) {
		return shared.NewValidationError("tax_rate", "must have at most 4 decimal places")
	}
	if int64(rate.NumDigits())+exp > 2 {
		return shared.NewValidationError("tax_rate", "must be below 100")
	}
	return nil
}

const maxRateDecimals = 4

// ComputeProjectFinancials derives profit and margin. Margin is zero when
// revenue is not positive.
func ComputeProjectFinancials(revenue, budgetCost money.Amount) Financials {
	profit := revenue.Sub(budgetCost)
	margin := decimal.Zero
	if revenue.IsPositive() {
		margin, _ = profit.Ratio(revenue)
	}
	return Financials{Revenue: revenue, BudgetCost: budgetCost, Profit: profit, Margin: margin}
}

// ComputeEmployeeWorkload uses the default overload threshold.
func ComputeEmployeeWorkload(activeTasks, capacity int) Workload {
	return DefaultPolicy().Workload(activeTasks, capacity)
}

// Policy groups the tunable parameters of the computations.
type Policy struct {
	TaxRate           decimal.Decimal
	OverloadThreshold int
	DefaultCapacity   int
}

// DefaultPolicy returns the stock parameters.
func DefaultPolicy() Policy {
	return Policy{TaxRate: DefaultTaxRate, OverloadThreshold: DefaultOverloadThreshold, DefaultCapacity: DefaultCapacity}
}

// Totals applies the policy tax rate.
func (p Policy) Totals(lines []Line) (Totals, error) {
	return ComputeInvoiceTotals(lines, p.TaxRate)
}

// Workload computes the load percentage, rounded to the nearest integer. The
// raw percent may exceed 100; Display is clamped to [0, 100].
func (p Policy) Workload(activeTasks, capacity int) Workload {
	if capacity <= 0 {
		capacity = p.DefaultCapacity
	}
	if activeTasks < 0 {
		activeTasks = 0
	}
	w := Workload{ActiveTasks: activeTasks, Capacity: capacity}
	if capacity <= 0 {
		return w
	}
	w.Percent = (activeTasks*100 + capacity/2) / capacity
	w.Display = ClampPercent(w.Percent)
	threshold := p.OverloadThreshold
	if threshold <= 0 {
		threshold = DefaultOverloadThreshold
	}
	w.Overloaded = w.Percent > threshold
	return w
}

// ClampPercent bounds a percentage to the display range.
func ClampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// ClampDecimalPercent bounds a decimal percentage to [0, 100].
func ClampDecimalPercent(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(hundred) {
		return hundred
	}
	return v
}

// Percent returns part / whole × 100 rounded to two decimals, zero when whole is zero.
func Percent(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).DivRound(decimal.NewFromInt(int64(whole)), money.Scale)
}
