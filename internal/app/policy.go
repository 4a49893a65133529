package app

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/console/internal/calc"
	"github.com/odyssey-erp/console/internal/dashboard"
)

// PolicyFile is the on-disk shape of the financial policy.
type PolicyFile struct {
	TaxRate            string `toml:"tax_rate"`
	OverloadThreshold  int    `toml:"overload_threshold"`
	DefaultCapacity    int    `toml:"default_capacity"`
	BudgetUsageFormula string `toml:"budget_usage_formula"`
	WindowDays         int    `toml:"window_days"`
	Currency           string `toml:"currency"`
}

// Policy is the resolved policy handed to the services.
type Policy struct {
	Dashboard dashboard.Policy
	Currency  string
}

// Calc returns the computation parameters.
func (p Policy) Calc() calc.Policy { return p.Dashboard.Calc }

// DefaultPolicy returns the stock policy with the configured currency.
func DefaultPolicy(currency string) Policy {
	return Policy{Dashboard: dashboard.DefaultPolicy(), Currency: currency}
}

// LoadPolicy reads the TOML policy at path. An empty path yields the defaults;
// keys missing from the file keep their default values.
func LoadPolicy(path, currency string) (Policy, error) {
	policy := DefaultPolicy(currency)
	if path == "" {
		return policy, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy %s: %w", path, err)
	}
	var file PolicyFile
	meta, err := toml.Decode(string(data), &file)
	if err != nil {
		return Policy{}, fmt.Errorf("decode policy %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Policy{}, fmt.Errorf("policy %s: unknown key %q", path, undecoded[0].String())
	}
	if err := file.apply(&policy); err != nil {
		return Policy{}, fmt.Errorf("policy %s: %w", path, err)
	}
	return policy, nil
}

func (f PolicyFile) apply(p *Policy) error {
	if f.TaxRate != "" {
		rate, err := decimal.NewFromString(f.TaxRate)
		if err != nil {
			return fmt.Errorf("tax_rate: %w", err)
		}
		if err := calc.CheckTaxRate(rate); err != nil {
			return err
		}
		p.Dashboard.Calc.TaxRate = rate
	}
	if f.OverloadThreshold != 0 {
		if f.OverloadThreshold < 0 {
			return fmt.Errorf("overload_threshold must be positive")
		}
		p.Dashboard.Calc.OverloadThreshold = f.OverloadThreshold
	}
	if f.DefaultCapacity != 0 {
		if f.DefaultCapacity < 0 {
			return fmt.Errorf("default_capacity must be positive")
		}
		p.Dashboard.Calc.DefaultCapacity = f.DefaultCapacity
	}
	if f.BudgetUsageFormula != "" {
		formula := dashboard.Formula(f.BudgetUsageFormula)
		if !formula.Valid() {
			return fmt.Errorf("unknown budget_usage_formula %q", f.BudgetUsageFormula)
		}
		p.Dashboard.BudgetFormula = formula
	}
	if f.WindowDays != 0 {
		if f.WindowDays < 0 {
			return fmt.Errorf("window_days must be positive")
		}
		p.Dashboard.WindowDays = f.WindowDays
	}
	if f.Currency != "" {
		p.Currency = f.Currency
	}
	return nil
}
