package main

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/console/internal/app"
)

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the financial policy",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved policy as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			policy, err := app.LoadPolicy(cfg.PolicyFile, cfg.Currency)
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(policyFile(policy))
		},
	})
	return cmd
}

func policyFile(p app.Policy) app.PolicyFile {
	return app.PolicyFile{
		TaxRate:            p.Calc().TaxRate.String(),
		OverloadThreshold:  p.Calc().OverloadThreshold,
		DefaultCapacity:    p.Calc().DefaultCapacity,
		BudgetUsageFormula: string(p.Dashboard.BudgetFormula),
		WindowDays:         p.Dashboard.WindowDays,
		Currency:           p.Currency,
	}
}
