package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/console/internal/app"
	"github.com/odyssey-erp/console/internal/client"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/query"
)

func newDashboardCmd(opts *options) *cobra.Command {
	var (
		employeeID int64
		windowDays int
		from, to   string
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard KPIs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope := url.Values{}
			if employeeID > 0 {
				scope.Set("employee_id", strconv.FormatInt(employeeID, 10))
			}
			if windowDays > 0 {
				scope.Set("window_days", strconv.Itoa(windowDays))
			}
			if from != "" {
				scope.Set("period_start", from)
			}
			if to != "" {
				scope.Set("period_end", to)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			vm, err := opts.client().Dashboard(ctx, scope)
			if err != nil {
				return err
			}
			formatter, err := amountFormatter()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDashboard(vm, formatter))
			return nil
		},
	}
	cmd.Flags().Int64Var(&employeeID, "employee", 0, "employee whose tasks are counted (0 for the whole organization)")
	cmd.Flags().IntVar(&windowDays, "window", 0, "reporting window in days")
	cmd.Flags().StringVar(&from, "from", "", "period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "period end (YYYY-MM-DD)")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	var params query.Params
	cmd := &cobra.Command{
		Use:       "list <entity>",
		Short:     "List records with the query contract",
		Args:      cobra.ExactArgs(1),
		ValidArgs: client.Entities,
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := args[0]
			if !slices.Contains(client.Entities, entity) {
				return fmt.Errorf("unknown entity %q", entity)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			page, err := client.List[map[string]any](ctx, opts.client(), entity, params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderList(entity, page))
			return nil
		},
	}
	cmd.Flags().StringVar(&params.Search, "search", "", "case-insensitive substring search")
	cmd.Flags().StringVar(&params.Status, "status", "", "exact status filter")
	cmd.Flags().StringVar(&params.Department, "department", "", "exact department filter")
	cmd.Flags().StringVar(&params.Category, "category", "", "exact category filter")
	cmd.Flags().IntVar(&params.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&params.PerPage, "per-page", 0, "page size, 0 for the server default")
	return cmd
}

func newTransitionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "transition <entity> <id> <action>",
		Short: "Apply a lifecycle action, e.g. transition invoices 12 send",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			raw, err := opts.client().Transition(ctx, args[0], id, args[2])
			if err != nil {
				return err
			}
			var entity map[string]any
			if err := json.Unmarshal(raw, &entity); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("%s %d is now %v", args[0], id, entity["status"])))
			return nil
		},
	}
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show the service health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			status, err := opts.client().Health(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), renderStatus(status))
			return err
		},
	}
}

func amountFormatter() (*money.Formatter, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	policy, err := app.LoadPolicy(cfg.PolicyFile, cfg.Currency)
	if err != nil {
		return nil, err
	}
	return money.NewFormatter(cfg.Locale, policy.Currency)
}
