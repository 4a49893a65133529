package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/console/internal/app"
	"github.com/odyssey-erp/console/internal/client"
)

var version = "dev"

type options struct {
	apiURL  string
	actorID int64
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "opsctl",
		Short:         "Operate the console: schema, dashboard, records and jobs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaultURL := os.Getenv("CONSOLE_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", defaultURL, "console API base URL")
	root.PersistentFlags().Int64Var(&opts.actorID, "actor", 0, "employee id sent as X-Actor-ID")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		newMigrateCmd(),
		newDashboardCmd(opts),
		newListCmd(opts),
		newTransitionCmd(opts),
		newHealthCmd(opts),
		newJobsCmd(),
		newPolicyCmd(),
	)
	return root
}

func (o *options) client() *client.Client {
	return client.New(o.apiURL, o.actorID)
}

func loadConfig() (*app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
