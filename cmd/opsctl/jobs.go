package main

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/console/jobs"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Background job operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "trigger <task-type>",
		Short:     "Enqueue a job now",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{jobs.TaskDashboardWarmup, jobs.TaskIdempotencyCleanup},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			task, err := jobs.NewTask(args[0], cfg.IdempotencyRetention)
			if err != nil {
				return err
			}
			c := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
			defer func() {
				_ = c.Close()
			}()
			info, err := c.Enqueue(cmd.Context(), task)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("enqueued %s as %s on %s", info.Type, info.ID, info.Queue)))
			return nil
		},
	})
	return cmd
}
