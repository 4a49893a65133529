package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/console/internal/platform/migrate"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *migrate.Migrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("rolled back %d step(s)", max(steps, 1))))
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(func(m *migrate.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					status, err := m.Status()
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("schema at version %d", status.CurrentVersion)))
					return nil
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Show the schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(func(m *migrate.Migrator) error {
					status, err := m.Status()
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), renderMigrationStatus(status))
					return nil
				})
			},
		},
	)
	return cmd
}

func withMigrator(fn func(m *migrate.Migrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := migrate.New(cfg.PGDSN)
	if err != nil {
		return err
	}
	defer func() {
		_ = m.Close()
	}()
	return fn(m)
}
