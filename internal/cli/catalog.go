package cli

import (
	"fmt"
	"log/slog"

	"casper-learning/internal/catalog"
	pgcatalog "casper-learning/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewCatalogCmd groups catalog maintenance commands.
func NewCatalogCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and publish the learning catalog",
	}
	cmd.AddCommand(newCatalogValidateCmd(configPath), newCatalogSeedCmd(configPath))
	return cmd
}

func newCatalogValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Load and validate a catalog file (.json, .yaml, .xlsx)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			path := cfg.Catalog.Path
			if len(args) == 1 {
				path = args[0]
			}
			modules, err := catalog.LoadFile(path)
			if err != nil {
				return err
			}
			s := catalog.Summarize(modules)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d modules, %d quizzes, %d questions, %d minutes\n",
				path, s.Modules, s.Quizzes, s.Questions, s.Minutes)
			return nil
		},
	}
}

func newCatalogSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Validate a catalog file and upsert its modules into Postgres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			path := cfg.Catalog.Path
			if len(args) == 1 {
				path = args[0]
			}
			modules, err := catalog.LoadFile(path)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			for _, m := range modules {
				if err := pgcatalog.SaveModule(cmd.Context(), pool, m); err != nil {
					return err
				}
			}
			slog.Info("catalog seeded", "path", path, "modules", len(modules))
			return nil
		},
	}
}
