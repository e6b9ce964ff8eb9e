package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinelle-systems/caseflow/internal/audit"
	"github.com/sentinelle-systems/caseflow/internal/config"
	"github.com/sentinelle-systems/caseflow/internal/lifecycle"
	"github.com/sentinelle-systems/caseflow/internal/policy"
	"github.com/sentinelle-systems/caseflow/internal/repository"
	"github.com/sentinelle-systems/caseflow/internal/seeder"
)

var (
	seedCount int
	seedOrgs  int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with demo cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()
		store, err := repository.NewPostgresStore(ctx, cfg.Database.Postgres.ConnString())
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer store.Close()

		svc := lifecycle.NewService(store, policy.Default(), audit.NewSigner(cfg.Audit.Secret), nil, nil)
		n, err := seeder.New(svc).Run(ctx, seedCount, seedOrgs)
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d cases\n", n)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 50, "number of cases to create")
	seedCmd.Flags().IntVar(&seedOrgs, "commissariats", 3, "number of commissariats to spread cases over")
	rootCmd.AddCommand(seedCmd)
}
