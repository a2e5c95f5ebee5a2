package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/testboard/engine/internal/records"
	"github.com/testboard/engine/internal/repository"
	"github.com/testboard/engine/internal/services"
	"github.com/testboard/engine/pkg/config"
	"github.com/testboard/engine/pkg/database"
	"github.com/testboard/engine/pkg/logger"
)

//go:embed seed.json
var demoData []byte

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the testboard database schema and data",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newUpCmd(), newSeedCmd())
	return root
}

// connect loads configuration, initializes logging and opens the database.
func connect(ctx context.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if _, err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, nil, err
	}
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, database.Options{Verbose: cfg.IsDev()})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, nil
}

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Create or update tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer logger.Sync()
			if err := database.Migrate(db); err != nil {
				logger.L().Error("migration failed", zap.Error(err))
				return err
			}
			logger.L().Info("migrations completed")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import demo data, or an export envelope with --file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := demoData
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				data = b
			}
			batch, err := records.DecodeBatch(data)
			if err != nil {
				return err
			}

			_, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer logger.Sync()
			if err := database.Migrate(db); err != nil {
				return err
			}
			svc := services.NewImportService(db,
				repository.NewProjectRepository(db),
				repository.NewFeatureRepository(db),
				repository.NewTestCaseRepository(db),
				nil,
			)
			res, err := svc.Import(cmd.Context(), batch)
			if err != nil {
				logger.L().Error("seed failed", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d projects, %d features, %d test cases\n", res.Projects, res.Features, res.TestCases)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a JSON export with projects, features and testCases")
	return cmd
}
