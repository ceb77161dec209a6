package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/abelzeko/med-validator/internal/config"
	"github.com/abelzeko/med-validator/internal/report"
	"github.com/abelzeko/med-validator/internal/repository"
	"github.com/abelzeko/med-validator/internal/usecases"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "medcheck",
		Short:         "Validate medication inventory against usage and purchase logs",
		Long:          "medcheck reads the hospital inventory, usage and purchase tables and writes an .xlsx report\nwith medications missing usage, inventory vs purchases, and overused medications.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, newLogger(cfg), cmd.OutOrStdout())
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.SetOut(stdout)
	return cmd
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

// run performs one validation pass. The database is closed on every return path.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, out io.Writer) error {
	schema, err := cfg.SchemaPreset()
	if err != nil {
		return err
	}

	// Initialize repository
	repo, err := repository.NewSQLMedicationRepository(ctx, cfg.DatabasePath, schema, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close database")
		}
	}()

	writer := report.NewWorkbookWriter(cfg.ReportPath, logger)
	classifier := usecases.NewOveruseClassifier(usecases.DefaultThresholds())
	useCase := usecases.NewValidationUseCase(repo, classifier, writer, logger)

	fmt.Fprintln(out, "Running data validation checks...")
	if _, err := useCase.Run(ctx); err != nil {
		return err
	}

	fmt.Fprintln(out, "Validation report generated:")
	fmt.Fprintln(out, cfg.ReportPath)
	return nil
}
