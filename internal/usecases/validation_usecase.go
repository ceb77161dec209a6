// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/abelzeko/med-validator/internal/entities"
	"github.com/abelzeko/med-validator/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReportWriter persists a finished validation report
type ReportWriter interface {
	Write(report entities.ValidationReport) error
}

// ValidationUseCase runs the inventory checks and hands the result to a writer
type ValidationUseCase struct {
	repo       repository.MedicationRepository
	classifier *OveruseClassifier
	writer     ReportWriter
	logger     zerolog.Logger
	now        func() time.Time
}

// NewValidationUseCase creates a new validation use case
func NewValidationUseCase(repo repository.MedicationRepository, classifier *OveruseClassifier, writer ReportWriter, logger zerolog.Logger) *ValidationUseCase {
	return &ValidationUseCase{
		repo:       repo,
		classifier: classifier,
		writer:     writer,
		logger:     logger,
		now:        time.Now,
	}
}

// BuildReport runs the three checks one after another. The first failure aborts.
func (uc *ValidationUseCase) BuildReport(ctx context.Context) (entities.ValidationReport, error) {
	report := entities.ValidationReport{
		RunID:       uuid.New(),
		GeneratedAt: uc.now(),
	}
	log := uc.logger.With().Str("run_id", report.RunID.String()).Logger()

	missing, err := uc.repo.MissingUsage(ctx)
	if err != nil {
		return entities.ValidationReport{}, fmt.Errorf("missing usage check: %w", err)
	}
	log.Info().Int("rows", len(missing)).Msg("medications without usage")

	purchases, err := uc.repo.InventoryVsPurchases(ctx)
	if err != nil {
		return entities.ValidationReport{}, fmt.Errorf("inventory vs purchases check: %w", err)
	}
	log.Info().Int("rows", len(purchases)).Msg("inventory compared with purchases")

	summaries, err := uc.repo.UsageSummaries(ctx)
	if err != nil {
		return entities.ValidationReport{}, fmt.Errorf("overuse check: %w", err)
	}
	overused := uc.classifier.Classify(summaries)
	log.Info().
		Int("medications", len(summaries)).
		Int("overused", len(overused)).
		Msg("usage compared with daily limits")

	report.MissingUsage = missing
	report.InventoryVsPurchases = purchases
	report.Overused = overused
	return report, nil
}

// Run builds the report and writes it
func (uc *ValidationUseCase) Run(ctx context.Context) (entities.ValidationReport, error) {
	report, err := uc.BuildReport(ctx)
	if err != nil {
		return entities.ValidationReport{}, err
	}

	if err := uc.writer.Write(report); err != nil {
		return entities.ValidationReport{}, err
	}

	uc.logger.Info().Str("run_id", report.RunID.String()).Msg("validation report saved")
	return report, nil
}
