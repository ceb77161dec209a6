package usecases

import (
	"github.com/abelzeko/med-validator/internal/entities"
	"github.com/shopspring/decimal"
)

// DefaultDailyLimit applies to medications missing from the threshold table
const DefaultDailyLimit int64 = 50

var (
	lowBoundary    = decimal.Zero
	mediumBoundary = decimal.NewFromInt(15)
	highBoundary   = decimal.NewFromInt(30)
)

// Thresholds maps a medication name to its standard daily usage limit.
// The zero value has no entries and a fallback of 0. A Thresholds value never
// changes after construction.
type Thresholds struct {
	limits   map[string]int64
	fallback int64
}

// NewThresholds copies limits so later changes to the map are not observed
func NewThresholds(limits map[string]int64, fallback int64) Thresholds {
	copied := make(map[string]int64, len(limits))
	for name, limit := range limits {
		copied[name] = limit
	}
	return Thresholds{limits: copied, fallback: fallback}
}

// DefaultThresholds returns the standard hospital limits
func DefaultThresholds() Thresholds {
	return NewThresholds(map[string]int64{
		"Morphine":  60,
		"Insulin":   180,
		"Heparin":   75,
		"Fentanyl":  50,
		"Oxycodone": 40,
		"Midazolam": 30,
	}, DefaultDailyLimit)
}

// Limit returns the limit for an exact medication name, or the fallback
func (t Thresholds) Limit(medName string) int64 {
	if limit, ok := t.limits[medName]; ok {
		return limit
	}
	return t.fallback
}

// RiskLevelFor classifies an overuse amount. Boundaries belong to the lower tier.
func RiskLevelFor(overuse decimal.Decimal) entities.RiskLevel {
	switch {
	case overuse.GreaterThan(highBoundary):
		return entities.RiskHigh
	case overuse.GreaterThan(mediumBoundary):
		return entities.RiskMedium
	case overuse.GreaterThan(lowBoundary):
		return entities.RiskLow
	default:
		return entities.RiskNormal
	}
}

// OveruseClassifier compares average daily usage with the threshold table
type OveruseClassifier struct {
	thresholds Thresholds
}

// NewOveruseClassifier creates a classifier bound to a threshold table
func NewOveruseClassifier(thresholds Thresholds) *OveruseClassifier {
	return &OveruseClassifier{thresholds: thresholds}
}

// Evaluate computes the average, limit, overuse amount and risk level of one summary.
// ok is false when the summary has no usage events to average.
func (c *OveruseClassifier) Evaluate(s entities.UsageSummary) (entities.OverusedMedication, bool) {
	if s.UsageCount <= 0 {
		return entities.OverusedMedication{}, false
	}

	avg := s.TotalUsed.Div(decimal.NewFromInt(s.UsageCount)).Round(2)
	limit := c.thresholds.Limit(s.MedName)
	overuse := avg.Sub(decimal.NewFromInt(limit))

	return entities.OverusedMedication{
		MedID:              s.MedID,
		MedName:            s.MedName,
		StandardDailyLimit: limit,
		AvgDailyUsage:      avg,
		OveruseAmount:      overuse,
		RiskLevel:          RiskLevelFor(overuse),
	}, true
}

// Classify returns only the medications whose overuse amount is strictly positive,
// in input order
func (c *OveruseClassifier) Classify(summaries []entities.UsageSummary) []entities.OverusedMedication {
	result := []entities.OverusedMedication{}
	for _, s := range summaries {
		med, ok := c.Evaluate(s)
		if !ok || !med.OveruseAmount.IsPositive() {
			continue
		}
		result = append(result, med)
	}
	return result
}
