// Package entities contains the core domain objects for the medication validator
package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskLevel is the severity assigned to an overuse amount
type RiskLevel string

const (
	RiskNormal RiskLevel = "Normal"
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// MissingUsage is an inventory row that never appears in the usage log
type MissingUsage struct {
	MedID    int64
	MedName  string
	Quantity int64  // Current on-hand inventory
	Location string // Storage location, empty when unknown
}

// InventoryPurchase pairs current stock with everything ever purchased
type InventoryPurchase struct {
	MedID            int64
	MedName          string
	CurrentInventory int64
	TotalPurchased   int64 // Zero when the medication was never purchased
}

// UsageSummary aggregates the usage events of one medication.
// Only medications with at least one usage event have a summary.
type UsageSummary struct {
	MedID      int64
	MedName    string
	TotalUsed  decimal.Decimal
	UsageCount int64
}

// OverusedMedication is a medication whose average daily usage exceeds its standard limit
type OverusedMedication struct {
	MedID              int64
	MedName            string
	StandardDailyLimit int64
	AvgDailyUsage      decimal.Decimal // Rounded to 2 places
	OveruseAmount      decimal.Decimal // AvgDailyUsage - StandardDailyLimit
	RiskLevel          RiskLevel
}

// ValidationReport holds the three result tables of one run
type ValidationReport struct {
	RunID                uuid.UUID
	GeneratedAt          time.Time
	MissingUsage         []MissingUsage
	InventoryVsPurchases []InventoryPurchase
	Overused             []OverusedMedication
}
