// Package report serializes validation results into a spreadsheet workbook
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abelzeko/med-validator/internal/entities"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Sheet names, in workbook order
const (
	MissingUsageSheet         = "Missing Usage"
	InventoryVsPurchasesSheet = "Inventory vs Purchases"
	OverusedSheet             = "Overused Medications"
)

// Sheet is one result table in tabular form
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// Sheets converts a report into its three tables. Empty results still
// produce a sheet with a header.
func Sheets(r entities.ValidationReport) []Sheet {
	missing := Sheet{
		Name:   MissingUsageSheet,
		Header: []string{"med_id", "med_name", "quantity", "location"},
		Rows:   make([][]interface{}, 0, len(r.MissingUsage)),
	}
	for _, m := range r.MissingUsage {
		missing.Rows = append(missing.Rows, []interface{}{m.MedID, m.MedName, m.Quantity, m.Location})
	}

	purchases := Sheet{
		Name:   InventoryVsPurchasesSheet,
		Header: []string{"med_id", "med_name", "current_inventory", "total_purchased"},
		Rows:   make([][]interface{}, 0, len(r.InventoryVsPurchases)),
	}
	for _, p := range r.InventoryVsPurchases {
		purchases.Rows = append(purchases.Rows, []interface{}{p.MedID, p.MedName, p.CurrentInventory, p.TotalPurchased})
	}

	overused := Sheet{
		Name:   OverusedSheet,
		Header: []string{"med_id", "med_name", "standard_daily_limit", "avg_daily_usage", "overuse_amount", "risk_level"},
		Rows:   make([][]interface{}, 0, len(r.Overused)),
	}
	for _, o := range r.Overused {
		overused.Rows = append(overused.Rows, []interface{}{
			o.MedID,
			o.MedName,
			o.StandardDailyLimit,
			o.AvgDailyUsage.InexactFloat64(),
			o.OveruseAmount.InexactFloat64(),
			string(o.RiskLevel),
		})
	}

	return []Sheet{missing, purchases, overused}
}

// WorkbookWriter writes reports as .xlsx files
type WorkbookWriter struct {
	Path   string
	logger zerolog.Logger
}

// NewWorkbookWriter creates a writer for the given output path
func NewWorkbookWriter(path string, logger zerolog.Logger) *WorkbookWriter {
	return &WorkbookWriter{Path: path, logger: logger}
}

// Write saves the report, replacing any existing file at Path.
// The parent directory must already exist.
func (w *WorkbookWriter) Write(r entities.ValidationReport) error {
	if err := checkParentDir(w.Path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return outputError(w.Path, err)
	}

	for i, sheet := range Sheets(r) {
		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), sheet.Name)
		} else {
			_, err = f.NewSheet(sheet.Name)
		}
		if err != nil {
			return outputError(w.Path, err)
		}
		if err := writeSheet(f, sheet, headerStyle); err != nil {
			return outputError(w.Path, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:      "Medication validation report",
		Identifier: r.RunID.String(),
		Created:    r.GeneratedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return outputError(w.Path, err)
	}

	if err := f.SaveAs(w.Path); err != nil {
		return outputError(w.Path, err)
	}

	w.logger.Info().
		Str("path", w.Path).
		Int("missing_usage", len(r.MissingUsage)).
		Int("inventory_vs_purchases", len(r.InventoryVsPurchases)).
		Int("overused", len(r.Overused)).
		Msg("workbook written")
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	header := make([]interface{}, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet.Name, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet.Name, i+2, err)
		}
	}
	return nil
}

func checkParentDir(path string) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return outputError(path, err)
	}
	if !info.IsDir() {
		return outputError(path, fmt.Errorf("%s is not a directory", dir))
	}
	return nil
}

func outputError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", entities.ErrOutputWrite, path, err)
}
