package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/abelzeko/med-validator/internal/config"
	"github.com/abelzeko/med-validator/internal/entities"
	"github.com/abelzeko/med-validator/internal/report"
	"github.com/abelzeko/med-validator/internal/repository"
	"github.com/abelzeko/med-validator/internal/repository/sqlitetest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var wardFixture = sqlitetest.Fixture{
	Inventory: []sqlitetest.Medication{
		{MedID: 1, MedName: "Morphine", Quantity: 100, Location: "A"},
		{MedID: 2, MedName: "Saline", Quantity: 40, Location: "C"},
	},
	Usage: []sqlitetest.Event{
		{MedID: 1, Quantity: 90},
		{MedID: 1, Quantity: 90},
	},
	Purchases: []sqlitetest.Event{
		{MedID: 1, Quantity: 200},
	},
}

func testConfig(dbPath, reportPath string) *config.Config {
	return &config.Config{
		DatabasePath: dbPath,
		ReportPath:   reportPath,
		Schema:       repository.CurrentSchema.Name,
		LogLevel:     "info",
	}
}

func TestRun_WritesReport(t *testing.T) {
	dbPath := sqlitetest.NewDatabase(t, repository.CurrentSchema, wardFixture)
	reportPath := filepath.Join(t.TempDir(), "validation_report.xlsx")

	var out bytes.Buffer
	err := run(context.Background(), testConfig(dbPath, reportPath), zerolog.Nop(), &out)
	require.NoError(t, err)

	assert.Equal(t, "Running data validation checks...\nValidation report generated:\n"+reportPath+"\n", out.String())

	f, err := excelize.OpenFile(reportPath)
	require.NoError(t, err)
	defer f.Close()

	missing, err := f.GetRows(report.MissingUsageSheet)
	require.NoError(t, err)
	require.Len(t, missing, 2)
	assert.Equal(t, []string{"2", "Saline", "40", "C"}, missing[1])

	purchases, err := f.GetRows(report.InventoryVsPurchasesSheet)
	require.NoError(t, err)
	assert.Len(t, purchases, 3)

	overused, err := f.GetRows(report.OverusedSheet)
	require.NoError(t, err)
	require.Len(t, overused, 2)
	assert.Equal(t, []string{"1", "Morphine", "60", "90", "30", "Medium"}, overused[1])
}

func TestRun_MissingDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "hospital_data.db")
	reportPath := filepath.Join(dir, "validation_report.xlsx")

	var out bytes.Buffer
	err := run(context.Background(), testConfig(dbPath, reportPath), zerolog.Nop(), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrDataSourceUnavailable)

	_, statErr := os.Stat(reportPath)
	assert.True(t, os.IsNotExist(statErr), "no report should be written")
	_, statErr = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr), "the database file must not be created")
	assert.Empty(t, out.String())
}

func TestRun_MissingOutputDirectory(t *testing.T) {
	dbPath := sqlitetest.NewDatabase(t, repository.CurrentSchema, wardFixture)
	reportPath := filepath.Join(t.TempDir(), "reports", "validation_report.xlsx")

	var out bytes.Buffer
	err := run(context.Background(), testConfig(dbPath, reportPath), zerolog.Nop(), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrOutputWrite)
	assert.NotContains(t, out.String(), "Validation report generated:")
}

func TestRun_SchemaMismatch(t *testing.T) {
	dbPath := sqlitetest.NewDatabase(t, repository.LegacySchema, wardFixture)
	reportPath := filepath.Join(t.TempDir(), "validation_report.xlsx")

	err := run(context.Background(), testConfig(dbPath, reportPath), zerolog.Nop(), &bytes.Buffer{})
	assert.ErrorIs(t, err, entities.ErrQueryFailure)

	_, statErr := os.Stat(reportPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}

func TestRootCmd_Flags(t *testing.T) {
	for _, key := range []string{"DATABASE_PATH", "REPORT_PATH", "DB_SCHEMA", "LOG_LEVEL", "ENV"} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")

	dbPath := sqlitetest.NewDatabase(t, repository.LegacySchema, wardFixture)
	reportPath := filepath.Join(t.TempDir(), "legacy.xlsx")

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--database", dbPath, "--output", reportPath, "--schema", "legacy"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), reportPath)
	_, err := os.Stat(reportPath)
	assert.NoError(t, err)
}
