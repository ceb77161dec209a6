package config

import (
	"testing"

	"github.com/abelzeko/med-validator/internal/repository"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_PATH", "REPORT_PATH", "DB_SCHEMA", "LOG_LEVEL", "ENV"} {
		t.Setenv(key, "")
	}
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("medcheck", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, DefaultReportPath, cfg.ReportPath)
	assert.Equal(t, "current", cfg.Schema)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoad_DefaultsWithUnsetFlags(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, DefaultReportPath, cfg.ReportPath)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_PATH", "/data/hospital.db")
	t.Setenv("REPORT_PATH", "/tmp/out.xlsx")
	t.Setenv("DB_SCHEMA", "legacy")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENV", "development")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "/data/hospital.db", cfg.DatabasePath)
	assert.Equal(t, "/tmp/out.xlsx", cfg.ReportPath)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())

	schema, err := cfg.SchemaPreset()
	require.NoError(t, err)
	assert.Equal(t, repository.LegacySchema, schema)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_PATH", "/data/hospital.db")

	cfg, err := Load(newFlags(t, "--database", "other.db", "--output", "out/report.xlsx", "--log-level", "warn"))
	require.NoError(t, err)

	assert.Equal(t, "other.db", cfg.DatabasePath)
	assert.Equal(t, "out/report.xlsx", cfg.ReportPath)
	assert.Equal(t, zerolog.WarnLevel, cfg.Level())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown schema", args: []string{"--schema", "usage_log"}},
		{name: "unknown log level", args: []string{"--log-level", "loud"}},
		{name: "blank database", args: []string{"--database", " "}},
		{name: "blank output", args: []string{"--output", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(newFlags(t, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestLevel_FallsBackToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, (&Config{}).Level())
	assert.Equal(t, zerolog.InfoLevel, (&Config{LogLevel: "nonsense"}).Level())
	assert.Equal(t, zerolog.ErrorLevel, (&Config{LogLevel: "ERROR"}).Level())
}
