// Package repository provides data access implementations
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/abelzeko/med-validator/internal/entities"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MedicationRepository defines the read-only checks run against the hospital database
type MedicationRepository interface {
	MissingUsage(ctx context.Context) ([]entities.MissingUsage, error)
	InventoryVsPurchases(ctx context.Context) ([]entities.InventoryPurchase, error)
	UsageSummaries(ctx context.Context) ([]entities.UsageSummary, error)
	Close() error
}

// SQLMedicationRepository implements MedicationRepository over database/sql.
// SQLite files and PostgreSQL DSNs are both accepted.
type SQLMedicationRepository struct {
	db     *sql.DB
	schema Schema
	logger zerolog.Logger
	Driver string
}

// NewSQLMedicationRepository opens and pings the database named by dsn.
// A postgres:// or postgresql:// URL, or a keyword/value string such as
// "host=db dbname=hospital", uses pgx. Anything else is treated as a SQLite
// file path and opened read-only.
func NewSQLMedicationRepository(ctx context.Context, dsn string, schema Schema, logger zerolog.Logger) (*SQLMedicationRepository, error) {
	driver, source, err := resolveDataSource(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrDataSourceUnavailable, err)
	}
	// The checks run one after another on a single connection.
	db.SetMaxOpenConns(1)

	repo := &SQLMedicationRepository{
		db:     db,
		schema: schema,
		logger: logger,
		Driver: driver,
	}

	event := logger.Info().Str("driver", repo.Driver).Str("schema", schema.Name)
	if repo.Driver == "sqlite3" {
		event = event.Str("path", dsn)
	}
	event.Msg("opening database")

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", entities.ErrDataSourceUnavailable, err)
	}
	return repo, nil
}

// libpq connection keywords that mark a keyword/value postgres DSN
var postgresKeywords = map[string]bool{
	"host":             true,
	"hostaddr":         true,
	"port":             true,
	"dbname":           true,
	"user":             true,
	"password":         true,
	"sslmode":          true,
	"connect_timeout":  true,
	"application_name": true,
	"service":          true,
}

func isPostgresDSN(dsn string) bool {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return true
	}
	fields := strings.Fields(dsn)
	if len(fields) == 0 {
		return false
	}
	key, _, ok := strings.Cut(fields[0], "=")
	return ok && postgresKeywords[key]
}

func resolveDataSource(dsn string) (driver string, source string, err error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", "", fmt.Errorf("%w: no database configured", entities.ErrDataSourceUnavailable)
	}
	if isPostgresDSN(dsn) {
		return "pgx", dsn, nil
	}

	// sqlite3 would create a missing file, so check first.
	info, err := os.Stat(dsn)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", entities.ErrDataSourceUnavailable, err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("%w: %s is a directory", entities.ErrDataSourceUnavailable, dsn)
	}

	uri, err := sqliteURI(dsn)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", entities.ErrDataSourceUnavailable, err)
	}
	return "sqlite3", uri, nil
}

// sqliteURI builds a read-only file: URI. The path is escaped so that
// '#', '?' and '%' in file names are not read as URI syntax.
func sqliteURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: "mode=ro",
	}
	return u.String(), nil
}

// Close closes the database connection
func (r *SQLMedicationRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// MissingUsage returns inventory rows without any usage event
func (r *SQLMedicationRepository) MissingUsage(ctx context.Context) ([]entities.MissingUsage, error) {
	rows, err := r.db.QueryContext(ctx, r.schema.missingUsageQuery())
	if err != nil {
		return nil, queryError("missing usage", err)
	}
	defer rows.Close()

	result := []entities.MissingUsage{}
	for rows.Next() {
		var m entities.MissingUsage
		if err := rows.Scan(&m.MedID, &m.MedName, &m.Quantity, &m.Location); err != nil {
			return nil, queryError("missing usage", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("missing usage", err)
	}

	r.logger.Debug().Int("rows", len(result)).Msg("missing usage check finished")
	return result, nil
}

// InventoryVsPurchases returns one row per medication with its total purchased quantity
func (r *SQLMedicationRepository) InventoryVsPurchases(ctx context.Context) ([]entities.InventoryPurchase, error) {
	rows, err := r.db.QueryContext(ctx, r.schema.inventoryVsPurchasesQuery())
	if err != nil {
		return nil, queryError("inventory vs purchases", err)
	}
	defer rows.Close()

	result := []entities.InventoryPurchase{}
	for rows.Next() {
		var p entities.InventoryPurchase
		if err := rows.Scan(&p.MedID, &p.MedName, &p.CurrentInventory, &p.TotalPurchased); err != nil {
			return nil, queryError("inventory vs purchases", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("inventory vs purchases", err)
	}

	r.logger.Debug().Int("rows", len(result)).Msg("inventory vs purchases check finished")
	return result, nil
}

// UsageSummaries returns total usage and event count for every medication that has usage
func (r *SQLMedicationRepository) UsageSummaries(ctx context.Context) ([]entities.UsageSummary, error) {
	rows, err := r.db.QueryContext(ctx, r.schema.usageSummaryQuery())
	if err != nil {
		return nil, queryError("usage summaries", err)
	}
	defer rows.Close()

	result := []entities.UsageSummary{}
	for rows.Next() {
		var (
			s     entities.UsageSummary
			total decimal.NullDecimal
		)
		if err := rows.Scan(&s.MedID, &s.MedName, &total, &s.UsageCount); err != nil {
			return nil, queryError("usage summaries", err)
		}
		// SUM is NULL when every quantity is NULL; the count is 0 then as well.
		if total.Valid {
			s.TotalUsed = total.Decimal
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("usage summaries", err)
	}

	r.logger.Debug().Int("rows", len(result)).Msg("usage summaries loaded")
	return result, nil
}

func queryError(check string, err error) error {
	return fmt.Errorf("%w: %s: %w", entities.ErrQueryFailure, check, err)
}
