package repository

import (
	"fmt"
	"sort"
	"strings"
)

// Schema names the tables and quantity columns the checks read.
// Both presets share med_id, med_name and location.
type Schema struct {
	Name              string
	InventoryTable    string
	InventoryQuantity string
	UsageTable        string
	UsageQuantity     string
	PurchasesTable    string
	PurchaseQuantity  string
}

var (
	// CurrentSchema is the layout used by the current hospital database
	CurrentSchema = Schema{
		Name:              "current",
		InventoryTable:    "inventory",
		InventoryQuantity: "current_inventory",
		UsageTable:        "usage",
		UsageQuantity:     "quantity",
		PurchasesTable:    "purchases",
		PurchaseQuantity:  "quantity",
	}

	// LegacySchema is the older layout with a usage_log table.
	// It only renames columns; the checks stay the same.
	LegacySchema = Schema{
		Name:              "legacy",
		InventoryTable:    "inventory",
		InventoryQuantity: "quantity",
		UsageTable:        "usage_log",
		UsageQuantity:     "used_qty",
		PurchasesTable:    "purchases",
		PurchaseQuantity:  "qty_purchased",
	}
)

var schemas = map[string]Schema{
	CurrentSchema.Name: CurrentSchema,
	LegacySchema.Name:  LegacySchema,
}

// SchemaByName returns the preset with the given name
func SchemaByName(name string) (Schema, error) {
	s, ok := schemas[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Schema{}, fmt.Errorf("unknown schema %q (expected one of %s)", name, strings.Join(SchemaNames(), ", "))
	}
	return s, nil
}

// SchemaNames lists the known presets in sorted order
func SchemaNames() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s Schema) missingUsageQuery() string {
	return fmt.Sprintf(`
		SELECT i.med_id,
		       i.med_name,
		       i.%[2]s AS quantity,
		       COALESCE(i.location, '') AS location
		FROM %[1]s i
		LEFT JOIN %[3]s u
			ON i.med_id = u.med_id
		WHERE u.med_id IS NULL
		ORDER BY i.med_id`,
		s.InventoryTable, s.InventoryQuantity, s.UsageTable)
}

func (s Schema) inventoryVsPurchasesQuery() string {
	return fmt.Sprintf(`
		SELECT i.med_id,
		       i.med_name,
		       i.%[2]s AS current_inventory,
		       COALESCE(SUM(p.%[4]s), 0) AS total_purchased
		FROM %[1]s i
		LEFT JOIN %[3]s p
			ON i.med_id = p.med_id
		GROUP BY i.med_id, i.med_name, i.%[2]s
		ORDER BY i.med_id`,
		s.InventoryTable, s.InventoryQuantity, s.PurchasesTable, s.PurchaseQuantity)
}

func (s Schema) usageSummaryQuery() string {
	return fmt.Sprintf(`
		SELECT i.med_id,
		       i.med_name,
		       SUM(u.%[3]s) AS total_used,
		       COUNT(u.%[3]s) AS usage_count
		FROM %[1]s i
		JOIN %[2]s u
			ON i.med_id = u.med_id
		GROUP BY i.med_id, i.med_name
		ORDER BY i.med_id`,
		s.InventoryTable, s.UsageTable, s.UsageQuantity)
}
