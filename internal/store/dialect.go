package store

import (
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver.
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.
	_ "modernc.org/sqlite"             // SQLite driver.

	"github.com/verte-zerg/pilotmetrics/internal/warehouse"
)

// Supported driver names.
const (
	SQLite   = "sqlite"
	MySQL    = "mysql"
	Postgres = "postgres"
)

type dialect struct {
	name       string
	driverName string
	idColumn   string
	types      map[warehouse.ColumnType]string

	// inlineIndex puts the date index inside CREATE TABLE; MySQL has no CREATE INDEX IF NOT EXISTS.
	inlineIndex bool
	numbered    bool
	dateExpr    string
}

var dialects = map[string]dialect{
	SQLite: {
		name:       SQLite,
		driverName: "sqlite",
		idColumn:   "id INTEGER PRIMARY KEY",
		types: map[warehouse.ColumnType]string{
			warehouse.String:  "TEXT",
			warehouse.Date:    "TEXT",
			warehouse.Boolean: "INTEGER",
			warehouse.Integer: "INTEGER",
		},
		dateExpr: "date",
	},
	MySQL: {
		name:       MySQL,
		driverName: "mysql",
		idColumn:   "id BIGINT AUTO_INCREMENT PRIMARY KEY",
		types: map[warehouse.ColumnType]string{
			warehouse.String:  "VARCHAR(255)",
			warehouse.Date:    "DATE",
			warehouse.Boolean: "BOOLEAN",
			warehouse.Integer: "BIGINT",
		},
		inlineIndex: true,
		dateExpr:    "DATE_FORMAT(date, '%Y-%m-%d')",
	},
	Postgres: {
		name:       Postgres,
		driverName: "pgx",
		idColumn:   "id BIGSERIAL PRIMARY KEY",
		types: map[warehouse.ColumnType]string{
			warehouse.String:  "TEXT",
			warehouse.Date:    "DATE",
			warehouse.Boolean: "BOOLEAN",
			warehouse.Integer: "BIGINT",
		},
		numbered: true,
		dateExpr: "to_char(date, 'YYYY-MM-DD')",
	},
}

func lookupDialect(name string) (dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver %q (want %s, %s or %s)", name, SQLite, MySQL, Postgres)
	}
	return d, nil
}

// placeholder returns the bind marker for the 1-based argument n.
func (d dialect) placeholder(n int) string {
	if d.numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d dialect) createTable(t warehouse.Table) []string {
	defs := make([]string, 0, len(t.Columns)+2)
	defs = append(defs, d.idColumn)
	for _, c := range t.Columns {
		def := c.Name + " " + d.types[c.Type]
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	index := "idx_" + t.Name + "_date"
	if d.inlineIndex {
		defs = append(defs, fmt.Sprintf("INDEX %s (date)", index))
	}
	stmts := []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(defs, ",\n\t"))}
	if !d.inlineIndex {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(date)", index, t.Name))
	}
	return stmts
}

func (d dialect) insert(t warehouse.Table) string {
	marks := make([]string, len(t.Columns))
	for i := range marks {
		marks[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(t.ColumnNames(), ", "), strings.Join(marks, ", "))
}
