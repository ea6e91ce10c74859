// internal/siteinfo/scanner.go
//
// Remote catalog scanner.
//
// Context
// -------
// The aggregator host keeps one schema per reporting site.  Older plugin
// versions named the table `siteinfo`; Moodle installs prefix it as
// `mdl_siteinfo`.  Scan lists every (schema, table) pair carrying either
// name so the gatherer can visit them in a stable order.

package siteinfo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Table names a remote siteinfo table.
type Table struct {
	Schema string `db:"table_schema"`
	Name   string `db:"table_name"`
}

func (t Table) String() string { return t.Schema + "." + t.Name }

// tableNames lists the accepted remote table names.  Rows() refuses any
// other name before quoting it into SQL.
var tableNames = map[string]bool{
	"siteinfo":     true,
	"mdl_siteinfo": true,
}

const scanSQL = `
SELECT table_schema AS table_schema, table_name AS table_name
FROM   information_schema.tables
WHERE  table_name IN (?, ?)
ORDER  BY table_schema, table_name`

// Scan returns every siteinfo table visible to the connection, ordered by
// schema then table name.
func Scan(ctx context.Context, q sqlx.QueryerContext) ([]Table, error) {
	var out []Table
	if err := sqlx.SelectContext(ctx, q, &out, scanSQL, "siteinfo", "mdl_siteinfo"); err != nil {
		return nil, fmt.Errorf("scan information_schema: %w", err)
	}
	return out, nil
}
