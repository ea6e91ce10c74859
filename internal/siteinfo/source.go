// internal/siteinfo/source.go
//
// MySQL-backed siteinfo source.
//
// Context
// -------
// A Source hides where remote rows come from so the gatherer can run
// against a fake in tests.  MySQLSource opens one short-lived host-level
// connection for the catalog scan, then one tiny pool per schema while
// that schema's rows are read.  Every pool is closed before the next
// schema is visited.
//
// Notes
// -----
// • DSNs are built with mysql.Config so credentials never need escaping
//   by hand, and connect/read timeouts bound a hung remote.
// • Connection failures come back as *SourceError (errors.Is →
//   ErrConnection).

package siteinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/orvsd/central/internal/database"
)

// Source yields siteinfo tables and their rows.
type Source interface {
	Tables(ctx context.Context) ([]Table, error)
	Rows(ctx context.Context, t Table) ([]RawRow, error)
}

// MySQLSource reads siteinfo tables from one aggregator host.
type MySQLSource struct {
	Host           string
	Port           int
	User           string
	Password       string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DSN returns the driver DSN for schema.  An empty schema connects without
// selecting a database.
func (s *MySQLSource) DSN(schema string) string {
	cfg := mysql.NewConfig()
	cfg.User = s.User
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	port := s.Port
	if port == 0 {
		port = 3306
	}
	cfg.Addr = net.JoinHostPort(s.Host, strconv.Itoa(port))
	cfg.DBName = schema
	cfg.Timeout = s.ConnectTimeout
	cfg.ReadTimeout = s.ReadTimeout
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

var sourcePool = database.Options{
	MaxOpenConns:    1,
	MaxIdleConns:    1,
	ConnMaxLifetime: 5 * time.Minute,
}

func (s *MySQLSource) open(ctx context.Context, schema string) (*sqlx.DB, error) {
	db, err := database.OpenWithOptions(ctx, s.DSN(schema), sourcePool)
	if err != nil {
		return nil, &SourceError{Host: s.Host, Schema: schema, Err: err}
	}
	return db, nil
}

// Tables connects to the host and scans its catalog.
func (s *MySQLSource) Tables(ctx context.Context) ([]Table, error) {
	db, err := s.open(ctx, "")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tables, err := Scan(ctx, db)
	if err != nil {
		return nil, &SourceError{Host: s.Host, Err: err}
	}
	return tables, nil
}

// Rows reads every row of t.
func (s *MySQLSource) Rows(ctx context.Context, t Table) ([]RawRow, error) {
	if !tableNames[t.Name] {
		return nil, fmt.Errorf("siteinfo: refusing unexpected table name %q", t.Name)
	}

	db, err := s.open(ctx, t.Schema)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := readRows(ctx, db, t.Name)
	if err != nil {
		return nil, &SourceError{Host: s.Host, Schema: t.Schema, Err: err}
	}
	return rows, nil
}

// readRows loads `SELECT *` from table into column-keyed maps.  table must
// already be validated against tableNames.
func readRows(ctx context.Context, q sqlx.QueryerContext, table string) ([]RawRow, error) {
	rs, err := q.QueryxContext(ctx, "SELECT * FROM `"+table+"`")
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []RawRow
	for rs.Next() {
		row := make(map[string]any)
		if err := rs.MapScan(row); err != nil {
			return nil, err
		}
		out = append(out, RawRow(row))
	}
	return out, rs.Err()
}
