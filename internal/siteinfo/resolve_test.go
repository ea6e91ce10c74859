package siteinfo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/central/centraltest"
)

func TestResolveIdentity_CreatesThenFinds(t *testing.T) {
	db := centraltest.Open(t)
	ctx := context.Background()

	rec, _ := Normalize(siteRow("https://delta.example.org", "delta"))

	first, err := ResolveIdentity(ctx, db, rec)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if !first.SchoolCreated || !first.SiteCreated {
		t.Fatalf("expected creation, got %+v", first)
	}
	if first.School.DistrictID.Valid {
		t.Errorf("new school has district %d, want none", first.School.DistrictID.Int64)
	}
	if first.School.Name != "delta" || first.School.Shortname != "delta" || first.School.License != "" {
		t.Errorf("new school = %+v", first.School)
	}
	if first.Site.BaseURL != "delta.example.org" {
		t.Errorf("site baseurl = %q", first.Site.BaseURL)
	}

	// The same site reported over plain http resolves to the same rows.
	rec2, _ := Normalize(siteRow("http://delta.example.org", "delta"))
	second, err := ResolveIdentity(ctx, db, rec2)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if second.SchoolCreated || second.SiteCreated {
		t.Errorf("second resolve created rows: %+v", second)
	}
	if second.School.ID != first.School.ID || second.Site.ID != first.Site.ID {
		t.Errorf("ids moved: %+v vs %+v", second, first)
	}
}

func TestResolveIdentity_StoreError(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()
	db := sqlx.NewDb(raw, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM schools WHERE domain = ?`)).
		WithArgs("epsilon.example.org").
		WillReturnError(errors.New("lost connection"))

	rec, _ := Normalize(siteRow("https://epsilon.example.org", "epsilon"))
	if _, err := ResolveIdentity(context.Background(), db, rec); !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestWriteDetail_AppendsSnapshot(t *testing.T) {
	db := centraltest.Open(t)
	ctx := context.Background()

	rec, _ := Normalize(siteRow("https://zeta.example.org", "zeta"))
	id, err := ResolveIdentity(ctx, db, rec)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	runAt := time.Date(2024, 9, 1, 2, 0, 0, 0, time.UTC)
	d, err := WriteDetail(ctx, db, id.Site, rec, runAt)
	if err != nil {
		t.Fatalf("WriteDetail: %v", err)
	}
	if _, err := WriteDetail(ctx, db, id.Site, rec, runAt.Add(time.Hour)); err != nil {
		t.Fatalf("second WriteDetail: %v", err)
	}

	n, err := central.CountSiteDetails(ctx, db, id.Site.ID)
	if err != nil || n != 2 {
		t.Fatalf("details = %d (%v), want 2", n, err)
	}

	latest, err := central.LatestSiteDetail(ctx, db, id.Site.ID)
	if err != nil {
		t.Fatalf("LatestSiteDetail: %v", err)
	}
	if latest.ID == d.ID {
		t.Error("latest detail is the older snapshot")
	}
	if latest.TotalUsers != 100 || latest.Teachers != 5 || latest.AdminUsers != 2 {
		t.Errorf("latest = %+v", latest)
	}
}

func TestScan(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()
	db := sqlx.NewDb(raw, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(scanSQL)).
		WithArgs("siteinfo", "mdl_siteinfo").
		WillReturnRows(sqlmock.NewRows([]string{"table_schema", "table_name"}).
			AddRow("alpha_db", "siteinfo").
			AddRow("beta_db", "mdl_siteinfo"))

	tables, err := Scan(context.Background(), db)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []Table{{"alpha_db", "siteinfo"}, {"beta_db", "mdl_siteinfo"}}
	if len(tables) != len(want) {
		t.Fatalf("tables = %v", tables)
	}
	for i := range want {
		if tables[i] != want[i] {
			t.Errorf("tables[%d] = %v, want %v", i, tables[i], want[i])
		}
	}
}

func TestReadRows(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()
	db := sqlx.NewDb(raw, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `mdl_siteinfo`")).
		WillReturnRows(sqlmock.NewRows([]string{"baseurl", "totalusers"}).
			AddRow([]byte("https://eta.example.org"), []byte("12")))

	rows, err := readRows(context.Background(), db, "mdl_siteinfo")
	if err != nil {
		t.Fatalf("readRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	rec, _ := Normalize(rows[0])
	if rec.Domain != "eta.example.org" || rec.TotalUsers != 12 {
		t.Errorf("record = %+v", rec)
	}
}

func TestMySQLSource_RejectsUnknownTable(t *testing.T) {
	s := &MySQLSource{Host: "127.0.0.1"}
	if _, err := s.Rows(context.Background(), Table{Schema: "x", Name: "users; DROP"}); err == nil {
		t.Fatal("expected refusal for unknown table name")
	}
}

func TestMySQLSource_DSN(t *testing.T) {
	s := &MySQLSource{
		Host: "agg.example.org", User: "siteinfo", Password: "p@ss:word",
		ConnectTimeout: 5 * time.Second, ReadTimeout: 30 * time.Second,
	}
	dsn := s.DSN("lincoln")
	want := "siteinfo:p@ss:word@tcp(agg.example.org:3306)/lincoln?"
	if len(dsn) < len(want) || dsn[:len(want)] != want {
		t.Errorf("DSN = %q, want prefix %q", dsn, want)
	}
	for _, p := range []string{"timeout=5s", "readTimeout=30s", "parseTime=true"} {
		if !regexp.MustCompile(regexp.QuoteMeta(p)).MatchString(dsn) {
			t.Errorf("DSN %q missing %s", dsn, p)
		}
	}
}
