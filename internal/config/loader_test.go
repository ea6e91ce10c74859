// internal/config/loader_test.go
//
// Unit-tests for the layered loader: YAML, env overlay, and vault
// reference resolution.

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testYAML = `
http:
  listen_addr: "127.0.0.1:9090"
database:
  central_dsn: "central:%s@tcp(db:3306)/central?parseTime=true"
  central_password: "vault:secret/central#password"
siteinfo:
  host: "applegate.example.org"
  user: "siteinfo"
  password: "plain"
`

type fakeResolver map[string]string

func (f fakeResolver) GetSecret(_ context.Context, ref string) (string, error) {
	if v, ok := f[ref]; ok {
		return v, nil
	}
	return "", errors.New("missing " + ref)
}

func writeConf(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", fileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CENTRAL_ROOT", root)
	return root
}

func TestLoad_LayersAndSecrets(t *testing.T) {
	root := writeConf(t, testYAML)
	t.Setenv("CENTRAL_SITEINFO__ISOLATE_SOURCES", "true")

	cfg, err := Load(context.Background(), fakeResolver{"secret/central#password": "s3cret"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.Root != root {
		t.Errorf("root = %q, want %q", cfg.Paths.Root, root)
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1:9090" {
		t.Errorf("listen_addr = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.Database.CentralPassword != "s3cret" {
		t.Errorf("central_password = %q, want resolved secret", cfg.Database.CentralPassword)
	}
	if !cfg.Siteinfo.IsolateSources {
		t.Errorf("env overlay did not set isolate_sources")
	}
	if cfg.Siteinfo.Port != 3306 || cfg.Siteinfo.ConnectTimeout != 10*time.Second {
		t.Errorf("defaults not applied: port=%d timeout=%v", cfg.Siteinfo.Port, cfg.Siteinfo.ConnectTimeout)
	}
	if Get() != cfg {
		t.Errorf("Get() did not return cached config")
	}
}

func TestLoad_VaultWithoutResolver(t *testing.T) {
	writeConf(t, testYAML)

	_, err := Load(context.Background(), nil)
	if !errors.Is(err, ErrNoResolver) {
		t.Fatalf("err = %v, want ErrNoResolver", err)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	writeConf(t, "http:\n  listen_addr: \":8080\"\n")

	if _, err := Load(context.Background(), nil); err == nil {
		t.Fatal("expected validation error for missing database/siteinfo fields")
	}
}

func TestLoad_SingleConnectionPool(t *testing.T) {
	writeConf(t, strings.Replace(testYAML, "database:\n", "database:\n  max_open_conns: 1\n", 1))
	if _, err := Load(context.Background(), fakeResolver{"secret/central#password": "x"}); err == nil {
		t.Fatal("max_open_conns: 1 accepted")
	}

	writeConf(t, strings.Replace(testYAML, "database:\n", "database:\n  max_open_conns: 2\n", 1))
	cfg, err := Load(context.Background(), fakeResolver{"secret/central#password": "x"})
	if err != nil {
		t.Fatalf("max_open_conns: 2 rejected: %v", err)
	}
	if cfg.Database.MaxOpenConns != 2 {
		t.Errorf("max_open_conns = %d, want 2", cfg.Database.MaxOpenConns)
	}
}

func TestLoad_SiteinfoOptional(t *testing.T) {
	body := "database:\n  central_dsn: \"central@tcp(db:3306)/central\"\n"
	writeConf(t, body)

	cfg, err := Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Siteinfo.Host != "" {
		t.Errorf("host = %q, want empty", cfg.Siteinfo.Host)
	}

	writeConf(t, body+"siteinfo:\n  host: \"agg.example.org\"\n")
	if _, err := Load(context.Background(), nil); err == nil {
		t.Fatal("siteinfo.host without siteinfo.user accepted")
	}
}
