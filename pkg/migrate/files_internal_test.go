package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/gigbook-backend/pkg/config"
)

func TestCreateAtRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := createAt(dir, "Seed Gigs", now)
	if err != nil {
		t.Fatalf("createAt: %v", err)
	}
	if filepath.Base(path) != "20260304050607_seed_gigs.sql" {
		t.Fatalf("unexpected file %s", path)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "-- revert seed_gigs") {
		t.Fatalf("unexpected template:\n%s", body)
	}

	if _, err := createAt(dir, "seed gigs", now); err == nil {
		t.Fatal("expected second create with same version to fail")
	}
}

func TestCreateAtRequiresName(t *testing.T) {
	if _, err := createAt(t.TempDir(), "  ", time.Now()); err == nil {
		t.Fatal("expected empty name to fail")
	}
	if _, err := createAt("", "x", time.Now()); err == nil {
		t.Fatal("expected empty dir to fail")
	}
}

func TestShouldAutoRun(t *testing.T) {
	base := func() *config.Config {
		cfg := &config.Config{}
		cfg.App.Env = config.AppEnvDev
		cfg.FeatureFlags.AutoMigrate = true
		cfg.DB.Driver = "postgres"
		return cfg
	}

	if !shouldAutoRun(base()) {
		t.Fatal("expected dev postgres with flag to auto-run")
	}

	noFlag := base()
	noFlag.FeatureFlags.AutoMigrate = false
	prod := base()
	prod.App.Env = config.AppEnvProd
	sqlite := base()
	sqlite.DB.Driver = "sqlite"

	for name, cfg := range map[string]*config.Config{"flag off": noFlag, "prod": prod, "sqlite": sqlite, "nil": nil} {
		if shouldAutoRun(cfg) {
			t.Errorf("%s: expected auto-run to be skipped", name)
		}
	}
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("20260105090200")
	if err != nil || v != 20260105090200 {
		t.Fatalf("expected version, got %d err=%v", v, err)
	}
	for _, bad := range []string{"", "2026", "20261305090200", "2026010509020x"} {
		if _, err := ParseVersion(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestSourceSelectsEmbeddedOrDir(t *testing.T) {
	embedded, err := source("")
	if err != nil {
		t.Fatalf("embedded source: %v", err)
	}
	if _, err := fs.Stat(embedded, "20260105090000_create_enum_types.sql"); err != nil {
		t.Fatalf("expected embedded migration at root of source: %v", err)
	}

	if _, err := source(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected missing dir to fail")
	}
	file := filepath.Join(t.TempDir(), "x.sql")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := source(file); err == nil {
		t.Fatalf("expected file path to be rejected")
	}
}

func TestNewMigratorRequiresDB(t *testing.T) {
	if _, err := NewMigrator(nil, ""); err == nil {
		t.Fatalf("expected nil db to be rejected")
	}
}
