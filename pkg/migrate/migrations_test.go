package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/gigbook-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestReviewsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "create_gigs_and_reviews")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS gigs",
		"booked_artist_ids uuid[] NOT NULL",
		"CREATE TABLE IF NOT EXISTS reviews",
		"CONSTRAINT chk_reviews_target",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_gig_reviewer ON reviews (gig_id, reviewer_id)",
		"helpful_voters uuid[] NOT NULL",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSubscriptionsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "create_subscriptions_and_payment_methods")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS subscriptions",
		"features jsonb",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_user_id ON subscriptions (user_id)",
		"CREATE TABLE IF NOT EXISTS payment_methods",
		"idx_payment_methods_one_default",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEnumMigrationIncludesPausedStatus(t *testing.T) {
	content := readMigration(t, "create_enum_types")
	if !strings.Contains(content, "'paused'") {
		t.Fatalf("subscription_status enum must include paused")
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestEmbeddedMigrationsMatchDirectory(t *testing.T) {
	embedded, err := fs.Glob(migrate.FS, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(embedded) == 0 || len(embedded) != len(onDisk) {
		t.Fatalf("expected embedded migrations to match disk, got %d vs %d", len(embedded), len(onDisk))
	}
}

func TestCreateSQLMigrationWritesGooseTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Review Flags")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_review_flags.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestEmbeddedMigrationsValidateInOrder(t *testing.T) {
	files, err := migrate.ValidateFS(migrate.FS, "migrations")
	if err != nil {
		t.Fatalf("ValidateFS: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for i := 1; i < len(files); i++ {
		if files[i-1].Version >= files[i].Version {
			t.Fatalf("migrations out of order: %s then %s", files[i-1].Name, files[i].Name)
		}
	}
	if files[0].Slug != "create_enum_types" {
		t.Fatalf("expected enum types first, got %s", files[0].Slug)
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"20260101000000_Bad-Name.sql":  "-- +goose Up\n-- +goose Down\n",
		"20261399000000_bad_month.sql": "-- +goose Up\n-- +goose Down\n",
		"20260101000000_no_down.sql":   "-- +goose Up\nSELECT 1;\n",
		"20260101000000_reversed.sql":  "-- +goose Down\n-- +goose Up\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := migrate.ValidateDir(dir); err == nil {
				t.Fatalf("expected %s to fail validation", name)
			}
		})
	}
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\n-- +goose Down\n")
	for _, name := range []string{"20260101000000_a.sql", "20260101000000_b.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := migrate.ValidateDir(dir); err == nil || !strings.Contains(err.Error(), "20260101000000") {
		t.Fatalf("expected duplicate version error, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Add Review Flags":    "add_review_flags",
		"  venue--responses ": "venue_responses",
		"!!!":                 "",
	}
	for in, want := range cases {
		if got := migrate.Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q want %q", in, got, want)
		}
	}
}
