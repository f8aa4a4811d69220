package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
	filenameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
)

const sqlTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s
-- +goose StatementEnd
`

// File is a parsed goose SQL migration filename.
type File struct {
	Version string
	Slug    string
	Name    string
}

// ParseFilename splits "<YYYYMMDDHHMMSS>_<slug>.sql" into its parts.
func ParseFilename(name string) (File, error) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return File{}, fmt.Errorf("invalid migration filename %q (want YYYYMMDDHHMMSS_slug.sql)", name)
	}
	if _, err := time.Parse(versionLayout, m[1]); err != nil {
		return File{}, fmt.Errorf("migration %q has an invalid timestamp: %w", name, err)
	}
	return File{Version: m[1], Slug: m[2], Name: name}, nil
}

// Slugify lowercases a free-form migration name into a filename-safe slug.
func Slugify(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return strings.Trim(slug, "_")
}

// CreateSQLMigration writes an empty goose migration stamped with the current
// UTC time and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	return createAt(dir, name, time.Now().UTC())
}

func createAt(dir, name string, now time.Time) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("dir is required")
	}
	slug := Slugify(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %q: %w", dir, err)
	}

	full := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", now.Format(versionLayout), slug))
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", full, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, sqlTemplate, slug); err != nil {
		return "", fmt.Errorf("write migration %q: %w", full, err)
	}
	return full, nil
}

// ValidateDir checks the migrations in a directory on disk.
func ValidateDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("dir is required")
	}
	_, err := ValidateFS(os.DirFS(dir), ".")
	return err
}

// ValidateFS checks filenames, version uniqueness and goose annotations for
// every .sql file under root, returning them in version order.
func ValidateFS(fsys fs.FS, root string) ([]File, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", root, err)
	}

	var files []File
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		file, err := ParseFilename(entry.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[file.Version]; dup {
			return nil, fmt.Errorf("migration version %s used by %q and %q", file.Version, prev, file.Name)
		}
		seen[file.Version] = file.Name

		body, err := fs.ReadFile(fsys, path.Join(root, file.Name))
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", file.Name, err)
		}
		if err := checkAnnotations(file.Name, string(body)); err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

func checkAnnotations(name, body string) error {
	up := strings.Index(body, "-- +goose Up")
	down := strings.Index(body, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q has no \"-- +goose Up\" section", name)
	case down < 0:
		return fmt.Errorf("migration %q has no \"-- +goose Down\" section", name)
	case down < up:
		return fmt.Errorf("migration %q declares Down before Up", name)
	}
	return nil
}
