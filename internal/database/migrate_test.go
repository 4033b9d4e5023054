// Package database provides connection setup for MariaDB and Redis.
// This file validates migration SQL files to catch schema mismatches early.
package database

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

// validDaytypes must match the ENUM values on entries.daytype and the
// Daytype constants in the entries plugin. Update both together.
// Defined in 000002, reused in 000003.
var validDaytypes = map[string]bool{
	"WKDAY": true,
	"SICKD": true,
	"HOLIS": true,
	"PUABS": true,
	"PUWRK": true,
	"SPECI": true,
	"TRAIN": true,
	"DAYOD": true,
	"WKHOM": true,
	"RETRN": true,
	"PENDI": true,
	"LINKD": true,
}

// migrationsDir returns the absolute path to db/migrations/ from the project root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	// thisFile is internal/database/migrate_test.go, project root is two dirs up.
	projectRoot := filepath.Join(filepath.Dir(thisFile), "..", "..")
	dir := filepath.Join(projectRoot, "db", "migrations")
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("migrations directory not found at %s: %v", dir, err)
	}
	return dir
}

// TestMigrations_DaytypeEnumValues checks every daytype ENUM definition
// in the migration files against the known day-type codes. A stray or
// missing value here causes "Data truncated for column" (Error 1265)
// on the first insert of the unlisted code.
func TestMigrations_DaytypeEnumValues(t *testing.T) {
	dir := migrationsDir(t)
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no migration files found")
	}

	enumPattern := regexp.MustCompile(`(?s)daytype\s+ENUM\(([^)]+)\)`)
	valuePattern := regexp.MustCompile(`'([^']+)'`)

	checked := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}

		for _, enum := range enumPattern.FindAllStringSubmatch(string(data), -1) {
			checked++
			seen := map[string]bool{}
			for _, match := range valuePattern.FindAllStringSubmatch(enum[1], -1) {
				value := match[1]
				if !validDaytypes[value] {
					t.Errorf("%s: daytype ENUM lists unknown code %q", filepath.Base(f), value)
				}
				seen[value] = true
			}
			for code := range validDaytypes {
				if !seen[code] {
					t.Errorf("%s: daytype ENUM is missing code %q", filepath.Base(f), code)
				}
			}
		}
	}

	// entries and pending_approvals both carry the ENUM.
	if checked < 2 {
		t.Errorf("found %d daytype ENUM definitions, want at least 2", checked)
	}
}

// TestMigrations_PairedDownFiles checks every up migration has a down
// counterpart so a botched deploy can roll back.
func TestMigrations_PairedDownFiles(t *testing.T) {
	dir := migrationsDir(t)
	ups, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}

	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := os.Stat(down); err != nil {
			t.Errorf("missing down migration for %s", filepath.Base(up))
		}
	}
}
