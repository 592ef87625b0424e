package db

import (
	"testing"
	"testing/fstest"
	"time"
)

func mapFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestLoadMigrations(t *testing.T) {
	fsys := mapFS(map[string]string{
		"001_core.sql":  "CREATE TABLE users (id UUID PRIMARY KEY);",
		"002_notes.sql": "CREATE TABLE notes (id UUID PRIMARY KEY);",
		"003_appts.sql": "CREATE TABLE appointments (id UUID PRIMARY KEY);",
	})

	migrations, err := NewMigrator(nil, fsys).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "001_core.sql" {
		t.Errorf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[0].SQL != "CREATE TABLE users (id UUID PRIMARY KEY);" {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}
	if migrations[2].Version != 3 {
		t.Errorf("expected version 3, got %d", migrations[2].Version)
	}
}

func TestLoadMigrations_SortOrder(t *testing.T) {
	fsys := mapFS(map[string]string{
		"010_tables.sql": "SELECT 10;",
		"002_second.sql": "SELECT 2;",
		"001_first.sql":  "SELECT 1;",
		"005_middle.sql": "SELECT 5;",
	})

	migrations, err := NewMigrator(nil, fsys).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	expected := []int{1, 2, 5, 10}
	if len(migrations) != len(expected) {
		t.Fatalf("expected %d migrations, got %d", len(expected), len(migrations))
	}
	for i, v := range expected {
		if migrations[i].Version != v {
			t.Errorf("migration[%d]: expected version %d, got %d", i, v, migrations[i].Version)
		}
	}
}

func TestLoadMigrations_SkipsInvalidNames(t *testing.T) {
	fsys := mapFS(map[string]string{
		"001_valid.sql":      "SELECT 1;",
		"readme.sql":         "-- no version prefix",
		"notes.txt":          "not sql",
		"abc_invalid.sql":    "-- non-numeric prefix",
		"002_also_valid.sql": "SELECT 2;",
	})

	migrations, err := NewMigrator(nil, fsys).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 valid migrations, got %d", len(migrations))
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	fsys := mapFS(map[string]string{
		"001_a.sql":  "SELECT 1;",
		"0001_b.sql": "SELECT 1;",
	})
	if _, err := NewMigrator(nil, fsys).LoadMigrations(); err == nil {
		t.Error("expected error for duplicate version")
	}
}

func TestLoadMigrations_Empty(t *testing.T) {
	migrations, err := NewMigrator(nil, fstest.MapFS{}).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 0 {
		t.Errorf("expected 0 migrations, got %d", len(migrations))
	}
}

func TestPending(t *testing.T) {
	migrations := []Migration{{Version: 1}, {Version: 2}, {Version: 3}, {Version: 4}}
	applied := map[int]time.Time{1: time.Now(), 3: time.Now()}

	all := Pending(migrations, applied, 0)
	if len(all) != 2 || all[0].Version != 2 || all[1].Version != 4 {
		t.Errorf("unexpected pending set: %+v", all)
	}

	upTo := Pending(migrations, applied, 3)
	if len(upTo) != 1 || upTo[0].Version != 2 {
		t.Errorf("unexpected pending set with target: %+v", upTo)
	}
}

func TestBuildStatus(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	statuses := BuildStatus(
		[]Migration{{Version: 1, Name: "001_core.sql"}, {Version: 2, Name: "002_notes.sql"}},
		map[int]time.Time{1: at},
	)

	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Applied || statuses[0].AppliedAt == nil || !statuses[0].AppliedAt.Equal(at) {
		t.Errorf("expected 001 applied at %s, got %+v", at, statuses[0])
	}
	if statuses[1].Applied || statuses[1].AppliedAt != nil {
		t.Errorf("expected 002 pending, got %+v", statuses[1])
	}
}
