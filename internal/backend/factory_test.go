package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wastedash/internal/config"
	"wastedash/internal/core"
	"wastedash/internal/source/memory"
	"wastedash/internal/storage"
)

const csvData = "Year,Month,Category,Material Type,Weight (lbs)\n2022,Jan,recycling,Plastic,\"1,000\"\n"

func TestCreateFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "df.csv")
	if err := os.WriteFile(path, []byte(csvData), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := NewFactory(nil).Create(context.Background(), &config.Config{DataBackend: config.BackendFile, DatasetPath: path})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer res.Close()

	recs, err := res.Loader.Load(context.Background())
	if err != nil || len(recs) != 1 || recs[0].Weight != "1,000" {
		t.Fatalf("Load = %+v, %v", recs, err)
	}
	if res.Source != path {
		t.Errorf("source = %q", res.Source)
	}
}

func TestCreateMemoryBackendFallsBackToDemo(t *testing.T) {
	cfg := &config.Config{DataBackend: config.BackendMemory, DatasetPath: filepath.Join(t.TempDir(), "missing.csv")}
	res, err := NewFactory(nil).Create(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	recs, err := res.Loader.Load(context.Background())
	if err != nil || len(recs) == 0 {
		t.Fatalf("expected demo records, got %d, %v", len(recs), err)
	}
	if res.Source != "memory" {
		t.Errorf("source = %q", res.Source)
	}
}

func TestCreateMemoryBackendRejectsBrokenSeed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, memory.SeedFile), []byte("Year,Month\n2022,Jan\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{DataBackend: config.BackendMemory, DatasetPath: filepath.Join(dir, "df.csv")}
	if _, err := NewFactory(nil).Create(context.Background(), cfg); !errors.Is(err, core.ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "w.db")
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	rec := core.RawRecord{Year: "2022", Month: "Feb", Category: "trash", Material: "Mixed", Weight: "3"}
	if _, err := repo.ReplaceRecords(context.Background(), "seed", []core.RawRecord{rec}); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	res, err := NewFactory(nil).Create(context.Background(), &config.Config{DataBackend: config.BackendSQLite, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer res.Close()
	recs, err := res.Loader.Load(context.Background())
	if err != nil || len(recs) != 1 || recs[0] != rec {
		t.Fatalf("Load = %+v, %v", recs, err)
	}
}

func TestCreateRejectsInvalidBackend(t *testing.T) {
	if _, err := NewFactory(nil).Create(context.Background(), &config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := NewFactory(nil).Create(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestTypes(t *testing.T) {
	for _, typ := range Types() {
		if !typ.IsValid() {
			t.Errorf("%s should be valid", typ)
		}
	}
	if Type("mysql").IsValid() {
		t.Error("mysql should be invalid")
	}
}
