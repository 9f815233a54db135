package bulkload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/coldb/pkg/config"
	"github.com/cuemby/coldb/pkg/manager"
)

func newTestManager(t *testing.T) *manager.Manager {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	m, err := manager.New(cfg)
	if err != nil {
		t.Fatalf("manager.New() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoader_Load(t *testing.T) {
	m := newTestManager(t)
	if err := m.CreateDatabase("d"); err != nil {
		t.Fatalf("CreateDatabase() error = %v", err)
	}
	if err := m.CreateTable("d", "t", 2); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if err := m.AddColumn("d", "t", "a"); err != nil {
		t.Fatalf("AddColumn(a) error = %v", err)
	}
	if err := m.AddColumn("d", "t", "b"); err != nil {
		t.Fatalf("AddColumn(b) error = %v", err)
	}

	path := writeCSV(t, "d.t.a,d.t.b\n1,10\n2,20\n3,30\n")

	loader := New(m)
	n, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("Load() rows = %d, want 3", n)
	}

	table := m.Database().Table("t")
	if table.RowCount() != 3 {
		t.Fatalf("RowCount() = %d, want 3", table.RowCount())
	}
	colB := table.Column("b")
	want := []int32{10, 20, 30}
	for i, v := range want {
		if colB.Data[i] != v {
			t.Errorf("col b[%d] = %d, want %d", i, colB.Data[i], v)
		}
	}
}

func TestLoader_Load_MalformedRowLeavesTableUntouched(t *testing.T) {
	m := newTestManager(t)
	if err := m.CreateDatabase("d"); err != nil {
		t.Fatalf("CreateDatabase() error = %v", err)
	}
	if err := m.CreateTable("d", "t", 1); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if err := m.AddColumn("d", "t", "a"); err != nil {
		t.Fatalf("AddColumn(a) error = %v", err)
	}
	if err := m.Insert("d", "t", []int32{99}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	path := writeCSV(t, "d.t.a\n1\nnot-a-number\n3\n")

	loader := New(m)
	if _, err := loader.Load(path); err == nil {
		t.Fatal("Load() with malformed row should error")
	}

	table := m.Database().Table("t")
	if table.RowCount() != 1 {
		t.Fatalf("RowCount() after failed load = %d, want 1 (unchanged)", table.RowCount())
	}
	if table.Column("a").Data[0] != 99 {
		t.Fatalf("col a[0] after failed load = %d, want 99 (unchanged)", table.Column("a").Data[0])
	}
}

func TestParseHeader(t *testing.T) {
	db, table, cols, err := parseHeader([]string{"d.t.a", "d.t.b", "d.t.c"})
	if err != nil {
		t.Fatalf("parseHeader() error = %v", err)
	}
	if db != "d" || table != "t" {
		t.Fatalf("parseHeader() db=%q table=%q, want d/t", db, table)
	}
	if len(cols) != 3 || cols[0] != "a" || cols[2] != "c" {
		t.Fatalf("parseHeader() cols = %v", cols)
	}

	if _, _, _, err := parseHeader([]string{"d.t.a", "d.other.b"}); err == nil {
		t.Fatal("parseHeader() should reject mixed tables")
	}
	if _, _, _, err := parseHeader([]string{"not-dotted"}); err == nil {
		t.Fatal("parseHeader() should reject malformed column spec")
	}
}
