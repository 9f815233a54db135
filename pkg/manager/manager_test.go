package manager

import (
	"testing"

	"github.com/cuemby/coldb/pkg/config"
	"github.com/cuemby/coldb/pkg/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManager_CreateDatabaseTableColumn(t *testing.T) {
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

	table := m.Database().Table("t")
	if table == nil {
		t.Fatal("table t not found after creation")
	}
	if len(table.Columns) != 2 {
		t.Fatalf("len(table.Columns) = %d, want 2", len(table.Columns))
	}

	if err := m.AddColumn("d", "t", "a"); err == nil {
		t.Fatal("AddColumn() with duplicate name should error")
	}
}

func TestManager_InsertGrowsCapacity(t *testing.T) {
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

	rows := [][]int32{{1, 10}, {2, 20}, {3, 30}, {4, 40}}
	for _, row := range rows {
		if err := m.Insert("d", "t", row); err != nil {
			t.Fatalf("Insert(%v) error = %v", row, err)
		}
	}

	table := m.Database().Table("t")
	if table.RowCount() != len(rows) {
		t.Fatalf("RowCount() = %d, want %d", table.RowCount(), len(rows))
	}
	if table.Capacity() < len(rows) {
		t.Fatalf("Capacity() = %d, want >= %d", table.Capacity(), len(rows))
	}

	colA := table.Column("a")
	for i, row := range rows {
		if colA.Data[i] != row[0] {
			t.Errorf("col a[%d] = %d, want %d", i, colA.Data[i], row[0])
		}
	}
}

func TestManager_RebuildIndexesSortedAndClustered(t *testing.T) {
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
	if err := m.MarkIndex("d", "t", "a", types.IndexSorted, true); err != nil {
		t.Fatalf("MarkIndex(a) error = %v", err)
	}

	rows := [][]int32{{3, 30}, {1, 10}, {2, 20}}
	if err := m.BulkInsert("d", "t", rows); err != nil {
		t.Fatalf("BulkInsert() error = %v", err)
	}
	if err := m.RebuildIndexes("d", "t"); err != nil {
		t.Fatalf("RebuildIndexes() error = %v", err)
	}

	table := m.Database().Table("t")
	colA := table.Column("a")
	colB := table.Column("b")
	wantA := []int32{1, 2, 3}
	wantB := []int32{10, 20, 30}
	for i := range wantA {
		if colA.Data[i] != wantA[i] {
			t.Errorf("col a[%d] = %d, want %d", i, colA.Data[i], wantA[i])
		}
		if colB.Data[i] != wantB[i] {
			t.Errorf("col b[%d] = %d, want %d", i, colB.Data[i], wantB[i])
		}
	}
	if colA.Histogram == nil {
		t.Error("Histogram not built for clustered column")
	}
}

func TestManager_SnapshotAndReload(t *testing.T) {
	dataDir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = dataDir

	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := m.CreateDatabase("d"); err != nil {
		t.Fatalf("CreateDatabase() error = %v", err)
	}
	if err := m.CreateTable("d", "t", 1); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if err := m.AddColumn("d", "t", "a"); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	if err := m.Insert("d", "t", []int32{42}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := m.Snapshot(); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	m2, err := New(cfg)
	if err != nil {
		t.Fatalf("New() (reload) error = %v", err)
	}
	defer m2.Close()

	table := m2.Database().Table("t")
	if table == nil {
		t.Fatal("table t not found after reload")
	}
	if table.RowCount() != 1 {
		t.Fatalf("RowCount() after reload = %d, want 1", table.RowCount())
	}
	if table.Column("a").Data[0] != 42 {
		t.Fatalf("col a[0] after reload = %d, want 42", table.Column("a").Data[0])
	}
}
