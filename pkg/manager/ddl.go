package manager

import (
	"fmt"
	"os"

	"github.com/cuemby/coldb/pkg/events"
	"github.com/cuemby/coldb/pkg/index"
	"github.com/cuemby/coldb/pkg/storage"
	"github.com/cuemby/coldb/pkg/types"
)

// CreateDatabase replaces any active database with a new empty one
// (spec.md §6.1 create(db,"N")). A prior database's column stores are
// closed; its on-disk column files are orphaned under the data directory
// rather than deleted, since the DSL has no drop operation.
func (m *Manager) CreateDatabase(name string) error {
	if len(name) == 0 || len(name) > types.MaxNameLength {
		return fmt.Errorf("database name must be 1..%d bytes", types.MaxNameLength)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.stores {
		_ = s.Close()
	}
	m.stores = make(map[string]storage.ColumnStore)

	if err := m.catalog.ResetTables(); err != nil {
		return fmt.Errorf("reset table catalog: %w", err)
	}
	if err := m.catalog.SaveDatabase(storage.DatabaseRecord{Name: name}); err != nil {
		return fmt.Errorf("save database record: %w", err)
	}

	m.db = types.NewDatabase(name)
	m.events.Publish(&events.Event{Type: events.EventDatabaseCreated, Message: "database " + name + " created"})
	return nil
}

// CreateTable adds a table with the given column capacity to the active
// database (spec.md §6.1 create(tbl,"N",db,k)).
func (m *Manager) CreateTable(dbName, tableName string, columnCapacity int) error {
	if columnCapacity <= 0 {
		return fmt.Errorf("column capacity must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireDatabaseLocked(dbName); err != nil {
		return err
	}
	if m.db.Table(tableName) != nil {
		return fmt.Errorf("table %q already exists", tableName)
	}

	table := types.NewTable(tableName, columnCapacity)
	if err := m.db.AddTable(table); err != nil {
		return err
	}

	if err := m.catalog.SaveTable(tableRecord(table)); err != nil {
		return fmt.Errorf("save table record: %w", err)
	}
	m.events.Publish(&events.Event{Type: events.EventTableCreated, Message: "table " + tableName + " created"})
	return nil
}

// AddColumn appends a column to an existing table (spec.md §6.1
// create(col,"N",db.tbl)) and opens its backing mapped file at the
// table's current row capacity, or 1 if the table is still empty.
func (m *Manager) AddColumn(dbName, tableName, colName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireDatabaseLocked(dbName); err != nil {
		return err
	}
	table := m.db.Table(tableName)
	if table == nil {
		return fmt.Errorf("table %q not found", tableName)
	}
	if table.Column(colName) != nil {
		return fmt.Errorf("column %q already exists on table %q", colName, tableName)
	}

	capacity := table.Capacity()
	if capacity == 0 {
		capacity = 1
	}

	if _, err := m.layout.TableColumnsDir(tableName); err != nil {
		return fmt.Errorf("create column directory: %w", err)
	}

	col := types.NewColumn(colName)
	store := storage.NewMmapColumnStore(m.layout.ColumnDataPath(tableName, colName))
	if err := store.Open(capacity); err != nil {
		return fmt.Errorf("open column store: %w", err)
	}
	col.Data = store.Data()

	if err := table.AddColumn(col); err != nil {
		store.Close()
		return err
	}
	m.stores[storeKey(tableName, colName)] = store

	if err := m.catalog.SaveTable(tableRecord(table)); err != nil {
		return fmt.Errorf("save table record: %w", err)
	}
	m.events.Publish(&events.Event{Type: events.EventColumnCreated, Message: "column " + tableName + "." + colName + " created"})
	return nil
}

// MarkIndex flags a column for indexing (spec.md §6.1 create(idx,...)).
// Per spec.md §4.3/§4.4, the index structure itself is only materialized
// once data exists: RebuildIndexes does that after a bulk load, not here.
// relational_insert does not call RebuildIndexes.
func (m *Manager) MarkIndex(dbName, tableName, colName string, kind types.IndexKind, clustered bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireDatabaseLocked(dbName); err != nil {
		return err
	}
	table := m.db.Table(tableName)
	if table == nil {
		return fmt.Errorf("table %q not found", tableName)
	}
	col := table.Column(colName)
	if col == nil {
		return fmt.Errorf("column %q not found", colName)
	}
	if clustered && table.ClusteredColumn != "" && table.ClusteredColumn != colName {
		return fmt.Errorf("table %q already has clustered column %q", tableName, table.ClusteredColumn)
	}

	switch kind {
	case types.IndexSorted:
		col.Sorted = true
	case types.IndexBTree:
		col.HasBTree = true
	}
	if clustered {
		col.Clustered = true
		table.ClusteredColumn = colName
	}

	return m.catalog.SaveTable(tableRecord(table))
}

// Insert appends one row across every column of a table (spec.md §6.1
// relational_insert), doubling each column's backing capacity when the
// table is already full (spec.md §4.1 Grow, §3 Lifecycle).
func (m *Manager) Insert(dbName, tableName string, values []int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireDatabaseLocked(dbName); err != nil {
		return err
	}
	table := m.db.Table(tableName)
	if table == nil {
		return fmt.Errorf("table %q not found", tableName)
	}
	if len(values) != len(table.Columns) {
		return fmt.Errorf("table %q has %d columns, got %d values", tableName, len(table.Columns), len(values))
	}

	n, capacity := table.RowCount(), table.Capacity()
	if n >= capacity {
		newCapacity := capacity * 2
		if newCapacity == 0 {
			newCapacity = 1
		}
		if err := m.layout.CheckFreeSpace(int64(newCapacity) * int64(len(table.Columns)) * 4); err != nil {
			return err
		}
		for _, col := range table.Columns {
			store := m.stores[storeKey(tableName, col.Name)]
			if err := store.Grow(newCapacity); err != nil {
				return fmt.Errorf("grow column %q: %w", col.Name, err)
			}
			col.Data = store.Data()
		}
		capacity = newCapacity
	}

	for i, col := range table.Columns {
		col.Data[n] = values[i]
	}
	table.SetExtent(n+1, capacity)

	m.events.Publish(&events.Event{Type: events.EventRowsInserted, Message: fmt.Sprintf("1 row inserted into %s", tableName)})
	return nil
}

// BulkInsert appends every row in rows to a table in one pass, growing each
// column's backing store exactly once to the total new extent (spec.md §7:
// "errors during load abort the load but leave the table in its prior
// consistent state, achieved by staging rows before mapping" — rows is the
// staged, fully-validated batch; BulkInsert itself only ever grows and
// writes, so a caller that fully parses its input before calling this
// never leaves the table partially loaded).
func (m *Manager) BulkInsert(dbName, tableName string, rows [][]int32) error {
	if len(rows) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireDatabaseLocked(dbName); err != nil {
		return err
	}
	table := m.db.Table(tableName)
	if table == nil {
		return fmt.Errorf("table %q not found", tableName)
	}
	for i, row := range rows {
		if len(row) != len(table.Columns) {
			return fmt.Errorf("row %d: table %q has %d columns, got %d values", i, tableName, len(table.Columns), len(row))
		}
	}

	n, capacity := table.RowCount(), table.Capacity()
	needed := n + len(rows)
	if needed > capacity {
		newCapacity := capacity
		if newCapacity == 0 {
			newCapacity = 1
		}
		for newCapacity < needed {
			newCapacity *= 2
		}
		if err := m.layout.CheckFreeSpace(int64(newCapacity) * int64(len(table.Columns)) * 4); err != nil {
			return err
		}
		for _, col := range table.Columns {
			store := m.stores[storeKey(tableName, col.Name)]
			if err := store.Grow(newCapacity); err != nil {
				return fmt.Errorf("grow column %q: %w", col.Name, err)
			}
			col.Data = store.Data()
		}
		capacity = newCapacity
	}

	for i, row := range rows {
		for c, col := range table.Columns {
			col.Data[n+i] = row[c]
		}
	}
	table.SetExtent(n+len(rows), capacity)

	m.events.Publish(&events.Event{Type: events.EventBulkLoadDone, Message: fmt.Sprintf("%d rows loaded into %s", len(rows), tableName)})
	return nil
}

// RebuildIndexes (re)builds the sorted index, histogram, and B+-tree for
// every column of a table marked for indexing, against the table's
// current data (spec.md §4.3: indexes are built once, after data is
// loaded, not incrementally on every insert).
func (m *Manager) RebuildIndexes(dbName, tableName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireDatabaseLocked(dbName); err != nil {
		return err
	}
	table := m.db.Table(tableName)
	if table == nil {
		return fmt.Errorf("table %q not found", tableName)
	}

	n := table.RowCount()
	for _, col := range table.Columns {
		if !col.Sorted && !col.HasBTree {
			continue
		}

		if col.Clustered {
			permuteClusteredInPlace(table, col)
			col.Histogram = index.BuildHistogram(col.Data[:n])
			if col.HasBTree {
				positions := make([]int64, n)
				for i := range positions {
					positions[i] = int64(i)
				}
				col.BTree = index.BuildBTree(append([]int32(nil), col.Data[:n]...), positions, index.FanoutDefault, true)
			}
			continue
		}

		sortedIdx := index.BuildSorted(col.Data[:n])
		col.Index = sortedIdx
		col.Histogram = index.BuildHistogram(sortedIdx.Values)
		if err := m.persistSortedIndex(tableName, col.Name, sortedIdx); err != nil {
			return err
		}
		if col.HasBTree {
			col.BTree = index.BuildBTree(append([]int32(nil), sortedIdx.Values...), sortedIdx.Positions, index.FanoutDefault, false)
			if err := m.persistBTree(tableName, col.Name, col.BTree); err != nil {
				return err
			}
		}
	}

	if err := m.catalog.SaveTable(tableRecord(table)); err != nil {
		return fmt.Errorf("save table record: %w", err)
	}
	m.events.Publish(&events.Event{Type: events.EventIndexBuilt, Message: "indexes rebuilt for " + tableName})
	return nil
}

// permuteClusteredInPlace reorders every column of table so the clustered
// column's data is physically sorted ascending, preserving tuple
// alignment (spec.md §3: "every other column in the same table is
// re-permuted to match").
func permuteClusteredInPlace(table *types.Table, clustered *types.Column) {
	n := table.RowCount()
	sortedIdx := index.BuildSorted(clustered.Data[:n])

	for _, col := range table.Columns {
		src := append([]int32(nil), col.Data[:n]...)
		for newPos, oldPos := range sortedIdx.Positions {
			col.Data[newPos] = src[oldPos]
		}
	}
}

func (m *Manager) persistSortedIndex(table, col string, idx *types.SortedIndex) error {
	f, err := os.Create(m.layout.ColumnIndexPath(table, col))
	if err != nil {
		return fmt.Errorf("create sorted index file: %w", err)
	}
	defer f.Close()
	return index.WriteSortedIndex(f, idx)
}

func (m *Manager) persistBTree(table, col string, bt *types.BTree) error {
	if _, err := m.layout.TableBTreeDir(table); err != nil {
		return fmt.Errorf("create btree directory: %w", err)
	}
	f, err := os.Create(m.layout.ColumnBTreePath(table, col))
	if err != nil {
		return fmt.Errorf("create btree file: %w", err)
	}
	defer f.Close()
	return index.WriteBTree(f, bt)
}

// requireDatabaseLocked validates dbName against the active database.
// Callers must hold m.mu.
func (m *Manager) requireDatabaseLocked(dbName string) error {
	if m.db == nil {
		return fmt.Errorf("no active database")
	}
	if dbName != "" && dbName != m.db.Name {
		return fmt.Errorf("database %q is not active", dbName)
	}
	return nil
}

func tableRecord(t *types.Table) storage.TableRecord {
	rec := storage.TableRecord{
		Name:            t.Name,
		ColumnCapacity:  t.ColumnCapacity,
		RowCount:        t.RowCount(),
		Capacity:        t.Capacity(),
		ClusteredColumn: t.ClusteredColumn,
	}
	for _, c := range t.Columns {
		rec.Columns = append(rec.Columns, storage.ColumnRecord{
			Name:      c.Name,
			Sorted:    c.Sorted,
			HasBTree:  c.HasBTree,
			Clustered: c.Clustered,
		})
	}
	return rec
}
