// Package types defines the data model shared across coldb's storage,
// index, planner, executor, and scheduler packages: databases, tables,
// columns, indexes, and the tagged intermediate result that flows between
// executors.
package types

import (
	"fmt"
	"sync"
)

// MaxNameLength is the longest name (database, table, column, or context
// handle) coldb accepts, matching the original engine's MAX_SIZE_NAME.
const MaxNameLength = 63

// ContextCapacityHint sizes the initial bucket count of a new
// ClientContext's result map. It is a hint, not a hard cap.
const ContextCapacityHint = 103

// NumHistogramBins is the fixed bin count of every column histogram.
const NumHistogramBins = 64

// IndexKind distinguishes a sorted projection index from a B+-tree index.
type IndexKind int

const (
	IndexNone IndexKind = iota
	IndexSorted
	IndexBTree
)

// Database is the single active database. At most one exists at a time
// (spec.md §3): creating a new one snapshots and discards the old.
type Database struct {
	mu     sync.RWMutex
	Name   string
	Tables []*Table
}

func NewDatabase(name string) *Database {
	return &Database{Name: name}
}

// Table returns the table with the given name, or nil.
func (d *Database) Table(name string) *Table {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, t := range d.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (d *Database) AddTable(t *Table) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.Tables {
		if existing.Name == t.Name {
			return fmt.Errorf("table %q already exists in database %q", t.Name, d.Name)
		}
	}
	d.Tables = append(d.Tables, t)
	return nil
}

// Table holds an ordered sequence of columns that all share the same
// logical row count N and physical capacity C (spec.md §3).
type Table struct {
	mu sync.RWMutex

	Name           string
	Columns        []*Column
	ColumnCapacity int // k: number of columns this table was created with

	rowCount int // N
	capacity int // C, >= rowCount

	// ClusteredColumn is the name of the single column re-permuted to
	// physical order, or "" if the table has no clustered index.
	ClusteredColumn string
}

func NewTable(name string, columnCapacity int) *Table {
	return &Table{Name: name, ColumnCapacity: columnCapacity}
}

func (t *Table) Column(name string) *Column {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (t *Table) AddColumn(c *Column) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Columns) >= t.ColumnCapacity {
		return fmt.Errorf("table %q already has its full %d columns", t.Name, t.ColumnCapacity)
	}
	for _, existing := range t.Columns {
		if existing.Name == c.Name {
			return fmt.Errorf("column %q already exists in table %q", c.Name, t.Name)
		}
	}
	c.Table = t
	t.Columns = append(t.Columns, c)
	return nil
}

func (t *Table) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rowCount
}

func (t *Table) Capacity() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.capacity
}

// SetExtent is called by storage after a successful insert or grow so every
// column of the table keeps identical logical length and capacity
// (spec.md §3 invariant).
func (t *Table) SetExtent(rowCount, capacity int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rowCount = rowCount
	t.capacity = capacity
}

// Column is a fixed-width int32 array backed by a ColumnStore, plus
// whatever indexing structures have been built over it.
type Column struct {
	Name  string
	Table *Table

	Sorted    bool
	HasBTree  bool
	Clustered bool

	Index     *SortedIndex
	BTree     *BTree
	Histogram *Histogram

	// Data is the column's current mapped view, refreshed by pkg/storage
	// whenever the backing ColumnStore is opened or grown (spec.md §4.1:
	// "exposes a typed random-access view data[0..N)"). Its length is the
	// column's physical capacity C; only Table.RowCount() elements are
	// logically valid.
	Data []int32
}

func NewColumn(name string) *Column {
	return &Column{Name: name}
}

// IndexKind reports which structure (if any) backs range lookups on this
// column.
func (c *Column) IndexKind() IndexKind {
	switch {
	case c.HasBTree:
		return IndexBTree
	case c.Sorted && c.Index != nil:
		return IndexSorted
	default:
		return IndexNone
	}
}
