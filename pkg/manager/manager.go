package manager

import (
	"fmt"
	"os"
	"sync"

	"github.com/cuemby/coldb/pkg/config"
	"github.com/cuemby/coldb/pkg/events"
	"github.com/cuemby/coldb/pkg/index"
	"github.com/cuemby/coldb/pkg/log"
	"github.com/cuemby/coldb/pkg/storage"
	"github.com/cuemby/coldb/pkg/types"
	"github.com/rs/zerolog"
)

// Manager owns the single active Database, the bbolt-backed catalog that
// persists it, and one ColumnStore per column.
type Manager struct {
	mu sync.RWMutex

	cfg     config.Config
	layout  *storage.Layout
	catalog *storage.Catalog
	logger  zerolog.Logger
	events  *events.Broker

	db     *types.Database
	stores map[string]storage.ColumnStore // "table.column" -> store
}

// New opens (or creates) the on-disk catalog under cfg.DataDir and
// reconstructs the in-memory Database from it, if one was previously
// persisted (spec.md §4.2, "On load, the catalog is rebuilt").
func New(cfg config.Config) (*Manager, error) {
	layout := storage.NewLayout(cfg.DataDir)
	catalog, err := storage.OpenCatalog(layout)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	broker := events.NewBroker()
	broker.Start()

	m := &Manager{
		cfg:     cfg,
		layout:  layout,
		catalog: catalog,
		logger:  log.WithComponent("manager"),
		events:  broker,
		stores:  make(map[string]storage.ColumnStore),
	}

	if err := m.reload(); err != nil {
		broker.Stop()
		catalog.Close()
		return nil, fmt.Errorf("reload catalog: %w", err)
	}

	return m, nil
}

// EventBroker exposes the manager's event broker to subscribers (pkg/api).
func (m *Manager) EventBroker() *events.Broker { return m.events }

// Close flushes and releases every open column store and the catalog
// handles. Callers that want a final persisted snapshot should call
// Snapshot first.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for _, s := range m.stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.events.Stop()
	if err := m.catalog.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// reload rebuilds m.db and every column's mapped store from the persisted
// catalog. Called once at startup.
func (m *Manager) reload() error {
	dbRec, ok, err := m.catalog.LoadDatabase()
	if err != nil {
		return fmt.Errorf("load database record: %w", err)
	}
	if !ok {
		return nil
	}

	db := types.NewDatabase(dbRec.Name)
	tableRecs, err := m.catalog.ListTables()
	if err != nil {
		return fmt.Errorf("list table records: %w", err)
	}

	for _, tr := range tableRecs {
		table := types.NewTable(tr.Name, tr.ColumnCapacity)
		table.ClusteredColumn = tr.ClusteredColumn
		table.SetExtent(tr.RowCount, tr.Capacity)

		for _, cr := range tr.Columns {
			col := types.NewColumn(cr.Name)
			col.Sorted = cr.Sorted
			col.HasBTree = cr.HasBTree
			col.Clustered = cr.Clustered

			store := storage.NewMmapColumnStore(m.layout.ColumnDataPath(tr.Name, cr.Name))
			if err := store.Open(tr.Capacity); err != nil {
				return fmt.Errorf("open column %s.%s: %w", tr.Name, cr.Name, err)
			}
			col.Data = store.Data()
			m.stores[storeKey(tr.Name, cr.Name)] = store

			if err := table.AddColumn(col); err != nil {
				return err
			}
			if err := m.reloadIndexes(tr.Name, col); err != nil {
				return err
			}
		}

		if err := db.AddTable(table); err != nil {
			return err
		}
	}

	m.db = db
	return nil
}

// reloadIndexes reads back a column's persisted sorted index and/or
// B+-tree. Histograms are never persisted (spec.md §6.2 lists no histogram
// file): they're cheap to recompute from the reloaded data, so reload
// rebuilds one whenever the column carries any index structure at all.
func (m *Manager) reloadIndexes(table string, col *types.Column) error {
	if (col.Sorted || col.HasBTree) && !col.Clustered {
		if f, err := os.Open(m.layout.ColumnIndexPath(table, col.Name)); err == nil {
			idx, rerr := index.ReadSortedIndex(f)
			f.Close()
			if rerr != nil {
				return fmt.Errorf("read sorted index for %s.%s: %w", table, col.Name, rerr)
			}
			col.Index = idx
			col.Histogram = index.BuildHistogram(idx.Values)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("open sorted index for %s.%s: %w", table, col.Name, err)
		}
	}
	if col.HasBTree {
		if f, err := os.Open(m.layout.ColumnBTreePath(table, col.Name)); err == nil {
			bt, rerr := index.ReadBTree(f)
			f.Close()
			if rerr != nil {
				return fmt.Errorf("read btree for %s.%s: %w", table, col.Name, rerr)
			}
			col.BTree = bt
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("open btree for %s.%s: %w", table, col.Name, err)
		}
	}
	if col.Clustered && (col.Sorted || col.HasBTree) && col.Histogram == nil {
		n := 0
		if col.Table != nil {
			n = col.Table.RowCount()
		}
		col.Histogram = index.BuildHistogram(col.Data[:n])
	}
	return nil
}

func storeKey(table, col string) string { return table + "." + col }

// Database returns the single active database, or nil if none has been
// created yet.
func (m *Manager) Database() *types.Database {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// TableRowCounts implements pkg/metrics.TableSource.
func (m *Manager) TableRowCounts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	if m.db == nil {
		return out
	}
	for _, t := range m.db.Tables {
		out[t.Name] = t.RowCount()
	}
	return out
}
