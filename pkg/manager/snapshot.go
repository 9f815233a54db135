package manager

import (
	"fmt"

	"github.com/cuemby/coldb/pkg/events"
	"github.com/cuemby/coldb/pkg/storage"
)

// Snapshot flushes every column's mapped store to disk and persists the
// current catalog (database header and table records), so a restart's
// reload sees this data and schema (spec.md §4.2 "On load, the catalog is
// rebuilt" and §7 snapshot semantics). It writes no index files: those are
// written by RebuildIndexes when it builds them (the sorted index for every
// unclustered indexed column, the B+-tree for unclustered B+-tree columns);
// a clustered column's B+-tree is never written to disk.
func (m *Manager) Snapshot() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}

	for key, store := range m.stores {
		if err := store.Flush(); err != nil {
			return fmt.Errorf("flush column store %s: %w", key, err)
		}
	}

	if err := m.catalog.SaveDatabase(storage.DatabaseRecord{Name: m.db.Name}); err != nil {
		return fmt.Errorf("save database record: %w", err)
	}
	for _, table := range m.db.Tables {
		if err := m.catalog.SaveTable(tableRecord(table)); err != nil {
			return fmt.Errorf("save table record %q: %w", table.Name, err)
		}
	}

	m.events.Publish(&events.Event{Type: events.EventSnapshotDone, Message: "snapshot completed"})
	return nil
}
