package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Layout resolves the on-disk paths described in spec.md §6.2, adapted
// from the teacher's local volume driver (directory-per-resource,
// MkdirAll on demand, disk-space checks before growth).
type Layout struct {
	DataDir string
}

func NewLayout(dataDir string) *Layout {
	return &Layout{DataDir: dataDir}
}

// Ensure creates the data directory and its columns/ and btree/
// subdirectories.
func (l *Layout) Ensure() error {
	for _, dir := range []string{l.DataDir, l.columnsDir(), l.btreeDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}
	return nil
}

func (l *Layout) columnsDir() string { return filepath.Join(l.DataDir, "columns") }
func (l *Layout) btreeDir() string   { return filepath.Join(l.DataDir, "btree") }

// TableColumnsDir returns (and creates) columns/<table>/.
func (l *Layout) TableColumnsDir(table string) (string, error) {
	dir := filepath.Join(l.columnsDir(), table)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create column directory %q: %w", dir, err)
	}
	return dir, nil
}

// TableBTreeDir returns (and creates) btree/<table>/.
func (l *Layout) TableBTreeDir(table string) (string, error) {
	dir := filepath.Join(l.btreeDir(), table)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create btree directory %q: %w", dir, err)
	}
	return dir, nil
}

// ColumnDataPath is columns/<table>/<col>.data.
func (l *Layout) ColumnDataPath(table, col string) string {
	return filepath.Join(l.columnsDir(), table, col+".data")
}

// ColumnIndexPath is columns/<table>/<col>.idx, the unclustered sorted
// index's persisted (values, positions) payload.
func (l *Layout) ColumnIndexPath(table, col string) string {
	return filepath.Join(l.columnsDir(), table, col+".idx")
}

// ColumnBTreePath is btree/<table>/<col>.btree.
func (l *Layout) ColumnBTreePath(table, col string) string {
	return filepath.Join(l.btreeDir(), table, col+".btree")
}

func (l *Layout) DatabaseMetadataPath() string { return filepath.Join(l.DataDir, "database.metadata") }
func (l *Layout) TablesMetadataPath() string   { return filepath.Join(l.DataDir, "tables.metadata") }

// CheckFreeSpace errors if the filesystem holding DataDir has less than
// needed bytes free, checked before a column grow truncates its file
// further (spec.md §7: I/O errors during an operation should not corrupt
// prior state).
func (l *Layout) CheckFreeSpace(needed int64) error {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(l.DataDir, &stat); err != nil {
		return fmt.Errorf("failed to stat filesystem for %q: %w", l.DataDir, err)
	}
	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < needed {
		return fmt.Errorf("insufficient disk space: need %d bytes, have %d available", needed, available)
	}
	return nil
}
