// Package storage implements coldb's on-disk representation: memory-mapped
// column files, the data-directory layout, and the bbolt-backed catalog
// that persists database/table/column/index metadata across restarts.
package storage

// ColumnStore abstracts the mapped fixed-width array backing one column
// (spec.md §4.1, Design Note "mmap of a file column -> explicit storage
// trait"). The mmap-backed implementation is the production path;
// MemColumnStore is an in-memory implementation with no backing file.
type ColumnStore interface {
	// Open ensures the backing file exists with room for at least len
	// int32 elements and maps it.
	Open(len int) error

	// Grow extends the backing storage to newLen int32 elements,
	// unmapping and remapping as needed. Every slice previously returned
	// by Data is invalidated.
	Grow(newLen int) error

	// Data returns a view over the mapped region. Writers mutate the
	// slice in place; readers see the latest mutation (spec.md §4.1: no
	// snapshot isolation).
	Data() []int32

	// Flush synchronously writes dirty pages back to the backing file.
	Flush() error

	// Close unmaps and releases the backing file.
	Close() error

	// Len reports the current capacity in int32 elements.
	Len() int
}
