package storage

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"
)

const int32Size = 4

// MmapColumnStore maps a column's backing file read-write, the way
// AKJUS-bsc-erigon maps its segment files with the same mmap-go library.
// Growth follows spec.md §4.1: unmap, truncate the file to the new
// capacity, remap.
type MmapColumnStore struct {
	path string
	file *os.File
	mm   mmap.MMap
	view []int32
}

// NewMmapColumnStore returns a store backed by the file at path. Open must
// be called before use.
func NewMmapColumnStore(path string) *MmapColumnStore {
	return &MmapColumnStore{path: path}
}

func (s *MmapColumnStore) Open(length int) error {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open column file %q: %w", s.path, err)
	}
	s.file = f
	if err := s.mapLength(length); err != nil {
		f.Close()
		return err
	}
	return nil
}

// mapLength truncates the backing file to length int32 elements (at least
// one, since a zero-length mmap is invalid) and (re)maps it.
func (s *MmapColumnStore) mapLength(length int) error {
	if length < 1 {
		length = 1
	}
	size := int64(length) * int32Size

	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat column file %q: %w", s.path, err)
	}
	if info.Size() < size {
		if err := s.file.Truncate(size); err != nil {
			return fmt.Errorf("failed to truncate column file %q: %w", s.path, err)
		}
	}

	m, err := mmap.MapRegion(s.file, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to mmap column file %q: %w", s.path, err)
	}
	s.mm = m
	s.view = unsafe.Slice((*int32)(unsafe.Pointer(&m[0])), length)
	return nil
}

func (s *MmapColumnStore) Grow(newLen int) error {
	if newLen <= len(s.view) {
		return nil
	}
	if s.mm != nil {
		if err := s.mm.Unmap(); err != nil {
			return fmt.Errorf("failed to unmap column file %q during grow: %w", s.path, err)
		}
	}
	return s.mapLength(newLen)
}

func (s *MmapColumnStore) Data() []int32 { return s.view }

func (s *MmapColumnStore) Flush() error {
	if s.mm == nil {
		return nil
	}
	if err := s.mm.Flush(); err != nil {
		return fmt.Errorf("failed to flush column file %q: %w", s.path, err)
	}
	return nil
}

func (s *MmapColumnStore) Close() error {
	if s.mm != nil {
		if err := s.mm.Unmap(); err != nil {
			return fmt.Errorf("failed to unmap column file %q: %w", s.path, err)
		}
		s.mm = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return fmt.Errorf("failed to close column file %q: %w", s.path, err)
		}
	}
	return nil
}

func (s *MmapColumnStore) Len() int { return len(s.view) }
