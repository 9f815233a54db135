package storage

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketDatabase = []byte("database")
	bucketTables   = []byte("tables")
)

// DatabaseRecord is the persisted header of the single active database
// (spec.md §4.2, database.metadata).
type DatabaseRecord struct {
	Name string `json:"name"`
}

// ColumnRecord is a column's persisted metadata; the column's actual int32
// payload lives in its own mapped file (spec.md §6.2).
type ColumnRecord struct {
	Name      string `json:"name"`
	Sorted    bool   `json:"sorted"`
	HasBTree  bool   `json:"has_btree"`
	Clustered bool   `json:"clustered"`
}

// TableRecord is a table's persisted metadata, concatenated with its
// column records in tables.metadata (spec.md §4.2).
type TableRecord struct {
	Name            string         `json:"name"`
	ColumnCapacity  int            `json:"column_capacity"`
	RowCount        int            `json:"row_count"`
	Capacity        int            `json:"capacity"`
	ClusteredColumn string         `json:"clustered_column"`
	Columns         []ColumnRecord `json:"columns"`
}

// Catalog persists the database header and table/column metadata across
// two bbolt files, matching spec.md §4.2's two-flat-file layout; the
// on-disk representation is explicitly not a stable external format
// (spec.md §6.2), so JSON records inside bbolt buckets satisfy the same
// rebuild contract as hand-rolled fixed-width records.
type Catalog struct {
	dbMeta     *bolt.DB
	tablesMeta *bolt.DB
}

// OpenCatalog opens (creating if absent) database.metadata and
// tables.metadata under layout.DataDir.
func OpenCatalog(layout *Layout) (*Catalog, error) {
	if err := layout.Ensure(); err != nil {
		return nil, err
	}

	dbMeta, err := bolt.Open(layout.DatabaseMetadataPath(), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open database.metadata: %w", err)
	}
	if err := dbMeta.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDatabase)
		return err
	}); err != nil {
		dbMeta.Close()
		return nil, fmt.Errorf("init database.metadata: %w", err)
	}

	tablesMeta, err := bolt.Open(layout.TablesMetadataPath(), 0600, nil)
	if err != nil {
		dbMeta.Close()
		return nil, fmt.Errorf("open tables.metadata: %w", err)
	}
	if err := tablesMeta.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTables)
		return err
	}); err != nil {
		dbMeta.Close()
		tablesMeta.Close()
		return nil, fmt.Errorf("init tables.metadata: %w", err)
	}

	return &Catalog{dbMeta: dbMeta, tablesMeta: tablesMeta}, nil
}

func (c *Catalog) Close() error {
	err1 := c.dbMeta.Close()
	err2 := c.tablesMeta.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// SaveDatabase overwrites the single database header record.
func (c *Catalog) SaveDatabase(rec DatabaseRecord) error {
	return c.dbMeta.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDatabase)
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte("current"), data)
	})
}

// ResetTables discards every persisted table record. Callers use this when
// create(db,…) replaces the active database (spec.md §3: "at most one
// database exists at a time... creating a new one snapshots and discards
// the old").
func (c *Catalog) ResetTables() error {
	return c.tablesMeta.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketTables); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketTables)
		return err
	})
}

// LoadDatabase returns the persisted database header, or ok=false if none
// has been saved yet.
func (c *Catalog) LoadDatabase() (rec DatabaseRecord, ok bool, err error) {
	err = c.dbMeta.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDatabase)
		data := b.Get([]byte("current"))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &rec)
	})
	return rec, ok, err
}

// SaveTable upserts a table's metadata record, keyed by name.
func (c *Catalog) SaveTable(rec TableRecord) error {
	return c.tablesMeta.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTables)
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(rec.Name), data)
	})
}

// ListTables returns every persisted table record.
func (c *Catalog) ListTables() ([]TableRecord, error) {
	var records []TableRecord
	err := c.tablesMeta.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTables)
		return b.ForEach(func(_, v []byte) error {
			var rec TableRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}
