package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabase_AddTable(t *testing.T) {
	db := NewDatabase("mydb")
	require.NoError(t, db.AddTable(NewTable("t1", 2)))
	assert.NotNil(t, db.Table("t1"))
	assert.Nil(t, db.Table("nope"))
}

func TestDatabase_AddTable_DuplicateNameErrors(t *testing.T) {
	db := NewDatabase("mydb")
	require.NoError(t, db.AddTable(NewTable("t1", 2)))
	err := db.AddTable(NewTable("t1", 2))
	assert.Error(t, err)
}

func TestTable_AddColumn(t *testing.T) {
	tbl := NewTable("t", 2)
	require.NoError(t, tbl.AddColumn(NewColumn("a")))
	require.NoError(t, tbl.AddColumn(NewColumn("b")))
	assert.NotNil(t, tbl.Column("a"))
	assert.Same(t, tbl, tbl.Column("a").Table)
}

func TestTable_AddColumn_DuplicateNameErrors(t *testing.T) {
	tbl := NewTable("t", 2)
	require.NoError(t, tbl.AddColumn(NewColumn("a")))
	assert.Error(t, tbl.AddColumn(NewColumn("a")))
}

func TestTable_AddColumn_OverCapacityErrors(t *testing.T) {
	tbl := NewTable("t", 1)
	require.NoError(t, tbl.AddColumn(NewColumn("a")))
	assert.Error(t, tbl.AddColumn(NewColumn("b")))
}

func TestTable_SetExtent(t *testing.T) {
	tbl := NewTable("t", 1)
	tbl.SetExtent(5, 8)
	assert.Equal(t, 5, tbl.RowCount())
	assert.Equal(t, 8, tbl.Capacity())
}

func TestColumn_IndexKind(t *testing.T) {
	col := &Column{}
	assert.Equal(t, IndexNone, col.IndexKind())

	col.Sorted = true
	col.Index = &SortedIndex{}
	assert.Equal(t, IndexSorted, col.IndexKind())

	col.HasBTree = true
	assert.Equal(t, IndexBTree, col.IndexKind())
}
