/*
Package bulkload implements the load("path") command: parsing a CSV file
into an existing table's columns in one staged, all-or-nothing pass.

The CSV header names db.tbl.col for every column of a single table; each
subsequent row is staged into an in-memory int32 tuple before any column
store is touched, so a malformed row aborts the load without disturbing
the table's prior state. A successful load always rebuilds the target
table's indexes, since sorted/B+-tree structures are only ever built in
bulk (spec.md §4.3).
*/
package bulkload
