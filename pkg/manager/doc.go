/*
Package manager is coldb's control plane: it owns the single active
Database, validates every catalog mutation (create database/table/column,
mark an index, insert a row) before delegating to pkg/storage and
pkg/index, and coordinates snapshotting and index maintenance so that
pkg/executor and pkg/join only ever see a consistent in-memory model.

There is no consensus layer here — coldb is explicitly single-node
(spec.md §1 Non-goals) — so Manager plays the role the teacher's raft-backed
manager played for cluster state, minus the replication.
*/
package manager
