/*
Package events provides an in-memory, non-blocking pub/sub broker used to
notify subscribers (the API layer, metrics, tests) of catalog lifecycle
events: database/table/column creation, index builds, bulk loads, and
snapshots.

A Broker must be Start()ed before Publish delivers anything and Stop()ped
on shutdown; Subscribe returns a buffered channel that silently drops
events if the subscriber falls behind.
*/
package events
