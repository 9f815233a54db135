// Package client is a small Go client library for coldb's Unix-domain-
// socket DSL protocol (spec.md §6.1): Dial a socket, Exec a statement,
// read back its status and body. A handful of convenience methods
// (CreateDatabase, CreateTable, Insert, Load, Shutdown) wrap the common
// statements so callers don't have to hand-format the DSL themselves;
// anything else can be sent with Exec directly.
//
// The client holds one connection and serializes statements through it:
// the protocol has no statement IDs to demultiplex concurrent replies, so
// concurrent callers of the same *Client block on the same mutex rather
// than racing on the wire.
package client
