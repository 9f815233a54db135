// Package api implements coldb's Unix-domain-socket DSL server: it
// accepts connections, hands each one a per-connection ClientContext, and
// dispatches every newline-delimited statement (spec.md §6.1) to the
// manager, executor, join, scheduler, and bulkload layers.
//
// A Server (server.go) owns the listener, bounded via
// golang.org/x/net/netutil.LimitListener, and spawns one goroutine per
// connection (spec.md §5). Each connection's dispatcher (dispatch.go)
// parses a line with pkg/wire, routes it by command name, and classifies
// the plain error any internal package returns into a client-facing
// types.Status — that classification is this package's job alone; every
// package it calls into stays free of client-facing status concerns.
// instrument (interceptor.go) wraps every dispatch with panic recovery and
// per-operation metrics/logging, the same cross-cutting role the teacher
// codebase's RPC interceptor played, minus the RPC.
//
// Replies are framed as a status line, zero or more body lines, and a
// lone "." terminator line — a small line-oriented protocol of this
// package's own design, since the wire format is explicitly left
// unspecified by the statement-level DSL (spec.md §1).
//
// HealthServer (health.go) exposes /health, /ready, and /metrics over a
// separate plain HTTP listener for operational probing.
package api
