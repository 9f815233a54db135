// Package snapshot runs coldb's periodic background snapshot cycle. It is
// an additive safety net on top of the strict on-shutdown/on-create
// snapshot requirement, not a substitute for it: those call
// (*manager.Manager).Snapshot synchronously from pkg/api, while
// Snapshotter paces an opportunistic extra snapshot between them so a
// crash loses at most one interval's writes.
package snapshot
