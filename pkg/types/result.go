package types

import (
	"fmt"
	"sync"
)

// ElementType tags the payload carried by a Result. Go's type system
// already distinguishes the four payload slices at compile time; ElementType
// lets executors and the wire layer agree on a type at runtime without a
// type switch on the payload itself (Design Note: "Untyped Result union ->
// tagged variant").
type ElementType int

const (
	TypeI32 ElementType = iota
	TypeI64
	TypeF32
	TypeF64
	// TypePos is an int64 position vector: a Result of this type holds row
	// indices, not column values.
	TypePos
)

func (t ElementType) String() string {
	switch t {
	case TypeI32:
		return "int32"
	case TypeI64:
		return "int64"
	case TypeF32:
		return "float32"
	case TypeF64:
		return "float64"
	case TypePos:
		return "position"
	default:
		return "unknown"
	}
}

// Result is an immutable, typed intermediate value produced by a select,
// fetch, or aggregate operator and consumed by later operators in the same
// connection (spec.md §3, "Result (intermediate)"). Exactly one of the
// payload fields is populated, selected by Type.
type Result struct {
	Type ElementType

	I32 []int32
	I64 []int64
	F32 []float32
	F64 []float64
	Pos []int64 // row positions; populated when Type == TypePos
}

// Len returns the tuple count of the result, regardless of payload type.
func (r *Result) Len() int {
	switch r.Type {
	case TypeI32:
		return len(r.I32)
	case TypeI64:
		return len(r.I64)
	case TypeF32:
		return len(r.F32)
	case TypeF64:
		return len(r.F64)
	case TypePos:
		return len(r.Pos)
	default:
		return 0
	}
}

// At renders tuple i as a formatted scalar, used by print().
func (r *Result) At(i int) string {
	switch r.Type {
	case TypeI32:
		return fmt.Sprintf("%d", r.I32[i])
	case TypeI64, TypePos:
		if r.Type == TypePos {
			return fmt.Sprintf("%d", r.Pos[i])
		}
		return fmt.Sprintf("%d", r.I64[i])
	case TypeF32:
		return fmt.Sprintf("%g", r.F32[i])
	case TypeF64:
		return fmt.Sprintf("%g", r.F64[i])
	default:
		return ""
	}
}

// ClientContext is the per-connection store of name -> Result. Re-inserting
// an already-present name replaces it; the prior Result is dropped (spec.md
// §9 open question, resolved in favor of the simpler, invariant-consistent
// reading: one entry per name, never an accumulating list).
type ClientContext struct {
	mu      sync.Mutex
	results map[string]*Result

	// Batch state machine, spec.md §4.11.
	batch *BatchState
}

func NewClientContext() *ClientContext {
	return &ClientContext{
		results: make(map[string]*Result, ContextCapacityHint),
	}
}

// Put stores (or replaces) the result under name. The length of name is
// not checked against MaxNameLength, here or by the statement parser.
func (c *ClientContext) Put(name string, r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[name] = r
}

func (c *ClientContext) Get(name string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[name]
	return r, ok
}
