package types

// BatchMode is the state of a ClientContext's batched-select pipeline
// (spec.md §4.11).
type BatchMode int

const (
	Normal BatchMode = iota
	Batching
	Draining
)

// BatchTask is one queued select operator: Run executes it and writes its
// result into the owning ClientContext under Name. Implemented by
// pkg/executor callers, invoked by pkg/scheduler's worker pool.
type BatchTask struct {
	Name string
	Run  func() (*Result, error)
}

// BatchState tracks a ClientContext's position in the batch state machine
// and the tasks queued since the last batch_queries. pkg/scheduler owns
// the worker pool that drains it; this struct only holds the queue itself
// so ClientContext stays free of a scheduler import.
type BatchState struct {
	Mode  BatchMode
	Queue []BatchTask
}

// EnterBatch transitions NORMAL -> BATCHING. Returns false if already
// batching (a protocol error at the call site).
func (c *ClientContext) EnterBatch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.batch != nil && c.batch.Mode != Normal {
		return false
	}
	c.batch = &BatchState{Mode: Batching}
	return true
}

// Mode reports the current batch state machine position.
func (c *ClientContext) Mode() BatchMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.batch == nil {
		return Normal
	}
	return c.batch.Mode
}

// Enqueue appends a task while BATCHING. Returns false if not batching.
func (c *ClientContext) Enqueue(task BatchTask) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.batch == nil || c.batch.Mode != Batching {
		return false
	}
	c.batch.Queue = append(c.batch.Queue, task)
	return true
}

// BeginDrain transitions BATCHING -> DRAINING and hands the queued tasks to
// the caller, clearing it from the context. Returns nil if not batching.
func (c *ClientContext) BeginDrain() []BatchTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.batch == nil || c.batch.Mode != Batching {
		return nil
	}
	c.batch.Mode = Draining
	tasks := c.batch.Queue
	c.batch.Queue = nil
	return tasks
}

// EndDrain transitions DRAINING -> NORMAL once all queued tasks have
// completed.
func (c *ClientContext) EndDrain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batch = nil
}
