package metrics

import "time"

// TableSource is the subset of pkg/manager's Manager that the collector
// needs to report per-table row counts, kept as a small local interface so
// this package never imports pkg/manager.
type TableSource interface {
	TableRowCounts() map[string]int
}

// Collector periodically samples table row counts into Prometheus gauges.
type Collector struct {
	source TableSource
	stopCh chan struct{}
}

func NewCollector(source TableSource) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15s, plus once immediately.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	for table, rows := range c.source.TableRowCounts() {
		TableRows.WithLabelValues(table).Set(float64(rows))
	}
}
