// Package prometheus exposes engine counters as a Prometheus collector.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	tokenward "github.com/tokenward/tokenward"
)

// Collector adapts engine counter snapshots to the Prometheus scrape
// model. Counters are read fresh on every Collect call.
type Collector struct {
	engine *tokenward.Engine
	descs  map[tokenward.MetricID]*prometheus.Desc
}

// NewCollector builds a collector over the engine's counter set.
func NewCollector(engine *tokenward.Engine) *Collector {
	defs := tokenward.CounterDefs()
	descs := make(map[tokenward.MetricID]*prometheus.Desc, len(defs))
	for _, def := range defs {
		descs[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	return &Collector{engine: engine, descs: descs}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range c.descs {
		ch <- desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.engine.MetricsSnapshot()
	for id, desc := range c.descs {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(snapshot.Counters[id]))
	}
}

// Register registers the engine's counters with a registry, typically
// prometheus.DefaultRegisterer.
func Register(engine *tokenward.Engine, registerer prometheus.Registerer) error {
	return registerer.Register(NewCollector(engine))
}
