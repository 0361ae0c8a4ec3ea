package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolCollector exports pgxpool statistics for the Postgres leaderboard store.
// Stats are read on each scrape.
type PoolCollector struct {
	pool  *pgxpool.Pool
	stats []poolStat
}

type poolStat struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(*pgxpool.Stat) float64
}

func newPoolStat(name, help string, kind prometheus.ValueType, value func(*pgxpool.Stat) float64) poolStat {
	return poolStat{
		desc:  prometheus.NewDesc(namespace+"_pgxpool_"+name, help, nil, nil),
		kind:  kind,
		value: value,
	}
}

// NewPoolCollector creates a collector for pool. A nil pool collects nothing.
func NewPoolCollector(pool *pgxpool.Pool) *PoolCollector {
	return &PoolCollector{
		pool: pool,
		stats: []poolStat{
			newPoolStat("acquire_count", "Cumulative count of successful connection acquires.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquireCount()) }),
			newPoolStat("acquire_duration_seconds", "Cumulative time spent acquiring connections.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return s.AcquireDuration().Seconds() }),
			newPoolStat("empty_acquire_count", "Cumulative count of acquires from an empty pool.", prometheus.CounterValue,
				func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }),
			newPoolStat("acquired_conns", "Number of currently acquired connections.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
			newPoolStat("idle_conns", "Number of idle connections in the pool.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
			newPoolStat("total_conns", "Total number of connections in the pool.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
			newPoolStat("max_conns", "Maximum number of connections allowed.", prometheus.GaugeValue,
				func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, s := range c.stats {
		ch <- s.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}
	stat := c.pool.Stat()
	for _, s := range c.stats {
		ch <- prometheus.MustNewConstMetric(s.desc, s.kind, s.value(stat))
	}
}
