package database

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatsCollector exports pgxpool statistics for a LazyPool. Only the
// state gauge is emitted while no pool is connected.
type PoolStatsCollector struct {
	pool    *LazyPool
	service string

	state             *prometheus.Desc
	acquiredConns     *prometheus.Desc
	idleConns         *prometheus.Desc
	totalConns        *prometheus.Desc
	maxConns          *prometheus.Desc
	constructingConns *prometheus.Desc
	acquireCount      *prometheus.Desc
	acquireDuration   *prometheus.Desc
	emptyAcquires     *prometheus.Desc
	newConnsCount     *prometheus.Desc
}

// NewPoolStatsCollector creates a collector for pool.
func NewPoolStatsCollector(pool *LazyPool, service string) *PoolStatsCollector {
	labels := []string{"service"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, labels, nil)
	}
	return &PoolStatsCollector{
		pool:              pool,
		service:           service,
		state:             desc("db_pool_state", "Lazy pool state (0=uninitialized, 1=connecting, 2=ready, 3=closed)"),
		acquiredConns:     desc("db_pool_acquired_connections", "Number of currently acquired connections"),
		idleConns:         desc("db_pool_idle_connections", "Number of currently idle connections"),
		totalConns:        desc("db_pool_total_connections", "Total number of connections in the pool"),
		maxConns:          desc("db_pool_max_connections", "Maximum number of connections allowed"),
		constructingConns: desc("db_pool_constructing_connections", "Number of connections currently being constructed"),
		acquireCount:      desc("db_pool_acquire_count_total", "Total number of connection acquires"),
		acquireDuration:   desc("db_pool_acquire_duration_seconds_total", "Total time spent acquiring connections in seconds"),
		emptyAcquires:     desc("db_pool_empty_acquire_count_total", "Total number of acquires that had to wait for a connection"),
		newConnsCount:     desc("db_pool_new_connections_total", "Total number of new connections created"),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.state
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.totalConns
	ch <- c.maxConns
	ch <- c.constructingConns
	ch <- c.acquireCount
	ch <- c.acquireDuration
	ch <- c.emptyAcquires
	ch <- c.newConnsCount
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, float64(c.pool.State()), c.service)

	pool := c.pool.Current()
	if pool == nil {
		return
	}
	stat := pool.Stat()

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, c.service)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, c.service)
	}

	gauge(c.acquiredConns, float64(stat.AcquiredConns()))
	gauge(c.idleConns, float64(stat.IdleConns()))
	gauge(c.totalConns, float64(stat.TotalConns()))
	gauge(c.maxConns, float64(stat.MaxConns()))
	gauge(c.constructingConns, float64(stat.ConstructingConns()))
	counter(c.acquireCount, float64(stat.AcquireCount()))
	counter(c.acquireDuration, stat.AcquireDuration().Seconds())
	counter(c.emptyAcquires, float64(stat.EmptyAcquireCount()))
	counter(c.newConnsCount, float64(stat.NewConnsCount()))
}

// RegisterPoolMetrics registers a collector for pool with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *LazyPool, service string) error {
	return reg.Register(NewPoolStatsCollector(pool, service))
}
