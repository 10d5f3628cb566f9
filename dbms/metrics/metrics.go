// Package metrics wires the pools and garbage collector into Prometheus
// instrumentation: resident/dirty/freed page gauges, a bucket/store fill
// histogram, and a GC pause duration histogram (SPEC_FULL.md's DOMAIN
// STACK table).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/voxeldag/voxeldag/dbms/colorpool"
	"github.com/voxeldag/voxeldag/dbms/gc"
	"github.com/voxeldag/voxeldag/dbms/nodepool"
)

// Registry holds the collectors a caller registers once against a
// prometheus.Registerer and then feeds via Observe/ObserveGC on whatever
// cadence it likes (voxeldag does not poll on its own — there is no
// background goroutine here, matching spec.md's "no I/O inside the
// core").
type Registry struct {
	pageResident *prometheus.GaugeVec
	pageDirty    *prometheus.GaugeVec
	pageFreed    *prometheus.GaugeVec
	fill         *prometheus.HistogramVec
	gcPause      prometheus.Histogram
	gcReachable  prometheus.Gauge
}

// NewRegistry constructs and registers a Registry's collectors against
// reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		pageResident: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voxeldag", Subsystem: "pagedstore", Name: "pages_resident",
			Help: "Materialized pages currently held in memory, per backing store.",
		}, []string{"store"}),
		pageDirty: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voxeldag", Subsystem: "pagedstore", Name: "pages_dirty",
			Help: "Pages with writes not yet flushed to a Backend, per backing store.",
		}, []string{"store"}),
		pageFreed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voxeldag", Subsystem: "pagedstore", Name: "pages_freed",
			Help: "Pages freed since the last flush, per backing store.",
		}, []string{"store"}),
		fill: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxeldag", Subsystem: "pagedstore", Name: "fill_ratio",
			Help:    "Fractional occupancy of a bucket (NodePool) or vector (ColorPool).",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"store"}),
		gcPause: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxeldag", Subsystem: "gc", Name: "pause_seconds",
			Help:    "Wall-clock duration of a mark-sweep-compact cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		gcReachable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxeldag", Subsystem: "gc", Name: "reachable_nodes",
			Help: "Nodes marked reachable during the most recent GC cycle.",
		}),
	}
	reg.MustRegister(r.pageResident, r.pageDirty, r.pageFreed, r.fill, r.gcPause, r.gcReachable)
	return r
}

// ObserveNodePool records a NodePool's current page residency and
// per-bucket fill ratios under the "nodepool" store label.
func (r *Registry) ObserveNodePool(p *nodepool.Pool) {
	st := p.Stats()
	r.pageResident.WithLabelValues("nodepool").Set(float64(st.Resident))
	r.pageDirty.WithLabelValues("nodepool").Set(float64(st.Dirty))
	r.pageFreed.WithLabelValues("nodepool").Set(float64(st.Freed))
	for _, f := range p.BucketFill() {
		r.fill.WithLabelValues("nodepool").Observe(f)
	}
}

// ObserveColorPool records a ColorPool's node-array and VBR-leaf-vector
// page residency and fill ratios under the "colorpool_nodes" /
// "colorpool_leafs" store labels.
func (r *Registry) ObserveColorPool(p *colorpool.Pool) {
	nodeSt, leafSt := p.NodeStats(), p.LeafStats()
	r.pageResident.WithLabelValues("colorpool_nodes").Set(float64(nodeSt.Resident))
	r.pageDirty.WithLabelValues("colorpool_nodes").Set(float64(nodeSt.Dirty))
	r.pageFreed.WithLabelValues("colorpool_nodes").Set(float64(nodeSt.Freed))
	r.pageResident.WithLabelValues("colorpool_leafs").Set(float64(leafSt.Resident))
	r.pageDirty.WithLabelValues("colorpool_leafs").Set(float64(leafSt.Dirty))
	r.pageFreed.WithLabelValues("colorpool_leafs").Set(float64(leafSt.Freed))

	nodeFill, leafFill := p.Fill()
	r.fill.WithLabelValues("colorpool_nodes").Observe(nodeFill)
	r.fill.WithLabelValues("colorpool_leafs").Observe(leafFill)
}

// ObserveGC records one GC cycle's stats.
func (r *Registry) ObserveGC(stats gc.Stats) {
	r.gcPause.Observe(stats.Pause.Seconds())
	r.gcReachable.Set(float64(stats.ReachableNodes))
}

// Timer is a small helper for timing a GC cycle the caller drives
// itself (Collect already times internally via Stats.Pause; Timer is
// for callers instrumenting a larger span, e.g. an edit+GC cycle in
// cmd/voxelbench).
type Timer struct{ start time.Time }

// NewTimer starts a Timer.
func NewTimer() Timer { return Timer{start: time.Now()} }

// Elapsed returns the time since NewTimer.
func (t Timer) Elapsed() time.Duration { return time.Since(t.start) }
