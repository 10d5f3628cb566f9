package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/voxeldag/voxeldag/dbms/colorpool"
	"github.com/voxeldag/voxeldag/dbms/gc"
	"github.com/voxeldag/voxeldag/dbms/nodepool"
)

func smallNodeConfig() nodepool.Config {
	return nodepool.Config{
		LevelCount:               4,
		TopLevelCount:            1,
		WordBitsPerPage:          6,
		PageBitsPerBucket:        1,
		BucketBitsPerTopLevel:    2,
		BucketBitsPerBottomLevel: 3,
	}
}

func smallColorConfig() colorpool.Config {
	return colorpool.Config{
		LeafLevel:           1,
		NodeBitsPerNodePage: 3,
		WordBitsPerLeafPage: 8,
		NodePageCount:       4,
		LeafPageCount:       4,
	}
}

func gaugeValue(t *testing.T, g *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := g.WithLabelValues(labels...).Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestRegistry_ObserveNodePool(t *testing.T) {
	nodes, err := nodepool.New(smallNodeConfig(), nil)
	if err != nil {
		t.Fatalf("nodepool.New: %v", err)
	}
	if _, err := nodes.Upsert(nodes.Config().LeafLevel(), make([]uint32, nodepool.LeafWordCount)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)
	r.ObserveNodePool(nodes)

	if got := gaugeValue(t, r.pageResident, "nodepool"); got == 0 {
		t.Fatalf("want resident pages > 0 after a write, got %v", got)
	}
}

func TestRegistry_ObserveColorPool(t *testing.T) {
	colors, err := colorpool.New(smallColorConfig(), nil)
	if err != nil {
		t.Fatalf("colorpool.New: %v", err)
	}
	if _, err := colors.PutNode([8]colorpool.Pointer{}); err != nil {
		t.Fatalf("PutNode: %v", err)
	}

	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)
	r.ObserveColorPool(colors)

	if got := gaugeValue(t, r.pageResident, "colorpool_nodes"); got == 0 {
		t.Fatalf("want resident colorpool_nodes pages > 0, got %v", got)
	}
}

func TestRegistry_ObserveGC(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)
	r.ObserveGC(gc.Stats{ReachableNodes: 42, Pause: 5 * time.Millisecond})

	m := &dto.Metric{}
	if err := r.gcReachable.Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m.GetGauge().GetValue(); got != 42 {
		t.Fatalf("want 42 reachable nodes, got %v", got)
	}
}

func TestTimer_Elapsed(t *testing.T) {
	tm := NewTimer()
	time.Sleep(time.Millisecond)
	if tm.Elapsed() <= 0 {
		t.Fatal("want positive elapsed duration")
	}
}
