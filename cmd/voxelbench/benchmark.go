package main

import (
	"encoding/csv"
	"runtime"
	"strconv"
	"time"
)

// BenchResult is one CSV row: a sweep point's operation and its
// latency/memory/GC-pressure readings.
type BenchResult struct {
	World     string
	Region    string
	Operation string
	LatencyNs int64
	MemMB     uint64
	Objects   uint64
}

type MemoryStats struct {
	AllocMB      uint64
	TotalAllocMB uint64
	HeapObjects  uint64
}

// GetDetailedMem forces a GC so the reading reflects live data rather
// than garbage still waiting to be collected.
func GetDetailedMem() MemoryStats {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return MemoryStats{
		AllocMB:      m.Alloc / 1024 / 1024,
		TotalAllocMB: m.TotalAlloc / 1024 / 1024,
		HeapObjects:  m.HeapObjects,
	}
}

// Record writes one BenchResult row.
func Record(w *csv.Writer, res BenchResult) {
	w.Write([]string{
		res.World,
		res.Region,
		res.Operation,
		strconv.FormatInt(res.LatencyNs, 10),
		strconv.FormatUint(res.MemMB, 10),
		strconv.FormatUint(res.Objects, 10),
	})
}

// stopwatch measures elapsed wall-clock time between laps.
type stopwatch struct {
	last time.Time
}

func newStopwatch() *stopwatch { return &stopwatch{last: time.Now()} }

func (s *stopwatch) lap() { s.last = time.Now() }

// lapNs returns the elapsed time since the last lap/construction, in
// nanoseconds, and resets the lap marker.
func (s *stopwatch) lapNs() int64 {
	d := time.Since(s.last).Nanoseconds()
	s.last = time.Now()
	return d
}
