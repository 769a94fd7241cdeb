package profiler

import (
	"log"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-batch/engine/batcher"
	"github.com/Carmen-Shannon/oxy-batch/engine/scheduler"
)

// Summary aggregates the ticks of one reporting interval.
type Summary struct {
	Ticks       int
	Elapsed     time.Duration
	AvgHz       float64
	ScheduledHz float64
	WorstDrift  time.Duration
	DrawCalls   int
	Vertices    int
	Limited     bool
}

// Profiler aggregates iteration and flush statistics and logs them at a fixed interval,
// together with memory statistics.
// Intervals are measured by summing tick deltas, so a paused or stepped clock is reported faithfully.
type Profiler struct {
	updateInterval time.Duration
	logger         *log.Logger

	current Summary
	last    Summary

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second and output goes to the standard logger.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		logger:         log.Default(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Record adds one tick to the current interval and logs the interval once it has elapsed.
//
// Parameters:
//   - st: the scheduler's statistics for the tick
//   - flush: the batcher's statistics for the tick's flush
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Record(st scheduler.Stats, flush batcher.FlushStats) bool {
	c := &p.current
	c.Ticks++
	c.Elapsed += st.Delta
	c.ScheduledHz = st.ScheduledHz
	c.Limited = st.Limited
	c.DrawCalls += flush.DrawCalls
	c.Vertices += flush.Vertices
	if c.Ticks == 1 || st.Drift > c.WorstDrift {
		c.WorstDrift = st.Drift
	}

	if c.Elapsed < p.updateInterval {
		return false
	}
	c.AvgHz = float64(c.Ticks) / c.Elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / c.Elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		// PauseNs is a circular buffer of the last 256 pauses.
		if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
			maxPauseUs = pause
		}
	}

	limiter := "on"
	if !c.Limited {
		limiter = "off"
	}
	p.logger.Printf("[Profiler] Hz: %.2f (target %.0f, limiter %s) | worst drift: %v | draws/tick: %.1f | verts/tick: %.0f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max: %d µs) | Sys: %.2f MB",
		c.AvgHz, c.ScheduledHz, limiter, c.WorstDrift.Round(time.Microsecond),
		float64(c.DrawCalls)/float64(c.Ticks), float64(c.Vertices)/float64(c.Ticks),
		allocMB, allocRateMB, gcCount, maxPauseUs, sysMB)

	p.last = *c
	p.current = Summary{}
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recently logged interval.
func (p *Profiler) Last() Summary {
	return p.last
}
