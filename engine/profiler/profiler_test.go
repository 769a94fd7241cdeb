package profiler

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-batch/engine/batcher"
	"github.com/Carmen-Shannon/oxy-batch/engine/scheduler"
)

func TestRecordLogsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	p := NewProfiler(WithInterval(100*time.Millisecond), WithLogger(log.New(&buf, "", 0)))

	st := scheduler.Stats{Delta: 25 * time.Millisecond, ScheduledHz: 40, Limited: true}
	flush := batcher.FlushStats{DrawCalls: 1, Vertices: 3, Indices: 3}

	for i := 0; i < 3; i++ {
		if p.Record(st, flush) {
			t.Fatalf("logged after %d ticks", i+1)
		}
	}
	late := st
	late.Drift = 5 * time.Millisecond
	if !p.Record(late, flush) {
		t.Fatal("interval elapsed without a log line")
	}

	got := p.Last()
	if got.Ticks != 4 || got.AvgHz != 40 || got.DrawCalls != 4 || got.WorstDrift != 5*time.Millisecond {
		t.Fatalf("summary = %+v", got)
	}
	out := buf.String()
	if strings.Count(out, "[Profiler]") != 1 || !strings.Contains(out, "limiter on") {
		t.Fatalf("output = %q", out)
	}

	if p.Record(st, flush) {
		t.Fatal("new interval logged immediately")
	}
}
