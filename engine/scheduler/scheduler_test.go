package scheduler

import (
	"errors"
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func stopAfter(n int, count *int) func() bool {
	return func() bool { return *count >= n }
}

func hzPeriod(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}

func TestLimiterPacesInstantTicks(t *testing.T) {
	clk := newFakeClock()
	s := NewScheduler(WithClock(clk))

	ticks := 0
	var stats []Stats
	err := s.Start(60, func(dt float64) error {
		ticks++
		return nil
	}, stopAfter(5, &ticks), func(st Stats) { stats = append(stats, st) })
	if err != nil {
		t.Fatal(err)
	}

	if ticks != 5 || len(stats) != 5 {
		t.Fatalf("ticks=%d stats=%d, want 5 each", ticks, len(stats))
	}
	for i, st := range stats {
		if st.Delta < hzPeriod(60) {
			t.Errorf("tick %d: delta %v shorter than period %v", i+1, st.Delta, hzPeriod(60))
		}
		if st.Tick != uint64(i+1) || st.ScheduledHz != 60 || !st.Limited {
			t.Errorf("tick %d: stats %+v", i+1, st)
		}
		if st.Drift != 0 {
			t.Errorf("tick %d: drift %v, want 0 with an instant tick", i+1, st.Drift)
		}
	}
}

func TestUncappedReflectsTickCost(t *testing.T) {
	clk := newFakeClock()
	s := NewScheduler(WithClock(clk), WithRateLimiter(false))

	ticks := 0
	var deltas []float64
	err := s.Start(60, func(dt float64) error {
		ticks++
		deltas = append(deltas, dt)
		clk.advance(2 * time.Millisecond)
		return nil
	}, stopAfter(4, &ticks))
	if err != nil {
		t.Fatal(err)
	}

	if len(clk.sleeps) != 0 {
		t.Fatalf("uncapped loop slept: %v", clk.sleeps)
	}
	// The first tick starts immediately; later ticks are spaced by the tick's own cost.
	if deltas[0] != 0 {
		t.Errorf("first delta = %v, want 0", deltas[0])
	}
	for i, dt := range deltas[1:] {
		if dt != (2 * time.Millisecond).Seconds() {
			t.Errorf("delta %d = %v, want 2ms", i+1, dt)
		}
	}
}

func TestRateChangeAppliesNextIteration(t *testing.T) {
	clk := newFakeClock()
	s := NewScheduler(WithClock(clk))

	ticks := 0
	var stats []Stats
	err := s.Start(60, func(dt float64) error {
		ticks++
		if ticks == 1 {
			s.SetTargetHz(30)
		}
		return nil
	}, stopAfter(3, &ticks), func(st Stats) { stats = append(stats, st) })
	if err != nil {
		t.Fatal(err)
	}

	if stats[0].Delta != hzPeriod(60) || stats[0].ScheduledHz != 60 {
		t.Errorf("tick 1 = %+v, want paced at 60Hz", stats[0])
	}
	for _, st := range stats[1:] {
		if st.Delta != hzPeriod(30) || st.ScheduledHz != 30 {
			t.Errorf("tick %d = %+v, want paced at 30Hz", st.Tick, st)
		}
	}
}

func TestToggleLimiterFromTick(t *testing.T) {
	clk := newFakeClock()
	s := NewScheduler(WithClock(clk))

	ticks := 0
	var stats []Stats
	_ = s.Start(100, func(dt float64) error {
		ticks++
		s.SetRateLimiterEnabled(ticks%2 == 0)
		return nil
	}, stopAfter(4, &ticks), func(st Stats) { stats = append(stats, st) })

	want := []bool{true, false, true, false}
	for i, st := range stats {
		if st.Limited != want[i] {
			t.Errorf("tick %d Limited = %v, want %v", i+1, st.Limited, want[i])
		}
	}
	if len(clk.sleeps) != 2 {
		t.Errorf("slept %d times, want 2", len(clk.sleeps))
	}
}

func TestLateTickLowersMeasuredRate(t *testing.T) {
	clk := newFakeClock()
	s := NewScheduler(WithClock(clk))

	ticks := 0
	var stats []Stats
	_ = s.Start(60, func(dt float64) error {
		ticks++
		clk.advance(50 * time.Millisecond)
		return nil
	}, stopAfter(4, &ticks), func(st Stats) { stats = append(stats, st) })

	if ticks != 4 {
		t.Fatalf("ticks = %d, want 4 (no dropped or batched ticks)", ticks)
	}
	for _, st := range stats[1:] {
		if st.Delta != 50*time.Millisecond {
			t.Errorf("tick %d delta = %v, want 50ms", st.Tick, st.Delta)
		}
		if st.MeasuredHz >= 60 || st.Drift <= 0 {
			t.Errorf("tick %d: measured %v Hz, drift %v", st.Tick, st.MeasuredHz, st.Drift)
		}
	}
}

func TestTickErrorStopsLoop(t *testing.T) {
	clk := newFakeClock()
	s := NewScheduler(WithClock(clk))
	boom := errors.New("boom")

	ticks := 0
	err := s.Start(60, func(dt float64) error {
		ticks++
		if ticks == 2 {
			return boom
		}
		return nil
	}, func() bool { return false })

	if !errors.Is(err, boom) {
		t.Fatalf("Start = %v, want boom", err)
	}
	if ticks != 2 {
		t.Errorf("ticks = %d, want 2", ticks)
	}
	if s.Running() {
		t.Error("scheduler still reports running")
	}
}

func TestStopBeforeFirstTick(t *testing.T) {
	s := NewScheduler(WithClock(newFakeClock()))
	err := s.Start(60, func(dt float64) error {
		t.Fatal("tick ran after stop")
		return nil
	}, func() bool { return true })
	if err != nil {
		t.Fatal(err)
	}
}

func TestStartWhileRunning(t *testing.T) {
	s := NewScheduler(WithClock(newFakeClock()))
	ticks := 0
	var nested error
	_ = s.Start(60, func(dt float64) error {
		ticks++
		nested = s.Start(60, func(float64) error { return nil }, nil)
		return nil
	}, stopAfter(1, &ticks))
	if !errors.Is(nested, ErrAlreadyRunning) {
		t.Fatalf("nested Start = %v, want ErrAlreadyRunning", nested)
	}
}

func TestDefaultTargetHz(t *testing.T) {
	s := NewScheduler()
	s.SetTargetHz(-5)
	if s.TargetHz() != DefaultTargetHz {
		t.Fatalf("TargetHz = %v, want %v", s.TargetHz(), DefaultTargetHz)
	}
}

func TestUnusableTargetHz(t *testing.T) {
	s := NewScheduler()
	for _, hz := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0} {
		s.SetTargetHz(240)
		s.SetTargetHz(hz)
		if s.TargetHz() != DefaultTargetHz {
			t.Errorf("SetTargetHz(%v): TargetHz = %v, want %v", hz, s.TargetHz(), DefaultTargetHz)
		}
	}
}

func TestWallClockPacing(t *testing.T) {
	if testing.Short() {
		t.Skip("wall-clock pacing")
	}
	s := NewScheduler()

	ticks := 0
	var stamps []time.Time
	err := s.Start(60, func(dt float64) error {
		ticks++
		stamps = append(stamps, time.Now())
		return nil
	}, stopAfter(6, &ticks))
	if err != nil {
		t.Fatal(err)
	}

	const tolerance = time.Millisecond
	for i := 1; i < len(stamps); i++ {
		if gap := stamps[i].Sub(stamps[i-1]); gap < hzPeriod(60)-tolerance {
			t.Errorf("gap %d = %v, want >= %v", i, gap, hzPeriod(60))
		}
	}
}
