package scheduler

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// DefaultTargetHz is used when an unusable target frequency is requested.
const DefaultTargetHz = 60.0

// ErrAlreadyRunning is returned by Start when the scheduler's loop is already running.
var ErrAlreadyRunning = errors.New("scheduler already running")

// Clock abstracts wall-clock reads and the pacing sleep so the loop can be driven in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Stats describes one completed tick.
type Stats struct {
	// Tick is the 1-based number of the tick within this Start call.
	Tick uint64
	// Delta is the measured time since the previous tick (or since Start for the first tick).
	Delta time.Duration
	// MeasuredHz is 1 / Delta.
	MeasuredHz float64
	// ScheduledHz is the target frequency that paced this tick.
	ScheduledHz float64
	// Drift is Delta minus the scheduled period; positive when the tick ran late.
	Drift time.Duration
	// Limited reports whether the rate limiter was enabled for this tick.
	Limited bool
}

// scheduler is the implementation of the Scheduler interface.
type scheduler struct {
	clock Clock

	// Read at the top of every iteration; writes from inside the tick callback apply to the next one.
	targetHz       atomic.Uint64 // math.Float64bits
	limiterEnabled atomic.Bool

	running atomic.Bool
}

// Scheduler runs a tick callback at a target frequency on the calling goroutine.
// Simulation rate is decoupled from frame duration: late ticks are reported as a lower
// measured frequency, never dropped or doubled up.
type Scheduler interface {
	// Start runs the loop until shouldStop returns true or tick returns an error.
	// Each iteration polls shouldStop, sleeps out the rest of the period when the rate limiter
	// is enabled, calls tick with the measured delta in seconds, then reports Stats to every
	// stats callback. Exactly one tick runs per iteration and a tick is never interrupted.
	//
	// Parameters:
	//   - targetHz: the initial target frequency (non-positive, NaN or infinite uses DefaultTargetHz)
	//   - tick: the per-iteration callback receiving the delta time in seconds
	//   - shouldStop: polled once per iteration before pacing
	//   - stats: optional callbacks receiving each tick's Stats
	//
	// Returns:
	//   - error: the first tick error (wrapped with the tick number), ErrAlreadyRunning, or nil on a clean stop
	Start(targetHz float64, tick func(dt float64) error, shouldStop func() bool, stats ...func(Stats)) error

	// TargetHz returns the current target frequency.
	TargetHz() float64

	// SetTargetHz changes the target frequency starting with the next iteration.
	// Safe to call from inside the tick callback.
	//
	// Parameters:
	//   - hz: the new target frequency (non-positive, NaN or infinite uses DefaultTargetHz)
	SetTargetHz(hz float64)

	// RateLimiterEnabled reports whether ticks are paced to the target frequency.
	RateLimiterEnabled() bool

	// SetRateLimiterEnabled enables or disables pacing starting with the next iteration.
	// With the limiter off the loop runs uncapped.
	//
	// Parameters:
	//   - enabled: true to pace ticks
	SetRateLimiterEnabled(enabled bool)

	// Running reports whether Start is currently executing.
	Running() bool
}

var _ Scheduler = &scheduler{}

// NewScheduler creates a Scheduler with the rate limiter enabled at DefaultTargetHz.
//
// Parameters:
//   - options: functional options to configure the scheduler
//
// Returns:
//   - Scheduler: the new scheduler
func NewScheduler(options ...SchedulerBuilderOption) Scheduler {
	s := &scheduler{clock: systemClock{}}
	s.SetTargetHz(DefaultTargetHz)
	s.limiterEnabled.Store(true)
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scheduler) Start(targetHz float64, tick func(dt float64) error, shouldStop func() bool, stats ...func(Stats)) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	s.SetTargetHz(targetHz)
	last := s.clock.Now()

	for n := uint64(1); ; n++ {
		if shouldStop != nil && shouldStop() {
			return nil
		}

		hz := s.TargetHz()
		period := time.Duration(float64(time.Second) / hz)
		limited := s.limiterEnabled.Load()

		if limited {
			if elapsed := s.clock.Now().Sub(last); elapsed < period {
				s.clock.Sleep(period - elapsed)
			}
		}

		now := s.clock.Now()
		delta := now.Sub(last)
		last = now

		if err := tick(delta.Seconds()); err != nil {
			return fmt.Errorf("tick %d: %w", n, err)
		}

		if len(stats) == 0 {
			continue
		}
		st := Stats{
			Tick:        n,
			Delta:       delta,
			ScheduledHz: hz,
			Drift:       delta - period,
			Limited:     limited,
		}
		if delta > 0 {
			st.MeasuredHz = 1 / delta.Seconds()
		}
		for _, fn := range stats {
			fn(st)
		}
	}
}

func (s *scheduler) TargetHz() float64 {
	return math.Float64frombits(s.targetHz.Load())
}

func (s *scheduler) SetTargetHz(hz float64) {
	if !ValidHz(hz) {
		hz = DefaultTargetHz
	}
	s.targetHz.Store(math.Float64bits(hz))
}

// ValidHz reports whether hz is a usable target frequency: positive and finite.
func ValidHz(hz float64) bool {
	return hz > 0 && !math.IsInf(hz, 1)
}

func (s *scheduler) RateLimiterEnabled() bool {
	return s.limiterEnabled.Load()
}

func (s *scheduler) SetRateLimiterEnabled(enabled bool) {
	s.limiterEnabled.Store(enabled)
}

func (s *scheduler) Running() bool {
	return s.running.Load()
}
