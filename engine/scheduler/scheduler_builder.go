package scheduler

// SchedulerBuilderOption is a functional option for configuring a Scheduler.
type SchedulerBuilderOption func(*scheduler)

// WithClock replaces the wall clock used for pacing and measurement.
//
// Parameters:
//   - c: the clock to use
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithClock(c Clock) SchedulerBuilderOption {
	return func(s *scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithRateLimiter sets whether the loop starts paced (true, default) or uncapped.
//
// Parameters:
//   - enabled: true to pace ticks to the target frequency
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithRateLimiter(enabled bool) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.limiterEnabled.Store(enabled)
	}
}
