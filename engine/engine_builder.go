package engine

import (
	"github.com/Carmen-Shannon/oxy-batch/engine/camera"
	"github.com/Carmen-Shannon/oxy-batch/engine/config"
	"github.com/Carmen-Shannon/oxy-batch/engine/profiler"
	"github.com/Carmen-Shannon/oxy-batch/engine/scheduler"
	"github.com/Carmen-Shannon/oxy-batch/engine/signal"
	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/Carmen-Shannon/oxy-batch/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithSink sets the destination of every upload and draw. Required.
// If the sink also implements Presenter it is used to open and present frames.
//
// Parameters:
//   - sink: the GPU renderer or a recorder
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSink(sink Sink) EngineBuilderOption {
	return func(e *engine) {
		e.sink = sink
	}
}

// WithPresenter sets the frame presenter when it is not the sink itself.
//
// Parameters:
//   - p: the presenter
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPresenter(p Presenter) EngineBuilderOption {
	return func(e *engine) {
		e.presenter = p
	}
}

// WithCapacity sets the slot and transform table capacity. Defaults to slot.DefaultCapacity.
//
// Parameters:
//   - capacity: number of slots and matrices
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCapacity(capacity int) EngineBuilderOption {
	return func(e *engine) {
		if capacity > 0 {
			e.capacity = capacity
		}
	}
}

// WithAllocator injects a pre-built slot allocator. Its capacity must match the transform store.
//
// Parameters:
//   - a: the allocator
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAllocator(a slot.Allocator) EngineBuilderOption {
	return func(e *engine) {
		e.allocator = a
	}
}

// WithStore injects a pre-built transform store. Its capacity must match the allocator.
//
// Parameters:
//   - s: the transform store
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStore(s transform.Store) EngineBuilderOption {
	return func(e *engine) {
		e.store = s
	}
}

// WithBus sets the signal bus advanced at the end of every tick.
//
// Parameters:
//   - bus: the bus
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBus(bus *signal.Bus) EngineBuilderOption {
	return func(e *engine) {
		e.bus = bus
	}
}

// WithTickRate sets the target tick frequency. Non-positive, NaN or infinite values keep the default (120Hz).
//
// Parameters:
//   - hz: target ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(hz float64) EngineBuilderOption {
	return func(e *engine) {
		if scheduler.ValidHz(hz) {
			e.tickHz = hz
		}
	}
}

// WithRateLimiter enables or disables sleeping out the rest of each tick period.
//
// Parameters:
//   - enabled: true to pace ticks at the target rate
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRateLimiter(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.rateLimiter = enabled
	}
}

// WithClock replaces the wall clock used for pacing.
//
// Parameters:
//   - c: the clock
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClock(c scheduler.Clock) EngineBuilderOption {
	return func(e *engine) {
		e.clock = c
	}
}

// WithPackWorkers sets the number of workers packing program geometry in parallel.
// Values <= 1 pack inline.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPackWorkers(workers int) EngineBuilderOption {
	return func(e *engine) {
		e.packWorkers = max(workers, 0)
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//   - options: options forwarded to the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool, options ...profiler.ProfilerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
		e.profilerOptions = append(e.profilerOptions, options...)
	}
}

// WithCamera sets the camera updated and uploaded each tick.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithColor sets the solid colour written into the frame uniform.
//
// Parameters:
//   - color: RGBA in [0, 1]
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithColor(color mgl32.Vec4) EngineBuilderOption {
	return func(e *engine) {
		e.color = color
	}
}

// WithKeyBindings sets the keys driving the camera and the engine hotkeys.
//
// Parameters:
//   - keys: the resolved key bindings
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithKeyBindings(keys config.Keys) EngineBuilderOption {
	return func(e *engine) {
		e.keys = keys
	}
}

// WithConfig applies the loop, render and key sections of a resolved configuration.
//
// Parameters:
//   - cfg: the resolved configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.tickHz = cfg.Loop.TickHz
		e.rateLimiter = cfg.Loop.RateLimiter
		e.color = cfg.Render.Color
		e.keys = cfg.Keys
	}
}

// WithTickCallback registers the gameplay function run each tick.
//
// Parameters:
//   - callback: receives the measured tick delta in seconds; a returned error stops the loop
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickCallback(callback func(dt float64) error) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// WithStatsCallback registers a function receiving every tick's statistics.
//
// Parameters:
//   - callback: the statistics consumer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStatsCallback(callback func(st scheduler.Stats)) EngineBuilderOption {
	return func(e *engine) {
		e.statsCallback = callback
	}
}

// WithStopCondition adds a condition polled before every tick, such as a closed window.
//
// Parameters:
//   - stop: returns true to end the loop
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStopCondition(stop func() bool) EngineBuilderOption {
	return func(e *engine) {
		e.stopCondition = stop
	}
}
