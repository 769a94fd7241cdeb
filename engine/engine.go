package engine

import (
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/Carmen-Shannon/oxy-batch/engine/batcher"
	"github.com/Carmen-Shannon/oxy-batch/engine/camera"
	"github.com/Carmen-Shannon/oxy-batch/engine/config"
	"github.com/Carmen-Shannon/oxy-batch/engine/input"
	"github.com/Carmen-Shannon/oxy-batch/engine/profiler"
	"github.com/Carmen-Shannon/oxy-batch/engine/scheduler"
	"github.com/Carmen-Shannon/oxy-batch/engine/signal"
	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/Carmen-Shannon/oxy-batch/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

// Sink receives every upload and draw the engine issues during a tick.
// The GPU renderer and the in-memory recorder both satisfy it.
type Sink interface {
	transform.UniformSink
	batcher.GeometrySink
}

// Presenter opens and closes the frame around a tick's uploads and draws.
type Presenter interface {
	BeginFrame() error
	Present() error
}

// minTickHz is the lowest rate the slower hotkey can reach.
const minTickHz = 1.0

// engine implements the Engine interface.
type engine struct {
	sink      Sink
	presenter Presenter

	capacity  int
	allocator slot.Allocator
	store     transform.Store
	batcher   batcher.Batcher
	scheduler scheduler.Scheduler
	bus       *signal.Bus
	input     input.State
	camera    camera.Camera

	profiler         *profiler.Profiler
	profilerOptions  []profiler.ProfilerBuilderOption
	profilingEnabled atomic.Bool

	keys        config.Keys
	color       mgl32.Vec4
	tickHz      float64
	rateLimiter bool
	packWorkers int
	clock       scheduler.Clock

	tickCallback  func(dt float64) error
	statsCallback func(st scheduler.Stats)
	stopCondition func() bool

	quit atomic.Bool
}

// Engine is the frame driver. Each scheduler tick it opens a frame, updates and uploads the
// camera, runs the gameplay callback, flushes the batcher, uploads the transform table,
// presents, and advances the signal bus.
type Engine interface {
	// Run drives the tick loop on the calling goroutine until Quit is called, the stop condition
	// reports true, or a tick fails.
	//
	// Returns:
	//   - error: the error that ended the loop, or nil on a requested stop
	Run() error

	// Quit stops the loop before its next tick. Safe to call from any goroutine and more than once.
	Quit()

	// SetTickCallback registers the gameplay function run each tick, after the camera upload and
	// before the flush. It receives the measured time since the previous tick in seconds.
	//
	// Parameters:
	//   - callback: the gameplay function; a returned error stops the loop
	SetTickCallback(callback func(dt float64) error)

	// SetTickRate sets the target tick frequency. Applies from the next iteration.
	//
	// Parameters:
	//   - hz: target ticks per second (non-positive, NaN or infinite values are ignored)
	SetTickRate(hz float64)

	// EnableProfiler enables periodic profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables periodic profiling output.
	DisableProfiler()

	// Allocator returns the slot allocator shared by every game object.
	Allocator() slot.Allocator

	// Store returns the transform store uploaded each tick.
	Store() transform.Store

	// Batcher returns the draw batcher flushed each tick.
	Batcher() batcher.Batcher

	// Scheduler returns the loop scheduler.
	Scheduler() scheduler.Scheduler

	// Bus returns the signal bus advanced at the end of every tick.
	Bus() *signal.Bus

	// Input returns the input state window callbacks should feed.
	Input() input.State

	// Camera returns the camera whose matrices are uploaded each tick.
	Camera() camera.Camera

	// Profiler returns the profiler recording tick statistics.
	Profiler() *profiler.Profiler
}

var _ Engine = &engine{}

// NewEngine creates an Engine drawing into the sink configured with WithSink.
// Panics if no sink is configured or an injected allocator and store disagree on capacity.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	defaults := config.Default()
	e := &engine{
		capacity:    slot.DefaultCapacity,
		keys:        defaults.Keys,
		color:       defaults.Render.Color,
		tickHz:      defaults.Loop.TickHz,
		rateLimiter: defaults.Loop.RateLimiter,
		packWorkers: -1,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.sink == nil {
		panic("engine: NewEngine requires a Sink (use WithSink)")
	}
	if e.presenter == nil {
		if p, ok := e.sink.(Presenter); ok {
			e.presenter = p
		} else {
			panic("engine: sink does not present frames and no Presenter was configured")
		}
	}

	if e.allocator == nil {
		e.allocator = slot.NewAllocator(e.capacity)
	}
	if e.store == nil {
		e.store = transform.NewStore(e.allocator.Capacity())
	}
	if e.allocator.Capacity() != e.store.Capacity() {
		panic(fmt.Sprintf("engine: allocator capacity %d does not match transform store capacity %d",
			e.allocator.Capacity(), e.store.Capacity()))
	}

	var batcherOptions []batcher.BatcherBuilderOption
	if e.packWorkers >= 0 {
		batcherOptions = append(batcherOptions, batcher.WithPackWorkers(e.packWorkers))
	}
	e.batcher = batcher.NewBatcher(e.sink, batcherOptions...)

	schedulerOptions := []scheduler.SchedulerBuilderOption{scheduler.WithRateLimiter(e.rateLimiter)}
	if e.clock != nil {
		schedulerOptions = append(schedulerOptions, scheduler.WithClock(e.clock))
	}
	e.scheduler = scheduler.NewScheduler(schedulerOptions...)
	e.scheduler.SetTargetHz(e.tickHz)

	if e.bus == nil {
		e.bus = signal.NewBus()
	}
	e.input = input.NewState(e.bus)
	for _, key := range []uint32{e.keys.ToggleLimiter, e.keys.Faster, e.keys.Slower, e.keys.Quit} {
		e.input.Track(key)
	}

	if e.camera == nil {
		e.camera = camera.NewCamera()
	}
	e.profiler = profiler.NewProfiler(e.profilerOptions...)

	return e
}

func (e *engine) Run() error {
	e.quit.Store(false)
	err := e.scheduler.Start(e.scheduler.TargetHz(), e.tick, e.shouldStop, e.recordStats)
	if err != nil {
		log.Printf("[Engine] stopped at epoch %d: %v", e.bus.Epoch(), err)
	}
	return err
}

func (e *engine) Quit() {
	e.quit.Store(true)
}

func (e *engine) SetTickCallback(callback func(dt float64) error) {
	e.tickCallback = callback
}

func (e *engine) SetTickRate(hz float64) {
	if !scheduler.ValidHz(hz) {
		return
	}
	e.scheduler.SetTargetHz(hz)
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) Allocator() slot.Allocator {
	return e.allocator
}

func (e *engine) Store() transform.Store {
	return e.store
}

func (e *engine) Batcher() batcher.Batcher {
	return e.batcher
}

func (e *engine) Scheduler() scheduler.Scheduler {
	return e.scheduler
}

func (e *engine) Bus() *signal.Bus {
	return e.bus
}

func (e *engine) Input() input.State {
	return e.input
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) shouldStop() bool {
	if e.quit.Load() {
		return true
	}
	return e.stopCondition != nil && e.stopCondition()
}

// tick runs one frame. The steps run in a fixed order: the flush sees the matrices gameplay set
// this tick, and the bus advances only after the frame is presented.
func (e *engine) tick(dt float64) error {
	if err := e.presenter.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	e.updateCamera(dt)
	frame := camera.NewGPUFrameUniform(e.camera, e.color)
	if err := e.sink.UploadUniform(camera.FrameUniformBinding, frame.Marshal()); err != nil {
		return fmt.Errorf("upload frame uniform: %w", err)
	}

	if e.tickCallback != nil {
		if err := e.tickCallback(dt); err != nil {
			return fmt.Errorf("tick callback: %w", err)
		}
	}

	if err := e.batcher.DrawEverything(); err != nil {
		if !recoverable(err) {
			return fmt.Errorf("flush: %w", err)
		}
		log.Printf("[Engine] epoch %d: %v", e.bus.Epoch(), err)
	}

	if err := e.store.Upload(e.sink); err != nil {
		return fmt.Errorf("upload transforms: %w", err)
	}

	if err := e.presenter.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}

	e.bus.Advance()
	e.handleHotkeys()
	return nil
}

// updateCamera applies held movement keys and the accumulated mouse delta.
func (e *engine) updateCamera(dt float64) {
	in, k := e.input, e.keys
	e.camera.Move(camera.Movement{
		Forward: in.IsPressed(k.Forward),
		Back:    in.IsPressed(k.Back),
		Left:    in.IsPressed(k.Left),
		Right:   in.IsPressed(k.Right),
		Up:      in.IsPressed(k.Up),
		Down:    in.IsPressed(k.Down),
		Fast:    in.IsPressed(k.Fast),
		Slow:    in.IsPressed(k.Slow),
	}, dt)
	if dx, dy := in.ConsumeMouseDelta(); dx != 0 || dy != 0 {
		e.camera.Look(dx, dy)
	}
}

// handleHotkeys reacts to the edge-triggered keys committed by the bus advance.
func (e *engine) handleHotkeys() {
	in, k := e.input, e.keys
	if in.JustPressed(k.ToggleLimiter) {
		enabled := !e.scheduler.RateLimiterEnabled()
		e.scheduler.SetRateLimiterEnabled(enabled)
		log.Printf("[Engine] rate limiter enabled: %t", enabled)
	}
	if in.JustPressed(k.Faster) {
		hz := e.scheduler.TargetHz() * 2
		e.scheduler.SetTargetHz(hz)
		log.Printf("[Engine] target rate %.1f Hz", hz)
	}
	if in.JustPressed(k.Slower) {
		hz := max(e.scheduler.TargetHz()/2, minTickHz)
		e.scheduler.SetTargetHz(hz)
		log.Printf("[Engine] target rate %.1f Hz", hz)
	}
	if in.JustPressed(k.Quit) {
		e.Quit()
	}
}

func (e *engine) recordStats(st scheduler.Stats) {
	if e.profilingEnabled.Load() {
		e.profiler.Record(st, e.batcher.Stats())
	}
	if e.statsCallback != nil {
		e.statsCallback(st)
	}
}

// recoverable reports whether every error joined in err is a rejected batch, which costs the
// frame that program's draw but leaves the loop healthy.
func recoverable(err error) bool {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		if !errors.Is(e, common.ErrBufferOverflow) && !errors.Is(e, common.ErrMalformedSubmission) {
			return false
		}
	}
	return true
}
