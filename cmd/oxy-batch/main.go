// Command oxy-batch opens a window and draws a spinning icosphere through the batched renderer,
// flown with an FPS camera. With -headless the same engine runs against an in-memory recorder.
package main

import (
	"flag"
	"log"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/Carmen-Shannon/oxy-batch/engine"
	"github.com/Carmen-Shannon/oxy-batch/engine/camera"
	"github.com/Carmen-Shannon/oxy-batch/engine/config"
	"github.com/Carmen-Shannon/oxy-batch/engine/game_object"
	"github.com/Carmen-Shannon/oxy-batch/engine/geometry"
	"github.com/Carmen-Shannon/oxy-batch/engine/renderer"
	"github.com/Carmen-Shannon/oxy-batch/engine/renderer/recorder"
	"github.com/Carmen-Shannon/oxy-batch/engine/scene"
	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/Carmen-Shannon/oxy-batch/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	solidColor common.ProgramID = "solid_color"

	// Per-flush geometry limits of the solid colour program.
	maxVertices = 1 << 16
	maxIndices  = 1 << 18
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	headless := flag.Bool("headless", false, "run without a window against an in-memory recorder")
	ticks := flag.Int("ticks", 600, "number of ticks to run in headless mode")
	hz := flag.Float64("hz", 0, "target tick rate, overriding the configuration")
	uncapped := flag.Bool("uncapped", false, "disable the rate limiter")
	profile := flag.Bool("profile", false, "log tick statistics once per second")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}
	if *hz > 0 {
		cfg.Loop.TickHz = *hz
	}
	if *uncapped {
		cfg.Loop.RateLimiter = false
	}

	if *headless {
		err = runHeadless(cfg, *ticks, *profile)
	} else {
		err = runWindowed(cfg, *profile)
	}
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}
}

func runWindowed(cfg config.Config, profile bool) error {
	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithCursorCaptured(cfg.Window.CaptureMouse),
	)
	defer win.Close()

	presentMode := renderer.PresentModeUncapped
	if cfg.Render.VSync {
		presentMode = renderer.PresentModeVSync
	}
	r := renderer.NewRenderer(
		renderer.BackendTypeWGPU,
		win,
		renderer.WithPresentMode(presentMode),
		renderer.WithTransformCapacity(slot.DefaultCapacity),
	)
	defer r.Release()

	if err := r.RegisterProgram(solidColor, renderer.ProgramDescriptor{
		Label:       string(solidColor),
		MaxVertices: maxVertices,
		MaxIndices:  maxIndices,
		Lines:       cfg.Render.Wireframe,
	}); err != nil {
		return err
	}

	cam := newCamera(cfg, float32(win.Width())/float32(max(win.Height(), 1)))
	eng := engine.NewEngine(
		engine.WithSink(r),
		engine.WithConfig(cfg),
		engine.WithCamera(cam),
		engine.WithProfiling(profile),
		engine.WithStopCondition(func() bool {
			win.PollEvents()
			return win.ShouldClose()
		}),
	)

	eng.Batcher().Register(r.Programs()...)

	in := eng.Input()
	win.SetKeyDownCallback(in.KeyDown)
	win.SetKeyUpCallback(in.KeyUp)
	win.SetMouseMoveCallback(in.MouseMove)
	win.SetResizeCallback(func(width, height int) {
		r.Resize(width, height)
		if height > 0 {
			cam.SetAspect(float32(width) / float32(height))
		}
	})

	world, err := newWorld(eng, cfg)
	if err != nil {
		return err
	}
	eng.SetTickCallback(world.Tick)

	log.Printf("[Main] running at %.0f Hz (rate limiter %t)", cfg.Loop.TickHz, cfg.Loop.RateLimiter)
	return eng.Run()
}

func runHeadless(cfg config.Config, ticks int, profile bool) error {
	rec := recorder.NewRecorder(
		recorder.WithCallLog(false),
		recorder.WithCapacity(solidColor, maxVertices, maxIndices),
	)

	ran := 0
	eng := engine.NewEngine(
		engine.WithSink(rec),
		engine.WithConfig(cfg),
		engine.WithCamera(newCamera(cfg, float32(cfg.Window.Width)/float32(cfg.Window.Height))),
		engine.WithProfiling(profile),
		engine.WithStopCondition(func() bool { return ran >= ticks }),
	)

	world, err := newWorld(eng, cfg)
	if err != nil {
		return err
	}
	eng.SetTickCallback(func(dt float64) error {
		ran++
		return world.Tick(dt)
	})

	if err := eng.Run(); err != nil {
		return err
	}
	t := rec.Totals()
	log.Printf("[Main] headless: %d frames, %d draw calls, %d uniform bytes, %d geometry bytes",
		t.Frames, t.DrawCalls, t.UniformBytes, t.GeometryBytes)
	return nil
}

func newCamera(cfg config.Config, aspect float32) camera.Camera {
	return camera.NewCamera(
		camera.WithPosition(mgl32.Vec3{0, 0, 3}),
		camera.WithFov(mgl32.DegToRad(cfg.Camera.FovDegrees)),
		camera.WithAspect(aspect),
		camera.WithClipPlanes(cfg.Camera.Near, cfg.Camera.Far),
		camera.WithSpeed(cfg.Camera.Speed),
		camera.WithSensitivity(cfg.Camera.Sensitivity),
	)
}

// newWorld creates the demo scene holding a single spinning icosphere, drawn as edges when
// the configuration asks for wireframe.
func newWorld(eng engine.Engine, cfg config.Config) (scene.Scene, error) {
	mesh := geometry.Icosphere(3, 1)
	if cfg.Render.Wireframe {
		mesh = geometry.Wireframe(mesh)
	}
	world := scene.NewScene("demo", eng.Allocator(), eng.Store(), eng.Batcher())
	ball := game_object.NewGameObject(
		game_object.WithMesh(mesh),
		game_object.WithProgram(solidColor),
		game_object.WithRotationSpeed(mgl32.Vec3{0, 0.5, 0}),
	)
	if _, err := world.Add(ball); err != nil {
		return nil, err
	}
	return world, nil
}
