// Package config loads the YAML configuration file and resolves it against compiled-in defaults.
//
// Every setting follows the same rule: the configured value when present and valid, otherwise
// the default. Invalid values are reported and replaced, never fatal.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// File mirrors the YAML document. Pointer and nil-able fields distinguish "absent" from zero.
type File struct {
	Window WindowFile        `yaml:"window"`
	Loop   LoopFile          `yaml:"loop"`
	Camera CameraFile        `yaml:"camera"`
	Render RenderFile        `yaml:"render"`
	Keys   map[string]string `yaml:"keys"`
}

type WindowFile struct {
	Title        *string `yaml:"title"`
	Width        *int    `yaml:"width"`
	Height       *int    `yaml:"height"`
	CaptureMouse *bool   `yaml:"capture_mouse"`
}

type LoopFile struct {
	TickHz      *float64 `yaml:"tick_hz"`
	RateLimiter *bool    `yaml:"rate_limiter"`
}

type CameraFile struct {
	FovDegrees  *float64 `yaml:"fov_degrees"`
	Near        *float64 `yaml:"near"`
	Far         *float64 `yaml:"far"`
	Speed       *float64 `yaml:"speed"`
	Sensitivity *float64 `yaml:"sensitivity"`
}

type RenderFile struct {
	Color     []float64 `yaml:"color"`
	VSync     *bool     `yaml:"vsync"`
	Wireframe *bool     `yaml:"wireframe"`
}

// Config is the fully resolved configuration. Every field holds a usable value.
type Config struct {
	Window Window
	Loop   Loop
	Camera Camera
	Render Render
	Keys   Keys
}

type Window struct {
	Title        string
	Width        int
	Height       int
	CaptureMouse bool
}

type Loop struct {
	TickHz      float64
	RateLimiter bool
}

type Camera struct {
	FovDegrees  float32
	Near        float32
	Far         float32
	Speed       float32
	Sensitivity float32
}

type Render struct {
	Color     mgl32.Vec4
	VSync     bool
	Wireframe bool
}

// Keys holds the resolved key code for every bindable action.
type Keys struct {
	Forward       uint32
	Back          uint32
	Left          uint32
	Right         uint32
	Up            uint32
	Down          uint32
	Fast          uint32
	Slow          uint32
	ToggleLimiter uint32
	Faster        uint32
	Slower        uint32
	Quit          uint32
}

// Default returns the compiled-in configuration.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: Window{Title: "oxy-batch", Width: 800, Height: 800, CaptureMouse: true},
		Loop:   Loop{TickHz: 120, RateLimiter: true},
		Camera: Camera{FovDegrees: 90, Near: 0.01, Far: 100, Speed: 2, Sensitivity: 0.002},
		Render: Render{Color: mgl32.Vec4{0, 1, 1, 1}, VSync: false, Wireframe: true},
		Keys: Keys{
			Forward:       common.KeyW,
			Back:          common.KeyS,
			Left:          common.KeyA,
			Right:         common.KeyD,
			Up:            common.KeySpace,
			Down:          common.KeyLeftShift,
			Fast:          common.KeyTab,
			Slow:          common.KeyLeftControl,
			ToggleLimiter: common.KeyL,
			Faster:        common.KeyEqual,
			Slower:        common.KeyMinus,
			Quit:          common.KeyEsc,
		},
	}
}

// Load reads and resolves the configuration file at path.
// An empty path or a missing file yields the defaults. Invalid values are logged and replaced.
//
// Parameters:
//   - path: the YAML file path
//
// Returns:
//   - Config: the resolved configuration
//   - error: if the file exists but cannot be read or parsed
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[Config] %s not found, using defaults", path)
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg, issues := Resolve(f)
	for _, issue := range issues {
		log.Printf("[Config] %s: %v", path, issue)
	}
	return cfg, nil
}

// Parse decodes a YAML document without resolving it.
//
// Parameters:
//   - data: the YAML bytes
//
// Returns:
//   - File: the decoded document
//   - error: if the document is malformed
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, err
	}
	return f, nil
}

// Resolve applies the configured values over the defaults.
//
// Parameters:
//   - f: the decoded document
//
// Returns:
//   - Config: the resolved configuration
//   - []error: one entry per value that was present but invalid and fell back to its default
func Resolve(f File) (Config, []error) {
	cfg := Default()
	r := &resolver{}

	cfg.Window.Title = pick(r, "window.title", f.Window.Title, cfg.Window.Title, func(v string) bool { return v != "" })
	cfg.Window.Width = pick(r, "window.width", f.Window.Width, cfg.Window.Width, positive[int])
	cfg.Window.Height = pick(r, "window.height", f.Window.Height, cfg.Window.Height, positive[int])
	cfg.Window.CaptureMouse = pick(r, "window.capture_mouse", f.Window.CaptureMouse, cfg.Window.CaptureMouse, nil)

	cfg.Loop.TickHz = pick(r, "loop.tick_hz", f.Loop.TickHz, cfg.Loop.TickHz, positive[float64])
	cfg.Loop.RateLimiter = pick(r, "loop.rate_limiter", f.Loop.RateLimiter, cfg.Loop.RateLimiter, nil)

	cam := cfg.Camera
	cam.FovDegrees = float32(pick(r, "camera.fov_degrees", f.Camera.FovDegrees, float64(cam.FovDegrees), func(v float64) bool { return v > 0 && v < 180 }))
	cam.Near = float32(pick(r, "camera.near", f.Camera.Near, float64(cam.Near), positive[float64]))
	cam.Far = float32(pick(r, "camera.far", f.Camera.Far, float64(cam.Far), positive[float64]))
	if cam.Far <= cam.Near {
		r.report("camera.far", fmt.Sprintf("%v is not beyond near plane %v", cam.Far, cam.Near))
		cam.Near, cam.Far = cfg.Camera.Near, cfg.Camera.Far
	}
	cam.Speed = float32(pick(r, "camera.speed", f.Camera.Speed, float64(cam.Speed), positive[float64]))
	cam.Sensitivity = float32(pick(r, "camera.sensitivity", f.Camera.Sensitivity, float64(cam.Sensitivity), positive[float64]))
	cfg.Camera = cam

	if f.Render.Color != nil {
		if c, ok := color(f.Render.Color); ok {
			cfg.Render.Color = c
		} else {
			r.report("render.color", fmt.Sprintf("%v is not four components in [0, 1]", f.Render.Color))
		}
	}
	cfg.Render.VSync = pick(r, "render.vsync", f.Render.VSync, cfg.Render.VSync, nil)
	cfg.Render.Wireframe = pick(r, "render.wireframe", f.Render.Wireframe, cfg.Render.Wireframe, nil)

	bindings := cfg.Keys.byName()
	for action, name := range f.Keys {
		dst, ok := bindings[action]
		if !ok {
			r.report("keys."+action, "unknown action")
			continue
		}
		code, ok := common.KeyByName(name)
		if !ok {
			r.report("keys."+action, fmt.Sprintf("unknown key %q", name))
			continue
		}
		*dst = code
	}

	return cfg, r.issues
}

// byName maps configuration action names to the fields they bind.
func (k *Keys) byName() map[string]*uint32 {
	return map[string]*uint32{
		"forward":        &k.Forward,
		"back":           &k.Back,
		"left":           &k.Left,
		"right":          &k.Right,
		"up":             &k.Up,
		"down":           &k.Down,
		"fast":           &k.Fast,
		"slow":           &k.Slow,
		"toggle_limiter": &k.ToggleLimiter,
		"faster":         &k.Faster,
		"slower":         &k.Slower,
		"quit":           &k.Quit,
	}
}

type resolver struct {
	issues []error
}

func (r *resolver) report(field, reason string) {
	r.issues = append(r.issues, fmt.Errorf("%s: %s, using default", field, reason))
}

// pick returns *v when it is present and passes valid (nil accepts anything), else def.
func pick[T any](r *resolver, field string, v *T, def T, valid func(T) bool) T {
	if v == nil {
		return def
	}
	if valid != nil && !valid(*v) {
		r.report(field, fmt.Sprintf("invalid value %v", *v))
		return def
	}
	return *v
}

func positive[T int | float64](v T) bool {
	return v > 0
}

func color(c []float64) (mgl32.Vec4, bool) {
	if len(c) != 4 {
		return mgl32.Vec4{}, false
	}
	var out mgl32.Vec4
	for i, v := range c {
		if v < 0 || v > 1 {
			return mgl32.Vec4{}, false
		}
		out[i] = float32(v)
	}
	return out, true
}
