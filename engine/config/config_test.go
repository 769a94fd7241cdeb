package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}

	cfg, err = Load("")
	if err != nil || cfg != Default() {
		t.Fatalf("empty path: cfg=%+v err=%v", cfg, err)
	}
}

func TestLoadOverridesValidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy.yaml")
	doc := `
window:
  title: demo
  width: 1280
  capture_mouse: false
loop:
  tick_hz: 240
  rate_limiter: false
camera:
  fov_degrees: 60
render:
  color: [1, 0, 0, 1]
  wireframe: false
keys:
  forward: up_arrow_is_not_a_key
  back: k
  quit: q
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	def := Default()

	if cfg.Window.Title != "demo" || cfg.Window.Width != 1280 || cfg.Window.Height != def.Window.Height || cfg.Window.CaptureMouse {
		t.Errorf("window = %+v", cfg.Window)
	}
	if cfg.Loop.TickHz != 240 || cfg.Loop.RateLimiter {
		t.Errorf("loop = %+v", cfg.Loop)
	}
	if cfg.Camera.FovDegrees != 60 || cfg.Camera.Near != def.Camera.Near {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	if cfg.Render.Color != (mgl32.Vec4{1, 0, 0, 1}) || cfg.Render.Wireframe {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Keys.Forward != common.KeyW {
		t.Errorf("forward = %d, want default W after an unknown key name", cfg.Keys.Forward)
	}
	if cfg.Keys.Back != 'K' || cfg.Keys.Quit != common.KeyQ {
		t.Errorf("back=%d quit=%d", cfg.Keys.Back, cfg.Keys.Quit)
	}
}

func TestResolveFallsBackPerField(t *testing.T) {
	bad := -3.0
	zero := 0
	fov := 200.0
	f := File{
		Window: WindowFile{Width: &zero},
		Loop:   LoopFile{TickHz: &bad},
		Camera: CameraFile{FovDegrees: &fov},
		Render: RenderFile{Color: []float64{0.5, 0.5}},
		Keys:   map[string]string{"jump": "space"},
	}
	cfg, issues := Resolve(f)
	if cfg != Default() {
		t.Fatalf("cfg = %+v, want defaults for every invalid field", cfg)
	}
	if len(issues) != 5 {
		t.Fatalf("issues = %v, want 5", issues)
	}
}

func TestResolveClipPlanes(t *testing.T) {
	near, far := 10.0, 5.0
	cfg, issues := Resolve(File{Camera: CameraFile{Near: &near, Far: &far}})
	def := Default()
	if cfg.Camera.Near != def.Camera.Near || cfg.Camera.Far != def.Camera.Far {
		t.Fatalf("camera = %+v, want default clip planes", cfg.Camera)
	}
	if len(issues) != 1 {
		t.Fatalf("issues = %v", issues)
	}
}

func TestMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy.yaml")
	if err := os.WriteFile(path, []byte("window: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted malformed YAML")
	}
}
