package input

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/Carmen-Shannon/oxy-batch/engine/signal"
)

func TestIsPressed(t *testing.T) {
	s := NewState(signal.NewBus())
	s.KeyDown(common.KeyW)
	if !s.IsPressed(common.KeyW) {
		t.Fatal("W not pressed after KeyDown")
	}
	s.KeyUp(common.KeyW)
	if s.IsPressed(common.KeyW) {
		t.Fatal("W still pressed after KeyUp")
	}
}

func TestJustPressedOncePerHold(t *testing.T) {
	bus := signal.NewBus()
	s := NewState(bus)
	s.Track(common.KeyL)

	s.KeyDown(common.KeyL)
	if s.JustPressed(common.KeyL) {
		t.Fatal("press visible before the tick boundary")
	}
	bus.Advance()
	if !s.JustPressed(common.KeyL) {
		t.Fatal("press not reported after the boundary")
	}
	bus.Advance()
	if s.JustPressed(common.KeyL) {
		t.Fatal("held key reported twice")
	}

	s.KeyUp(common.KeyL)
	bus.Advance()
	s.KeyDown(common.KeyL)
	bus.Advance()
	if !s.JustPressed(common.KeyL) {
		t.Fatal("second press not reported")
	}
}

func TestTapWithinOneTick(t *testing.T) {
	bus := signal.NewBus()
	s := NewState(bus)
	s.Track(common.KeyEqual)

	s.KeyDown(common.KeyEqual)
	s.KeyUp(common.KeyEqual)
	bus.Advance()
	if !s.JustPressed(common.KeyEqual) {
		t.Fatal("tap inside a single tick was lost")
	}
	bus.Advance()
	if s.JustPressed(common.KeyEqual) {
		t.Fatal("tap reported on the following tick")
	}
}

func TestUntrackedKey(t *testing.T) {
	bus := signal.NewBus()
	s := NewState(bus)
	s.KeyDown(common.KeyQ)
	bus.Advance()
	if s.JustPressed(common.KeyQ) {
		t.Fatal("untracked key reported an edge")
	}
}

func TestTrackTwice(t *testing.T) {
	bus := signal.NewBus()
	s := NewState(bus)
	s.Track(common.KeyE)
	n := bus.Listeners()
	s.Track(common.KeyE)
	if bus.Listeners() != n {
		t.Fatalf("listeners = %d, want %d", bus.Listeners(), n)
	}
}

func TestMouseDelta(t *testing.T) {
	s := NewState(signal.NewBus())
	s.MouseMove(100, 100)
	if dx, dy := s.ConsumeMouseDelta(); dx != 0 || dy != 0 {
		t.Fatalf("first move produced delta (%v, %v)", dx, dy)
	}
	s.MouseMove(110, 95)
	s.MouseMove(112, 90)
	dx, dy := s.ConsumeMouseDelta()
	if dx != 12 || dy != -10 {
		t.Fatalf("delta = (%v, %v), want (12, -10)", dx, dy)
	}
	if dx, dy = s.ConsumeMouseDelta(); dx != 0 || dy != 0 {
		t.Fatal("delta not reset after consume")
	}
}
