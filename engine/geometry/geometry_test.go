package geometry

import (
	"math"
	"testing"
)

func TestIcosphereCounts(t *testing.T) {
	tests := []struct {
		subdivisions int
		triangles    int
		vertices     int
	}{
		{0, 20, 12},
		{1, 80, 42},
		{2, 320, 162},
		{3, 1280, 642},
	}
	for _, tt := range tests {
		m := Icosphere(tt.subdivisions, 1)
		if m.Triangles() != tt.triangles || len(m.Positions) != tt.vertices {
			t.Errorf("subdivisions=%d: %d triangles, %d vertices; want %d, %d",
				tt.subdivisions, m.Triangles(), len(m.Positions), tt.triangles, tt.vertices)
		}
	}
}

func TestIcosphereOnSphere(t *testing.T) {
	m := Icosphere(2, 2.5)
	for i, p := range m.Positions {
		if d := math.Abs(float64(p.Len()) - 2.5); d > 1e-4 {
			t.Fatalf("vertex %d at distance %v from radius", i, d)
		}
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			t.Fatalf("index %d = %d out of range", i, idx)
		}
	}
}

func TestWireframeEdges(t *testing.T) {
	// A closed triangle mesh has three edges per triangle, each shared by two.
	for _, subdivisions := range []int{0, 1, 2} {
		m := Icosphere(subdivisions, 1)
		w := Wireframe(m)
		if want := m.Triangles() * 3; len(w.Indices) != want {
			t.Errorf("subdivisions=%d: %d line indices, want %d", subdivisions, len(w.Indices), want)
		}
		if len(w.Positions) != len(m.Positions) {
			t.Errorf("subdivisions=%d: positions changed", subdivisions)
		}
		edges := make(map[[2]uint32]bool)
		for i := 0; i < len(w.Indices); i += 2 {
			a, b := w.Indices[i], w.Indices[i+1]
			key := [2]uint32{min(a, b), max(a, b)}
			if a == b || edges[key] {
				t.Fatalf("subdivisions=%d: bad or repeated edge %d-%d", subdivisions, a, b)
			}
			edges[key] = true
		}
	}

	tri := Wireframe(Triangle())
	want := []uint32{0, 1, 1, 2, 2, 0}
	for i := range want {
		if tri.Indices[i] != want[i] {
			t.Fatalf("triangle edges = %v, want %v", tri.Indices, want)
		}
	}
}

func TestTriangle(t *testing.T) {
	m := Triangle()
	if m.Triangles() != 1 || len(m.Positions) != 3 {
		t.Fatalf("triangle = %+v", m)
	}
}
