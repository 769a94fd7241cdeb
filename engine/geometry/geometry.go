// Package geometry generates indexed meshes for the draw batcher.
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is an indexed triangle list in object space, or a line list when built by Wireframe.
type Mesh struct {
	Indices   []uint32
	Positions []mgl32.Vec3
}

// Triangles returns the number of triangles in the mesh.
func (m Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// Wireframe returns the unique edges of a triangle mesh as a line list over the same positions.
// Each edge shared by two triangles appears once, in order of first use.
//
// Parameters:
//   - m: the triangle mesh
//
// Returns:
//   - Mesh: a line list with two indices per edge
func Wireframe(m Mesh) Mesh {
	seen := make(map[[2]uint32]struct{}, len(m.Indices))
	indices := make([]uint32, 0, len(m.Indices))
	for t := 0; t+2 < len(m.Indices); t += 3 {
		tri := m.Indices[t : t+3]
		for i := range 3 {
			a, b := tri[i], tri[(i+1)%3]
			key := [2]uint32{min(a, b), max(a, b)}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			indices = append(indices, a, b)
		}
	}
	return Mesh{Indices: indices, Positions: m.Positions}
}

// Triangle returns a single counter-clockwise triangle in the z = 0 plane.
//
// Returns:
//   - Mesh: the triangle
func Triangle() Mesh {
	return Mesh{
		Indices: []uint32{0, 1, 2},
		Positions: []mgl32.Vec3{
			{-0.5, -0.5, 0},
			{0.5, -0.5, 0},
			{0, 0.5, 0},
		},
	}
}

// Icosphere builds a sphere by repeatedly subdividing an icosahedron and projecting new
// vertices onto the sphere. Shared edges reuse their midpoint so the mesh stays welded.
//
// Parameters:
//   - subdivisions: the number of subdivision passes; 0 yields the icosahedron
//   - radius: the sphere radius
//
// Returns:
//   - Mesh: the sphere, with 20*4^subdivisions triangles
func Icosphere(subdivisions int, radius float32) Mesh {
	t := float32((1 + math.Sqrt(5)) / 2)
	positions := []mgl32.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i := range positions {
		positions[i] = positions[i].Normalize()
	}
	faces := [][3]uint32{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for range max(subdivisions, 0) {
		midpoints := make(map[[2]uint32]uint32, len(faces)*3/2)
		midpoint := func(a, b uint32) uint32 {
			key := [2]uint32{min(a, b), max(a, b)}
			if idx, ok := midpoints[key]; ok {
				return idx
			}
			idx := uint32(len(positions))
			positions = append(positions, positions[a].Add(positions[b]).Normalize())
			midpoints[key] = idx
			return idx
		}

		next := make([][3]uint32, 0, len(faces)*4)
		for _, f := range faces {
			ab := midpoint(f[0], f[1])
			bc := midpoint(f[1], f[2])
			ca := midpoint(f[2], f[0])
			next = append(next,
				[3]uint32{f[0], ab, ca},
				[3]uint32{f[1], bc, ab},
				[3]uint32{f[2], ca, bc},
				[3]uint32{ab, bc, ca},
			)
		}
		faces = next
	}

	indices := make([]uint32, 0, len(faces)*3)
	for _, f := range faces {
		indices = append(indices, f[0], f[1], f[2])
	}
	for i := range positions {
		positions[i] = positions[i].Mul(radius)
	}
	return Mesh{Indices: indices, Positions: positions}
}
