package gpu

// Vertex is one corner of the shared instance geometry.
type Vertex struct {
	Pos      [4]int8
	TexCoord [2]int8
}

// Geometry is the fixed vertex and index data drawn once per instance.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint16
}

func vertex(x, y, z, u, v int8) Vertex {
	return Vertex{Pos: [4]int8{x, y, z, 1}, TexCoord: [2]int8{u, v}}
}

// Cube returns a unit cube spanning [-1, 1] on every axis, four vertices per
// face so each face can carry its own texture coordinates.
func Cube() Geometry {
	return Geometry{
		Vertices: []Vertex{
			// top (0, 0, 1)
			vertex(-1, -1, 1, 0, 0), vertex(1, -1, 1, 1, 0), vertex(1, 1, 1, 1, 1), vertex(-1, 1, 1, 0, 1),
			// bottom (0, 0, -1)
			vertex(-1, 1, -1, 1, 0), vertex(1, 1, -1, 0, 0), vertex(1, -1, -1, 0, 1), vertex(-1, -1, -1, 1, 1),
			// right (1, 0, 0)
			vertex(1, -1, -1, 0, 0), vertex(1, 1, -1, 1, 0), vertex(1, 1, 1, 1, 1), vertex(1, -1, 1, 0, 1),
			// left (-1, 0, 0)
			vertex(-1, -1, 1, 1, 0), vertex(-1, 1, 1, 0, 0), vertex(-1, 1, -1, 0, 1), vertex(-1, -1, -1, 1, 1),
			// front (0, 1, 0)
			vertex(1, 1, -1, 1, 0), vertex(-1, 1, -1, 0, 0), vertex(-1, 1, 1, 0, 1), vertex(1, 1, 1, 1, 1),
			// back (0, -1, 0)
			vertex(1, -1, 1, 0, 0), vertex(-1, -1, 1, 1, 0), vertex(-1, -1, -1, 1, 1), vertex(1, -1, -1, 0, 1),
		},
		Indices: []uint16{
			0, 1, 2, 2, 3, 0, // top
			4, 5, 6, 6, 7, 4, // bottom
			8, 9, 10, 10, 11, 8, // right
			12, 13, 14, 14, 15, 12, // left
			16, 17, 18, 18, 19, 16, // front
			20, 21, 22, 22, 23, 20, // back
		},
	}
}
