// Package terrain generates and samples the procedural height-field the
// runway simulation rolls across.
package terrain

import (
	"math"
	"math/rand"

	"rollaway/server/internal/mathx"
)

const (
	// DefaultWidth is the grid sample count along the x axis.
	DefaultWidth = 100
	// DefaultDepth is the grid sample count along the z axis.
	DefaultDepth = 200
	// DefaultGridSize is the world-unit spacing between neighbouring samples.
	DefaultGridSize = 1.0

	// roadHalfWidth is the flat band half-width in grid cells around the x centre.
	roadHalfWidth = 4.0
	// roadHeight is the fixed elevation of the road band.
	roadHeight = 0.1
	// ditchSlope is the linear falloff applied outside the road band.
	ditchSlope = 0.1
	// jitterAmplitude bounds the uniform per-sample noise.
	jitterAmplitude = 0.1
	// normalEpsilon is the central-difference step for gradient estimation.
	normalEpsilon = 0.1
	// grassHeight is the elevation above which mesh vertices pick the grass colour.
	grassHeight = 0.2
)

var (
	grassColor = mathx.Vec3{0.1, 0.7, 0.1}
	roadColor  = mathx.Vec3{0.3, 0.3, 0.35}
	dirtColor  = mathx.Vec3{0.5, 0.4, 0.2}
)

// Params describes the grid dimensions of a height-field.
type Params struct {
	Width    int
	Depth    int
	GridSize float64
}

// DefaultParams returns the standard runway grid dimensions.
func DefaultParams() Params {
	return Params{Width: DefaultWidth, Depth: DefaultDepth, GridSize: DefaultGridSize}
}

// sanitized clamps degenerate dimensions so sampling stays well defined.
func (p Params) sanitized() Params {
	if p.Width < 2 {
		p.Width = 2
	}
	if p.Depth < 2 {
		p.Depth = 2
	}
	if !(p.GridSize > 0) {
		p.GridSize = DefaultGridSize
	}
	return p
}

// Terrain is an immutable-after-construction grid of height samples.
type Terrain struct {
	params  Params
	heights []float64
}

// Generate builds a fresh height-field from the closed-form hill, road and
// ditch terms plus uniform jitter drawn from rng. The macro shape is fixed;
// only the jitter varies between seeds.
func Generate(params Params, rng *rand.Rand) *Terrain {
	p := params.sanitized()
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	t := &Terrain{params: p, heights: make([]float64, p.Width*p.Depth)}
	center := float64(p.Width / 2)
	for z := 0; z < p.Depth; z++ {
		for x := 0; x < p.Width; x++ {
			fx, fz := float64(x), float64(z)
			//1.- Combine the two sinusoidal hill terms for the base relief.
			h := math.Sin(fx*0.1)*math.Cos(fz*0.1)*0.5 + math.Sin(fx*0.05+fz*0.03)*0.3
			//2.- Flatten the road band and dig ditches outside of it.
			distFromCenter := math.Abs(fx - center)
			if distFromCenter < roadHalfWidth {
				h = roadHeight
			} else {
				h -= (distFromCenter - roadHalfWidth) * ditchSlope
			}
			//3.- Add bounded uniform jitter so repeated runs stay organic.
			h += (rng.Float64() - 0.5) * jitterAmplitude
			t.heights[z*p.Width+x] = h
		}
	}
	return t
}

// Params returns the grid dimensions the terrain was generated with.
func (t *Terrain) Params() Params {
	if t == nil {
		return Params{}
	}
	return t.params
}

// Parameters exposes the grid dimensions as replay header metadata.
func (t *Terrain) Parameters() map[string]float64 {
	if t == nil {
		return nil
	}
	return map[string]float64{
		"width":     float64(t.params.Width),
		"depth":     float64(t.params.Depth),
		"grid_size": t.params.GridSize,
	}
}

// Sample returns the raw grid sample at the given indices, or 0 when out of range.
func (t *Terrain) Sample(xi, zi int) float64 {
	if t == nil || xi < 0 || xi >= t.params.Width || zi < 0 || zi >= t.params.Depth {
		return 0
	}
	return t.heights[zi*t.params.Width+xi]
}

// Height maps continuous world coordinates onto the grid and bilinearly blends
// the four surrounding samples. Coordinates outside the valid range report 0.
func (t *Terrain) Height(x, z float64) float64 {
	if t == nil {
		return 0
	}
	p := t.params
	gx := (x + float64(p.Width/2)) / p.GridSize
	gz := (z + float64(p.Depth/2)) / p.GridSize
	xi := math.Floor(gx)
	zi := math.Floor(gz)
	if xi < 0 || xi >= float64(p.Width-1) || zi < 0 || zi >= float64(p.Depth-1) {
		return 0
	}
	ix, iz := int(xi), int(zi)
	fx := gx - xi
	fz := gz - zi

	//1.- Blend along x for the near and far rows, then along z between them.
	h00 := t.heights[iz*p.Width+ix]
	h10 := t.heights[iz*p.Width+ix+1]
	h01 := t.heights[(iz+1)*p.Width+ix]
	h11 := t.heights[(iz+1)*p.Width+ix+1]
	near := h00*(1-fx) + h10*fx
	far := h01*(1-fx) + h11*fx
	return near*(1-fz) + far*fz
}

// Normal estimates the surface normal at (x, z) via central differences of the
// height function, falling back to straight up for degenerate gradients.
func (t *Terrain) Normal(x, z float64) mathx.Vec3 {
	hL := t.Height(x-normalEpsilon, z)
	hR := t.Height(x+normalEpsilon, z)
	hD := t.Height(x, z-normalEpsilon)
	hU := t.Height(x, z+normalEpsilon)
	n := mathx.Vec3{hL - hR, 2 * normalEpsilon, hD - hU}
	return mathx.SafeNormalize(n, mathx.Up)
}

// Vertex carries the per-vertex attributes renderers consume.
type Vertex struct {
	Position mathx.Vec3
	Normal   mathx.Vec3
	Color    mathx.Vec3
}

// Mesh is a triangle soup covering the full height-field.
type Mesh struct {
	Vertices []Vertex
}

// TriangleCount reports the number of triangles in the mesh.
func (m Mesh) TriangleCount() int { return len(m.Vertices) / 3 }

// Mesh triangulates the grid into two triangles per cell with colours picked
// by the road/grass/dirt rule. It reads but never mutates the terrain.
func (t *Terrain) Mesh() Mesh {
	if t == nil {
		return Mesh{}
	}
	p := t.params
	center := float64(p.Width / 2)
	mesh := Mesh{Vertices: make([]Vertex, 0, (p.Width-1)*(p.Depth-1)*6)}
	for z := 0; z < p.Depth-1; z++ {
		for x := 0; x < p.Width-1; x++ {
			worldX := float64(x-p.Width/2) * p.GridSize
			worldZ := float64(z-p.Depth/2) * p.GridSize

			//1.- Pick the cell colour: road band first, then grass by elevation.
			var color mathx.Vec3
			switch {
			case math.Abs(float64(x)-center) < roadHalfWidth:
				color = roadColor
			case t.Height(worldX, worldZ) > grassHeight:
				color = grassColor
			default:
				color = dirtColor
			}

			corner := func(dx, dz float64) Vertex {
				wx := worldX + dx*p.GridSize
				wz := worldZ + dz*p.GridSize
				return Vertex{
					Position: mathx.Vec3{wx, t.Height(wx, wz), wz},
					Normal:   t.Normal(wx, wz),
					Color:    color,
				}
			}

			//2.- Emit the two triangles covering this grid cell.
			mesh.Vertices = append(mesh.Vertices,
				corner(0, 0), corner(1, 0), corner(0, 1),
				corner(1, 0), corner(1, 1), corner(0, 1),
			)
		}
	}
	return mesh
}
