// Package regrid converts gridded variables between the rectilinear grids
// of two coupled cores. A Mapping is a matrix of fractional cell-overlap
// areas: applying it to a source field yields the area-weighted average of
// the source on every destination cell. Destination cells only partially
// covered by the source grid are rescaled by their covered fraction so the
// field is not damped near non-matching boundaries.
package regrid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Grid is a rectilinear grid given by its node coordinates along each axis.
// An empty Y means a one-dimensional grid.
type Grid struct {
	X []float64
	Y []float64
}

// NX returns the number of cells along the x axis.
func (g Grid) NX() int { return len(g.X) }

// NY returns the number of cells along the y axis, 1 for a 1D grid.
func (g Grid) NY() int {
	if len(g.Y) == 0 {
		return 1
	}
	return len(g.Y)
}

// Cells returns the total cell count of the flattened, row-major field.
func (g Grid) Cells() int { return g.NX() * g.NY() }

// Equal reports whether two grids have identical node coordinates.
func (g Grid) Equal(other Grid) bool {
	if g.NX() != other.NX() || g.NY() != other.NY() {
		return false
	}
	for i := range g.X {
		if g.X[i] != other.X[i] {
			return false
		}
	}
	for i := range g.Y {
		if g.Y[i] != other.Y[i] {
			return false
		}
	}
	return true
}

// cellEdges places cell boundaries at the midpoints between nodes and
// extrapolates the outer boundaries half a spacing beyond the end nodes,
// so every node owns a finite cell.
func cellEdges(coords []float64) ([]float64, error) {
	n := len(coords)
	if n == 0 {
		return nil, fmt.Errorf("axis has no coordinates")
	}
	for i := 1; i < n; i++ {
		if coords[i] <= coords[i-1] {
			return nil, fmt.Errorf("axis coordinates not strictly increasing at index %d", i)
		}
	}
	if n == 1 {
		return []float64{coords[0] - 0.5, coords[0] + 0.5}, nil
	}
	edges := make([]float64, n+1)
	edges[0] = coords[0] - (coords[1]-coords[0])/2
	for i := 1; i < n; i++ {
		edges[i] = (coords[i-1] + coords[i]) / 2
	}
	edges[n] = coords[n-1] + (coords[n-1]-coords[n-2])/2
	return edges, nil
}

// axisWeights returns the per-axis overlap matrix w[i][j]: the length of
// the overlap between destination cell i and source cell j, as a fraction
// of the destination cell length.
func axisWeights(dstEdges, srcEdges []float64) [][]float64 {
	nd := len(dstEdges) - 1
	ns := len(srcEdges) - 1
	w := make([][]float64, nd)
	for i := 0; i < nd; i++ {
		w[i] = make([]float64, ns)
		d0, d1 := dstEdges[i], dstEdges[i+1]
		length := d1 - d0
		for j := 0; j < ns; j++ {
			overlap := math.Min(d1, srcEdges[j+1]) - math.Max(d0, srcEdges[j])
			if overlap > 0 {
				w[i][j] = overlap / length
			}
		}
	}
	return w
}

// Mapping converts flat, row-major fields from a source grid to a
// destination grid.
type Mapping struct {
	weights    *mat.Dense
	correction []float64
	nSrc       int
	nDst       int
}

// NewMapping builds the overlap weight matrix between two grids. Grids must
// have the same rank: coupling a 1D core to a 2D core is not defined.
func NewMapping(dst, src Grid) (*Mapping, error) {
	if (len(dst.Y) > 0) != (len(src.Y) > 0) {
		return nil, fmt.Errorf("cannot map between grids of different rank (%dx%d and %dx%d)",
			dst.NY(), dst.NX(), src.NY(), src.NX())
	}

	dstX, err := cellEdges(dst.X)
	if err != nil {
		return nil, fmt.Errorf("destination grid: %w", err)
	}
	srcX, err := cellEdges(src.X)
	if err != nil {
		return nil, fmt.Errorf("source grid: %w", err)
	}

	wx := axisWeights(dstX, srcX)
	// A y axis with a single node is still a 2D grid and still needs its
	// overlap weights; only a missing y axis means 1D.
	wy := [][]float64{{1}}
	if len(dst.Y) > 0 {
		dstY, err := cellEdges(dst.Y)
		if err != nil {
			return nil, fmt.Errorf("destination grid: %w", err)
		}
		srcY, err := cellEdges(src.Y)
		if err != nil {
			return nil, fmt.Errorf("source grid: %w", err)
		}
		wy = axisWeights(dstY, srcY)
	}

	m := &Mapping{
		nSrc: src.Cells(),
		nDst: dst.Cells(),
	}
	m.weights = mat.NewDense(m.nDst, m.nSrc, nil)
	m.correction = make([]float64, m.nDst)

	nxd, nxs := dst.NX(), src.NX()
	for iy := 0; iy < dst.NY(); iy++ {
		for ix := 0; ix < nxd; ix++ {
			row := iy*nxd + ix
			sum := 0.0
			for jy := 0; jy < src.NY(); jy++ {
				if wy[iy][jy] == 0 {
					continue
				}
				for jx := 0; jx < nxs; jx++ {
					w := wy[iy][jy] * wx[ix][jx]
					if w == 0 {
						continue
					}
					m.weights.Set(row, jy*nxs+jx, w)
					sum += w
				}
			}
			// Uncovered destination cells stay zero; partially covered
			// ones are rescaled to a proper average.
			if sum > 0 {
				m.correction[row] = 1 / sum
			}
		}
	}

	return m, nil
}

// Apply maps a flat source field onto the destination grid.
func (m *Mapping) Apply(src []float64) ([]float64, error) {
	if len(src) != m.nSrc {
		return nil, fmt.Errorf("field has %d cells, mapping expects %d", len(src), m.nSrc)
	}
	out := mat.NewVecDense(m.nDst, nil)
	out.MulVec(m.weights, mat.NewVecDense(m.nSrc, src))

	dst := make([]float64, m.nDst)
	for i := range dst {
		dst[i] = out.AtVec(i) * m.correction[i]
	}
	return dst, nil
}
