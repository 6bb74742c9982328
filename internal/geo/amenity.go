package geo

import (
	"math"
	"sort"
)

// AmenitySet is an immutable named collection of points with a spatial
// index for nearest-neighbor queries. The index is built once at
// construction and the set is safe for concurrent reads.
//
// Points are indexed as 3-D unit vectors in a k-d tree. Chordal distance
// is monotonic in central angle, so the chord-nearest member is also the
// haversine-nearest one.
type AmenitySet struct {
	name string
	root *kdNode
	size int
}

type kdNode struct {
	vec         [3]float64
	left, right *kdNode
}

// NewAmenitySet builds the set and its index. An empty point list is
// valid: Nearest then returns the 0.0 sentinel.
func NewAmenitySet(name string, points []Point) *AmenitySet {
	vecs := make([][3]float64, len(points))
	for i, p := range points {
		vecs[i] = toUnitVec(p.Lat, p.Lon)
	}
	return &AmenitySet{
		name: name,
		root: buildKD(vecs, 0),
		size: len(points),
	}
}

// Name returns the set's name.
func (s *AmenitySet) Name() string { return s.name }

// Len returns the number of members.
func (s *AmenitySet) Len() int { return s.size }

// Nearest returns the great-circle distance in kilometres from the query
// point to the closest member. Empty sets return 0.0 — a "no penalty, no
// bonus" sentinel, not a realistic distance.
func (s *AmenitySet) Nearest(lat, lon float64) float64 {
	if s.size == 0 {
		return 0.0
	}
	q := toUnitVec(lat, lon)
	best := math.Inf(1)
	nearestKD(s.root, q, 0, &best)
	return chordToKm(math.Sqrt(best))
}

func toUnitVec(lat, lon float64) [3]float64 {
	rlat := lat * math.Pi / 180
	rlon := lon * math.Pi / 180
	return [3]float64{
		math.Cos(rlat) * math.Cos(rlon),
		math.Cos(rlat) * math.Sin(rlon),
		math.Sin(rlat),
	}
}

// chordToKm converts a chord length on the unit sphere to arc length in km.
func chordToKm(chord float64) float64 {
	if chord > 2 {
		chord = 2
	}
	return EarthRadiusKm * 2 * math.Asin(chord/2)
}

func buildKD(vecs [][3]float64, depth int) *kdNode {
	if len(vecs) == 0 {
		return nil
	}
	axis := depth % 3
	sort.Slice(vecs, func(i, j int) bool { return vecs[i][axis] < vecs[j][axis] })
	mid := len(vecs) / 2
	return &kdNode{
		vec:   vecs[mid],
		left:  buildKD(vecs[:mid], depth+1),
		right: buildKD(vecs[mid+1:], depth+1),
	}
}

// nearestKD updates best with the smallest squared chordal distance found.
func nearestKD(n *kdNode, q [3]float64, depth int, best *float64) {
	if n == nil {
		return
	}
	d := sqDist(n.vec, q)
	if d < *best {
		*best = d
	}
	axis := depth % 3
	delta := q[axis] - n.vec[axis]
	near, far := n.left, n.right
	if delta > 0 {
		near, far = far, near
	}
	nearestKD(near, q, depth+1, best)
	if delta*delta < *best {
		nearestKD(far, q, depth+1, best)
	}
}

func sqDist(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}
