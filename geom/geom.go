// Package geom provides the 2D/3D geometric primitives shared by the road
// graph, pathfinder, agent and power packages: vectors, polylines, axis
// aligned and oriented bounding boxes, and the cubic-spline sampler used for
// turn geometry.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is a 2D point or vector; it is an alias of mgl64.Vec2, not a
// distinct type.
type Vec2 = mgl64.Vec2

// Vec3 is used for world positions; Z is height (elevation), not depth.
type Vec3 = mgl64.Vec3

// Epsilon is the default tolerance used for "within epsilon" invariants
// named throughout spec.md (e.g. road endpoint matching intersection pos).
const Epsilon = 1e-4

// NearlyEqual reports whether a and b are within Epsilon of each other.
func NearlyEqual(a, b Vec3) bool {
	return a.Sub(b).Len() <= Epsilon
}

// AABB is an axis-aligned bounding box in the XY plane.
type AABB struct {
	LL, UR Vec2
}

// NewAABB returns the AABB spanning ll to ur, ll and ur need not already be
// ordered.
func NewAABB(ll, ur Vec2) AABB {
	return AABB{
		LL: Vec2{math.Min(ll.X(), ur.X()), math.Min(ll.Y(), ur.Y())},
		UR: Vec2{math.Max(ll.X(), ur.X()), math.Max(ll.Y(), ur.Y())},
	}
}

// Union returns the smallest AABB containing both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		LL: Vec2{math.Min(a.LL.X(), b.LL.X()), math.Min(a.LL.Y(), b.LL.Y())},
		UR: Vec2{math.Max(a.UR.X(), b.UR.X()), math.Max(a.UR.Y(), b.UR.Y())},
	}
}

// Expand grows the AABB by r on every side.
func (a AABB) Expand(r float64) AABB {
	return AABB{
		LL: Vec2{a.LL.X() - r, a.LL.Y() - r},
		UR: Vec2{a.UR.X() + r, a.UR.Y() + r},
	}
}

// Contains reports whether p lies within the AABB.
func (a AABB) Contains(p Vec2) bool {
	return p.X() >= a.LL.X() && p.X() <= a.UR.X() && p.Y() >= a.LL.Y() && p.Y() <= a.UR.Y()
}

// Intersects reports whether a and b overlap.
func (a AABB) Intersects(b AABB) bool {
	return a.LL.X() <= b.UR.X() && a.UR.X() >= b.LL.X() &&
		a.LL.Y() <= b.UR.Y() && a.UR.Y() >= b.LL.Y()
}

// W returns the width of the AABB.
func (a AABB) W() float64 { return a.UR.X() - a.LL.X() }

// H returns the height of the AABB.
func (a AABB) H() float64 { return a.UR.Y() - a.LL.Y() }

// Center returns the midpoint of the AABB.
func (a AABB) Center() Vec2 {
	return Vec2{(a.LL.X() + a.UR.X()) / 2, (a.LL.Y() + a.UR.Y()) / 2}
}

// OBB is an oriented bounding box described by its four corners in winding
// order, used for buildings (spec.md §3 Building.obb).
type OBB struct {
	Corners [4]Vec2
}

// NewOBB builds an OBB centered at center, rotated by the unit vector
// cossin (cos, sin of the heading), with half-extents w, h.
func NewOBB(center, cossin Vec2, w, h float64) OBB {
	up := cossin.Mul(w)
	right := Vec2{-cossin.Y(), cossin.X()}.Mul(h)
	return OBB{Corners: [4]Vec2{
		center.Sub(up).Sub(right),
		center.Sub(up).Add(right),
		center.Add(up).Add(right),
		center.Add(up).Sub(right),
	}}
}

// BBox returns the axis-aligned bounding box enclosing the OBB.
func (o OBB) BBox() AABB {
	ll, ur := o.Corners[0], o.Corners[0]
	for _, c := range o.Corners[1:] {
		ll = Vec2{math.Min(ll.X(), c.X()), math.Min(ll.Y(), c.Y())}
		ur = Vec2{math.Max(ur.X(), c.X()), math.Max(ur.Y(), c.Y())}
	}
	return AABB{LL: ll, UR: ur}
}

// Intersects reports whether two OBBs overlap using the separating-axis
// theorem restricted to each box's own two edge axes (sufficient for two
// convex quadrilaterals with perpendicular edges).
func (o OBB) Intersects(other OBB) bool {
	return o.intersects1Way(other) && other.intersects1Way(o)
}

func (o OBB) intersects1Way(other OBB) bool {
	axes := [2]Vec2{
		o.Corners[1].Sub(o.Corners[0]),
		o.Corners[3].Sub(o.Corners[0]),
	}
	for i, ax := range axes {
		l2 := ax.Dot(ax)
		if l2 == 0 {
			continue
		}
		axis := ax.Mul(1 / l2)
		origin := o.Corners[0].Dot(axis)
		if i == 1 {
			origin = o.Corners[0].Dot(axis)
		}
		tMin, tMax := math.Inf(1), math.Inf(-1)
		for _, c := range other.Corners {
			t := c.Dot(axis)
			tMin = math.Min(tMin, t)
			tMax = math.Max(tMax, t)
		}
		if tMax < origin || tMin > origin+1 {
			return false
		}
	}
	return true
}

// Polyline3 is a 3D polyline, the representation used for road centerlines,
// lane geometry and turn geometry throughout the road graph.
type Polyline3 []Vec3

// Length returns the total arc length of the polyline.
func (p Polyline3) Length() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += p[i].Sub(p[i-1]).Len()
	}
	return total
}

// Reversed returns a new polyline with points in reverse order.
func (p Polyline3) Reversed() Polyline3 {
	out := make(Polyline3, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// First returns the first point, or the zero vector if empty.
func (p Polyline3) First() Vec3 {
	if len(p) == 0 {
		return Vec3{}
	}
	return p[0]
}

// Last returns the final point, or the zero vector if empty.
func (p Polyline3) Last() Vec3 {
	if len(p) == 0 {
		return Vec3{}
	}
	return p[len(p)-1]
}

// Project returns the closest point on the polyline to p, and the distance.
func (p Polyline3) Project(q Vec3) (Vec3, float64) {
	if len(p) == 0 {
		return Vec3{}, math.Inf(1)
	}
	if len(p) == 1 {
		return p[0], p[0].Sub(q).Len()
	}
	best, bestD := p[0], math.Inf(1)
	for i := 1; i < len(p); i++ {
		proj := projectSegment(p[i-1], p[i], q)
		d := proj.Sub(q).Len()
		if d < bestD {
			best, bestD = proj, d
		}
	}
	return best, bestD
}

// PointAtArclength returns the point at distance arclength along the
// polyline, measured from the first point, clamped to [0, Length()].
func (p Polyline3) PointAtArclength(arclength float64) Vec3 {
	if len(p) == 0 {
		return Vec3{}
	}
	if arclength <= 0 {
		return p[0]
	}
	remaining := arclength
	for i := 1; i < len(p); i++ {
		seg := p[i].Sub(p[i-1])
		segLen := seg.Len()
		if remaining <= segLen {
			if segLen == 0 {
				return p[i-1]
			}
			return p[i-1].Add(seg.Mul(remaining / segLen))
		}
		remaining -= segLen
	}
	return p[len(p)-1]
}

func projectSegment(a, b, q Vec3) Vec3 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return a
	}
	t := q.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Mul(t))
}

// Spline geometry constants, tuned per spec.md §4.C.
const (
	TurnAngAdd = 0.29
	TurnAngMul = 0.36
	TurnMul    = 0.46
	NSpline    = 8 // N_SPLINE+2 inclusive of endpoints
)

// CubicSplinePoints samples NSpline points (including both endpoints) of a
// Hermite cubic spline from posSrc to posDst with tangent directions dirSrc
// / dirDst, scaled per spec.md §4.C's turn-geometry rule.
func CubicSplinePoints(posSrc, dirSrc, posDst, dirDst Vec3) Polyline3 {
	chord := posDst.Sub(posSrc).Len()
	angle := angleBetween(dirSrc, dirDst)
	mag := chord * (TurnAngAdd + math.Abs(angle)*TurnAngMul) * TurnMul

	m0 := normalizeOrZero(dirSrc).Mul(mag)
	m1 := normalizeOrZero(dirDst).Mul(mag)

	out := make(Polyline3, NSpline)
	for i := 0; i < NSpline; i++ {
		t := float64(i) / float64(NSpline-1)
		out[i] = hermite(posSrc, m0, posDst, m1, t)
	}
	return out
}

func hermite(p0, m0, p1, m1 Vec3, t float64) Vec3 {
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return p0.Mul(h00).Add(m0.Mul(h10)).Add(p1.Mul(h01)).Add(m1.Mul(h11))
}

func normalizeOrZero(v Vec3) Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

func angleBetween(a, b Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la == 0 || lb == 0 {
		return 0
	}
	cos := a.Dot(b) / (la * lb)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}
