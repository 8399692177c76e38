package lsp

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
)

const (
	deg2rad = math.Pi / 180
	// zeroε is the magnitude below which a vector is degenerate.
	zeroε = 1e-12
)

// Vector2 is a plain 2D vector. All mutating operations work in place and
// return the receiver so they chain without allocating in the hot loop.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewVector2 returns a new vector.
func NewVector2(x, y float64) Vector2 {
	return Vector2{x, y}
}

// Add adds o to this vector.
func (v *Vector2) Add(o Vector2) *Vector2 {
	v.X += o.X
	v.Y += o.Y
	return v
}

// Sub subtracts o from this vector.
func (v *Vector2) Sub(o Vector2) *Vector2 {
	v.X -= o.X
	v.Y -= o.Y
	return v
}

// Scale multiplies both components by f.
func (v *Vector2) Scale(f float64) *Vector2 {
	v.X *= f
	v.Y *= f
	return v
}

// AddScaled adds f*o to this vector (fused to avoid a temporary).
func (v *Vector2) AddScaled(f float64, o Vector2) *Vector2 {
	v.X += f * o.X
	v.Y += f * o.Y
	return v
}

// Norm returns the Euclidean norm.
func (v Vector2) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// NormSq returns the squared norm, cheaper when only comparing distances.
func (v Vector2) NormSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize scales this vector to unit length. A degenerate input is left
// as the zero vector, never NaN.
func (v *Vector2) Normalize() *Vector2 {
	n := v.Norm()
	if floats.EqualWithinAbs(n, 0, zeroε) {
		v.X, v.Y = 0, 0
		return v
	}
	v.X /= n
	v.Y /= n
	return v
}

// Rotate rotates this vector by θ radians about the origin.
func (v *Vector2) Rotate(θ float64) *Vector2 {
	sinθ, cosθ := math.Sincos(θ)
	x := v.X*cosθ - v.Y*sinθ
	v.Y = v.X*sinθ + v.Y*cosθ
	v.X = x
	return v
}

// RotateAround rotates this vector by θ radians about the given pivot.
func (v *Vector2) RotateAround(pivot Vector2, θ float64) *Vector2 {
	v.Sub(pivot)
	v.Rotate(θ)
	return v.Add(pivot)
}

// Dot returns the inner product with o.
func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the scalar 2D cross product with o, i.e. the z component
// of the 3D cross product. This is the torque about the plane normal.
func (v Vector2) Cross(o Vector2) float64 {
	return v.X*o.Y - v.Y*o.X
}

// DistanceTo returns the distance to o.
func (v Vector2) DistanceTo(o Vector2) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Unit returns the unit vector of v without mutating it.
func (v Vector2) Unit() Vector2 {
	u := v
	u.Normalize()
	return u
}

// Neg returns -v without mutating it.
func (v Vector2) Neg() Vector2 {
	return Vector2{-v.X, -v.Y}
}

// String implements the Stringer interface.
func (v Vector2) String() string {
	return fmt.Sprintf("(%f, %f)", v.X, v.Y)
}

// Deg2rad converts degrees to radians, and enforces only positive numbers.
func Deg2rad(a float64) float64 {
	if a < 0 {
		a += 360
	}
	return math.Mod(a*deg2rad, 2*math.Pi)
}

// Rad2deg converts radians to degrees, and enforces only positive numbers.
func Rad2deg(a float64) float64 {
	if a < 0 {
		a += 2 * math.Pi
	}
	return math.Mod(a/deg2rad, 360)
}
