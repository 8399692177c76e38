package lsp

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gonum/floats"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
	distanceε     = 2e1                          // 20 m

	// keplerIterations is the fixed Newton-Raphson iteration count for
	// solving Kepler's equation. Ten is enough for any closed orbit the
	// game produces.
	keplerIterations = 10
	// keplerSeedEcc is the eccentricity above which the solver seeds E=π
	// instead of E=M for convergence.
	keplerSeedEcc = 0.8
)

// OrbitalElements is an immutable planar ellipse snapshot derived from a
// state vector. It is computed once and consumed every tick by the
// analytic propagator; it is only recomputed when parentage or state is
// reset (e.g. after a maneuver).
type OrbitalElements struct {
	a, b, c      float64 // semi-major, semi-minor, focus-to-center distance (m)
	e            float64 // eccentricity
	ω            float64 // periapsis angle
	μ            float64 // gravitational parameter of the pair
	n            float64 // mean motion
	focusOffset  Vector2 // ellipse center relative to the focus, world frame
	meanAnomaly0 float64
}

// A returns the semi-major axis.
func (o OrbitalElements) A() float64 { return o.a }

// B returns the semi-minor axis.
func (o OrbitalElements) B() float64 { return o.b }

// C returns the focus-to-center distance.
func (o OrbitalElements) C() float64 { return o.c }

// E returns the eccentricity.
func (o OrbitalElements) E() float64 { return o.e }

// Omegaω returns the periapsis angle.
func (o OrbitalElements) Omegaω() float64 { return o.ω }

// MeanMotion returns the mean motion n = √(μ/a³).
func (o OrbitalElements) MeanMotion() float64 { return o.n }

// FocusOffset returns the ellipse-center offset from the focus.
func (o OrbitalElements) FocusOffset() Vector2 { return o.focusOffset }

// MeanAnomaly0 returns the mean anomaly at the time of computation.
func (o OrbitalElements) MeanAnomaly0() float64 { return o.meanAnomaly0 }

// Apoapsis returns the apoapsis radius.
func (o OrbitalElements) Apoapsis() float64 {
	return o.a * (1 + o.e)
}

// Periapsis returns the periapsis radius.
func (o OrbitalElements) Periapsis() float64 {
	return o.a * (1 - o.e)
}

// RadiusAt returns the orbital radius at eccentric anomaly E.
func (o OrbitalElements) RadiusAt(E float64) float64 {
	return o.a * (1 - o.e*math.Cos(E))
}

// Energyξ returns the specific mechanical energy ξ.
func (o OrbitalElements) Energyξ() float64 {
	return -o.μ / (2 * o.a)
}

// Period returns the period of this orbit.
func (o OrbitalElements) Period() time.Duration {
	// The time package does not trivially handle fractions of a second, so
	// let's compute this in a convoluted way...
	seconds := 2 * math.Pi * math.Sqrt(math.Pow(o.a, 3)/o.μ)
	duration, _ := time.ParseDuration(fmt.Sprintf("%.6fs", seconds))
	return duration
}

// String implements the Stringer interface.
func (o OrbitalElements) String() string {
	return fmt.Sprintf("a=%.1f e=%.4f ω=%.3f M0=%.3f", o.a, o.e, Rad2deg(o.ω), Rad2deg(o.meanAnomaly0))
}

// Equals returns whether two element sets describe the same ellipse with
// free anomaly.
func (o OrbitalElements) Equals(o1 OrbitalElements) (bool, error) {
	if !floats.EqualWithinAbs(o.a, o1.a, distanceε) {
		return false, errors.New("semi major axis invalid")
	}
	if !floats.EqualWithinAbs(o.e, o1.e, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if !floats.EqualWithinAbs(o.ω, o1.ω, angleε) {
		return false, errors.New("periapsis angle invalid")
	}
	return true, nil
}

// PointAtE returns the world-frame position on the ellipse at eccentric
// anomaly E, for a given focus (parent) position.
func (o OrbitalElements) PointAtE(focus Vector2, E float64) Vector2 {
	sinE, cosE := math.Sincos(E)
	p := NewVector2(o.a*cosE-o.c, o.b*sinE)
	p.Rotate(o.ω)
	return *p.Add(focus)
}

// EccentricAnomalyOf returns the eccentric anomaly of a world-frame
// position relative to the given focus, assuming the point lies on (or
// near) the ellipse.
func (o OrbitalElements) EccentricAnomalyOf(focus, position Vector2) float64 {
	rel := position
	rel.Sub(focus)
	rel.Rotate(-o.ω)
	E := math.Atan2(rel.Y/o.b, (rel.X+o.c)/o.a)
	if E < 0 {
		E += 2 * math.Pi
	}
	return E
}

// ComputeOrbit converts the instantaneous state of body relative to
// centerBody into classical orbital elements. It returns nil when the
// state cannot be represented as a closed ellipse (e ≥ 1 or a < 0); the
// caller must treat nil as "no stable analytic orbit" and keep the body
// on pure N-body dynamics.
func ComputeOrbit(body, centerBody *Body) *OrbitalElements {
	R := body.Position
	R.Sub(centerBody.Position)
	V := body.Velocity
	V.Sub(centerBody.Velocity)

	r := R.Norm()
	v := V.Norm()
	if r < zeroε {
		return nil
	}
	μ := G * (body.Mass + centerBody.Mass)
	ξ := (v*v)/2 - μ/r
	a := -μ / (2 * ξ)
	if a < 0 {
		return nil
	}

	// Planar eccentricity vector.
	rv := R.Dot(V)
	eVec := R
	eVec.Scale((v*v - μ/r) / μ)
	eVec.AddScaled(-rv/μ, V)
	e := eVec.Norm()
	if e >= 1 {
		return nil
	}

	b := a * math.Sqrt(1-e*e)
	c := math.Sqrt(a*a - b*b)
	ω := math.Atan2(eVec.Y, eVec.X)
	focusOffset := NewVector2(-c, 0)
	focusOffset.Rotate(ω)

	// True anomaly from the angle between the eccentricity vector and R,
	// then the initial mean anomaly through the eccentric anomaly.
	ν := math.Atan2(R.Y, R.X) - ω
	sinν, cosν := math.Sincos(ν)
	denom := 1 + e*cosν
	sinE := math.Sqrt(1-e*e) * sinν / denom
	cosE := (e + cosν) / denom
	E := math.Atan2(sinE, cosE)
	M := E - e*math.Sin(E)
	M = math.Mod(M, 2*math.Pi)
	if M < 0 {
		M += 2 * math.Pi
	}

	n := math.Sqrt(μ / math.Pow(a, 3))
	return &OrbitalElements{a, b, c, e, ω, μ, n, focusOffset, M}
}

// LockBody computes the analytic orbit of b around parent and, on
// success, marks b as locked. A body whose state has no closed-ellipse
// representation stays unlocked.
func LockBody(b, parent *Body) bool {
	orbit := ComputeOrbit(b, parent)
	if orbit == nil {
		return false
	}
	b.Orbit = orbit
	b.Locked = true
	b.MeanAnomaly = orbit.meanAnomaly0
	return true
}

// solveKepler solves Kepler's equation M = E - e·sin(E) for E with a
// fixed number of Newton-Raphson iterations.
func solveKepler(M, e float64) float64 {
	E := M
	if e > keplerSeedEcc {
		E = math.Pi
	}
	for i := 0; i < keplerIterations; i++ {
		sinE, cosE := math.Sincos(E)
		E -= (E - e*sinE - M) / (1 - e*cosE)
	}
	return E
}

// PropagateLocked advances a locked body by dt seconds along its analytic
// orbit and writes its absolute position from its parent's position.
// NOTE: velocity is deliberately *not* updated on this path; the
// placement is purely kinematic and downstream users of a locked body's
// velocity see the construction-time value.
func PropagateLocked(b, parent *Body, dt float64) {
	if b.Orbit == nil || parent == nil {
		return
	}
	o := b.Orbit
	b.MeanAnomaly = math.Mod(b.MeanAnomaly+o.n*dt, 2*math.Pi)
	if b.MeanAnomaly < 0 {
		b.MeanAnomaly += 2 * math.Pi
	}
	E := solveKepler(b.MeanAnomaly, o.e)
	b.Position = o.PointAtE(parent.Position, E)
}
