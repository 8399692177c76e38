package lsp

import (
	"math/rand"

	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
)

// debrisSeparationSpeed is the base impulse given to jettisoned stages,
// in m/s, directed away from the thrust axis.
const debrisSeparationSpeed = 5.0

// Debris is a jettisoned chunk of vehicle: a passive body plus a snapshot
// of the dropped parts kept for rendering only. It tumbles on its own
// rotation state and expires after a fixed lifetime.
type Debris struct {
	Body            *Body
	Parts           []*Part // rendering snapshot, excluded from physics queries
	Rotation        float64
	AngularVelocity float64
	TTL             float64 // seconds until expiry
}

// Tick advances the tumble and lifetime. Returns false once expired.
func (d *Debris) Tick(dt float64) bool {
	d.Rotation += d.AngularVelocity * dt
	d.TTL -= dt
	return d.TTL > 0
}

// debrisNoise draws the Gaussian separation jitter and tumble rates for
// debris spawns. Seeded explicitly so test flights reproduce.
type debrisNoise struct {
	sep  *distmv.Normal // 2D velocity jitter, m/s
	spin *distmv.Normal // 1D angular rate, rad/s
}

func newDebrisNoise(seed int64) *debrisNoise {
	src := rand.New(rand.NewSource(seed))
	sep, ok := distmv.NewNormal([]float64{0, 0}, mat64.NewSymDense(2, []float64{0.25, 0, 0, 0.25}), src)
	if !ok {
		panic("NOK in Gaussian")
	}
	spin, ok := distmv.NewNormal([]float64{0}, mat64.NewSymDense(1, []float64{0.09}), src)
	if !ok {
		panic("NOK in Gaussian")
	}
	return &debrisNoise{sep: sep, spin: spin}
}

// separation returns a velocity jitter vector.
func (n *debrisNoise) separation() Vector2 {
	v := n.sep.Rand(nil)
	return NewVector2(v[0], v[1])
}

// tumble returns a random angular velocity.
func (n *debrisNoise) tumble() float64 {
	return n.spin.Rand(nil)[0]
}
