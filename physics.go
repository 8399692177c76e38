package lsp

import "math"

// PatchedConicsAltitude is the surface altitude (m) below which gravity
// collapses onto the single dominant body. Near a strong local well the
// far-field contributions only add numerical noise; above the threshold
// full pairwise summation resumes.
const PatchedConicsAltitude = 100000.0

// Physics is the N-body velocity-Verlet integrator with the
// patched-conics simplification. Locked bodies are placed analytically
// and never accumulate force.
type Physics struct {
	// SOIAltitude is the dominant-body switch threshold. Zero means the
	// package default.
	SOIAltitude float64
}

// NewPhysics returns an integrator with the default patched-conics
// threshold.
func NewPhysics() *Physics {
	return &Physics{SOIAltitude: PatchedConicsAltitude}
}

func (p *Physics) soiAltitude() float64 {
	if p.SOIAltitude > 0 {
		return p.SOIAltitude
	}
	return PatchedConicsAltitude
}

// Step advances the whole system by dt seconds. Ordering is load-bearing
// for the Verlet scheme: (1) position integration for all bodies,
// (2) acceleration recomputation, (3) velocity finalization. Update
// performs phases 2 and 3.
func (p *Physics) Step(s *System, dt float64) {
	for _, b := range s.Bodies {
		if b.Locked {
			PropagateLocked(b, s.ParentOf(b), dt)
			continue
		}
		b.prevAccel = b.Acceleration
		b.Position.AddScaled(dt, b.Velocity)
		b.Position.AddScaled(0.5*dt*dt, b.prevAccel)
	}
	p.Update(s, dt)
}

// Update recomputes every unlocked body's gravitational acceleration and
// finishes the Verlet velocity update v += 0.5·(a(t)+a(t+dt))·dt.
func (p *Physics) Update(s *System, dt float64) {
	threshold := p.soiAltitude()
	for _, b := range s.Bodies {
		if b.Locked {
			continue
		}

		// Patched conics: if the nearest body by surface altitude is close
		// enough, it dominates and all other wells are ignored.
		var dominant *Body
		minAltitude := math.Inf(1)
		for _, other := range s.Bodies {
			if other == b {
				continue
			}
			d := b.Position.DistanceTo(other.Position)
			if d < zeroε {
				continue
			}
			if alt := d - other.Radius; alt < minAltitude {
				minAltitude = alt
				dominant = other
			}
		}

		var accel Vector2
		if dominant != nil && minAltitude < threshold {
			accumulateGravity(&accel, b, dominant)
		} else {
			for _, other := range s.Bodies {
				if other == b {
					continue
				}
				accumulateGravity(&accel, b, other)
			}
		}

		b.Acceleration = accel
		b.Velocity.AddScaled(0.5*dt, b.prevAccel)
		b.Velocity.AddScaled(0.5*dt, b.Acceleration)
	}
}

// accumulateGravity adds the Newtonian acceleration of source on b to
// accel. Coincident positions are skipped silently.
func accumulateGravity(accel *Vector2, b, source *Body) {
	dir := source.Position
	dir.Sub(b.Position)
	r2 := dir.NormSq()
	if r2 < zeroε {
		return
	}
	dir.Normalize()
	accel.AddScaled(G*source.Mass/r2, dir)
}
