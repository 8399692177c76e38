package lsp

import "math"

const (
	// streamlinedCd is the drag coefficient of an intact stack.
	streamlinedCd = 0.2
	// parachuteCd and parachuteArea model the fixed open-canopy
	// silhouette, overriding any fairing effect.
	parachuteCd   = 1.5
	parachuteArea = 50.0
	// densityFloor is the numerical noise floor below which the
	// atmosphere is treated as vacuum.
	densityFloor = 1e-6
)

// AerodynamicsSystem computes atmospheric drag and aerodynamic torque for
// a vehicle. It is the single canonical implementation; Rocket delegates
// here every tick.
type AerodynamicsSystem struct {
	// DragMultiplier amplifies the physical drag formula for gameplay
	// feel. Tunable, never fold into the formula.
	DragMultiplier float64
	// VisualScale maps physical body radii to rendered radii; altitude is
	// measured against the rendered surface on purpose.
	VisualScale float64
}

// NewAerodynamicsSystem returns the system configured from the gameplay
// tunables.
func NewAerodynamicsSystem() *AerodynamicsSystem {
	cfg := lspConfig()
	return &AerodynamicsSystem{DragMultiplier: cfg.DragMultiplier, VisualScale: cfg.VisualScale}
}

// atmosphericBody returns the nearest body (by visual-surface altitude)
// whose atmosphere envelope contains the position, along with that
// altitude. Returns nil when the position is in vacuum.
func (a *AerodynamicsSystem) atmosphericBody(s *System, position Vector2) (*Body, float64) {
	var nearest *Body
	minAltitude := math.Inf(1)
	for _, b := range s.Bodies {
		if !b.Atmosphere.Exists() {
			continue
		}
		visualRadius := b.Radius * a.VisualScale
		d := position.DistanceTo(b.Position)
		if d >= visualRadius+b.Atmosphere.Height {
			continue
		}
		altitude := d - visualRadius
		if altitude < 0 {
			// Underground; the collision collaborator deals with this.
			continue
		}
		if altitude < minAltitude {
			minAltitude = altitude
			nearest = b
		}
	}
	if nearest == nil {
		return nil, 0
	}
	return nearest, minAltitude
}

// dragProfile returns the drag coefficient and reference area for the
// current part configuration. A deployed parachute overrides everything;
// otherwise the single largest fairing reduction applies (not
// cumulative).
func (a *AerodynamicsSystem) dragProfile(parts []*Part, width float64) (cd, area float64) {
	cd = streamlinedCd
	area = math.Pi * math.Pow(width/2, 2)
	maxReduction := 0.0
	for _, p := range parts {
		switch p.Def.Class {
		case ClassParachute:
			if p.Deployed {
				return parachuteCd, parachuteArea
			}
		case ClassFairing:
			if r := p.Def.Stats.DragReduction; r > maxReduction {
				maxReduction = r
			}
		}
	}
	cd *= 1 - maxReduction
	return cd, area
}

// ApplyDrag applies atmospheric drag directly to the rocket's velocity
// and, while a parachute is deployed, the pendulum-stability torque about
// the center of mass. In vacuum this is a strict no-op: the guards
// short-circuit before any floating point math touches the velocity.
func (a *AerodynamicsSystem) ApplyDrag(r *Rocket, s *System, dt float64) {
	if r.Body.Mass <= 0 {
		// A fully stripped stack has no mass to decelerate.
		return
	}
	atmBody, altitude := a.atmosphericBody(s, r.Body.Position)
	if atmBody == nil {
		return
	}
	ρ := atmBody.Atmosphere.DensityAt(altitude)
	if ρ < densityFloor {
		return
	}

	vRel := r.Body.Velocity
	vRel.Sub(atmBody.Velocity)
	speed := vRel.Norm()
	if speed < zeroε {
		return
	}

	parts := r.Parts()
	cd, area := a.dragProfile(parts, r.Width())
	magnitude := 0.5 * ρ * speed * speed * cd * area * a.DragMultiplier

	force := vRel.Unit()
	force.Scale(-magnitude)

	// Drag acts on velocity immediately, it is not queued with thrust.
	r.Body.Velocity.AddScaled(dt/r.Body.Mass, force)

	// Pendulum torque only under canopy: the center of pressure moves to
	// the top of the stack, otherwise it coincides with the CoM and the
	// moment arm vanishes.
	if !anyDeployedParachute(parts) {
		return
	}
	arm := NewVector2(0, r.TotalHeight()/2)
	arm = worldFromLocal(arm, r.Rotation)
	torque := arm.Cross(force)
	r.AngularVelocity += torque / r.MomentOfInertia * dt
}

func anyDeployedParachute(parts []*Part) bool {
	for _, p := range parts {
		if p.Def.Class == ClassParachute && p.Deployed {
			return true
		}
	}
	return false
}
