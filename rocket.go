package lsp

import (
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

const (
	// stageMatchε is the local-frame tolerance used when matching a part
	// back to the current stage. Floating-point robustness, not gameplay.
	stageMatchε = 0.001
	// rcsAlignmentGate rejects RCS thrusters whose torque would fight the
	// requested turn direction.
	rcsAlignmentGate = 0.1
	// sasTorqueScale and sasDampingScale size the reaction-wheel control
	// torque; both scale with vehicle mass so authority survives staging.
	sasTorqueScale  = 2.0
	sasDampingScale = 1.5
	// debrisSpawnMargin keeps freshly spawned debris clear of the
	// vehicle's collision envelope, in m.
	debrisSpawnMargin = 1.0
)

// worldFromLocal rotates a rocket-local vector into the world frame. The
// vehicle "up" axis sits at rotation − π/2, so a rocket with rotation
// π/2 points along +Y.
func worldFromLocal(v Vector2, rotation float64) Vector2 {
	v.Rotate(rotation - math.Pi/2)
	return v
}

// Info is the telemetry snapshot handed to the UI collaborator.
type Info struct {
	FuelPercent       float64
	DeltaV            float64
	Mass              float64
	Throttle          float64
	VelocityMagnitude float64
	Electricity       float64
	MaxElectricity    float64
}

// Rocket is the composite vehicle: one physical body, an ordered stage
// stack of parts, and the aggregate engine stats rebuilt after every
// structural change. Stage jettison is strictly forward and irreversible.
type Rocket struct {
	Name              string
	Body              *Body
	Engine            *RocketEngine
	Stages            [][]*Part
	CurrentStageIndex int
	Rotation          float64
	AngularVelocity   float64
	CenterOfMass      Vector2 // local frame
	MomentOfInertia   float64
	Electricity       float64
	MaxElectricity    float64
	Crossfeed         bool
	Active            bool
	// MeshVersion increments on any structural change (staging, fairing
	// ejection, deployment) so the renderer knows to rebuild visuals.
	MeshVersion uint64

	aero  *AerodynamicsSystem
	noise *debrisNoise

	width, height      float64
	stageFuelCapacity  float64 // fuel present when the stage range was last rebuilt
	consumedSinceStage float64
	lastThrottle       float64
	pendingFairings    bool
	spawned            []*Debris
	logger             kitlog.Logger
}

// NewRocket builds a vehicle from an assembly description. Parts with
// unregistered ids are skipped and logged; a single bad part never halts
// a flight. The provided body becomes the physical envelope and its mass
// is overwritten from the part stack.
func NewRocket(assembly AssemblyConfig, catalog *Catalog, body *Body, logger kitlog.Logger) *Rocket {
	if logger == nil {
		logger = defaultLogger()
	}
	logger = kitlog.With(logger, "subsys", "rocket", "vehicle", assembly.Name)

	var parts []*Part
	for _, ap := range assembly.Parts {
		def, err := catalog.Get(ap.PartID)
		if err != nil {
			logger.Log("level", "warning", "skipped", ap.PartID, "err", err)
			continue
		}
		p := NewPart(def)
		p.Position = ap.Position
		p.Rotation = ap.Rotation
		p.Flipped = ap.Flipped
		parts = append(parts, p)
	}

	r := &Rocket{
		Name:     assembly.Name,
		Body:     body,
		Stages:   ParseStages(parts),
		Rotation: math.Pi / 2, // pointing up
		Active:   true,
		aero:     NewAerodynamicsSystem(),
		noise:    newDebrisNoise(time.Now().UnixNano()),
		logger:   logger,
	}
	r.recalculateStats()
	r.Electricity = r.MaxElectricity
	return r
}

// NewSimpleRocket returns a vehicle with no part stack, driven entirely
// by a single idealized centered engine. Legacy compatibility mode.
func NewSimpleRocket(engine *RocketEngine, body *Body, logger kitlog.Logger) *Rocket {
	if logger == nil {
		logger = defaultLogger()
	}
	body.Mass = engine.DryMass + engine.FuelMass
	return &Rocket{
		Name:            "simple",
		Body:            body,
		Engine:          engine,
		Rotation:        math.Pi / 2,
		MomentOfInertia: 1,
		Active:          true,
		aero:            NewAerodynamicsSystem(),
		noise:           newDebrisNoise(time.Now().UnixNano()),
		logger:          kitlog.With(logger, "subsys", "rocket", "vehicle", "simple"),
	}
}

// SetNoiseSeed reseeds the debris jitter source, for reproducible tests.
func (r *Rocket) SetNoiseSeed(seed int64) {
	r.noise = newDebrisNoise(seed)
}

// Parts returns the flattened live part list: stages from the current
// index up, concatenated. Jettisoned stages never appear.
func (r *Rocket) Parts() []*Part {
	var parts []*Part
	for i := r.CurrentStageIndex; i < len(r.Stages); i++ {
		parts = append(parts, r.Stages[i]...)
	}
	return parts
}

// Width returns the widest remaining part.
func (r *Rocket) Width() float64 {
	return r.width
}

// TotalHeight returns the vertical extent of the remaining stack.
func (r *Rocket) TotalHeight() float64 {
	return r.height
}

// inCurrentStage reports whether the part matches one in the active
// stage, by definition id and local position within tolerance.
func (r *Rocket) inCurrentStage(part *Part) bool {
	if r.CurrentStageIndex >= len(r.Stages) {
		return false
	}
	for _, p := range r.Stages[r.CurrentStageIndex] {
		if p == part {
			return true
		}
		if p.Def.ID == part.Def.ID &&
			math.Abs(p.Position.X-part.Position.X) < stageMatchε &&
			math.Abs(p.Position.Y-part.Position.Y) < stageMatchε {
			return true
		}
	}
	return false
}

// hasFuel reports whether the active (or crossfed) stage can feed an
// engine this tick.
func (r *Rocket) hasFuel() bool {
	return findFuelStage(r.Stages, r.CurrentStageIndex, r.Crossfeed) != -1
}

// Update runs one control/dynamics tick. dt is the physics step in
// seconds; the control side (fuel draw, SAS battery cost) shares it
// because the host ticks controls and physics 1:1, so the two step sizes
// collapse into one parameter on purpose. Drag is applied first, then
// per-part thrust and torque
// accumulate in the local frame, then fuel and electricity are drawn,
// and finally the angular and linear states integrate. Inactive vehicles
// are terminal no-ops.
func (r *Rocket) Update(input ControlState, s *System, dt float64) {
	if !r.Active {
		return
	}
	r.lastThrottle = input.Throttle

	r.aero.ApplyDrag(r, s, dt)

	var localForce Vector2
	totalTorque := 0.0
	burnMass := 0.0 // fuel requested by everything that fired
	fired := false
	parts := r.Parts()
	fuelAvailable := r.hasFuel()

	for _, p := range parts {
		p.Active = false
		stats := p.Def.Stats
		switch {
		case p.Def.ProvidesThrust():
			eff := input.Throttle
			if p.ManualEnabled != nil {
				// Manual override fires at exactly 0% or 100%.
				if *p.ManualEnabled {
					eff = 1
				} else {
					eff = 0
				}
			}
			if eff <= 0 || !fuelAvailable || !r.inCurrentStage(p) {
				continue
			}
			force := p.ThrustDirection()
			thrust := stats.Thrust * eff
			force.Scale(thrust)
			localForce.Add(force)
			arm := p.Position
			arm.Sub(r.CenterOfMass)
			totalTorque += arm.Cross(force)
			burnMass += thrust / (stats.Isp * G0) * dt
			p.Active = true
			fired = true

		case p.Def.Class == ClassRCS:
			if !input.RCSEnabled || input.Rotation == 0 || !fuelAvailable {
				continue
			}
			dir := p.ThrustDirection()
			arm := p.Position
			arm.Sub(r.CenterOfMass)
			unitTorque := arm.Cross(dir)
			// Directional gate: never fight the requested turn.
			if unitTorque*input.Rotation <= rcsAlignmentGate {
				continue
			}
			localForce.AddScaled(stats.Thrust, dir)
			totalTorque += unitTorque * stats.Thrust
			burnMass += stats.Thrust / (rcsIsp * G0) * dt
			p.Active = true
			fired = true
		}
	}

	if burnMass > 0 {
		consumed := ConsumeFuel(r.Stages, r.CurrentStageIndex, burnMass, r.Crossfeed)
		r.Body.Mass -= consumed
		r.Engine.FuelMass -= consumed
		if r.Engine.FuelMass < 0 {
			r.Engine.FuelMass = 0
		}
		r.consumedSinceStage += consumed
	}

	// Simple-rocket compatibility: no parts at all, one idealized engine
	// at the center of mass.
	if !fired && len(parts) == 0 && input.Throttle > 0 && r.Engine != nil && r.Engine.FuelMass > 0 {
		burned := r.Engine.Burn(input.Throttle, dt)
		r.Body.Mass -= burned
		up := NewVector2(0, 1)
		localForce.AddScaled(r.Engine.Thrust*input.Throttle, up)
	}

	r.applySAS(input, parts, dt)

	// Integration: torque → angular velocity → rotation, then the
	// accumulated local force rotated into the world frame.
	if r.MomentOfInertia > 0 {
		r.AngularVelocity += totalTorque / r.MomentOfInertia * dt
	}
	r.Rotation += r.AngularVelocity * dt
	if r.Body.Mass > 0 {
		worldForce := worldFromLocal(localForce, r.Rotation)
		r.Body.Velocity.AddScaled(dt/r.Body.Mass, worldForce)
	}

	if input.Stage {
		r.ActivateStage()
	}
	if input.DeployParachute {
		r.DeployParachutes()
	}
	if input.EjectFairings {
		// Deferred to after the physics step so the part stack never
		// mutates mid-integration.
		r.pendingFairings = true
	}
}

// rcsIsp is the fixed specific impulse of RCS thrusters, in s.
const rcsIsp = 240.0

// applySAS runs the reaction-wheel controller: any capsule with a SAS
// draw provides torque proportional to the rotation input plus angular
// damping, as long as the battery can pay for it.
func (r *Rocket) applySAS(input ControlState, parts []*Part, dt float64) {
	if !input.SASEnabled {
		return
	}
	draw := 0.0
	for _, p := range parts {
		if p.Def.Class == ClassCapsule && p.Def.Stats.SASConsumption > 0 {
			draw += p.Def.Stats.SASConsumption
		}
	}
	if draw == 0 {
		return
	}
	if input.Rotation == 0 && math.Abs(r.AngularVelocity) < zeroε {
		return
	}
	cost := draw * dt
	if r.Electricity < cost {
		// Dead battery: no control authority at all.
		r.Electricity = 0
		return
	}
	r.Electricity -= cost
	torque := sasTorqueScale*input.Rotation*r.Body.Mass - sasDampingScale*r.AngularVelocity*r.Body.Mass
	if r.MomentOfInertia > 0 {
		r.AngularVelocity += torque / r.MomentOfInertia * dt
	}
}

// ActivateStage jettisons the bottom-most attached stage. No-op on the
// last (payload) stage. The dropped stage becomes a Debris body behind
// the vehicle with a small separation impulse and a random tumble.
func (r *Rocket) ActivateStage() {
	if r.CurrentStageIndex >= len(r.Stages)-1 {
		return
	}
	stage := r.Stages[r.CurrentStageIndex]

	stageMass := 0.0
	stageHeight := 0.0
	for _, p := range stage {
		stageMass += p.TotalMass()
		stageHeight += p.Def.Height
	}

	// Spawn behind the vehicle, opposite the thrust axis.
	offset := NewVector2(0, -(r.height/2 + stageHeight/2 + debrisSpawnMargin))
	pos := r.Body.Position
	pos.Add(worldFromLocal(offset, r.Rotation))
	kick := worldFromLocal(NewVector2(0, -debrisSeparationSpeed), r.Rotation)
	kick.Add(r.noise.separation())
	vel := r.Body.Velocity
	vel.Add(kick)

	debris := &Debris{
		Body: &Body{
			Name:     r.Name + "-debris",
			Position: pos,
			Velocity: vel,
			Mass:     stageMass,
			Radius:   stageHeight / 2,
			Parent:   NoParent,
		},
		Parts:           stage,
		Rotation:        r.Rotation,
		AngularVelocity: r.noise.tumble(),
		TTL:             lspConfig().DebrisLifetime,
	}
	r.spawned = append(r.spawned, debris)

	r.CurrentStageIndex++
	r.recalculateStats()
	r.logger.Log("level", "info", "event", "staged", "stage", r.CurrentStageIndex, "mass(kg)", r.Body.Mass)
}

// DeployParachutes opens every parachute in the live stack. Idempotent
// per part: a deployed canopy never re-triggers.
func (r *Rocket) DeployParachutes() {
	for _, p := range r.Parts() {
		if p.Def.Class == ClassParachute && !p.Deployed {
			p.Deployed = true
			r.MeshVersion++
			r.logger.Log("level", "info", "event", "parachute", "part", p.Def.ID)
		}
	}
}

// FlushDeferred performs structural changes queued during Update. Called
// by the simulation immediately after the physics step.
func (r *Rocket) FlushDeferred() {
	if r.pendingFairings {
		r.pendingFairings = false
		r.EjectFairings()
	}
}

// EjectFairings removes all fairing parts from the live stack and spawns
// two symmetric debris halves. The stack shrinks and stats recompute
// BEFORE the halves spawn so they clear the new, smaller collision
// envelope instead of colliding with the stale one.
func (r *Rocket) EjectFairings() {
	var ejected []*Part
	for i := r.CurrentStageIndex; i < len(r.Stages); i++ {
		kept := r.Stages[i][:0]
		for _, p := range r.Stages[i] {
			if p.Def.Class == ClassFairing {
				ejected = append(ejected, p)
				continue
			}
			kept = append(kept, p)
		}
		r.Stages[i] = kept
	}
	if len(ejected) == 0 {
		return
	}
	r.recalculateStats()

	for side, dir := range []float64{-1, 1} {
		half := ejected[side%len(ejected)]
		clearance := r.Body.Radius + half.Def.Width + debrisSpawnMargin
		offset := worldFromLocal(NewVector2(dir*clearance, 0), r.Rotation)
		pos := r.Body.Position
		pos.Add(offset)
		kick := worldFromLocal(NewVector2(dir*debrisSeparationSpeed, 0), r.Rotation)
		kick.Add(r.noise.separation())
		vel := r.Body.Velocity
		vel.Add(kick)

		// Each half carries a copy of the part with the opposite side
		// flipped off, informational for the renderer only.
		part := *half
		part.Flipped = dir > 0

		r.spawned = append(r.spawned, &Debris{
			Body: &Body{
				Name:     r.Name + "-fairing",
				Position: pos,
				Velocity: vel,
				Mass:     half.Def.Stats.Mass / 2,
				Radius:   half.Def.Height / 2,
				Parent:   NoParent,
			},
			Parts:           []*Part{&part},
			Rotation:        r.Rotation,
			AngularVelocity: r.noise.tumble(),
			TTL:             lspConfig().DebrisLifetime,
		})
	}
	r.logger.Log("level", "info", "event", "fairings", "count", len(ejected))
}

// SpawnedDebris drains the debris produced since the last call.
func (r *Rocket) SpawnedDebris() []*Debris {
	spawned := r.spawned
	r.spawned = nil
	return spawned
}

// recalculateStats re-derives every aggregate from the remaining part
// stack: masses, engine, electricity ceiling, geometric extents, center
// of mass and moment of inertia. Must run after any structural change;
// body mass equals the recomputed stack mass exactly, no drift.
func (r *Rocket) recalculateStats() {
	stats := CalculateStats(r.Stages, r.CurrentStageIndex)
	r.Engine = NewRocketEngine(stats.Thrust, stats.Isp, stats.FuelMass, stats.DryMass)
	r.Body.Mass = stats.TotalMass()
	r.MaxElectricity = stats.MaxElectricity
	if r.Electricity > r.MaxElectricity {
		r.Electricity = r.MaxElectricity
	}
	r.stageFuelCapacity = stats.FuelMass
	r.consumedSinceStage = 0

	parts := r.Parts()
	if len(parts) == 0 {
		r.width, r.height = 0, 0
		r.CenterOfMass = Vector2{}
		r.MomentOfInertia = 1
		r.Body.Radius = 0
		r.MeshVersion++
		return
	}

	top := math.Inf(-1)
	bottom := math.Inf(1)
	r.width = 0
	var com Vector2
	for _, p := range parts {
		if w := p.Def.Width; w > r.width {
			r.width = w
		}
		if y := p.Position.Y + p.Def.Height/2; y > top {
			top = y
		}
		if y := p.Position.Y - p.Def.Height/2; y < bottom {
			bottom = y
		}
		com.AddScaled(p.TotalMass(), p.Position)
	}
	r.height = top - bottom
	r.Body.Radius = r.height / 2
	com.Scale(1 / r.Body.Mass)
	r.CenterOfMass = com

	// Point-mass approximation per part plus each part's own box inertia
	// m·(w²+h²)/12, summed about the new center of mass.
	moi := 0.0
	for _, p := range parts {
		m := p.TotalMass()
		w, h := p.Def.Width, p.Def.Height
		d := p.Position.DistanceTo(com)
		moi += m*(w*w+h*h)/12 + m*d*d
	}
	if moi <= 0 {
		moi = 1
	}
	r.MomentOfInertia = moi
	r.MeshVersion++
}

// Info returns the telemetry snapshot for the UI collaborator.
func (r *Rocket) Info() Info {
	fuelPercent := 0.0
	if r.stageFuelCapacity > 0 {
		fuelPercent = r.Engine.FuelMass / r.stageFuelCapacity * 100
	} else if r.Engine != nil && r.Engine.FuelMass > 0 {
		fuelPercent = 100
	}
	deltaV := 0.0
	if r.Engine != nil {
		deltaV = r.Engine.DeltaV()
	}
	return Info{
		FuelPercent:       fuelPercent,
		DeltaV:            deltaV,
		Mass:              r.Body.Mass,
		Throttle:          r.lastThrottle,
		VelocityMagnitude: r.Body.Velocity.Norm(),
		Electricity:       r.Electricity,
		MaxElectricity:    r.MaxElectricity,
	}
}
