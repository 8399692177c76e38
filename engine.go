package lsp

import "math"

// G0 is standard gravity, used for Isp-based mass flow, in m/s².
const G0 = 9.81

// RocketEngine is the aggregate propulsion model of a vehicle: total
// thrust, thrust-weighted Isp and the fuel it can draw. It serves both
// the legacy single-engine rocket and the per-stage aggregate that gets
// rebuilt after every staging event.
type RocketEngine struct {
	Thrust   float64 // N at full throttle
	Isp      float64 // s, thrust-weighted across engines
	FuelMass float64 // kg available
	DryMass  float64 // kg without fuel
}

// NewRocketEngine returns an engine aggregate.
func NewRocketEngine(thrust, isp, fuelMass, dryMass float64) *RocketEngine {
	return &RocketEngine{Thrust: thrust, Isp: isp, FuelMass: fuelMass, DryMass: dryMass}
}

// MassFlowRate returns the fuel consumption in kg/s at the given
// throttle: thrust·throttle / (Isp·g0). Zero when the engine cannot burn.
func (e *RocketEngine) MassFlowRate(throttle float64) float64 {
	if e.Isp <= 0 || e.Thrust <= 0 || throttle <= 0 {
		return 0
	}
	return e.Thrust * throttle / (e.Isp * G0)
}

// DeltaV returns the ideal Tsiolkovsky delta-V of the aggregate in m/s.
func (e *RocketEngine) DeltaV() float64 {
	if e.DryMass <= 0 || e.Isp <= 0 {
		return 0
	}
	return e.Isp * G0 * math.Log((e.DryMass+e.FuelMass)/e.DryMass)
}

// Burn consumes fuel for dt seconds at the given throttle and returns the
// mass actually burned, clamped to the remaining fuel.
func (e *RocketEngine) Burn(throttle, dt float64) float64 {
	burned := e.MassFlowRate(throttle) * dt
	if burned > e.FuelMass {
		burned = e.FuelMass
	}
	e.FuelMass -= burned
	return burned
}
