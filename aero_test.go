package lsp

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func atmosphereSystem() *System {
	s := NewSystem()
	s.Add(&Body{
		Name:       "Gaia",
		Mass:       5.972e24,
		Radius:     6.371e6,
		Parent:     NoParent,
		Atmosphere: Atmosphere{Density: 1.225, Height: 1.4e5, Falloff: 8500},
	})
	return s
}

func TestVacuumIsStrictNoOp(t *testing.T) {
	r := newTestRocket([][]*Part{{at(capsulePart(800), 0)}})
	r.Body.Velocity = NewVector2(137.25, -42.5)
	before := r.Body.Velocity

	// No bodies at all.
	r.aero.ApplyDrag(r, NewSystem(), 0.1)
	if r.Body.Velocity != before {
		t.Fatal("empty system perturbed the velocity")
	}

	// Above the atmosphere envelope.
	s := atmosphereSystem()
	r.Body.Position = NewVector2(0, 6.371e6+1.4e5+10)
	r.aero.ApplyDrag(r, s, 0.1)
	if r.Body.Velocity != before {
		t.Fatal("vacuum drag must leave the velocity bit-for-bit unchanged")
	}
}

func TestDragOpposesVelocity(t *testing.T) {
	s := atmosphereSystem()
	r := newTestRocket([][]*Part{{at(capsulePart(800), 0)}})
	r.Body.Position = NewVector2(0, 6.371e6+1000)
	r.Body.Velocity = NewVector2(200, 0)

	r.aero.ApplyDrag(r, s, 0.1)
	if r.Body.Velocity.X >= 200 {
		t.Fatalf("drag did not slow the vehicle: vx=%f", r.Body.Velocity.X)
	}
	if r.Body.Velocity.X <= 0 {
		t.Fatal("one tick of drag reversed the velocity")
	}
	if r.Body.Velocity.Y != 0 {
		t.Fatal("drag must act along the velocity only")
	}
}

func TestDensityFalloff(t *testing.T) {
	atm := Atmosphere{Density: 1.225, Height: 1.4e5, Falloff: 8500}
	if !floats.EqualWithinAbs(atm.DensityAt(0), 1.225, 1e-12) {
		t.Fatalf("sea-level density %f", atm.DensityAt(0))
	}
	if want := 1.225 / math.E; !floats.EqualWithinAbs(atm.DensityAt(8500), want, 1e-12) {
		t.Fatalf("density at one scale height %f, want %f", atm.DensityAt(8500), want)
	}
	if atm.DensityAt(5000) <= atm.DensityAt(10000) {
		t.Fatal("density must decrease with altitude")
	}
}

func TestDragProfileParachuteOverride(t *testing.T) {
	a := NewAerodynamicsSystem()
	chute := parachutePart()
	fairing := fairingPart(0.9)

	cd, area := a.dragProfile([]*Part{chute, fairing}, 1.3)
	if cd != streamlinedCd*(1-0.9) {
		t.Fatalf("packed chute changed the profile: cd=%f", cd)
	}
	if area != math.Pi*math.Pow(1.3/2, 2) {
		t.Fatalf("reference area %f", area)
	}

	chute.Deployed = true
	cd, area = a.dragProfile([]*Part{chute, fairing}, 1.3)
	if cd != parachuteCd || area != parachuteArea {
		t.Fatalf("deployed canopy must override everything: cd=%f area=%f", cd, area)
	}
}

func TestDragProfileFairingNotCumulative(t *testing.T) {
	a := NewAerodynamicsSystem()
	cd, _ := a.dragProfile([]*Part{fairingPart(0.5), fairingPart(0.3)}, 1.3)
	if !floats.EqualWithinAbs(cd, streamlinedCd*0.5, 1e-12) {
		t.Fatalf("cd=%f, want the single largest reduction applied", cd)
	}
}

func TestPendulumTorqueOnlyUnderCanopy(t *testing.T) {
	s := atmosphereSystem()
	chute := at(parachutePart(), 1)
	r := newTestRocket([][]*Part{{at(capsulePart(800), 0), chute}})
	r.Body.Position = NewVector2(0, 6.371e6+1000)
	r.Body.Velocity = NewVector2(200, 0)

	r.aero.ApplyDrag(r, s, 0.1)
	if r.AngularVelocity != 0 {
		t.Fatal("packed chute must produce no aerodynamic torque")
	}

	chute.Deployed = true
	r.aero.ApplyDrag(r, s, 0.1)
	if r.AngularVelocity == 0 {
		t.Fatal("deployed canopy must swing the stack")
	}
}

func TestUndergroundPositionIgnored(t *testing.T) {
	s := atmosphereSystem()
	r := newTestRocket([][]*Part{{at(capsulePart(800), 0)}})
	r.Body.Position = NewVector2(0, 6.371e6-100)
	r.Body.Velocity = NewVector2(200, 0)
	before := r.Body.Velocity

	r.aero.ApplyDrag(r, s, 0.1)
	if r.Body.Velocity != before {
		t.Fatal("underground position must be skipped")
	}
}

func TestDragSkipsMasslessStack(t *testing.T) {
	// A stack that is nothing but fairings strips to zero mass once they
	// eject; drag on the husk must not divide by that mass.
	s := atmosphereSystem()
	r := newTestRocket([][]*Part{{at(fairingPart(0.5), 0)}})
	r.EjectFairings()
	if r.Body.Mass != 0 || len(r.Parts()) != 0 {
		t.Fatalf("expected a stripped stack, mass=%f parts=%d", r.Body.Mass, len(r.Parts()))
	}

	r.Body.Position = NewVector2(0, 6.371e6+1000)
	r.Body.Velocity = NewVector2(200, 0)
	before := r.Body.Velocity
	r.Update(ControlState{}, s, 0.1)
	if math.IsNaN(r.Body.Velocity.X) || math.IsNaN(r.Body.Velocity.Y) {
		t.Fatalf("velocity poisoned: %s", r.Body.Velocity)
	}
	if r.Body.Velocity != before {
		t.Fatal("massless stack must not feel drag")
	}
}

func TestAtmosphericBodyPicksNearest(t *testing.T) {
	far := &Body{Name: "far", Radius: 100,
		Atmosphere: Atmosphere{Density: 1, Height: 1000, Falloff: 500}}
	near := &Body{Name: "near", Position: NewVector2(600, 0), Radius: 100,
		Atmosphere: Atmosphere{Density: 1, Height: 1000, Falloff: 500}}
	// The nearer body sits last so arena order cannot mask the scan.
	s := &System{Bodies: []*Body{far, near}}

	a := NewAerodynamicsSystem()
	b, altitude := a.atmosphericBody(s, NewVector2(450, 0))
	if b != near {
		t.Fatalf("picked %s, want the lower-altitude body", b)
	}
	if altitude != 50 {
		t.Fatalf("altitude %f, want 50", altitude)
	}
}
