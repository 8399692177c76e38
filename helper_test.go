package lsp

import (
	"fmt"
	"math"
	"testing"

	"github.com/gonum/floats"
)

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("code did not panic")
		}
	}()
	f()
}

func vectorsEqual(a, b Vector2) bool {
	return floats.EqualWithinAbs(a.X, b.X, 1e-6) && floats.EqualWithinAbs(a.Y, b.Y, 1e-6)
}

// anglesEqual returns whether two angles in radians are equal.
func anglesEqual(a, b float64) (bool, error) {
	diff := math.Mod(math.Abs(a-b), 2*math.Pi)
	if diff < angleε || 2*math.Pi-diff < angleε {
		return true, nil
	}
	return false, fmt.Errorf("difference of %3.10f degrees", math.Abs(Rad2deg(diff)))
}

// newTestRocket builds a rocket from hand-assembled stages, bypassing
// the catalog path, with deterministic debris noise.
func newTestRocket(stages [][]*Part) *Rocket {
	r := &Rocket{
		Name:     "test",
		Body:     &Body{Name: "test"},
		Stages:   stages,
		Rotation: math.Pi / 2,
		Active:   true,
		aero:     NewAerodynamicsSystem(),
		noise:    newDebrisNoise(42),
		logger:   defaultLogger(),
	}
	r.recalculateStats()
	r.Electricity = r.MaxElectricity
	return r
}

func enginePart(mass, thrust, isp float64) *Part {
	return NewPart(&PartDefinition{ID: "test-engine", Class: ClassEngine, Stats: PartStats{Mass: mass, Thrust: thrust, Isp: isp}, Width: 1.3, Height: 1.8})
}

func tankPart(mass, fuel float64) *Part {
	return NewPart(&PartDefinition{ID: "test-tank", Class: ClassTank, Stats: PartStats{Mass: mass, Fuel: fuel}, Width: 1.3, Height: 2})
}

func capsulePart(mass float64) *Part {
	return NewPart(&PartDefinition{ID: "test-capsule", Class: ClassCapsule, Stats: PartStats{Mass: mass, Electricity: 50, SASConsumption: 0.5}, Width: 1.3, Height: 1.2})
}

func decouplerPart() *Part {
	return NewPart(&PartDefinition{ID: "test-decoupler", Class: ClassDecoupler, Stats: PartStats{Mass: 40}, Width: 1.3, Height: 0.3})
}

func rcsPart(thrust float64) *Part {
	return NewPart(&PartDefinition{ID: "test-rcs", Class: ClassRCS, Stats: PartStats{Mass: 20, Thrust: thrust}, Width: 0.3, Height: 0.3})
}

func parachutePart() *Part {
	return NewPart(&PartDefinition{ID: "test-chute", Class: ClassParachute, Stats: PartStats{Mass: 100}, Width: 0.9, Height: 0.5})
}

func fairingPart(reduction float64) *Part {
	return NewPart(&PartDefinition{ID: "test-fairing", Class: ClassFairing, Stats: PartStats{Mass: 120, DragReduction: reduction}, Width: 1.4, Height: 2.4})
}
