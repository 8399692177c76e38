package lsp

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestPartClassRoundTrip(t *testing.T) {
	for c := ClassEngine; c <= ClassCapsule; c++ {
		back, err := PartClassFromString(c.String())
		if err != nil {
			t.Fatalf("class %s: %s", c, err)
		}
		if back != c {
			t.Fatalf("%s round-tripped to %s", c, back)
		}
	}
	if _, err := PartClassFromString("warpdrive"); err == nil {
		t.Fatal("bogus class name must be rejected")
	}
}

func TestPartDefinitionValidate(t *testing.T) {
	bad := []PartDefinition{
		{ID: "no-mass", Class: ClassTank, Stats: PartStats{Fuel: 100}},
		{ID: "cold-engine", Class: ClassEngine, Stats: PartStats{Mass: 100}},
		{ID: "dry-booster", Class: ClassBooster, Stats: PartStats{Mass: 100, Thrust: 1000, Isp: 170}},
		{ID: "empty-tank", Class: ClassTank, Stats: PartStats{Mass: 100}},
		{ID: "limp-rcs", Class: ClassRCS, Stats: PartStats{Mass: 10}},
		{ID: "magic-fairing", Class: ClassFairing, Stats: PartStats{Mass: 100, DragReduction: 1.5}},
		{ID: "no-class", Stats: PartStats{Mass: 100}},
	}
	for _, d := range bad {
		if err := d.Validate(); err == nil {
			t.Errorf("%s validated", d.ID)
		}
	}
	good := PartDefinition{ID: "plain-decoupler", Class: ClassDecoupler, Stats: PartStats{Mass: 40}}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid decoupler rejected: %s", err)
	}
}

func TestNewPartFuelAtCapacity(t *testing.T) {
	p := tankPart(250, 2000)
	if p.CurrentFuel != 2000 {
		t.Fatalf("fresh tank holds %f", p.CurrentFuel)
	}
	if !floats.EqualWithinAbs(p.TotalMass(), 2250, 1e-12) {
		t.Fatalf("total mass %f", p.TotalMass())
	}
	p.CurrentFuel = 500
	if !floats.EqualWithinAbs(p.TotalMass(), 750, 1e-12) {
		t.Fatalf("total mass after draining %f", p.TotalMass())
	}
}

func TestThrustDirection(t *testing.T) {
	p := enginePart(1250, 600000, 300)
	if !vectorsEqual(p.ThrustDirection(), NewVector2(0, 1)) {
		t.Fatal("unrotated part must push along local +Y")
	}
	p.Rotation = math.Pi / 2
	if !vectorsEqual(p.ThrustDirection(), NewVector2(-1, 0)) {
		t.Fatalf("rotated thrust direction %s", p.ThrustDirection())
	}
}

func TestCatalogGet(t *testing.T) {
	catalog := NewDemoCatalog()
	def, err := catalog.Get("lv-t30")
	if err != nil {
		t.Fatalf("known id: %s", err)
	}
	if def.Class != ClassEngine || def.Stats.Thrust != 600000 {
		t.Fatalf("wrong definition for lv-t30: %+v", def)
	}
	if _, err = catalog.Get("n1-block-a"); err == nil {
		t.Fatal("unknown id must return an error")
	}
}

func TestNewCatalogResolvesTypeNames(t *testing.T) {
	catalog, err := NewCatalog([]PartDefinition{
		{ID: "cfg-tank", Type: "Tank", Stats: PartStats{Mass: 500, Fuel: 2000}, Width: 1.3, Height: 2},
	})
	if err != nil {
		t.Fatalf("catalog from config names: %s", err)
	}
	def, _ := catalog.Get("cfg-tank")
	if def.Class != ClassTank {
		t.Fatalf("type name resolved to %s", def.Class)
	}

	if _, err = NewCatalog([]PartDefinition{{ID: "mystery", Type: "warpdrive", Stats: PartStats{Mass: 1}}}); err == nil {
		t.Fatal("unknown type name must be rejected")
	}
}
