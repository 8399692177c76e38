package lsp

import (
	"testing"

	"github.com/gonum/floats"
)

func at(p *Part, y float64) *Part {
	p.Position = NewVector2(0, y)
	return p
}

func TestParseStagesOrdering(t *testing.T) {
	capsule := at(capsulePart(800), 8)
	dec := at(decouplerPart(), 6)
	tank := at(tankPart(250, 2000), 3)
	engine := at(enginePart(1250, 600000, 300), 0)
	// Deliberately shuffled input; stages are sorted bottom to top.
	stages := ParseStages([]*Part{capsule, engine, dec, tank})

	if len(stages) != 3 {
		t.Fatalf("got %d stages, want 3", len(stages))
	}
	if len(stages[0]) != 2 || stages[0][0] != engine || stages[0][1] != tank {
		t.Fatalf("stage 0 should be engine+tank bottom-up, got %v", stages[0])
	}
	if len(stages[1]) != 1 || stages[1][0] != dec {
		t.Fatal("decoupler must form a singleton stage")
	}
	if len(stages[2]) != 1 || stages[2][0] != capsule {
		t.Fatal("payload must be the topmost stage")
	}
}

func TestParseStagesAdjacentDecouplers(t *testing.T) {
	d0 := at(decouplerPart(), 0)
	d1 := at(decouplerPart(), 1)
	capsule := at(capsulePart(800), 2)
	stages := ParseStages([]*Part{capsule, d1, d0})
	if len(stages) != 3 {
		t.Fatalf("got %d stages, want 3 (two singletons + payload)", len(stages))
	}
	if stages[0][0] != d0 || stages[1][0] != d1 {
		t.Fatal("adjacent decouplers must stay separate singleton stages")
	}
}

func TestParseStagesEmpty(t *testing.T) {
	if ParseStages(nil) != nil {
		t.Fatal("no parts should yield no stages")
	}
}

func TestCalculateStats(t *testing.T) {
	stages := [][]*Part{
		{enginePart(1250, 600000, 300), tankPart(250, 2000)},
		{decouplerPart()},
		{capsulePart(800)},
	}
	all := CalculateStats(stages, 0)
	if !floats.EqualWithinAbs(all.DryMass, 1250+250+40+800, 1e-9) {
		t.Fatalf("dry mass %f", all.DryMass)
	}
	if !floats.EqualWithinAbs(all.FuelMass, 2000, 1e-9) {
		t.Fatalf("fuel mass %f", all.FuelMass)
	}
	if !floats.EqualWithinAbs(all.TotalMass(), 4340, 1e-9) {
		t.Fatalf("total mass %f", all.TotalMass())
	}
	if all.Thrust != 600000 || all.Isp != 300 {
		t.Fatalf("thrust %f isp %f", all.Thrust, all.Isp)
	}
	if all.MaxElectricity != 50 {
		t.Fatalf("electricity %f", all.MaxElectricity)
	}

	// After dropping the first two stages only the capsule remains.
	payload := CalculateStats(stages, 2)
	if payload.Thrust != 0 || payload.FuelMass != 0 {
		t.Fatal("payload stage must have no thrust and no fuel")
	}
	if !floats.EqualWithinAbs(payload.DryMass, 800, 1e-9) {
		t.Fatalf("payload dry mass %f", payload.DryMass)
	}
}

func TestCalculateStatsIspWeighting(t *testing.T) {
	stages := [][]*Part{{
		enginePart(1250, 600000, 300),
		enginePart(400, 200000, 250),
	}}
	stats := CalculateStats(stages, 0)
	want := (600000*300 + 200000*250) / 800000.0
	if !floats.EqualWithinAbs(stats.Isp, want, 1e-9) {
		t.Fatalf("weighted Isp %f, want %f", stats.Isp, want)
	}
}

func TestConsumeFuelEvenSplit(t *testing.T) {
	t0 := tankPart(250, 1000)
	t1 := tankPart(250, 1000)
	stages := [][]*Part{{t0, t1}}
	if got := ConsumeFuel(stages, 0, 100, false); !floats.EqualWithinAbs(got, 100, 1e-9) {
		t.Fatalf("consumed %f", got)
	}
	if t0.CurrentFuel != 950 || t1.CurrentFuel != 950 {
		t.Fatalf("uneven draw: %f / %f", t0.CurrentFuel, t1.CurrentFuel)
	}
}

func TestConsumeFuelPartialTank(t *testing.T) {
	// One tank runs dry mid-draw; only what exists is consumed.
	t0 := tankPart(250, 10)
	t1 := tankPart(250, 1000)
	stages := [][]*Part{{t0, t1}}
	got := ConsumeFuel(stages, 0, 100, false)
	if !floats.EqualWithinAbs(got, 60, 1e-9) {
		t.Fatalf("consumed %f, want 60", got)
	}
	if t0.CurrentFuel != 0 {
		t.Fatalf("dry tank holds %f", t0.CurrentFuel)
	}
}

func TestCrossfeedDrawOrder(t *testing.T) {
	lower := tankPart(250, 0)
	upper := tankPart(250, 500)
	top := tankPart(250, 500)
	stages := [][]*Part{
		{enginePart(1250, 600000, 300), lower},
		{upper},
		{top},
	}

	// Without crossfeed a dry stage feeds nothing.
	if got := ConsumeFuel(stages, 0, 50, false); got != 0 {
		t.Fatalf("dry stage fed %f without crossfeed", got)
	}

	// With crossfeed the nearest upper stage with fuel is drained,
	// never blended with stages above it.
	if got := ConsumeFuel(stages, 0, 50, true); !floats.EqualWithinAbs(got, 50, 1e-9) {
		t.Fatalf("crossfeed drew %f", got)
	}
	if upper.CurrentFuel != 450 {
		t.Fatalf("nearest stage holds %f, want 450", upper.CurrentFuel)
	}
	if top.CurrentFuel != 500 {
		t.Fatal("crossfeed must not blend across stages")
	}
}

func TestConsumeFuelBounds(t *testing.T) {
	stages := [][]*Part{{tankPart(250, 100)}}
	if got := ConsumeFuel(stages, -1, 10, true); got != 0 {
		t.Fatalf("out-of-range stage fed %f", got)
	}
	if got := ConsumeFuel(stages, 0, -5, false); got != 0 {
		t.Fatalf("negative request fed %f", got)
	}
	if got := ConsumeFuel(stages, 0, 1e9, false); !floats.EqualWithinAbs(got, 100, 1e-9) {
		t.Fatalf("overdraw returned %f, want the 100 available", got)
	}
}
