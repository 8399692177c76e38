package lsp

import "sort"

// ParseStages splits a flat part list into ordered stages: parts are
// sorted bottom-to-top by local Y, every decoupler becomes its own
// singleton stage, and each contiguous non-decoupler run between
// decouplers becomes one stage. Index 0 is the bottom-most stage (first
// to detach); the topmost run is the payload and is never dropped.
func ParseStages(parts []*Part) [][]*Part {
	if len(parts) == 0 {
		return nil
	}
	sorted := make([]*Part, len(parts))
	copy(sorted, parts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position.Y < sorted[j].Position.Y
	})

	var stages [][]*Part
	var current []*Part
	for _, p := range sorted {
		if p.Def.Class == ClassDecoupler {
			if len(current) > 0 {
				stages = append(stages, current)
				current = nil
			}
			stages = append(stages, []*Part{p})
			continue
		}
		current = append(current, p)
	}
	if len(current) > 0 {
		stages = append(stages, current)
	}
	return stages
}

// StageStats aggregates the physical properties of a stage range.
type StageStats struct {
	DryMass        float64
	FuelMass       float64
	Thrust         float64
	Isp            float64 // thrust-weighted average
	MaxElectricity float64
}

// TotalMass returns dry plus fuel mass.
func (s StageStats) TotalMass() float64 {
	return s.DryMass + s.FuelMass
}

// CalculateStats sums the stats over stages [fromIndex, end).
func CalculateStats(stages [][]*Part, fromIndex int) StageStats {
	var stats StageStats
	ispWeight := 0.0
	for i := fromIndex; i < len(stages); i++ {
		if i < 0 {
			continue
		}
		for _, p := range stages[i] {
			stats.DryMass += p.Def.Stats.Mass
			stats.FuelMass += p.CurrentFuel
			stats.MaxElectricity += p.Def.Stats.Electricity
			if p.Def.ProvidesThrust() {
				stats.Thrust += p.Def.Stats.Thrust
				ispWeight += p.Def.Stats.Thrust * p.Def.Stats.Isp
			}
		}
	}
	if stats.Thrust > 0 {
		stats.Isp = ispWeight / stats.Thrust
	}
	return stats
}

// fuelTanks returns the parts of the given stage that still hold fuel.
func fuelTanks(stage []*Part) []*Part {
	var tanks []*Part
	for _, p := range stage {
		if p.Def.StoresFuel() && p.CurrentFuel > 0 {
			tanks = append(tanks, p)
		}
	}
	return tanks
}

// StageFuel returns the remaining fuel in one stage.
func StageFuel(stage []*Part) float64 {
	total := 0.0
	for _, p := range stage {
		total += p.CurrentFuel
	}
	return total
}

// findFuelStage returns the stage index engines at stageIndex draw from:
// the stage itself if it has fuel, else - when crossfeed is enabled - the
// nearest upper stage with fuel (first match only, never blended across
// stages). Returns -1 when nothing can be drawn.
func findFuelStage(stages [][]*Part, stageIndex int, crossfeed bool) int {
	if stageIndex < 0 || stageIndex >= len(stages) {
		return -1
	}
	if len(fuelTanks(stages[stageIndex])) > 0 {
		return stageIndex
	}
	if !crossfeed {
		return -1
	}
	for i := stageIndex + 1; i < len(stages); i++ {
		if len(fuelTanks(stages[i])) > 0 {
			return i
		}
	}
	return -1
}

// ConsumeFuel draws the requested fuel mass from the active stage (or the
// crossfed stage when the active one is dry), split evenly across all
// tanks with remaining fuel, and returns the mass actually drawn.
func ConsumeFuel(stages [][]*Part, stageIndex int, amount float64, crossfeed bool) float64 {
	if amount <= 0 {
		return 0
	}
	target := findFuelStage(stages, stageIndex, crossfeed)
	if target == -1 {
		return 0
	}
	tanks := fuelTanks(stages[target])
	perTank := amount / float64(len(tanks))
	consumed := 0.0
	for _, tank := range tanks {
		draw := perTank
		if draw > tank.CurrentFuel {
			draw = tank.CurrentFuel
		}
		tank.CurrentFuel -= draw
		consumed += draw
	}
	return consumed
}
