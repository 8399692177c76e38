package lsp

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// PartClass is the closed set of part types. Every definition carries a
// class discriminant and only the stat fields meaningful for it; callers
// select behavior by switching on the class, never by probing optional
// fields.
type PartClass uint8

const (
	ClassEngine PartClass = iota + 1
	ClassBooster
	ClassTank
	ClassDecoupler
	ClassParachute
	ClassFairing
	ClassRCS
	ClassCapsule
)

// String implements the Stringer interface.
func (c PartClass) String() string {
	switch c {
	case ClassEngine:
		return "engine"
	case ClassBooster:
		return "booster"
	case ClassTank:
		return "tank"
	case ClassDecoupler:
		return "decoupler"
	case ClassParachute:
		return "parachute"
	case ClassFairing:
		return "fairing"
	case ClassRCS:
		return "rcs"
	case ClassCapsule:
		return "capsule"
	}
	return "unknown"
}

// PartClassFromString returns the class from its config name.
func PartClassFromString(name string) (PartClass, error) {
	switch strings.ToLower(name) {
	case "engine":
		return ClassEngine, nil
	case "booster":
		return ClassBooster, nil
	case "tank":
		return ClassTank, nil
	case "decoupler":
		return ClassDecoupler, nil
	case "parachute":
		return ClassParachute, nil
	case "fairing":
		return ClassFairing, nil
	case "rcs":
		return ClassRCS, nil
	case "capsule":
		return ClassCapsule, nil
	default:
		return 0, fmt.Errorf("undefined part class '%s'", name)
	}
}

// PartStats is the per-class stat block. Fields irrelevant to a class are
// zero and stay zero; validation rejects definitions that set them.
type PartStats struct {
	Mass           float64 `json:"mass"`                     // dry mass, kg
	Fuel           float64 `json:"fuel,omitempty"`           // tank/booster capacity, kg
	Thrust         float64 `json:"thrust,omitempty"`         // engine/booster/rcs, N
	Isp            float64 `json:"isp,omitempty"`            // s
	Electricity    float64 `json:"electricity,omitempty"`    // capsule storage
	SASConsumption float64 `json:"sasConsumption,omitempty"` // capsule draw per second
	DragReduction  float64 `json:"dragReduction,omitempty"`  // fairing, fraction of Cd removed
}

// PartDefinition is the immutable catalog entry for one part type.
type PartDefinition struct {
	ID     string    `json:"id"`
	Class  PartClass `json:"-"`
	Type   string    `json:"type"` // class name in config files
	Stats  PartStats `json:"stats"`
	Width  float64   `json:"width"`  // m, local frame
	Height float64   `json:"height"` // m, local frame
}

// ProvidesThrust returns whether parts of this definition can fire as a
// main engine.
func (d *PartDefinition) ProvidesThrust() bool {
	return d.Class == ClassEngine || d.Class == ClassBooster
}

// StoresFuel returns whether parts of this definition hold fuel.
func (d *PartDefinition) StoresFuel() bool {
	return d.Class == ClassTank || d.Class == ClassBooster
}

// Validate checks class/stat consistency.
func (d *PartDefinition) Validate() error {
	if d.Stats.Mass <= 0 {
		return fmt.Errorf("part %s: mass must be positive", d.ID)
	}
	switch d.Class {
	case ClassEngine:
		if d.Stats.Thrust <= 0 || d.Stats.Isp <= 0 {
			return fmt.Errorf("part %s: engine requires thrust and isp", d.ID)
		}
	case ClassBooster:
		if d.Stats.Thrust <= 0 || d.Stats.Isp <= 0 || d.Stats.Fuel <= 0 {
			return fmt.Errorf("part %s: booster requires thrust, isp and fuel", d.ID)
		}
	case ClassTank:
		if d.Stats.Fuel <= 0 {
			return fmt.Errorf("part %s: tank requires fuel capacity", d.ID)
		}
	case ClassRCS:
		if d.Stats.Thrust <= 0 {
			return fmt.Errorf("part %s: rcs requires thrust", d.ID)
		}
	case ClassFairing:
		if d.Stats.DragReduction < 0 || d.Stats.DragReduction > 1 {
			return fmt.Errorf("part %s: drag reduction must be in [0,1]", d.ID)
		}
	case ClassDecoupler, ClassParachute, ClassCapsule:
		// No extra requirements.
	default:
		return fmt.Errorf("part %s: unknown class", d.ID)
	}
	return nil
}

// Part is one placed part instance. Definitions are shared flyweights;
// the only mutable per-part state is fuel, deployment and the firing
// flags.
type Part struct {
	Def           *PartDefinition
	Position      Vector2 // local frame
	Rotation      float64
	Flipped       bool
	Active        bool  // fired this tick (rendering hint)
	Deployed      bool  // parachute state, latches once
	ManualEnabled *bool // nil = follow global throttle; else forced 0% / 100%
	CurrentFuel   float64
}

// NewPart instantiates a part from its definition, fuel at capacity.
func NewPart(def *PartDefinition) *Part {
	return &Part{Def: def, CurrentFuel: def.Stats.Fuel}
}

// TotalMass returns dry mass plus remaining fuel.
func (p *Part) TotalMass() float64 {
	return p.Def.Stats.Mass + p.CurrentFuel
}

// ThrustDirection returns the local-frame unit thrust direction: the
// part's "up", rotated by its own local rotation.
func (p *Part) ThrustDirection() Vector2 {
	up := NewVector2(0, 1)
	up.Rotate(p.Rotation)
	return up
}

// Catalog maps part ids to their definitions.
type Catalog struct {
	defs map[string]*PartDefinition
}

// NewCatalog returns a catalog holding the provided definitions. Invalid
// definitions are rejected.
func NewCatalog(defs []PartDefinition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]*PartDefinition, len(defs))}
	for i := range defs {
		d := defs[i]
		if d.Class == 0 {
			class, err := PartClassFromString(d.Type)
			if err != nil {
				return nil, err
			}
			d.Class = class
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		c.defs[d.ID] = &d
	}
	return c, nil
}

// Get returns the definition for an id. An unknown id is a data error
// from the part-catalog collaborator and is recoverable: callers skip the
// part and log, they never halt the flight.
func (c *Catalog) Get(id string) (*PartDefinition, error) {
	def, found := c.defs[id]
	if !found {
		return nil, fmt.Errorf("unregistered part id '%s'", id)
	}
	return def, nil
}

// LoadCatalog reads part definitions from a JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open part catalog: %w", err)
	}
	var defs []PartDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse part catalog: %w", err)
	}
	return NewCatalog(defs)
}

// NewDemoCatalog returns the builtin part set used by the demo binary and
// the tests.
func NewDemoCatalog() *Catalog {
	catalog, err := NewCatalog([]PartDefinition{
		{ID: "mk1-capsule", Class: ClassCapsule, Stats: PartStats{Mass: 800, Electricity: 50, SASConsumption: 0.5}, Width: 1.3, Height: 1.2},
		{ID: "fl-t400", Class: ClassTank, Stats: PartStats{Mass: 500, Fuel: 2000}, Width: 1.3, Height: 2.0},
		{ID: "fl-t800", Class: ClassTank, Stats: PartStats{Mass: 900, Fuel: 4000}, Width: 1.3, Height: 3.8},
		{ID: "lv-t30", Class: ClassEngine, Stats: PartStats{Mass: 1250, Thrust: 600000, Isp: 300}, Width: 1.3, Height: 1.8},
		{ID: "rt-10", Class: ClassBooster, Stats: PartStats{Mass: 450, Fuel: 800, Thrust: 250000, Isp: 170}, Width: 1.0, Height: 3.6},
		{ID: "td-12", Class: ClassDecoupler, Stats: PartStats{Mass: 40}, Width: 1.3, Height: 0.3},
		{ID: "mk16-chute", Class: ClassParachute, Stats: PartStats{Mass: 100}, Width: 0.9, Height: 0.5},
		{ID: "aero-fairing", Class: ClassFairing, Stats: PartStats{Mass: 120, DragReduction: 0.6}, Width: 1.4, Height: 2.4},
		{ID: "rv-105", Class: ClassRCS, Stats: PartStats{Mass: 20, Thrust: 1000}, Width: 0.3, Height: 0.3},
	})
	if err != nil {
		panic(err)
	}
	return catalog
}

// AssemblyPart is one record of the inbound part-stack description from
// the hangar collaborator.
type AssemblyPart struct {
	PartID   string  `json:"partId"`
	Position Vector2 `json:"position"`
	Rotation float64 `json:"rotation,omitempty"`
	Flipped  bool    `json:"flipped,omitempty"`
}

// AssemblyConfig is a full vehicle description.
type AssemblyConfig struct {
	Name  string         `json:"name"`
	Parts []AssemblyPart `json:"parts"`
}

// LoadAssemblyConfig reads a vehicle assembly from a JSON file.
func LoadAssemblyConfig(path string) (AssemblyConfig, error) {
	var cfg AssemblyConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open assembly config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse assembly config: %w", err)
	}
	return cfg, nil
}
