package lsp

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

const (
	// G is the universal gravitational constant in m³/(kg·s²).
	G = 6.674e-11
	// NoParent marks a body without a parent in the arena.
	NoParent = -1
)

// Atmosphere is an exponential density model: ρ(h) = ρ0·exp(-h/falloff),
// cut off at Height.
type Atmosphere struct {
	Density float64 `json:"density"` // sea level density ρ0 in kg/m³
	Height  float64 `json:"height"`  // hard ceiling in m
	Falloff float64 `json:"falloff"` // scale height in m
}

// Exists returns whether this body carries an atmosphere at all.
func (a Atmosphere) Exists() bool {
	return a.Height > 0
}

// DensityAt returns the density at the given altitude above the surface,
// zero above the ceiling or below the ground.
func (a Atmosphere) DensityAt(altitude float64) float64 {
	if !a.Exists() || altitude > a.Height || altitude < 0 {
		return 0
	}
	return a.Density * math.Exp(-altitude/a.Falloff)
}

// Body is any gravitating or passive object: star, planet, moon, vehicle
// envelope or debris. Bodies live in a System arena and reference their
// parent and children by index, never by pointer.
type Body struct {
	Name         string
	Position     Vector2
	Velocity     Vector2
	Acceleration Vector2
	Mass         float64 // kg
	Radius       float64 // m
	Parent       int     // arena index, NoParent if none
	Children     []int   // arena indices, hierarchy traversal only
	Orbit        *OrbitalElements
	Locked       bool // true ⇒ propagated analytically, skips force accumulation
	MeanAnomaly  float64
	Atmosphere   Atmosphere

	prevAccel Vector2 // cached a(t) for the Verlet velocity update
}

// GM returns the standard gravitational parameter μ of this body alone.
func (b *Body) GM() float64 {
	return G * b.Mass
}

// AltitudeAbove returns the surface altitude of this body above o.
func (b *Body) AltitudeAbove(o *Body) float64 {
	return b.Position.DistanceTo(o.Position) - o.Radius
}

// String implements the Stringer interface.
func (b *Body) String() string {
	return b.Name + " body"
}

// System is the flat arena of all live bodies. Parent/child relations are
// stored as indices into Bodies so the graph carries no cyclic ownership.
type System struct {
	Bodies []*Body
}

// NewSystem returns an empty system.
func NewSystem() *System {
	return &System{Bodies: make([]*Body, 0, 8)}
}

// Add appends a body to the arena and returns its index. If the body has a
// valid parent, it is registered as that parent's child.
func (s *System) Add(b *Body) int {
	idx := len(s.Bodies)
	s.Bodies = append(s.Bodies, b)
	if b.Parent != NoParent && b.Parent < idx {
		p := s.Bodies[b.Parent]
		p.Children = append(p.Children, idx)
	}
	return idx
}

// ParentOf returns the parent body, or nil if the body has none.
func (s *System) ParentOf(b *Body) *Body {
	if b.Parent == NoParent || b.Parent >= len(s.Bodies) {
		return nil
	}
	return s.Bodies[b.Parent]
}

// IndexOf returns the arena index of the given body, or -1.
func (s *System) IndexOf(b *Body) int {
	for i, other := range s.Bodies {
		if other == b {
			return i
		}
	}
	return -1
}

// Remove drops the body at the given index, fixing up all stored indices.
// Used for debris expiry only, never for celestial bodies.
func (s *System) Remove(idx int) {
	if idx < 0 || idx >= len(s.Bodies) {
		return
	}
	s.Bodies = append(s.Bodies[:idx], s.Bodies[idx+1:]...)
	for _, b := range s.Bodies {
		if b.Parent == idx {
			b.Parent = NoParent
		} else if b.Parent > idx {
			b.Parent--
		}
		children := b.Children[:0]
		for _, c := range b.Children {
			switch {
			case c == idx: // dropped
			case c > idx:
				children = append(children, c-1)
			default:
				children = append(children, c)
			}
		}
		b.Children = children
	}
}

// BodyConfig is the JSON shape of one celestial body as provided by the
// celestial-system collaborator.
type BodyConfig struct {
	Name       string     `json:"name"`
	Mass       float64    `json:"mass"`
	Radius     float64    `json:"radius"`
	Position   Vector2    `json:"position"`
	Velocity   Vector2    `json:"velocity"`
	Parent     *int       `json:"parent,omitempty"`
	Locked     bool       `json:"locked"`
	Atmosphere Atmosphere `json:"atmosphere"`
}

// SystemConfig is a full celestial system description.
type SystemConfig struct {
	Name   string       `json:"name"`
	Bodies []BodyConfig `json:"bodies"`
}

// LoadSystemConfig reads a system configuration from a JSON file.
func LoadSystemConfig(path string) (SystemConfig, error) {
	var cfg SystemConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open system config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse system config: %w", err)
	}
	return cfg, nil
}

// NewSystemFromConfig builds the body arena from a configuration. Locked
// bodies get their orbital elements computed from the initial state; a
// locked body whose state cannot be represented as a closed ellipse is
// demoted to regular N-body treatment.
func (cfg SystemConfig) NewSystemFromConfig() (*System, error) {
	s := NewSystem()
	for i, bc := range cfg.Bodies {
		parent := NoParent
		if bc.Parent != nil {
			if *bc.Parent < 0 || *bc.Parent >= i {
				return nil, fmt.Errorf("body %s: parent index %d out of range", bc.Name, *bc.Parent)
			}
			parent = *bc.Parent
		}
		b := &Body{
			Name:       bc.Name,
			Position:   bc.Position,
			Velocity:   bc.Velocity,
			Mass:       bc.Mass,
			Radius:     bc.Radius,
			Parent:     parent,
			Atmosphere: bc.Atmosphere,
		}
		s.Add(b)
		if bc.Locked {
			if parent == NoParent {
				return nil, fmt.Errorf("body %s: locked body requires a parent", bc.Name)
			}
			LockBody(b, s.Bodies[parent])
		}
	}
	return s, nil
}

/* Builtin demo system, roughly an Earth-Moon setup in SI units. */

// NewDemoSystem returns a star-homeworld-moon system used by the demo
// binary and the tests. The moon is locked on its analytic orbit.
func NewDemoSystem() *System {
	s := NewSystem()
	s.Add(&Body{Name: "Solis", Mass: 1.989e30, Radius: 6.957e8, Parent: NoParent})
	home := &Body{
		Name:     "Gaia",
		Mass:     5.972e24,
		Radius:   6.371e6,
		Position: NewVector2(1.496e11, 0),
		Velocity: NewVector2(0, 29780),
		Parent:   0,
		Atmosphere: Atmosphere{
			Density: 1.225,
			Height:  1.4e5,
			Falloff: 8500,
		},
	}
	s.Add(home)
	moon := &Body{
		Name:     "Luna",
		Mass:     7.342e22,
		Radius:   1.7371e6,
		Position: NewVector2(1.496e11+3.844e8, 0),
		Velocity: NewVector2(0, 29780+1022),
		Parent:   1,
	}
	s.Add(moon)
	LockBody(moon, home)
	return s
}
