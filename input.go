package lsp

// ControlState is the per-tick input snapshot handed to the core by the
// input collaborator. Booleans marked edge-triggered must be true for the
// single frame the action fires; the EdgeLatch helper produces exactly
// that from raw held-key state.
type ControlState struct {
	Throttle        float64 // [0,1]
	Rotation        float64 // [-1,1], positive is counter-clockwise
	Stage           bool    // edge-triggered
	RCSEnabled      bool
	SASEnabled      bool
	DeployParachute bool // edge-triggered
	EjectFairings   bool // edge-triggered
}

// EdgeLatch turns a held boolean into a single-frame trigger by comparing
// against the previous frame's state.
type EdgeLatch struct {
	prev bool
}

// Triggered returns true exactly once per press.
func (l *EdgeLatch) Triggered(pressed bool) bool {
	rising := pressed && !l.prev
	l.prev = pressed
	return rising
}

// ControlsConfig is the explicit controls configuration handed to the
// collator at construction. There is no global controls state.
type ControlsConfig struct {
	ThrottleStep        float64 // throttle change per second of held key
	RotationSensitivity float64 // scales the raw rotation axis
}

// DefaultControlsConfig returns a sensible keyboard mapping.
func DefaultControlsConfig() ControlsConfig {
	return ControlsConfig{ThrottleStep: 0.5, RotationSensitivity: 1}
}

// RawInput is the held-key state sampled by the host each frame.
type RawInput struct {
	ThrottleUp, ThrottleDown   bool
	FullThrottle, CutThrottle  bool
	Rotation                   float64
	Stage, Parachute, Fairings bool
	RCS, SAS                   bool
}

// InputCollator folds raw key state into per-tick ControlState snapshots,
// latching the edge-triggered actions.
type InputCollator struct {
	cfg      ControlsConfig
	throttle float64
	stage    EdgeLatch
	chute    EdgeLatch
	fairing  EdgeLatch
}

// NewInputCollator returns a collator with the given configuration.
func NewInputCollator(cfg ControlsConfig) *InputCollator {
	return &InputCollator{cfg: cfg}
}

// Collate produces the control snapshot for one frame of dt seconds.
func (ic *InputCollator) Collate(raw RawInput, dt float64) ControlState {
	switch {
	case raw.FullThrottle:
		ic.throttle = 1
	case raw.CutThrottle:
		ic.throttle = 0
	case raw.ThrottleUp:
		ic.throttle += ic.cfg.ThrottleStep * dt
	case raw.ThrottleDown:
		ic.throttle -= ic.cfg.ThrottleStep * dt
	}
	if ic.throttle < 0 {
		ic.throttle = 0
	} else if ic.throttle > 1 {
		ic.throttle = 1
	}

	rotation := raw.Rotation * ic.cfg.RotationSensitivity
	if rotation < -1 {
		rotation = -1
	} else if rotation > 1 {
		rotation = 1
	}

	return ControlState{
		Throttle:        ic.throttle,
		Rotation:        rotation,
		Stage:           ic.stage.Triggered(raw.Stage),
		RCSEnabled:      raw.RCS,
		SASEnabled:      raw.SAS,
		DeployParachute: ic.chute.Triggered(raw.Parachute),
		EjectFairings:   ic.fairing.Triggered(raw.Fairings),
	}
}
