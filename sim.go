package lsp

import (
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

// DefaultStepSize is the default physics step of the host loop.
const DefaultStepSize = 1.0 / 60.0

// statusLogInterval is how much simulated time passes between status
// lines.
const statusLogInterval = 10.0

// Simulation owns the live object graph for one flight session: the body
// arena, the vehicle, the integrator and the maneuver planner. One call
// to Step is one frame; nothing inside suspends or blocks.
type Simulation struct {
	System    *System
	Rocket    *Rocket
	Physics   *Physics
	Maneuvers *ManeuverNodeManager
	Debris    []*Debris

	Elapsed            float64
	StartDT, CurrentDT time.Time

	histChan chan State
	wg       sync.WaitGroup
	logger   kitlog.Logger
	lastLog  float64
}

// NewSimulation wires a flight session together. The rocket's body joins
// the arena so gravity acts on it. If the export configuration is not
// useless, states stream to disk in the background until Close.
func NewSimulation(s *System, r *Rocket, conf ExportConfig, logger kitlog.Logger) *Simulation {
	if logger == nil {
		logger = defaultLogger()
	}
	sim := &Simulation{
		System:    s,
		Rocket:    r,
		Physics:   &Physics{SOIAltitude: lspConfig().SOIAltitude},
		Maneuvers: NewManeuverNodeManager(),
		StartDT:   time.Now().UTC(),
		logger:    kitlog.With(logger, "subsys", "sim"),
	}
	sim.CurrentDT = sim.StartDT
	if s.IndexOf(r.Body) == -1 {
		s.Add(r.Body)
	}
	if !conf.IsUseless() {
		sim.histChan = make(chan State, 1000) // a 1k entry buffer
		sim.wg.Add(1)
		go func() {
			defer sim.wg.Done()
			StreamStates(conf, sim.histChan)
		}()
		sim.histChan <- sim.snapshot()
	}
	return sim
}

// LogStatus writes one status line for the session.
func (sim *Simulation) LogStatus() {
	info := sim.Rocket.Info()
	sim.logger.Log("level", "info", "t(s)", sim.Elapsed,
		"fuel(kg)", sim.Rocket.Engine.FuelMass, "Δv(m/s)", info.DeltaV,
		"v(m/s)", info.VelocityMagnitude, "stage", sim.Rocket.CurrentStageIndex)
}

// Step advances the whole session by dt seconds: physics for every body,
// then the vehicle's control tick, then deferred structural changes and
// debris bookkeeping.
func (sim *Simulation) Step(input ControlState, dt float64) {
	sim.Physics.Step(sim.System, dt)
	sim.Rocket.Update(input, sim.System, dt)
	sim.Rocket.FlushDeferred()

	for _, d := range sim.Rocket.SpawnedDebris() {
		sim.System.Add(d.Body)
		sim.Debris = append(sim.Debris, d)
	}
	kept := sim.Debris[:0]
	for _, d := range sim.Debris {
		if d.Tick(dt) {
			kept = append(kept, d)
			continue
		}
		if idx := sim.System.IndexOf(d.Body); idx != -1 {
			sim.System.Remove(idx)
		}
	}
	sim.Debris = kept

	sim.Elapsed += dt
	sim.CurrentDT = sim.CurrentDT.Add(time.Duration(dt * float64(time.Second)))
	if sim.histChan != nil {
		sim.histChan <- sim.snapshot()
	}
	if sim.Elapsed-sim.lastLog >= statusLogInterval {
		sim.lastLog = sim.Elapsed
		sim.LogStatus()
	}
}

// RunFor drives the session for a simulated duration at the default step
// size, pulling control intents from the provided function. Convenience
// for headless runs and tests; interactive hosts call Step directly.
func (sim *Simulation) RunFor(d time.Duration, controls func(elapsed float64) ControlState) {
	end := sim.Elapsed + d.Seconds()
	for sim.Elapsed < end {
		input := ControlState{}
		if controls != nil {
			input = controls(sim.Elapsed)
		}
		sim.Step(input, DefaultStepSize)
	}
}

// Close flushes and stops the export stream. Call once, after the last
// Step.
func (sim *Simulation) Close() {
	if sim.histChan != nil {
		close(sim.histChan)
		sim.histChan = nil
	}
	sim.wg.Wait()
	sim.LogStatus()
}

func (sim *Simulation) snapshot() State {
	return State{
		DT:       sim.CurrentDT,
		Elapsed:  sim.Elapsed,
		Position: sim.Rocket.Body.Position,
		Velocity: sim.Rocket.Body.Velocity,
		Rotation: sim.Rocket.Rotation,
		Info:     sim.Rocket.Info(),
	}
}
