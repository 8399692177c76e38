package main

import (
	"flag"
	"fmt"
	"time"

	lsp "github.com/laurentspitz/loloSpaceProgram-sub001"
)

func main() {
	var (
		systemPath   = flag.String("system", "", "celestial system JSON (builtin demo system if empty)")
		catalogPath  = flag.String("catalog", "", "part catalog JSON (builtin demo catalog if empty)")
		assemblyPath = flag.String("vehicle", "", "vehicle assembly JSON (builtin demo vehicle if empty)")
		duration     = flag.Duration("for", 3*time.Minute, "simulated flight duration")
		csvOut       = flag.String("csv", "flight", "telemetry CSV base name (empty disables)")
	)
	flag.Parse()

	system := lsp.NewDemoSystem()
	if *systemPath != "" {
		cfg, err := lsp.LoadSystemConfig(*systemPath)
		if err != nil {
			panic(err)
		}
		system, err = cfg.NewSystemFromConfig()
		if err != nil {
			panic(err)
		}
	}

	catalog := lsp.NewDemoCatalog()
	if *catalogPath != "" {
		var err error
		catalog, err = lsp.LoadCatalog(*catalogPath)
		if err != nil {
			panic(err)
		}
	}

	assembly := demoAssembly()
	if *assemblyPath != "" {
		var err error
		assembly, err = lsp.LoadAssemblyConfig(*assemblyPath)
		if err != nil {
			panic(err)
		}
	}

	// Sit the vehicle on the homeworld's surface, sharing its motion.
	home := system.Bodies[1]
	body := &lsp.Body{
		Name:     assembly.Name,
		Position: lsp.NewVector2(home.Position.X+home.Radius, home.Position.Y),
		Velocity: home.Velocity,
		Parent:   lsp.NoParent,
	}
	rocket := lsp.NewRocket(assembly, catalog, body, nil)

	conf := lsp.ExportConfig{Filename: *csvOut, AsCSV: *csvOut != "", Timestamp: true}
	sim := lsp.NewSimulation(system, rocket, conf, nil)

	// Scripted ascent: full throttle, stage once the first stage runs
	// dry, pop the chute on the way down.
	collator := lsp.NewInputCollator(lsp.DefaultControlsConfig())
	sim.RunFor(*duration, func(elapsed float64) lsp.ControlState {
		raw := lsp.RawInput{FullThrottle: true, SAS: true}
		if rocket.Engine.FuelMass <= 0 && rocket.CurrentStageIndex < len(rocket.Stages)-1 {
			raw.Stage = true
		}
		radial := rocket.Body.Position
		radial.Sub(home.Position)
		rel := rocket.Body.Velocity
		rel.Sub(home.Velocity)
		if radial.Dot(rel) < 0 && rocket.Body.AltitudeAbove(home) < 5000 {
			raw.Parachute = true
		}
		return collator.Collate(raw, lsp.DefaultStepSize)
	})
	sim.Close()

	info := rocket.Info()
	fmt.Printf("flight over: v=%.1f m/s mass=%.1f kg Δv left=%.1f m/s stage=%d\n",
		info.VelocityMagnitude, info.Mass, info.DeltaV, rocket.CurrentStageIndex)
}

func demoAssembly() lsp.AssemblyConfig {
	return lsp.AssemblyConfig{
		Name: "demo-1",
		Parts: []lsp.AssemblyPart{
			{PartID: "lv-t30", Position: lsp.NewVector2(0, 0)},
			{PartID: "fl-t800", Position: lsp.NewVector2(0, 2.9)},
			{PartID: "td-12", Position: lsp.NewVector2(0, 5.0)},
			{PartID: "fl-t400", Position: lsp.NewVector2(0, 6.2)},
			{PartID: "mk16-chute", Position: lsp.NewVector2(0, 7.5)},
			{PartID: "mk1-capsule", Position: lsp.NewVector2(0, 8.4)},
		},
	}
}
