package lsp

import (
	"fmt"
	"os"
	"time"

	"github.com/soniakeys/meeus/julian"
)

// State is one propagated telemetry sample.
type State struct {
	DT       time.Time
	Elapsed  float64
	Position Vector2
	Velocity Vector2
	Rotation float64
	Info     Info
}

// CSV returns the sample as a CSV row (no trailing newline). The first
// column is the julian date of the sample.
func (s State) CSV() string {
	return fmt.Sprintf("%f,%.3f,%f,%f,%f,%f,%f,%.2f,%.2f,%.3f,%.2f",
		julian.TimeToJD(s.DT), s.Elapsed, s.Position.X, s.Position.Y,
		s.Velocity.X, s.Velocity.Y, s.Rotation, s.Info.Mass,
		s.Info.FuelPercent, s.Info.Throttle, s.Info.DeltaV)
}

// ExportConfig configures the telemetry stream of a simulation.
type ExportConfig struct {
	Filename     string
	AsCSV        bool
	Timestamp    bool                 // append the wall start time to the filename
	CSVAppend    func(s State) string // custom columns (no leading comma)
	CSVAppendHdr func() string        // header for the custom columns
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV
}

// StreamStates consumes a state channel and writes the telemetry CSV. It
// returns when the channel closes; run it in its own goroutine.
func StreamStates(conf ExportConfig, stateChan <-chan State) {
	if conf.IsUseless() {
		for range stateChan {
			// Drain so the producer never blocks.
		}
		return
	}
	name := conf.Filename
	if conf.Timestamp {
		name += "-" + time.Now().UTC().Format("2006-01-02-150405")
	}
	path := name + ".csv"
	if dir := lspConfig().outputDir; dir != "" {
		path = dir + "/" + path
	}
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	hdr := "jd,t,x,y,vx,vy,rotation,mass,fuel%,throttle,deltaV"
	if conf.CSVAppendHdr != nil {
		hdr += "," + conf.CSVAppendHdr()
	}
	if _, err := f.WriteString(hdr); err != nil {
		panic(err)
	}
	for state := range stateChan {
		row := state.CSV()
		if conf.CSVAppend != nil {
			row += "," + conf.CSVAppend(state)
		}
		if _, err := f.WriteString("\n" + row); err != nil {
			panic(err)
		}
	}
}
