package lsp

import (
	"os"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/viper"
)

var (
	cfgLoaded = false
	config    = _lspconfig{}
)

// _lspconfig is a "hidden" struct, just use `lspConfig`.
type _lspconfig struct {
	// DragMultiplier is an explicit gameplay-feel amplifier layered over
	// the physical drag formula. It is deliberately not 1.0; do not fold
	// it into the physics.
	DragMultiplier float64
	// VisualScale converts a body's physical radius into the visual
	// radius the renderer draws. Atmosphere altitude lookups share it so
	// the drawn surface and the felt surface coincide.
	VisualScale float64
	// SOIAltitude is the patched-conics dominant-body threshold in m.
	SOIAltitude float64
	// DebrisLifetime is how long spawned debris persists, in seconds.
	DebrisLifetime float64
	outputDir      string
}

// lspConfig returns the gameplay configuration. Without an LSP_CONFIG
// environment variable (or without a conf.toml in that directory) every
// tunable keeps its default, so a bare checkout runs.
func lspConfig() _lspconfig {
	if cfgLoaded {
		return config
	}
	viper.SetDefault("gameplay.drag_multiplier", 20.0)
	viper.SetDefault("gameplay.visual_scale", 1.0)
	viper.SetDefault("gameplay.soi_altitude", PatchedConicsAltitude)
	viper.SetDefault("gameplay.debris_lifetime", 120.0)
	viper.SetDefault("general.output_path", "")

	if confPath := os.Getenv("LSP_CONFIG"); confPath != "" {
		viper.SetConfigName("conf")
		viper.AddConfigPath(confPath)
		if err := viper.ReadInConfig(); err != nil {
			defaultLogger().Log("level", "warning", "subsys", "config", "path", confPath, "err", err)
		}
	}

	config = _lspconfig{
		DragMultiplier: viper.GetFloat64("gameplay.drag_multiplier"),
		VisualScale:    viper.GetFloat64("gameplay.visual_scale"),
		SOIAltitude:    viper.GetFloat64("gameplay.soi_altitude"),
		DebrisLifetime: viper.GetFloat64("gameplay.debris_lifetime"),
		outputDir:      viper.GetString("general.output_path"),
	}
	cfgLoaded = true
	return config
}

// defaultLogger returns the package fallback logfmt logger.
func defaultLogger() kitlog.Logger {
	return kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
}
