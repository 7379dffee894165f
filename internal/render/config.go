// Package render owns the render engine lifecycle for a display surface.
// It projects graph records into engine elements and guards engine callbacks.
package render

import "time"

type LayoutConfig struct {
	Name              string        `toml:"name" json:"name"`
	Animate           bool          `toml:"animate" json:"animate"`
	AnimationDuration time.Duration `toml:"-" json:"animationDuration"`
	Fit               bool          `toml:"fit" json:"fit"`
	Padding           float64       `toml:"padding" json:"padding"`
	Iterations        int           `toml:"iterations" json:"iterations"`
}

// Config configures one engine instance. Animation is a setting, not a
// separate engine.
type Config struct {
	Layout          LayoutConfig `json:"layout"`
	MinZoom         float64      `json:"minZoom"`
	MaxZoom         float64      `json:"maxZoom"`
	EnableZoom      bool         `json:"enableZoom"`
	EnablePan       bool         `json:"enablePan"`
	EnableSelection bool         `json:"enableSelection"`
}

func DefaultConfig() Config {
	return Config{
		Layout: LayoutConfig{
			Name:              "eades",
			Animate:           true,
			AnimationDuration: time.Second,
			Fit:               true,
			Padding:           30,
			Iterations:        200,
		},
		MinZoom:         0.1,
		MaxZoom:         3.0,
		EnableZoom:      true,
		EnablePan:       true,
		EnableSelection: true,
	}
}

// ClampZoom limits level to [MinZoom, MaxZoom].
func (c Config) ClampZoom(level float64) float64 {
	if c.MinZoom > 0 && level < c.MinZoom {
		return c.MinZoom
	}
	if c.MaxZoom > 0 && level > c.MaxZoom {
		return c.MaxZoom
	}
	return level
}
