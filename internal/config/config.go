// Package config loads the console configuration from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/schemascope/core/internal/render"
)

// Duration reads "30s" style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Upstream   UpstreamConfig   `toml:"upstream"`
	Graph      GraphConfig      `toml:"graph"`
	Discovery  DiscoveryConfig  `toml:"discovery"`
	DataSource DataSourceConfig `toml:"datasource"`
	Log        LogConfig        `toml:"log"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
	Detail     DetailConfig     `toml:"detail"`
}

type ServerConfig struct {
	Addr            string   `toml:"addr" validate:"required"`
	AllowedOrigin   string   `toml:"allowed_origin" validate:"required"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	FrameBuffer     int      `toml:"frame_buffer" validate:"min=1"`
}

type UpstreamConfig struct {
	OnboardingURL string   `toml:"onboarding_url" validate:"required,url"`
	DiscoveryURL  string   `toml:"discovery_url" validate:"required,url"`
	Timeout       Duration `toml:"timeout"`
}

// GraphConfig is the render engine configuration.
type GraphConfig struct {
	Layout            string   `toml:"layout" validate:"oneof=eades preset"`
	Animate           bool     `toml:"animate"`
	AnimationDuration Duration `toml:"animation_duration"`
	Fit               bool     `toml:"fit"`
	Padding           float64  `toml:"padding" validate:"gte=0"`
	Iterations        int      `toml:"iterations" validate:"min=1"`
	MinZoom           float64  `toml:"min_zoom" validate:"gt=0"`
	MaxZoom           float64  `toml:"max_zoom" validate:"gtfield=MinZoom"`
	EnableZoom        bool     `toml:"enable_zoom"`
	EnablePan         bool     `toml:"enable_pan"`
	EnableSelection   bool     `toml:"enable_selection"`
}

func (g GraphConfig) Render() render.Config {
	return render.Config{
		Layout: render.LayoutConfig{
			Name:              g.Layout,
			Animate:           g.Animate,
			AnimationDuration: g.AnimationDuration.Duration,
			Fit:               g.Fit,
			Padding:           g.Padding,
			Iterations:        g.Iterations,
		},
		MinZoom:         g.MinZoom,
		MaxZoom:         g.MaxZoom,
		EnableZoom:      g.EnableZoom,
		EnablePan:       g.EnablePan,
		EnableSelection: g.EnableSelection,
	}
}

// DiscoveryConfig selects how discovery progress is reported: a local
// simulation or polling the onboarding service.
type DiscoveryConfig struct {
	Mode         string   `toml:"mode" validate:"oneof=simulated poll"`
	Tick         Duration `toml:"tick"`
	PollInterval Duration `toml:"poll_interval"`
	MaxFailures  int      `toml:"max_failures" validate:"min=1"`
}

type DataSourceConfig struct {
	Kind        string   `toml:"kind" validate:"oneof=remote file static"`
	Dir         string   `toml:"dir" validate:"required_if=Kind file"`
	Watch       bool     `toml:"watch"`
	Debounce    Duration `toml:"debounce"`
	Sample      bool     `toml:"sample"`
	PasswordEnv string   `toml:"password_env"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=auto json text"`
}

type TelemetryConfig struct {
	Enabled     bool   `toml:"enabled"`
	Exporter    string `toml:"exporter" validate:"oneof=stdout otlp"`
	Endpoint    string `toml:"endpoint"`
	ServiceName string `toml:"service_name" validate:"required"`
}

type DetailConfig struct {
	Language string `toml:"language" validate:"required"`
}

func Default() *Config {
	g := render.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigin:   "*",
			ShutdownTimeout: Duration{10 * time.Second},
			FrameBuffer:     64,
		},
		Upstream: UpstreamConfig{
			OnboardingURL: "http://localhost:8083/api/v1/oracle",
			DiscoveryURL:  "http://localhost:8080/api/v1/oracle-discovery",
			Timeout:       Duration{30 * time.Second},
		},
		Graph: GraphConfig{
			Layout:            g.Layout.Name,
			Animate:           g.Layout.Animate,
			AnimationDuration: Duration{g.Layout.AnimationDuration},
			Fit:               g.Layout.Fit,
			Padding:           g.Layout.Padding,
			Iterations:        g.Layout.Iterations,
			MinZoom:           g.MinZoom,
			MaxZoom:           g.MaxZoom,
			EnableZoom:        g.EnableZoom,
			EnablePan:         g.EnablePan,
			EnableSelection:   g.EnableSelection,
		},
		Discovery: DiscoveryConfig{
			Mode:         "simulated",
			Tick:         Duration{500 * time.Millisecond},
			PollInterval: Duration{time.Second},
			MaxFailures:  3,
		},
		DataSource: DataSourceConfig{
			Kind:        "remote",
			Debounce:    Duration{100 * time.Millisecond},
			PasswordEnv: "SCHEMASCOPE_DB_PASSWORD",
		},
		Log: LogConfig{Level: "info", Format: "auto"},
		Telemetry: TelemetryConfig{
			Exporter:    "stdout",
			Endpoint:    "localhost:4317",
			ServiceName: "schemascope",
		},
		Detail: DetailConfig{Language: "en"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, 0, len(undecoded))
				for _, k := range undecoded {
					keys = append(keys, k.String())
				}
				return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envOverrides = []struct {
	key string
	set func(*Config, string)
}{
	{"SCHEMASCOPE_ADDR", func(c *Config, v string) { c.Server.Addr = v }},
	{"CORS_ALLOWED_ORIGIN", func(c *Config, v string) { c.Server.AllowedOrigin = v }},
	{"SCHEMASCOPE_LOG_LEVEL", func(c *Config, v string) { c.Log.Level = strings.ToLower(v) }},
	{"ONBOARDING_API_URL", func(c *Config, v string) { c.Upstream.OnboardingURL = v }},
	{"DISCOVERY_API_URL", func(c *Config, v string) { c.Upstream.DiscoveryURL = v }},
	{"OTEL_EXPORTER_OTLP_ENDPOINT", func(c *Config, v string) { c.Telemetry.Endpoint = v }},
}

func (c *Config) applyEnv() {
	for _, o := range envOverrides {
		if v := os.Getenv(o.key); v != "" {
			o.set(c, v)
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
