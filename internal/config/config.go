// Package config loads the tunable parameters of the gauge reader.
//
// Values come from GAUGE_* environment variables, optionally seeded from a .env
// file in the working directory. Every parameter falls back to the calibration
// of the reference speedometer footage.
package config

import (
	"fmt"
	"image"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ironsheep/gauge-tools-mcp/internal/imaging"
	"github.com/ironsheep/gauge-tools-mcp/internal/speed"
)

// Environment variable names.
const (
	EnvLogLevel     = "GAUGE_LOG_LEVEL"
	EnvRegion       = "GAUGE_REGION"
	EnvMinPerimeter = "GAUGE_MIN_PERIMETER"
	EnvMaxPerimeter = "GAUGE_MAX_PERIMETER"
	EnvMargin       = "GAUGE_PAD_MARGIN"
	EnvScale        = "GAUGE_SPEED_SCALE"
	EnvOffset       = "GAUGE_ANGLE_OFFSET"
	EnvWrap         = "GAUGE_WRAP_CORRECTION"
	EnvResetAbove   = "GAUGE_RESET_ABOVE"
	EnvFPS          = "GAUGE_FPS"
	EnvHighlight    = "GAUGE_HIGHLIGHT"
)

// Config holds the pipeline parameters.
type Config struct {
	// Debug enables per-frame log lines.
	Debug bool

	// Region is the part of each frame that shows the dial. Empty means the
	// whole frame.
	Region image.Rectangle

	// MinPerimeter and MaxPerimeter bound the perimeter of the needle blob.
	MinPerimeter int
	MaxPerimeter int

	// Margin is the background border added before contour tracing.
	Margin int

	// Calibration relates needle angle to speed.
	Calibration speed.Calibration

	// FPS converts frame indices to elapsed seconds.
	FPS float64

	// Highlight is the "#RRGGBB" colour used to mark traced boundaries.
	Highlight string
}

// Default returns the configuration for the reference footage.
func Default() *Config {
	return &Config{
		Region:       image.Rect(120, 270, 120+330, 270+240),
		MinPerimeter: 270,
		MaxPerimeter: 850,
		Margin:       1,
		Calibration:  speed.DefaultCalibration(),
		FPS:          30,
		Highlight:    "#FF0000",
	}
}

// Load reads the configuration from the environment, after loading an optional
// .env file.
func Load() (*Config, error) {
	return LoadWith(nil, nil)
}

// LoadWith is Load for callers that replace some settings, such as command-line
// flags. The variables named in skip are ignored, and override is applied
// before validation.
func LoadWith(skip []string, override func(*Config) error) (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	getenv := func(name string) string {
		if slices.Contains(skip, name) {
			return ""
		}
		return os.Getenv(name)
	}
	return fromEnv(getenv, override)
}

// fromEnv builds a configuration from a variable lookup function, applying
// defaults for unset variables and then override, and validates the result.
func fromEnv(getenv func(string) string, override func(*Config) error) (*Config, error) {
	cfg, err := parseEnv(getenv)
	if err != nil {
		return nil, err
	}
	if override != nil {
		if err := override(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()
	cfg.Debug = strings.EqualFold(getenv(EnvLogLevel), "debug")

	if v := getenv(EnvRegion); v != "" {
		r, err := ParseRegion(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvRegion, err)
		}
		cfg.Region = r
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{EnvMinPerimeter, &cfg.MinPerimeter},
		{EnvMaxPerimeter, &cfg.MaxPerimeter},
		{EnvMargin, &cfg.Margin},
	}
	for _, iv := range ints {
		if v := getenv(iv.name); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", iv.name, err)
			}
			*iv.dst = n
		}
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{EnvScale, &cfg.Calibration.Scale},
		{EnvOffset, &cfg.Calibration.Offset},
		{EnvWrap, &cfg.Calibration.WrapCorrection},
		{EnvResetAbove, &cfg.Calibration.ResetAbove},
		{EnvFPS, &cfg.FPS},
	}
	for _, fv := range floats {
		if v := getenv(fv.name); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fv.name, err)
			}
			*fv.dst = f
		}
	}

	if v := getenv(EnvHighlight); v != "" {
		cfg.Highlight = v
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Margin < 1 {
		return fmt.Errorf("padding margin must be at least 1, got %d", c.Margin)
	}
	if c.MinPerimeter < 0 || c.MinPerimeter > c.MaxPerimeter {
		return fmt.Errorf("invalid perimeter bounds [%d,%d]", c.MinPerimeter, c.MaxPerimeter)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %g", c.FPS)
	}
	if _, err := imaging.ParseHighlight(c.Highlight); err != nil {
		return err
	}
	return nil
}

// ParseRegion parses "x,y,width,height" into a rectangle. An empty string or
// "full" selects the whole frame.
func ParseRegion(s string) (image.Rectangle, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "full") {
		return image.Rectangle{}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("region %q: want x,y,width,height", s)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("region %q: width and height must be positive", s)
	}

	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}
