package layout

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ZoneBinding selects how hover zones pick their thread.
type ZoneBinding string

const (
	// BindIndependent assigns zone k to threads[k mod N], ignoring glyphs.
	BindIndependent ZoneBinding = "independent"
	// BindGlyph assigns a zone to the owner of the first glyph-run whose
	// origin falls inside it, falling back to k mod N.
	BindGlyph ZoneBinding = "glyph"
)

// Size is a logical canvas size.
type Size struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// TextGrid drives the column-scan packing of glyph-runs.
type TextGrid struct {
	Left              float64 `yaml:"left"`
	Right             float64 `yaml:"right"`
	Step              float64 `yaml:"step"`
	Top               float64 `yaml:"top"`
	Bottom            float64 `yaml:"bottom"`
	MaxWordsPerColumn int     `yaml:"max_words_per_column"`
	CharFactor        float64 `yaml:"char_factor"`
	WordPadding       float64 `yaml:"word_padding"`
	ThreadGap         float64 `yaml:"thread_gap"`
}

// ZoneGrid drives the hover-zone scan.
type ZoneGrid struct {
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
	StepX  float64 `yaml:"step_x"`
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	StepY  float64 `yaml:"step_y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// FontRule sizes each thread's glyphs.
type FontRule struct {
	Base           float64 `yaml:"base"`
	Jitter         int     `yaml:"jitter"`
	ReactionFactor float64 `yaml:"reaction_factor"`
	ShortRunes     int     `yaml:"short_runes"`
	LongRunes      int     `yaml:"long_runes"`
	Min            float64 `yaml:"min"`
	Max            float64 `yaml:"max"`
}

// Config is the complete set of layout constants.
type Config struct {
	Canvas  Size        `yaml:"canvas"`
	Text    TextGrid    `yaml:"text"`
	Zones   ZoneGrid    `yaml:"zones"`
	Font    FontRule    `yaml:"font"`
	Binding ZoneBinding `yaml:"binding"`
}

// DefaultConfig returns the constants of the 900x240 "U INSPIRE" wall.
func DefaultConfig() Config {
	return Config{
		Canvas: Size{Width: 900, Height: 240},
		Text: TextGrid{
			Left:              50,
			Right:             880,
			Step:              12,
			Top:               50,
			Bottom:            190,
			MaxWordsPerColumn: 12,
			CharFactor:        0.4,
			WordPadding:       2,
			ThreadGap:         6,
		},
		Zones: ZoneGrid{
			Left:   40,
			Right:  880,
			StepX:  60,
			Top:    40,
			Bottom: 180,
			StepY:  50,
			Width:  55,
			Height: 45,
		},
		Font: FontRule{
			Base:           8,
			Jitter:         4,
			ReactionFactor: 0.01,
			ShortRunes:     40,
			LongRunes:      100,
			Min:            8,
			Max:            14,
		},
		Binding: BindIndependent,
	}
}

// LoadConfig overlays a YAML file on DefaultConfig. An empty path yields the
// defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read layout config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse layout config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects grids that could not terminate or would leave the canvas.
func (c Config) Validate() error {
	var errs []error
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, errors.New("canvas must have a positive size"))
	}
	if c.Text.Step <= 0 {
		errs = append(errs, errors.New("text.step must be positive"))
	}
	if c.Text.MaxWordsPerColumn <= 0 {
		errs = append(errs, errors.New("text.max_words_per_column must be positive"))
	}
	if c.Text.ThreadGap <= 0 {
		errs = append(errs, errors.New("text.thread_gap must be positive"))
	}
	if c.Text.Right > c.Canvas.Width || c.Text.Bottom > c.Canvas.Height {
		errs = append(errs, errors.New("text grid exceeds canvas"))
	}
	if c.Zones.StepX <= 0 || c.Zones.StepY <= 0 {
		errs = append(errs, errors.New("zone steps must be positive"))
	}
	if c.Zones.Width <= 0 || c.Zones.Height <= 0 {
		errs = append(errs, errors.New("zone size must be positive"))
	}
	if c.Font.Min <= 0 || c.Font.Max < c.Font.Min {
		errs = append(errs, errors.New("font bounds are invalid"))
	}
	if c.Font.Jitter < 0 {
		errs = append(errs, errors.New("font.jitter must not be negative"))
	}
	switch c.Binding {
	case BindIndependent, BindGlyph:
	default:
		errs = append(errs, fmt.Errorf("unknown zone binding %q", c.Binding))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid layout config: %w", errors.Join(errs...))
	}
	return nil
}
