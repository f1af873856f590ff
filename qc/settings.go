package qc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultMaxDepth bounds bracket nesting during parsing.
const DefaultMaxDepth = 256

// Settings controls lexing and parsing.
type Settings struct {
	// PlainValues lexes runs of letters, digits, '-', '_' and '!' as one token.
	PlainValues bool `toml:"plain_values" yaml:"plain_values" mapstructure:"plain_values"`

	// CStyleComments enables // and /* */ comments.
	CStyleComments bool `toml:"c_style_comments" yaml:"c_style_comments" mapstructure:"c_style_comments"`

	// BashComments enables # line comments.
	BashComments bool `toml:"bash_comments" yaml:"bash_comments" mapstructure:"bash_comments"`

	// MaxDepth limits nested parentheses. Zero means DefaultMaxDepth.
	MaxDepth int `toml:"max_depth" yaml:"max_depth" mapstructure:"max_depth"`
}

// DefaultSettings returns the settings used when none are given:
// plain values and bash comments on, C-style comments off.
func DefaultSettings() Settings {
	return Settings{
		PlainValues:  true,
		BashComments: true,
		MaxDepth:     DefaultMaxDepth,
	}
}

func (s Settings) maxDepth() int {
	if s.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return s.MaxDepth
}

// settingsFile mirrors Settings with pointer fields so that keys missing
// from a file keep their defaults.
type settingsFile struct {
	PlainValues    *bool `toml:"plain_values" yaml:"plain_values"`
	CStyleComments *bool `toml:"c_style_comments" yaml:"c_style_comments"`
	BashComments   *bool `toml:"bash_comments" yaml:"bash_comments"`
	MaxDepth       *int  `toml:"max_depth" yaml:"max_depth"`
}

func (f settingsFile) apply(s *Settings) {
	if f.PlainValues != nil {
		s.PlainValues = *f.PlainValues
	}
	if f.CStyleComments != nil {
		s.CStyleComments = *f.CStyleComments
	}
	if f.BashComments != nil {
		s.BashComments = *f.BashComments
	}
	if f.MaxDepth != nil {
		s.MaxDepth = *f.MaxDepth
	}
}

// LoadSettings reads settings from a .toml, .yaml or .yml file.
// Keys absent from the file keep their DefaultSettings values.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	return DecodeSettings(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// DecodeSettings decodes settings in the given format ("toml", "yaml" or "yml").
func DecodeSettings(data []byte, format string) (Settings, error) {
	s := DefaultSettings()
	var f settingsFile
	switch strings.ToLower(format) {
	case "toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return Settings{}, configError(format, err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Settings{}, configError(format, err)
		}
	default:
		return Settings{}, &Error{
			Code:    ErrConfig,
			Message: fmt.Sprintf("unsupported settings format %q: use toml or yaml", format),
			Details: map[string]any{"format": format},
		}
	}
	f.apply(&s)
	if s.MaxDepth < 0 {
		return Settings{}, &Error{
			Code:    ErrConfig,
			Message: fmt.Sprintf("max_depth must be >= 0, got %d", s.MaxDepth),
			Details: map[string]any{"max_depth": s.MaxDepth},
		}
	}
	return s, nil
}

func configError(format string, err error) *Error {
	return &Error{
		Code:    ErrConfig,
		Message: fmt.Sprintf("invalid %s settings: %s", format, err),
		Details: map[string]any{"format": format},
	}
}

// config holds configuration set via functional options.
type config struct {
	settings Settings
	logger   zerolog.Logger
}

// Option configures a parse.
type Option func(*config)

// WithSettings replaces the lexer and parser settings.
func WithSettings(s Settings) Option {
	return func(c *config) {
		c.settings = s
	}
}

// WithLogger sets the logger used for parser tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		settings: DefaultSettings(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
