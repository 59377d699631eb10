package fabrica

// Config consolidates engine settings. Configuration is carried per engine
// instance so concurrent generation trees can use independent settings.
type Config struct {
	Generation GenerationConfig `json:"generation"`
	Synthesis  SynthesisConfig  `json:"synthesis"`
	Logging    LoggingConfig    `json:"logging"`
}

// GenerationConfig controls the external content backend.
type GenerationConfig struct {
	// Enabled gates every backend call. When false the engine never invokes
	// the backend and relies on placeholder synthesis.
	Enabled bool `json:"enabled"`
	// Model is the identifier passed through to the backend.
	Model string `json:"model"`
	// MaxDepth bounds the recursive generation cascade. This counter is the
	// sole protection against cyclic or unbounded-depth schema graphs.
	MaxDepth int `json:"maxDepth"`
}

// SynthesisConfig controls placeholder value synthesis.
type SynthesisConfig struct {
	// MaxValueLength caps synthesized string values when the field's type
	// hint does not declare its own bound.
	MaxValueLength int `json:"maxValueLength"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// DefaultConfig returns the default engine configuration: generation
// disabled, depth ceiling 10.
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Enabled:  false,
			Model:    "default",
			MaxDepth: 10,
		},
		Synthesis: SynthesisConfig{
			MaxValueLength: 500,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c == nil {
		return NewConfigError("config cannot be nil")
	}
	if c.Generation.MaxDepth <= 0 {
		return NewConfigError("generation.maxDepth must be positive")
	}
	if c.Generation.Enabled && c.Generation.Model == "" {
		return NewConfigError("generation.model is required when generation is enabled")
	}
	if c.Synthesis.MaxValueLength <= 0 {
		return NewConfigError("synthesis.maxValueLength must be positive")
	}
	return nil
}
