package fabrica

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.Generation.Enabled)
	assert.Equal(t, 10, cfg.Generation.MaxDepth)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default valid", func(*Config) {}, false},
		{"zero depth", func(c *Config) { c.Generation.MaxDepth = 0 }, true},
		{"enabled without model", func(c *Config) { c.Generation.Enabled = true; c.Generation.Model = "" }, true},
		{"enabled with model", func(c *Config) { c.Generation.Enabled = true }, false},
		{"zero value length", func(c *Config) { c.Synthesis.MaxValueLength = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNilConfigValidate(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Validate())
}
