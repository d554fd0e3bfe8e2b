package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []float32{1.0, 0.5, 0.25, 1.0}, cfg.Renderer.ClearColor)
	assert.Equal(t, "shaders/vertex.spv", cfg.Renderer.VertexShader)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[application]
log_level = "debug"

[window]
width = 1280
height = 720

[renderer]
validation = true
clear_color = [0.0, 0.0, 0.0, 1.0]
`))
	require.NoError(t, err)

	assert.Equal(t, core.LogLevelDebug, cfg.Application.LogLevel)
	assert.Equal(t, "vkscene", cfg.Application.Name)
	assert.Equal(t, uint32(1280), cfg.Window.Width)
	assert.Equal(t, uint32(720), cfg.Window.Height)
	assert.Equal(t, uint32(100), cfg.Window.X)
	assert.True(t, cfg.Renderer.Validation)
	assert.Equal(t, []float32{0, 0, 0, 1}, cfg.Renderer.ClearColor)
	assert.Equal(t, "shaders/fragment.spv", cfg.Renderer.FragmentShader)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(`
[window]
widht = 10
`))
	assert.ErrorContains(t, err, "unknown configuration keys")
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"zero width", "[window]\nwidth = 0\n"},
		{"short clear color", "[renderer]\nclear_color = [1.0, 0.0]\n"},
		{"empty shader", "[renderer]\nvertex_shader = \"\"\n"},
		{"bad level", "[application]\nlog_level = \"loud\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[materials]\nstar = \"star.png\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, [3]string{"assets/textures/brick_wall.png", "assets/textures/wood.png", "star.png"}, cfg.Materials.TexturePaths())

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
