package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/vkscene/engine/core"
)

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Window      WindowConfig      `toml:"window"`
	Renderer    RendererConfig    `toml:"renderer"`
	Materials   MaterialsConfig   `toml:"materials"`
}

type ApplicationConfig struct {
	// The application name used in windowing and as the Vulkan application name.
	Name     string        `toml:"name"`
	LogLevel core.LogLevel `toml:"log_level"`
}

type WindowConfig struct {
	// Window starting position x axis, if applicable.
	X uint32 `toml:"x"`
	// Window starting position y axis, if applicable.
	Y uint32 `toml:"y"`
	// Window starting width.
	Width uint32 `toml:"width"`
	// Window starting height.
	Height uint32 `toml:"height"`
}

type RendererConfig struct {
	// Enables the debug report callback and the layers below.
	Validation     bool      `toml:"validation"`
	Layers         []string  `toml:"layers"`
	VertexShader   string    `toml:"vertex_shader"`
	FragmentShader string    `toml:"fragment_shader"`
	ClearColor     []float32 `toml:"clear_color"`
}

// MaterialsConfig holds one texture path per object type.
type MaterialsConfig struct {
	Triangle string `toml:"triangle"`
	Square   string `toml:"square"`
	Star     string `toml:"star"`
}

func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:     "vkscene",
			LogLevel: core.LogLevelInfo,
		},
		Window: WindowConfig{
			X:      100,
			Y:      100,
			Width:  640,
			Height: 480,
		},
		Renderer: RendererConfig{
			Validation:     false,
			Layers:         []string{"VK_LAYER_KHRONOS_validation"},
			VertexShader:   "shaders/vertex.spv",
			FragmentShader: "shaders/fragment.spv",
			ClearColor:     []float32{1.0, 0.5, 0.25, 1.0},
		},
		Materials: MaterialsConfig{
			Triangle: "assets/textures/brick_wall.png",
			Square:   "assets/textures/wood.png",
			Star:     "assets/textures/ground.png",
		},
	}
}

// Load reads the TOML file at path on top of the defaults. Keys not known
// to Config are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file `%s`: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown configuration keys:\n%s", strict.String())
		}
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("window size must be nonzero, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if len(c.Renderer.ClearColor) != 4 {
		return fmt.Errorf("clear_color needs 4 components, got %d", len(c.Renderer.ClearColor))
	}
	if c.Renderer.VertexShader == "" || c.Renderer.FragmentShader == "" {
		return fmt.Errorf("vertex_shader and fragment_shader must be set")
	}
	if !core.ValidLogLevel(c.Application.LogLevel) {
		return fmt.Errorf("unknown log level `%s`", c.Application.LogLevel)
	}
	return nil
}

// TexturePaths returns the material textures in object type order.
func (m MaterialsConfig) TexturePaths() [3]string {
	return [3]string{m.Triangle, m.Square, m.Star}
}
