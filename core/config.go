// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"
	"strings"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables read by FromEnvironment
const (
	EnvDiagnostics   = "LEARNVK_DIAGNOSTICS"
	EnvFps           = "LEARNVK_FPS"
	EnvWidth         = "LEARNVK_WIDTH"
	EnvHeight        = "LEARNVK_HEIGHT"
	EnvTitle         = "LEARNVK_TITLE"
	EnvShaders       = "LEARNVK_SHADERS"
	EnvShaderArchive = "LEARNVK_SHADER_ARCHIVE"
	EnvDiscreteOnly  = "LEARNVK_DISCRETE_ONLY"
	EnvClearColor    = "LEARNVK_CLEAR_COLOR"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Instance InstanceConfiguration
	Renderer RendererConfiguration
	Window   WindowConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int
}

// InstanceConfiguration configures the API instance
type InstanceConfiguration struct {
	ApplicationName string
	EngineName      string

	// EnableDiagnostics loads ValidationLayers and registers
	// a callback that logs every validation message
	EnableDiagnostics bool
	ValidationLayers  []string
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	DeviceExtensions []string
	RequireDiscrete  bool

	PreferredFormat SurfaceFormat
	ClearColor      glm.Vec4

	// FenceTimeout bounds the wait for the previous frame,
	// zero waits indefinitely
	FenceTimeout time.Duration

	ShaderDirectory string
	ShaderArchive   string
	VertexShader    string
	FragmentShader  string
}

// ClampedClearColor returns ClearColor with every component
// clamped into [0, 1]
func (c RendererConfiguration) ClampedClearColor() [4]float32 {
	var out [4]float32
	for i, v := range c.ClearColor {
		out[i] = glm.Clamp(v, 0, 1)
	}
	return out
}

// ParseColor reads "r,g,b" or "r,g,b,a", alpha defaults to 1
func ParseColor(s string) (glm.Vec4, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return glm.Vec4{}, errors.Errorf("invalid color %q", s)
	}
	color := glm.Vec4{0, 0, 0, 1}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return glm.Vec4{}, errors.Errorf("invalid color %q", s)
		}
		color[i] = float32(f)
	}
	return color, nil
}

// WindowConfiguration describes the fixed size window
type WindowConfiguration struct {
	Title  string
	Width  uint32
	Height uint32
}

// DefaultConfiguration returns the configuration used when
// nothing is overridden by the environment
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 0,
		},
		Instance: InstanceConfiguration{
			ApplicationName:  "Hello Vulkan!",
			EngineName:       "LearnVK",
			ValidationLayers: []string{"VK_LAYER_KHRONOS_validation"},
		},
		Renderer: RendererConfiguration{
			DeviceExtensions: []string{"VK_KHR_swapchain"},
			PreferredFormat: SurfaceFormat{
				Format:     FormatB8G8R8A8Srgb,
				ColorSpace: ColorSpaceSrgbNonlinear,
			},
			ClearColor:      glm.Vec4{0, 0, 0, 1},
			ShaderDirectory: "./shaders",
			VertexShader:    "shader.vert.spv",
			FragmentShader:  "shader.frag.spv",
		},
		Window: WindowConfiguration{
			Title:  "Hello Vulkan!",
			Width:  800,
			Height: 600,
		},
	}
}

// LoadEnvFiles reads dotenv files and makes their values
// visible to FromEnvironment. Missing files are an error.
func LoadEnvFiles(paths ...string) error {
	values, err := godotenv.Read(paths...)
	if err != nil {
		return errors.Wrap(err, "godotenv.Read()")
	}
	for k, v := range values {
		envy.Set(k, v)
	}
	return nil
}

// FromEnvironment overlays LEARNVK_* environment variables on base
func FromEnvironment(base Configuration) (Configuration, error) {
	cfg := base

	if v := envy.Get(EnvDiagnostics, ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return base, errors.Wrap(err, EnvDiagnostics)
		}
		cfg.Instance.EnableDiagnostics = b
	}

	if v := envy.Get(EnvDiscreteOnly, ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return base, errors.Wrap(err, EnvDiscreteOnly)
		}
		cfg.Renderer.RequireDiscrete = b
	}

	if v := envy.Get(EnvFps, ""); v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil || fps < 0 {
			return base, errors.Errorf("%s: invalid frame rate %q", EnvFps, v)
		}
		cfg.Time.FramesPerSecond = fps
	}

	if v := envy.Get(EnvClearColor, ""); v != "" {
		color, err := ParseColor(v)
		if err != nil {
			return base, errors.Wrap(err, EnvClearColor)
		}
		cfg.Renderer.ClearColor = color
	}

	for name, dst := range map[string]*uint32{
		EnvWidth:  &cfg.Window.Width,
		EnvHeight: &cfg.Window.Height,
	} {
		if v := envy.Get(name, ""); v != "" {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n == 0 {
				return base, errors.Errorf("%s: invalid size %q", name, v)
			}
			*dst = uint32(n)
		}
	}

	for name, dst := range map[string]*string{
		EnvTitle:         &cfg.Window.Title,
		EnvShaders:       &cfg.Renderer.ShaderDirectory,
		EnvShaderArchive: &cfg.Renderer.ShaderArchive,
	} {
		// set but empty keeps the default
		if v := envy.Get(name, ""); v != "" {
			*dst = v
		}
	}

	return cfg, nil
}
