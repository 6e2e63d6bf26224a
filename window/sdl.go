// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window provides the SDL2 window the renderer presents to.
package window

import (
	"unsafe"

	"github.com/devblok/learnvk/core"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

var _ core.Window = (*SDL)(nil)

// NewSDL initialises SDL with the Vulkan loader and opens a
// fixed size window. Must be called from the main thread.
func NewSDL(cfg core.WindowConfiguration) (*SDL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}

	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		sdl.WINDOW_VULKAN)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}

	return &SDL{
		window: window,
		logger: log.StandardLogger(),
	}, nil
}

// SDL is a non-resizable window that closes on quit or Escape
type SDL struct {
	window      *sdl.Window
	logger      log.FieldLogger
	shouldClose bool
}

// SetLogger replaces the logger for window events
func (s *SDL) SetLogger(logger log.FieldLogger) {
	s.logger = logger
}

// InstanceExtensions implements interface
func (s *SDL) InstanceExtensions() []string {
	return s.window.VulkanGetInstanceExtensions()
}

// ProcAddr implements interface
func (s *SDL) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// CreateSurface implements interface
func (s *SDL) CreateSurface(instance interface{}) (unsafe.Pointer, error) {
	surface, err := s.window.VulkanCreateSurface(instance)
	if err != nil {
		return nil, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	return surface, nil
}

// FramebufferSize implements interface
func (s *SDL) FramebufferSize() (uint32, uint32) {
	w, h := s.window.VulkanGetDrawableSize()
	return uint32(w), uint32(h)
}

// PollEvents implements interface
func (s *SDL) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				s.logger.Debug("escape pressed")
				s.shouldClose = true
			}
		case *sdl.QuitEvent:
			s.logger.Debug("quit requested")
			s.shouldClose = true
		}
	}
}

// ShouldClose implements interface
func (s *SDL) ShouldClose() bool {
	return s.shouldClose
}

// Destroy implements interface
func (s *SDL) Destroy() {
	if err := s.window.Destroy(); err != nil {
		s.logger.WithError(err).Warn("window destroy")
	}
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
