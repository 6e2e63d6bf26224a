// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core bootstraps a Vulkan presentation pipeline and drives
// its frame loop. The graphics API is reached through a Driver, the
// window through a Window, so everything here can run against mocks.
package core

import (
	"unsafe"
)

// Application describes the lifecycle the run loop drives.
// It's created only with internal values set,
// it needs to be initialised with Initialise() before use.
type Application interface {
	// Initialise creates every object the application needs,
	// in dependency order
	Initialise() error

	// Tick runs one iteration of the frame loop
	Tick() error

	// Shutdown waits for outstanding GPU work and destroys
	// everything created by Initialise, in reverse order
	Shutdown() error
}

// Window describes the windowing collaborator.
type Window interface {
	// InstanceExtensions returns instance extensions the window
	// system needs to create surfaces
	InstanceExtensions() []string

	// ProcAddr returns the loader entry point used by the window system,
	// nil if the system loader should be used
	ProcAddr() unsafe.Pointer

	// CreateSurface creates a native drawable surface bound
	// to the given native instance
	CreateSurface(instance interface{}) (unsafe.Pointer, error)

	// FramebufferSize returns the drawable size in pixels
	FramebufferSize() (width, height uint32)

	// PollEvents pumps pending window system events
	PollEvents()

	// ShouldClose reports whether closing was requested
	ShouldClose() bool

	// Destroy destroys the window
	Destroy()
}

// ShaderSource provides compiled shader bytecode by name.
type ShaderSource interface {
	Load(name string) ([]byte, error)
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vertex"
	case FragmentShaderType:
		return "fragment"
	}
	return "unknown"
}
