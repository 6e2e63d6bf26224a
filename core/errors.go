// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// package errors
var (
	ErrNoDevices        = errors.New("no physical devices with Vulkan support")
	ErrNoSuitableDevice = errors.New("no physical device satisfies the requirements")
	ErrValidationLayers = errors.New("requested validation layers not available")
	ErrInvalidShader    = errors.New("shader bytecode is not valid SPIR-V")
	ErrNotInitialised   = errors.New("renderer not initialised")

	// Outcomes of acquire and present
	ErrSuboptimal = errors.New("swapchain suboptimal for surface")
	ErrOutOfDate  = errors.New("swapchain out of date")
	ErrDeviceLost = errors.New("device lost")
	ErrTimeout    = errors.New("wait timed out")
)

// SetupError is returned when any object of the presentation
// pipeline fails to be created. Setup is all-or-nothing.
type SetupError struct {
	Stage string
	// Index of the failing per-image object, -1 otherwise
	Index int
	Err   error
}

func (e *SetupError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s[%d]: %v", e.Stage, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the cause
func (e *SetupError) Unwrap() error {
	return e.Err
}

// Cause implements the pkg/errors causer
func (e *SetupError) Cause() error {
	return e.Err
}

func setupError(stage string, err error) error {
	return &SetupError{Stage: stage, Index: -1, Err: err}
}

// FrameError is returned when a frame loop phase fails.
type FrameError struct {
	Phase Phase
	Frame uint64
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d, %s: %v", e.Frame, e.Phase, e.Err)
}

// Unwrap returns the cause
func (e *FrameError) Unwrap() error {
	return e.Err
}

// Cause implements the pkg/errors causer
func (e *FrameError) Cause() error {
	return e.Err
}
