// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// QueueFamilyIndices locates the queue families used for rendering
// and presentation. They may refer to the same family.
type QueueFamilyIndices struct {
	Graphics    uint32
	HasGraphics bool
	Present     uint32
	HasPresent  bool
}

// IsComplete reports whether both families were found
func (q QueueFamilyIndices) IsComplete() bool {
	return q.HasGraphics && q.HasPresent
}

// Unique returns the distinct family indices, graphics first
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Graphics == q.Present {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

// SwapchainSupportDetails is what a surface supports on a device
type SwapchainSupportDetails struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// Adequate reports whether a swapchain can be created at all
func (s SwapchainSupportDetails) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// DeviceRequirements are the capabilities a device must provide
type DeviceRequirements struct {
	Extensions      []string
	RequireDiscrete bool
}

// SelectedDevice is the physical device chosen for rendering
type SelectedDevice struct {
	Handle     PhysicalDevice
	Properties DeviceProperties
	Queues     QueueFamilyIndices
	Support    SwapchainSupportDetails
}

// FindQueueFamilies scans the queue families of a device for graphics
// capability and for present support against the surface.
func FindQueueFamilies(d Driver, device PhysicalDevice, surface Surface) (QueueFamilyIndices, error) {
	var indices QueueFamilyIndices
	for i, family := range d.QueueFamilies(device) {
		idx := uint32(i)
		if family.Graphics && !indices.HasGraphics {
			indices.Graphics = idx
			indices.HasGraphics = true
		}

		if !indices.HasPresent {
			supported, err := d.SurfaceSupport(device, idx, surface)
			if err != nil {
				return indices, errors.Wrapf(err, "surface support, family %d", idx)
			}
			if supported {
				indices.Present = idx
				indices.HasPresent = true
			}
		}

		if indices.IsComplete() {
			break
		}
	}
	return indices, nil
}

// ExtensionsSupported checks that every required extension is
// reported by the device
func ExtensionsSupported(d Driver, device PhysicalDevice, required []string) (bool, error) {
	available, err := d.DeviceExtensions(device)
	if err != nil {
		return false, err
	}
	return containsAll(available, required), nil
}

// QuerySwapchainSupport reads the surface capabilities, formats
// and present modes of a device
func QuerySwapchainSupport(d Driver, device PhysicalDevice, surface Surface) (SwapchainSupportDetails, error) {
	var (
		details SwapchainSupportDetails
		err     error
	)
	if details.Capabilities, err = d.SurfaceCapabilities(device, surface); err != nil {
		return details, errors.Wrap(err, "surface capabilities")
	}
	if details.Formats, err = d.SurfaceFormats(device, surface); err != nil {
		return details, errors.Wrap(err, "surface formats")
	}
	if details.PresentModes, err = d.PresentModes(device, surface); err != nil {
		return details, errors.Wrap(err, "present modes")
	}
	return details, nil
}

// DeviceIsSuitable checks if the device given is suitable
// for the rendering pipeline. If not suitable string contains the reason
func DeviceIsSuitable(d Driver, device PhysicalDevice, surface Surface, req DeviceRequirements) (SelectedDevice, bool, string) {
	candidate := SelectedDevice{
		Handle:     device,
		Properties: d.DeviceProperties(device),
	}

	if req.RequireDiscrete && candidate.Properties.Type != DeviceTypeDiscreteGpu {
		return candidate, false, "not a discrete GPU"
	}

	queues, err := FindQueueFamilies(d, device, surface)
	if err != nil {
		return candidate, false, err.Error()
	}
	candidate.Queues = queues

	extensions, err := ExtensionsSupported(d, device, req.Extensions)
	if err != nil {
		return candidate, false, err.Error()
	}

	// swapchain support may only be queried with the extension present
	if extensions {
		support, err := QuerySwapchainSupport(d, device, surface)
		if err != nil {
			return candidate, false, err.Error()
		}
		candidate.Support = support
	}

	switch {
	case !queues.HasGraphics:
		return candidate, false, "no graphics queue family"
	case !queues.HasPresent:
		return candidate, false, "no queue family can present to the surface"
	case !extensions:
		return candidate, false, "required device extensions missing"
	case !candidate.Support.Adequate():
		return candidate, false, "no surface formats or present modes"
	}
	return candidate, true, ""
}

// SelectPhysicalDevice returns the first eligible device in enumeration order.
func SelectPhysicalDevice(d Driver, instance Instance, surface Surface, req DeviceRequirements, logger log.FieldLogger) (SelectedDevice, error) {
	devices, err := d.PhysicalDevices(instance)
	if err != nil {
		return SelectedDevice{}, errors.Wrap(err, "enumerate physical devices")
	}
	if len(devices) == 0 {
		return SelectedDevice{}, ErrNoDevices
	}

	for _, device := range devices {
		candidate, ok, reason := DeviceIsSuitable(d, device, surface, req)
		if ok {
			return candidate, nil
		}
		logger.WithFields(log.Fields{
			"device": candidate.Properties.Name,
			"reason": reason,
		}).Debug("physical device rejected")
	}
	return SelectedDevice{}, ErrNoSuitableDevice
}

func containsAll(set, subset []string) bool {
	available := make(map[string]struct{}, len(set))
	for _, s := range set {
		available[s] = struct{}{}
	}
	for _, s := range subset {
		if _, ok := available[s]; !ok {
			return false
		}
	}
	return true
}
