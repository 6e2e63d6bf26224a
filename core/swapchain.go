// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ChooseSurfaceFormat returns the preferred format when the surface
// supports it, otherwise the first supported one. formats must not be empty.
func ChooseSurfaceFormat(formats []SurfaceFormat, preferred SurfaceFormat) SurfaceFormat {
	for _, f := range formats {
		if f == preferred {
			return f
		}
	}
	return formats[0]
}

// ChoosePresentMode prefers mailbox and falls back to fifo,
// which every implementation must support.
func ChoosePresentMode(modes []PresentMode) PresentMode {
	for _, m := range modes {
		if m == PresentModeMailbox {
			return m
		}
	}
	return PresentModeFifo
}

// ChooseExtent returns the current extent of the surface, or, when the
// surface leaves it to the swapchain, the framebuffer size clamped into
// the supported range.
func ChooseExtent(caps SurfaceCapabilities, framebufferWidth, framebufferHeight uint32) Extent2D {
	if caps.CurrentExtent != UndefinedExtent {
		return caps.CurrentExtent
	}
	return Extent2D{
		Width:  clamp(framebufferWidth, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(framebufferHeight, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ImageCount asks for one image more than the minimum, so the
// driver is never waited on, within the maximum if there is one.
func ImageCount(caps SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// SharingFor returns the image sharing mode and the families that
// share swapchain images.
func SharingFor(queues QueueFamilyIndices) (SharingMode, []uint32) {
	if queues.Graphics != queues.Present {
		return SharingModeConcurrent, []uint32{queues.Graphics, queues.Present}
	}
	return SharingModeExclusive, nil
}

func clamp(val, min, max uint32) uint32 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func (r *Renderer) createSwapchain() error {
	// re-query on the winning device, capabilities may have changed since selection
	support, err := QuerySwapchainSupport(r.driver, r.physicalDevice.Handle, r.surface)
	if err != nil {
		return setupError("swapchain", err)
	}
	if !support.Adequate() {
		return setupError("swapchain", errors.New("surface reports no formats or present modes"))
	}

	width, height := uint32(0), uint32(0)
	if support.Capabilities.CurrentExtent == UndefinedExtent {
		width, height = r.window.FramebufferSize()
	}

	format := ChooseSurfaceFormat(support.Formats, r.configuration.Renderer.PreferredFormat)
	presentMode := ChoosePresentMode(support.PresentModes)
	extent := ChooseExtent(support.Capabilities, width, height)
	sharing, families := SharingFor(r.physicalDevice.Queues)

	info := SwapchainInfo{
		Surface:       r.surface,
		MinImageCount: ImageCount(support.Capabilities),
		Format:        format,
		Extent:        extent,
		PresentMode:   presentMode,
		PreTransform:  support.Capabilities.CurrentTransform,
		SharingMode:   sharing,
		QueueFamilies: families,
	}

	swapchain, err := r.driver.CreateSwapchain(r.device, info)
	if err != nil {
		return setupError("swapchain", err)
	}
	r.registry.Track(KindSwapchain, "swapchain", func() {
		r.driver.DestroySwapchain(r.device, swapchain)
	})
	r.swapchain = swapchain

	images, err := r.driver.SwapchainImages(r.device, swapchain)
	if err != nil {
		return setupError("swapchain images", err)
	}

	r.swapchainImages = images
	r.swapchainFormat = format
	r.swapchainExtent = extent
	r.presentMode = presentMode

	r.logger.WithFields(log.Fields{
		"images":      len(images),
		"format":      format.Format,
		"presentMode": presentMode,
		"width":       extent.Width,
		"height":      extent.Height,
	}).Info("swapchain created")
	return nil
}

func (r *Renderer) createImageViews() error {
	r.swapchainImageViews = make([]ImageView, 0, len(r.swapchainImages))
	for idx, image := range r.swapchainImages {
		view, err := r.driver.CreateImageView(r.device, image, r.swapchainFormat.Format)
		if err != nil {
			return &SetupError{Stage: "image view", Index: idx, Err: err}
		}
		r.registry.Track(KindImageView, "image view", func() {
			r.driver.DestroyImageView(r.device, view)
		})
		r.swapchainImageViews = append(r.swapchainImageViews, view)
	}
	return nil
}
