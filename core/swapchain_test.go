// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/learnvk/core"
)

var srgb = core.SurfaceFormat{Format: core.FormatB8G8R8A8Srgb, ColorSpace: core.ColorSpaceSrgbNonlinear}

func TestChooseSurfaceFormat(t *testing.T) {
	c := qt.New(t)

	unorm := core.SurfaceFormat{Format: core.FormatB8G8R8A8Unorm, ColorSpace: core.ColorSpaceSrgbNonlinear}
	wrongSpace := core.SurfaceFormat{Format: core.FormatB8G8R8A8Srgb, ColorSpace: 1000104001}

	c.Assert(core.ChooseSurfaceFormat([]core.SurfaceFormat{unorm, srgb}, srgb), qt.Equals, srgb)
	c.Assert(core.ChooseSurfaceFormat([]core.SurfaceFormat{unorm}, srgb), qt.Equals, unorm)
	c.Assert(core.ChooseSurfaceFormat([]core.SurfaceFormat{wrongSpace, unorm}, srgb), qt.Equals, wrongSpace)
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)

	c.Assert(core.ChoosePresentMode([]core.PresentMode{core.PresentModeFifo}), qt.Equals, core.PresentModeFifo)
	c.Assert(core.ChoosePresentMode([]core.PresentMode{
		core.PresentModeImmediate,
		core.PresentModeFifo,
		core.PresentModeMailbox,
	}), qt.Equals, core.PresentModeMailbox)
	c.Assert(core.ChoosePresentMode([]core.PresentMode{core.PresentModeImmediate}), qt.Equals, core.PresentModeFifo)
}

func TestChooseExtent(t *testing.T) {
	tests := []struct {
		name   string
		caps   core.SurfaceCapabilities
		width  uint32
		height uint32
		want   core.Extent2D
	}{{
		name: "surface decides",
		caps: core.SurfaceCapabilities{
			CurrentExtent:  core.Extent2D{Width: 800, Height: 600},
			MinImageExtent: core.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: core.Extent2D{Width: 640, Height: 480},
		},
		width:  1920,
		height: 1080,
		want:   core.Extent2D{Width: 800, Height: 600},
	}, {
		name: "clamped to maximum",
		caps: core.SurfaceCapabilities{
			CurrentExtent:  core.UndefinedExtent,
			MinImageExtent: core.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: core.Extent2D{Width: 1024, Height: 768},
		},
		width:  1920,
		height: 1080,
		want:   core.Extent2D{Width: 1024, Height: 768},
	}, {
		name: "clamped to minimum",
		caps: core.SurfaceCapabilities{
			CurrentExtent:  core.UndefinedExtent,
			MinImageExtent: core.Extent2D{Width: 64, Height: 64},
			MaxImageExtent: core.Extent2D{Width: 1024, Height: 768},
		},
		width:  0,
		height: 10,
		want:   core.Extent2D{Width: 64, Height: 64},
	}, {
		name: "within range",
		caps: core.SurfaceCapabilities{
			CurrentExtent:  core.UndefinedExtent,
			MinImageExtent: core.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: core.Extent2D{Width: 4096, Height: 4096},
		},
		width:  800,
		height: 600,
		want:   core.Extent2D{Width: 800, Height: 600},
	}, {
		name: "only one dimension at sentinel",
		caps: core.SurfaceCapabilities{
			CurrentExtent:  core.Extent2D{Width: 0xFFFFFFFF, Height: 600},
			MinImageExtent: core.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: core.Extent2D{Width: 4096, Height: 4096},
		},
		width:  1920,
		height: 1080,
		want:   core.Extent2D{Width: 0xFFFFFFFF, Height: 600},
	}}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(core.ChooseExtent(tt.caps, tt.width, tt.height), qt.Equals, tt.want)
		})
	}
}

func TestImageCount(t *testing.T) {
	c := qt.New(t)

	c.Assert(core.ImageCount(core.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}), qt.Equals, uint32(3))
	c.Assert(core.ImageCount(core.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}), qt.Equals, uint32(3))
	// no upper limit
	c.Assert(core.ImageCount(core.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}), qt.Equals, uint32(3))
}

func TestSharingFor(t *testing.T) {
	c := qt.New(t)

	mode, families := core.SharingFor(core.QueueFamilyIndices{Graphics: 0, HasGraphics: true, Present: 0, HasPresent: true})
	c.Assert(mode, qt.Equals, core.SharingModeExclusive)
	c.Assert(families, qt.IsNil)

	mode, families = core.SharingFor(core.QueueFamilyIndices{Graphics: 0, HasGraphics: true, Present: 2, HasPresent: true})
	c.Assert(mode, qt.Equals, core.SharingModeConcurrent)
	c.Assert(families, qt.DeepEquals, []uint32{0, 2})
}

func TestSwapchainCreation(t *testing.T) {
	c := qt.New(t)

	dev := eligibleDevice("gpu")
	dev.caps.CurrentExtent = core.UndefinedExtent
	dev.caps.MaxImageExtent = core.Extent2D{Width: 1024, Height: 768}
	dev.caps.CurrentTransform = 1
	d := newMockDriver(dev)
	w := newMockWindow()
	w.width, w.height = 1920, 1080

	r := newTestRenderer(d, w, false)
	c.Assert(r.Initialise(), qt.IsNil)
	defer r.Shutdown()

	c.Assert(w.sizeQueried, qt.IsTrue)
	c.Assert(r.SwapchainExtent(), qt.Equals, core.Extent2D{Width: 1024, Height: 768})
	c.Assert(r.SwapchainFormat(), qt.Equals, srgb)
	c.Assert(r.PresentMode(), qt.Equals, core.PresentModeFifo)

	c.Assert(d.swapchainInfo, qt.DeepEquals, core.SwapchainInfo{
		Surface:       d.swapchainInfo.Surface,
		MinImageCount: 3,
		Format:        srgb,
		Extent:        core.Extent2D{Width: 1024, Height: 768},
		PresentMode:   core.PresentModeFifo,
		PreTransform:  1,
		SharingMode:   core.SharingModeExclusive,
	})
	c.Assert(d.liveOf("ImageView"), qt.Equals, 3)
	c.Assert(d.liveOf("Framebuffer"), qt.Equals, 3)
}

func TestSwapchainUsesSurfaceExtent(t *testing.T) {
	c := qt.New(t)

	d := newMockDriver(eligibleDevice("gpu"))
	w := newMockWindow()

	r := newTestRenderer(d, w, false)
	c.Assert(r.Initialise(), qt.IsNil)
	defer r.Shutdown()

	c.Assert(w.sizeQueried, qt.IsFalse)
	c.Assert(r.SwapchainExtent(), qt.Equals, core.Extent2D{Width: 800, Height: 600})
}

func TestSwapchainConcurrentSharing(t *testing.T) {
	c := qt.New(t)

	dev := eligibleDevice("gpu")
	dev.families = []core.QueueFamilyProperties{
		{Graphics: true, QueueCount: 1},
		{Graphics: false, QueueCount: 1},
	}
	dev.present = map[uint32]bool{1: true}
	d := newMockDriver(dev)

	r := newTestRenderer(d, newMockWindow(), false)
	c.Assert(r.Initialise(), qt.IsNil)
	defer r.Shutdown()

	c.Assert(d.deviceInfo.QueueFamilies, qt.DeepEquals, []uint32{0, 1})
	c.Assert(d.swapchainInfo.SharingMode, qt.Equals, core.SharingModeConcurrent)
	c.Assert(d.swapchainInfo.QueueFamilies, qt.DeepEquals, []uint32{0, 1})
}
