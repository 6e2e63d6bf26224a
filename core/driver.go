// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"math"
	"unsafe"
)

// Opaque object handles issued by a Driver. Zero is never a valid handle.
type (
	Instance       uint64
	DebugCallback  uint64
	Surface        uint64
	PhysicalDevice uint64
	Device         uint64
	Queue          uint64
	Swapchain      uint64
	Image          uint64
	ImageView      uint64
	RenderPass     uint64
	ShaderModule   uint64
	PipelineLayout uint64
	Pipeline       uint64
	Framebuffer    uint64
	CommandPool    uint64
	CommandBuffer  uint64
	Semaphore      uint64
	Fence          uint64
)

// Format is an image format, numerically equal to VkFormat.
type Format int32

// Formats used by the presentation core
const (
	FormatUndefined     Format = 0
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8Srgb  Format = 50
)

// ColorSpace is a presentation color space, numerically equal to VkColorSpaceKHR.
type ColorSpace int32

// ColorSpaceSrgbNonlinear is the only color space every surface must support
const ColorSpaceSrgbNonlinear ColorSpace = 0

// SurfaceFormat pairs a format with its color space.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode is numerically equal to VkPresentModeKHR.
type PresentMode int32

// Present modes
const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo-relaxed"
	}
	return "unknown"
}

// Extent2D is a size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// UndefinedExtent is reported as the current extent by surfaces
// whose size is determined by the swapchain.
var UndefinedExtent = Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}

// SurfaceCapabilities is the subset of the surface capability record
// the swapchain negotiation needs.
type SurfaceCapabilities struct {
	MinImageCount    uint32
	MaxImageCount    uint32
	CurrentExtent    Extent2D
	MinImageExtent   Extent2D
	MaxImageExtent   Extent2D
	CurrentTransform uint32
}

// DeviceType is numerically equal to VkPhysicalDeviceType.
type DeviceType int32

// Device types
const (
	DeviceTypeOther         DeviceType = 0
	DeviceTypeIntegratedGpu DeviceType = 1
	DeviceTypeDiscreteGpu   DeviceType = 2
	DeviceTypeVirtualGpu    DeviceType = 3
	DeviceTypeCPU           DeviceType = 4
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegratedGpu:
		return "integrated"
	case DeviceTypeDiscreteGpu:
		return "discrete"
	case DeviceTypeVirtualGpu:
		return "virtual"
	case DeviceTypeCPU:
		return "cpu"
	}
	return "other"
}

// DeviceProperties describes a physical device.
type DeviceProperties struct {
	ID            uint32
	VendorID      uint32
	DriverVersion uint32
	Name          string
	Type          DeviceType
}

// QueueFamilyProperties describes one queue family of a physical device.
type QueueFamilyProperties struct {
	Graphics   bool
	QueueCount uint32
}

// SharingMode is numerically equal to VkSharingMode.
type SharingMode int32

// Sharing modes
const (
	SharingModeExclusive  SharingMode = 0
	SharingModeConcurrent SharingMode = 1
)

// InstanceInfo configures instance creation.
type InstanceInfo struct {
	ApplicationName string
	EngineName      string
	Extensions      []string
	Layers          []string
}

// DeviceInfo configures logical device creation. QueueFamilies must not
// contain duplicates, one queue with priority 1.0 is created per family.
type DeviceInfo struct {
	QueueFamilies []uint32
	Extensions    []string
	Layers        []string
}

// SwapchainInfo configures swapchain creation.
type SwapchainInfo struct {
	Surface       Surface
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent2D
	PresentMode   PresentMode
	PreTransform  uint32
	SharingMode   SharingMode
	QueueFamilies []uint32
}

// Severity of a diagnostics message.
type Severity int

// Severities reported by the validation layers
const (
	SeverityVerbose Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// DebugMessage is a single message emitted by the validation layers.
type DebugMessage struct {
	Severity Severity
	Layer    string
	Code     int32
	Text     string
}

// DebugHandler receives validation messages.
type DebugHandler func(DebugMessage)

// RenderPassBegin describes the render pass instance recorded each frame.
type RenderPassBegin struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Extent      Extent2D
	ClearColor  [4]float32
}

// Viewport is a dynamic viewport rectangle.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// SubmitInfo describes one queue submission.
type SubmitInfo struct {
	WaitSemaphore   Semaphore
	WaitStage       PipelineStage
	CommandBuffer   CommandBuffer
	SignalSemaphore Semaphore
	Fence           Fence
}

// PresentInfo describes one presentation request.
type PresentInfo struct {
	WaitSemaphore Semaphore
	Swapchain     Swapchain
	ImageIndex    uint32
}

// Driver is the graphics API as seen by the presentation core.
// All calls must be made from the same OS thread.
type Driver interface {
	// Load resolves the API entry points. A nil procAddr falls
	// back to the system loader.
	Load(procAddr unsafe.Pointer) error

	// InstanceLayers lists the layer names available to instances.
	InstanceLayers() ([]string, error)
	CreateInstance(InstanceInfo) (Instance, error)
	DestroyInstance(Instance)

	// NativeInstance returns the underlying API instance, as needed
	// by windowing systems to create surfaces.
	NativeInstance(Instance) interface{}

	CreateDebugCallback(Instance, DebugHandler) (DebugCallback, error)
	DestroyDebugCallback(Instance, DebugCallback)

	// AdoptSurface takes ownership of a native surface handle
	// created by the windowing system.
	AdoptSurface(Instance, unsafe.Pointer) (Surface, error)
	DestroySurface(Instance, Surface)

	PhysicalDevices(Instance) ([]PhysicalDevice, error)
	DeviceProperties(PhysicalDevice) DeviceProperties
	QueueFamilies(PhysicalDevice) []QueueFamilyProperties
	SurfaceSupport(PhysicalDevice, uint32, Surface) (bool, error)
	DeviceExtensions(PhysicalDevice) ([]string, error)
	SurfaceCapabilities(PhysicalDevice, Surface) (SurfaceCapabilities, error)
	SurfaceFormats(PhysicalDevice, Surface) ([]SurfaceFormat, error)
	PresentModes(PhysicalDevice, Surface) ([]PresentMode, error)

	CreateDevice(PhysicalDevice, DeviceInfo) (Device, error)
	DestroyDevice(Device)
	DeviceQueue(Device, uint32) Queue
	WaitIdle(Device) error

	CreateSwapchain(Device, SwapchainInfo) (Swapchain, error)
	DestroySwapchain(Device, Swapchain)
	SwapchainImages(Device, Swapchain) ([]Image, error)
	CreateImageView(Device, Image, Format) (ImageView, error)
	DestroyImageView(Device, ImageView)

	CreateRenderPass(Device, RenderPassDescription) (RenderPass, error)
	DestroyRenderPass(Device, RenderPass)
	CreateShaderModule(Device, []byte) (ShaderModule, error)
	DestroyShaderModule(Device, ShaderModule)
	CreatePipelineLayout(Device) (PipelineLayout, error)
	DestroyPipelineLayout(Device, PipelineLayout)
	CreateGraphicsPipeline(Device, PipelineDescription) (Pipeline, error)
	DestroyPipeline(Device, Pipeline)
	CreateFramebuffer(Device, RenderPass, ImageView, Extent2D) (Framebuffer, error)
	DestroyFramebuffer(Device, Framebuffer)

	CreateCommandPool(Device, uint32) (CommandPool, error)
	DestroyCommandPool(Device, CommandPool)
	AllocateCommandBuffer(Device, CommandPool) (CommandBuffer, error)

	CreateSemaphore(Device) (Semaphore, error)
	DestroySemaphore(Device, Semaphore)
	CreateFence(Device, bool) (Fence, error)
	DestroyFence(Device, Fence)

	// WaitFence blocks until the fence is signaled or the timeout
	// in nanoseconds elapses, returning ErrTimeout in the latter case.
	WaitFence(Device, Fence, uint64) error
	ResetFence(Device, Fence) error

	// AcquireNextImage returns ErrSuboptimal together with a
	// valid index when the swapchain no longer matches the surface exactly.
	AcquireNextImage(Device, Swapchain, Semaphore) (uint32, error)

	ResetCommandBuffer(CommandBuffer) error
	BeginCommandBuffer(CommandBuffer) error
	CmdBeginRenderPass(CommandBuffer, RenderPassBegin)
	CmdBindPipeline(CommandBuffer, Pipeline)
	CmdSetViewport(CommandBuffer, Viewport)
	CmdSetScissor(CommandBuffer, Extent2D)
	CmdDraw(CommandBuffer, uint32, uint32)
	CmdEndRenderPass(CommandBuffer)
	EndCommandBuffer(CommandBuffer) error

	Submit(Queue, SubmitInfo) error
	Present(Queue, PresentInfo) error
}
