// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"unsafe"

	"github.com/devblok/learnvk/core"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DefaultAPIVersion is the Vulkan version requested from the instance
var DefaultAPIVersion = vk.MakeVersion(1, 0, 0)

var _ core.Driver = (*Vulkan)(nil)

// NewVulkan creates a driver backed by the system Vulkan loader.
// Load must be called before anything else.
func NewVulkan() *Vulkan {
	return &Vulkan{
		physicalDevices: make(map[vk.PhysicalDevice]uint64),
		images:          make(map[uint64][]uint64),
		commandBuffers:  make(map[uint64][]uint64),
	}
}

// Vulkan implements core.Driver on top of vulkan-go. Native objects
// live in a table, the handles given out are their positions in it.
// Not safe for concurrent use.
type Vulkan struct {
	objects []interface{}

	// physical devices are enumerated, not created
	physicalDevices map[vk.PhysicalDevice]uint64

	// objects freed together with their parent
	images         map[uint64][]uint64
	commandBuffers map[uint64][]uint64
}

func (v *Vulkan) put(obj interface{}) uint64 {
	v.objects = append(v.objects, obj)
	return uint64(len(v.objects))
}

func (v *Vulkan) get(handle uint64) interface{} {
	if handle == 0 || handle > uint64(len(v.objects)) {
		return nil
	}
	return v.objects[handle-1]
}

func (v *Vulkan) drop(handle uint64) {
	if handle == 0 || handle > uint64(len(v.objects)) {
		return
	}
	v.objects[handle-1] = nil
}

func (v *Vulkan) instance(h core.Instance) vk.Instance {
	obj, _ := v.get(uint64(h)).(vk.Instance)
	return obj
}

func (v *Vulkan) surface(h core.Surface) vk.Surface {
	obj, _ := v.get(uint64(h)).(vk.Surface)
	return obj
}

func (v *Vulkan) physicalDevice(h core.PhysicalDevice) vk.PhysicalDevice {
	obj, _ := v.get(uint64(h)).(vk.PhysicalDevice)
	return obj
}

func (v *Vulkan) device(h core.Device) vk.Device {
	obj, _ := v.get(uint64(h)).(vk.Device)
	return obj
}

func (v *Vulkan) queue(h core.Queue) vk.Queue {
	obj, _ := v.get(uint64(h)).(vk.Queue)
	return obj
}

func (v *Vulkan) swapchain(h core.Swapchain) vk.Swapchain {
	obj, _ := v.get(uint64(h)).(vk.Swapchain)
	return obj
}

func (v *Vulkan) image(h core.Image) vk.Image {
	obj, _ := v.get(uint64(h)).(vk.Image)
	return obj
}

func (v *Vulkan) imageView(h core.ImageView) vk.ImageView {
	obj, _ := v.get(uint64(h)).(vk.ImageView)
	return obj
}

func (v *Vulkan) renderPass(h core.RenderPass) vk.RenderPass {
	obj, _ := v.get(uint64(h)).(vk.RenderPass)
	return obj
}

func (v *Vulkan) shaderModule(h core.ShaderModule) vk.ShaderModule {
	obj, _ := v.get(uint64(h)).(vk.ShaderModule)
	return obj
}

func (v *Vulkan) pipelineLayout(h core.PipelineLayout) vk.PipelineLayout {
	obj, _ := v.get(uint64(h)).(vk.PipelineLayout)
	return obj
}

func (v *Vulkan) pipeline(h core.Pipeline) vk.Pipeline {
	obj, _ := v.get(uint64(h)).(vk.Pipeline)
	return obj
}

func (v *Vulkan) framebuffer(h core.Framebuffer) vk.Framebuffer {
	obj, _ := v.get(uint64(h)).(vk.Framebuffer)
	return obj
}

func (v *Vulkan) commandPool(h core.CommandPool) vk.CommandPool {
	obj, _ := v.get(uint64(h)).(vk.CommandPool)
	return obj
}

func (v *Vulkan) commandBuffer(h core.CommandBuffer) vk.CommandBuffer {
	obj, _ := v.get(uint64(h)).(vk.CommandBuffer)
	return obj
}

func (v *Vulkan) semaphore(h core.Semaphore) vk.Semaphore {
	obj, _ := v.get(uint64(h)).(vk.Semaphore)
	return obj
}

func (v *Vulkan) fence(h core.Fence) vk.Fence {
	obj, _ := v.get(uint64(h)).(vk.Fence)
	return obj
}

// resultError translates API results into the errors the core acts on
func resultError(op string, ret vk.Result) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		return core.ErrSuboptimal
	case vk.Timeout:
		return errors.Wrap(core.ErrTimeout, op)
	case vk.ErrorOutOfDate:
		return errors.Wrap(core.ErrOutOfDate, op)
	case vk.ErrorDeviceLost:
		return errors.Wrap(core.ErrDeviceLost, op)
	}
	return errors.Wrap(vk.Error(ret), op)
}

func bool32(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

// Load implements interface
func (v *Vulkan) Load(procAddr unsafe.Pointer) error {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "vk.Init()")
	}
	return nil
}

// InstanceLayers implements interface
func (v *Vulkan) InstanceLayers() ([]string, error) {
	var count uint32
	if err := resultError("vk.EnumerateInstanceLayerProperties()", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	layers := make([]vk.LayerProperties, count)
	if err := resultError("vk.EnumerateInstanceLayerProperties()", vk.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return nil, err
	}

	names := make([]string, 0, count)
	for _, layer := range layers[:count] {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// CreateInstance implements interface
func (v *Vulkan) CreateInstance(info core.InstanceInfo) (core.Instance, error) {
	extensions := safeStrings(info.Extensions)
	layers := safeStrings(info.Layers)

	instanceInfo := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(DefaultAPIVersion),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			EngineVersion:      vk.MakeVersion(1, 0, 0),
			PApplicationName:   safeString(info.ApplicationName),
			PEngineName:        safeString(info.EngineName),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := resultError("vk.CreateInstance()", vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return 0, err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return 0, errors.Wrap(err, "vk.InitInstance()")
	}
	return core.Instance(v.put(instance)), nil
}

// DestroyInstance implements interface
func (v *Vulkan) DestroyInstance(h core.Instance) {
	vk.DestroyInstance(v.instance(h), nil)
	v.drop(uint64(h))
}

// NativeInstance implements interface
func (v *Vulkan) NativeInstance(h core.Instance) interface{} {
	return v.instance(h)
}

// CreateDebugCallback implements interface
func (v *Vulkan) CreateDebugCallback(h core.Instance, handler core.DebugHandler) (core.DebugCallback, error) {
	info := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(
			vk.DebugReportErrorBit |
				vk.DebugReportWarningBit |
				vk.DebugReportPerformanceWarningBit |
				vk.DebugReportInformationBit |
				vk.DebugReportDebugBit),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
			object uint64, location uint, messageCode int32, pLayerPrefix string,
			pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

			handler(core.DebugMessage{
				Severity: severityOf(flags),
				Layer:    pLayerPrefix,
				Code:     messageCode,
				Text:     pMessage,
			})
			return vk.False
		},
	}

	var callback vk.DebugReportCallback
	if err := resultError("vk.CreateDebugReportCallback()", vk.CreateDebugReportCallback(v.instance(h), &info, nil, &callback)); err != nil {
		return 0, err
	}
	return core.DebugCallback(v.put(callback)), nil
}

func severityOf(flags vk.DebugReportFlags) core.Severity {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return core.SeverityError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		return core.SeverityWarning
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		return core.SeverityInfo
	}
	return core.SeverityVerbose
}

// DestroyDebugCallback implements interface
func (v *Vulkan) DestroyDebugCallback(h core.Instance, cb core.DebugCallback) {
	if callback, ok := v.get(uint64(cb)).(vk.DebugReportCallback); ok {
		vk.DestroyDebugReportCallback(v.instance(h), callback, nil)
	}
	v.drop(uint64(cb))
}

// AdoptSurface implements interface
func (v *Vulkan) AdoptSurface(h core.Instance, native unsafe.Pointer) (core.Surface, error) {
	if native == nil {
		return 0, errors.New("nil surface")
	}
	return core.Surface(v.put(vk.SurfaceFromPointer(uintptr(native)))), nil
}

// DestroySurface implements interface
func (v *Vulkan) DestroySurface(h core.Instance, s core.Surface) {
	vk.DestroySurface(v.instance(h), v.surface(s), nil)
	v.drop(uint64(s))
}

// PhysicalDevices implements interface. Enumeration order is kept,
// repeated calls return the same handles.
func (v *Vulkan) PhysicalDevices(h core.Instance) ([]core.PhysicalDevice, error) {
	var count uint32
	if err := resultError("vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(v.instance(h), &count, nil)); err != nil {
		return nil, err
	}
	available := make([]vk.PhysicalDevice, count)
	if err := resultError("vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(v.instance(h), &count, available)); err != nil {
		return nil, err
	}

	devices := make([]core.PhysicalDevice, 0, count)
	for _, pd := range available[:count] {
		handle, ok := v.physicalDevices[pd]
		if !ok {
			handle = v.put(pd)
			v.physicalDevices[pd] = handle
		}
		devices = append(devices, core.PhysicalDevice(handle))
	}
	return devices, nil
}

// DeviceProperties implements interface
func (v *Vulkan) DeviceProperties(h core.PhysicalDevice) core.DeviceProperties {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(v.physicalDevice(h), &props)
	props.Deref()

	return core.DeviceProperties{
		ID:            props.DeviceID,
		VendorID:      props.VendorID,
		DriverVersion: props.DriverVersion,
		Name:          vk.ToString(props.DeviceName[:]),
		Type:          core.DeviceType(props.DeviceType),
	}
}

// QueueFamilies implements interface
func (v *Vulkan) QueueFamilies(h core.PhysicalDevice) []core.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(v.physicalDevice(h), &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(v.physicalDevice(h), &count, families)

	result := make([]core.QueueFamilyProperties, 0, count)
	for _, family := range families[:count] {
		family.Deref()
		result = append(result, core.QueueFamilyProperties{
			Graphics:   family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			QueueCount: family.QueueCount,
		})
	}
	return result
}

// SurfaceSupport implements interface
func (v *Vulkan) SurfaceSupport(h core.PhysicalDevice, family uint32, s core.Surface) (bool, error) {
	var supported vk.Bool32
	if err := resultError("vk.GetPhysicalDeviceSurfaceSupport()",
		vk.GetPhysicalDeviceSurfaceSupport(v.physicalDevice(h), family, v.surface(s), &supported)); err != nil {
		return false, err
	}
	return supported.B(), nil
}

// DeviceExtensions implements interface
func (v *Vulkan) DeviceExtensions(h core.PhysicalDevice) ([]string, error) {
	return deviceExtensions(v.physicalDevice(h))
}

func deviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := resultError("vk.EnumerateDeviceExtensionProperties()", vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil)); err != nil {
		return nil, err
	}
	properties := make([]vk.ExtensionProperties, count)
	if err := resultError("vk.EnumerateDeviceExtensionProperties()", vk.EnumerateDeviceExtensionProperties(pd, "", &count, properties)); err != nil {
		return nil, err
	}

	extensions := make([]string, 0, count)
	for _, ext := range properties[:count] {
		ext.Deref()
		extensions = append(extensions, vk.ToString(ext.ExtensionName[:]))
	}
	return extensions, nil
}

// SurfaceCapabilities implements interface
func (v *Vulkan) SurfaceCapabilities(h core.PhysicalDevice, s core.Surface) (core.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := resultError("vk.GetPhysicalDeviceSurfaceCapabilities()",
		vk.GetPhysicalDeviceSurfaceCapabilities(v.physicalDevice(h), v.surface(s), &caps)); err != nil {
		return core.SurfaceCapabilities{}, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	return core.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    core.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height},
		MinImageExtent:   core.Extent2D{Width: caps.MinImageExtent.Width, Height: caps.MinImageExtent.Height},
		MaxImageExtent:   core.Extent2D{Width: caps.MaxImageExtent.Width, Height: caps.MaxImageExtent.Height},
		CurrentTransform: uint32(caps.CurrentTransform),
	}, nil
}

// SurfaceFormats implements interface
func (v *Vulkan) SurfaceFormats(h core.PhysicalDevice, s core.Surface) ([]core.SurfaceFormat, error) {
	var count uint32
	if err := resultError("vk.GetPhysicalDeviceSurfaceFormats()",
		vk.GetPhysicalDeviceSurfaceFormats(v.physicalDevice(h), v.surface(s), &count, nil)); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := resultError("vk.GetPhysicalDeviceSurfaceFormats()",
		vk.GetPhysicalDeviceSurfaceFormats(v.physicalDevice(h), v.surface(s), &count, formats)); err != nil {
		return nil, err
	}

	result := make([]core.SurfaceFormat, 0, count)
	for _, f := range formats[:count] {
		f.Deref()
		result = append(result, core.SurfaceFormat{
			Format:     core.Format(f.Format),
			ColorSpace: core.ColorSpace(f.ColorSpace),
		})
	}
	return result, nil
}

// PresentModes implements interface
func (v *Vulkan) PresentModes(h core.PhysicalDevice, s core.Surface) ([]core.PresentMode, error) {
	var count uint32
	if err := resultError("vk.GetPhysicalDeviceSurfacePresentModes()",
		vk.GetPhysicalDeviceSurfacePresentModes(v.physicalDevice(h), v.surface(s), &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := resultError("vk.GetPhysicalDeviceSurfacePresentModes()",
		vk.GetPhysicalDeviceSurfacePresentModes(v.physicalDevice(h), v.surface(s), &count, modes)); err != nil {
		return nil, err
	}

	result := make([]core.PresentMode, 0, count)
	for _, m := range modes[:count] {
		result = append(result, core.PresentMode(m))
	}
	return result, nil
}

// CreateDevice implements interface
func (v *Vulkan) CreateDevice(h core.PhysicalDevice, info core.DeviceInfo) (core.Device, error) {
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(info.QueueFamilies))
	for _, family := range info.QueueFamilies {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	extensions := safeStrings(info.Extensions)
	layers := safeStrings(info.Layers)
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var device vk.Device
	if err := resultError("vk.CreateDevice()", vk.CreateDevice(v.physicalDevice(h), &dci, nil, &device)); err != nil {
		return 0, err
	}
	return core.Device(v.put(device)), nil
}

// DestroyDevice implements interface
func (v *Vulkan) DestroyDevice(h core.Device) {
	vk.DestroyDevice(v.device(h), nil)
	v.drop(uint64(h))
}

// DeviceQueue implements interface
func (v *Vulkan) DeviceQueue(h core.Device, family uint32) core.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(v.device(h), family, 0, &queue)
	return core.Queue(v.put(queue))
}

// WaitIdle implements interface
func (v *Vulkan) WaitIdle(h core.Device) error {
	return resultError("vk.DeviceWaitIdle()", vk.DeviceWaitIdle(v.device(h)))
}

// CreateSwapchain implements interface
func (v *Vulkan) CreateSwapchain(h core.Device, info core.SwapchainInfo) (core.Swapchain, error) {
	scci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         v.surface(info.Surface),
		MinImageCount:   info.MinImageCount,
		ImageFormat:     vk.Format(info.Format.Format),
		ImageColorSpace: vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
		},
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      vk.SharingMode(info.SharingMode),
		QueueFamilyIndexCount: uint32(len(info.QueueFamilies)),
		PQueueFamilyIndices:   info.QueueFamilies,
		PreTransform:          vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           vk.PresentMode(info.PresentMode),
		Clipped:               vk.True,
		OldSwapchain:          vk.Swapchain(vk.NullHandle),
	}

	var swapchain vk.Swapchain
	if err := resultError("vk.CreateSwapchain()", vk.CreateSwapchain(v.device(h), &scci, nil, &swapchain)); err != nil {
		return 0, err
	}
	return core.Swapchain(v.put(swapchain)), nil
}

// DestroySwapchain implements interface. Images owned by
// the swapchain are released with it.
func (v *Vulkan) DestroySwapchain(h core.Device, s core.Swapchain) {
	vk.DestroySwapchain(v.device(h), v.swapchain(s), nil)
	for _, image := range v.images[uint64(s)] {
		v.drop(image)
	}
	delete(v.images, uint64(s))
	v.drop(uint64(s))
}

// SwapchainImages implements interface
func (v *Vulkan) SwapchainImages(h core.Device, s core.Swapchain) ([]core.Image, error) {
	if known, ok := v.images[uint64(s)]; ok {
		images := make([]core.Image, 0, len(known))
		for _, image := range known {
			images = append(images, core.Image(image))
		}
		return images, nil
	}

	var count uint32
	if err := resultError("vk.GetSwapchainImages()", vk.GetSwapchainImages(v.device(h), v.swapchain(s), &count, nil)); err != nil {
		return nil, err
	}
	native := make([]vk.Image, count)
	if err := resultError("vk.GetSwapchainImages()", vk.GetSwapchainImages(v.device(h), v.swapchain(s), &count, native)); err != nil {
		return nil, err
	}

	images := make([]core.Image, 0, count)
	for _, image := range native[:count] {
		handle := v.put(image)
		v.images[uint64(s)] = append(v.images[uint64(s)], handle)
		images = append(images, core.Image(handle))
	}
	return images, nil
}

// CreateImageView implements interface
func (v *Vulkan) CreateImageView(h core.Device, image core.Image, format core.Format) (core.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    v.image(image),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if err := resultError("vk.CreateImageView()", vk.CreateImageView(v.device(h), &ivci, nil, &view)); err != nil {
		return 0, err
	}
	return core.ImageView(v.put(view)), nil
}

// DestroyImageView implements interface
func (v *Vulkan) DestroyImageView(h core.Device, view core.ImageView) {
	vk.DestroyImageView(v.device(h), v.imageView(view), nil)
	v.drop(uint64(view))
}

// CreateRenderPass implements interface
func (v *Vulkan) CreateRenderPass(h core.Device, desc core.RenderPassDescription) (core.RenderPass, error) {
	attachment := desc.ColorAttachment
	attachments := []vk.AttachmentDescription{{
		Format:         vk.Format(attachment.Format),
		Samples:        vk.SampleCountFlagBits(attachment.Samples),
		LoadOp:         vk.AttachmentLoadOp(attachment.LoadOp),
		StoreOp:        vk.AttachmentStoreOp(attachment.StoreOp),
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayout(attachment.InitialLayout),
		FinalLayout:    vk.ImageLayout(attachment.FinalLayout),
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayout(desc.ColorLayout),
	}}

	dep := desc.Dependency
	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    dep.SrcSubpass,
		DstSubpass:    dep.DstSubpass,
		SrcStageMask:  vk.PipelineStageFlags(dep.SrcStage),
		DstStageMask:  vk.PipelineStageFlags(dep.DstStage),
		SrcAccessMask: vk.AccessFlags(dep.SrcAccess),
		DstAccessMask: vk.AccessFlags(dep.DstAccess),
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses: []vk.SubpassDescription{{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(colorAttachmentRef)),
			PColorAttachments:    colorAttachmentRef,
		}},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := resultError("vk.CreateRenderPass()", vk.CreateRenderPass(v.device(h), &rpci, nil, &renderPass)); err != nil {
		return 0, err
	}
	return core.RenderPass(v.put(renderPass)), nil
}

// DestroyRenderPass implements interface
func (v *Vulkan) DestroyRenderPass(h core.Device, rp core.RenderPass) {
	vk.DestroyRenderPass(v.device(h), v.renderPass(rp), nil)
	v.drop(uint64(rp))
}

// CreateShaderModule implements interface
func (v *Vulkan) CreateShaderModule(h core.Device, code []byte) (core.ShaderModule, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    core.SliceUint32(code),
	}

	var module vk.ShaderModule
	if err := resultError("vk.CreateShaderModule()", vk.CreateShaderModule(v.device(h), &smci, nil, &module)); err != nil {
		return 0, err
	}
	return core.ShaderModule(v.put(module)), nil
}

// DestroyShaderModule implements interface
func (v *Vulkan) DestroyShaderModule(h core.Device, module core.ShaderModule) {
	vk.DestroyShaderModule(v.device(h), v.shaderModule(module), nil)
	v.drop(uint64(module))
}

// CreatePipelineLayout implements interface. The layout is empty,
// shaders take no descriptors or push constants.
func (v *Vulkan) CreatePipelineLayout(h core.Device) (core.PipelineLayout, error) {
	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}

	var layout vk.PipelineLayout
	if err := resultError("vk.CreatePipelineLayout()", vk.CreatePipelineLayout(v.device(h), &plci, nil, &layout)); err != nil {
		return 0, err
	}
	return core.PipelineLayout(v.put(layout)), nil
}

// DestroyPipelineLayout implements interface
func (v *Vulkan) DestroyPipelineLayout(h core.Device, layout core.PipelineLayout) {
	vk.DestroyPipelineLayout(v.device(h), v.pipelineLayout(layout), nil)
	v.drop(uint64(layout))
}

// CreateGraphicsPipeline implements interface
func (v *Vulkan) CreateGraphicsPipeline(h core.Device, desc core.PipelineDescription) (core.Pipeline, error) {
	stages := make([]vk.PipelineShaderStageCreateInfo, 0, len(desc.Stages))
	for _, stage := range desc.Stages {
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(stage.Stage),
			Module: v.shaderModule(stage.Module),
			PName:  safeString(stage.EntryPoint),
		})
	}

	dynamicStates := make([]vk.DynamicState, 0, len(desc.DynamicStates))
	for _, state := range desc.DynamicStates {
		dynamicStates = append(dynamicStates, vk.DynamicState(state))
	}

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopology(desc.Topology),
			PrimitiveRestartEnable: vk.False,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonMode(desc.PolygonMode),
			CullMode:                vk.CullModeFlags(desc.CullMode),
			FrontFace:               vk.FrontFace(desc.FrontFace),
			DepthBiasEnable:         vk.False,
			LineWidth:               desc.LineWidth,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCountFlagBits(desc.Samples),
			SampleShadingEnable:  vk.False,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: vk.ColorComponentFlags(
					vk.ColorComponentRBit | vk.ColorComponentGBit |
						vk.ColorComponentBBit | vk.ColorComponentABit),
				BlendEnable: bool32(desc.BlendEnable),
			}},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(dynamicStates)),
			PDynamicStates:    dynamicStates,
		},
		Layout:     v.pipelineLayout(desc.Layout),
		RenderPass: v.renderPass(desc.RenderPass),
		Subpass:    desc.Subpass,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := resultError("vk.CreateGraphicsPipelines()", vk.CreateGraphicsPipelines(
		v.device(h), vk.PipelineCache(vk.NullHandle), uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return 0, err
	}
	return core.Pipeline(v.put(pipelines[0])), nil
}

// DestroyPipeline implements interface
func (v *Vulkan) DestroyPipeline(h core.Device, p core.Pipeline) {
	vk.DestroyPipeline(v.device(h), v.pipeline(p), nil)
	v.drop(uint64(p))
}

// CreateFramebuffer implements interface
func (v *Vulkan) CreateFramebuffer(h core.Device, rp core.RenderPass, view core.ImageView, extent core.Extent2D) (core.Framebuffer, error) {
	attachments := []vk.ImageView{v.imageView(view)}
	fci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      v.renderPass(rp),
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := resultError("vk.CreateFramebuffer()", vk.CreateFramebuffer(v.device(h), &fci, nil, &framebuffer)); err != nil {
		return 0, err
	}
	return core.Framebuffer(v.put(framebuffer)), nil
}

// DestroyFramebuffer implements interface
func (v *Vulkan) DestroyFramebuffer(h core.Device, fb core.Framebuffer) {
	vk.DestroyFramebuffer(v.device(h), v.framebuffer(fb), nil)
	v.drop(uint64(fb))
}

// CreateCommandPool implements interface. Buffers from the pool
// can be reset individually.
func (v *Vulkan) CreateCommandPool(h core.Device, family uint32) (core.CommandPool, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: family,
	}

	var pool vk.CommandPool
	if err := resultError("vk.CreateCommandPool()", vk.CreateCommandPool(v.device(h), &cpci, nil, &pool)); err != nil {
		return 0, err
	}
	return core.CommandPool(v.put(pool)), nil
}

// DestroyCommandPool implements interface. Buffers allocated
// from the pool are freed with it.
func (v *Vulkan) DestroyCommandPool(h core.Device, pool core.CommandPool) {
	vk.DestroyCommandPool(v.device(h), v.commandPool(pool), nil)
	for _, buffer := range v.commandBuffers[uint64(pool)] {
		v.drop(buffer)
	}
	delete(v.commandBuffers, uint64(pool))
	v.drop(uint64(pool))
}

// AllocateCommandBuffer implements interface
func (v *Vulkan) AllocateCommandBuffer(h core.Device, pool core.CommandPool) (core.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        v.commandPool(pool),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	buffers := make([]vk.CommandBuffer, 1)
	if err := resultError("vk.AllocateCommandBuffers()", vk.AllocateCommandBuffers(v.device(h), &cbai, buffers)); err != nil {
		return 0, err
	}
	handle := v.put(buffers[0])
	v.commandBuffers[uint64(pool)] = append(v.commandBuffers[uint64(pool)], handle)
	return core.CommandBuffer(handle), nil
}

// CreateSemaphore implements interface
func (v *Vulkan) CreateSemaphore(h core.Device) (core.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var semaphore vk.Semaphore
	if err := resultError("vk.CreateSemaphore()", vk.CreateSemaphore(v.device(h), &sci, nil, &semaphore)); err != nil {
		return 0, err
	}
	return core.Semaphore(v.put(semaphore)), nil
}

// DestroySemaphore implements interface
func (v *Vulkan) DestroySemaphore(h core.Device, s core.Semaphore) {
	vk.DestroySemaphore(v.device(h), v.semaphore(s), nil)
	v.drop(uint64(s))
}

// CreateFence implements interface
func (v *Vulkan) CreateFence(h core.Device, signaled bool) (core.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := resultError("vk.CreateFence()", vk.CreateFence(v.device(h), &fci, nil, &fence)); err != nil {
		return 0, err
	}
	return core.Fence(v.put(fence)), nil
}

// DestroyFence implements interface
func (v *Vulkan) DestroyFence(h core.Device, f core.Fence) {
	vk.DestroyFence(v.device(h), v.fence(f), nil)
	v.drop(uint64(f))
}

// WaitFence implements interface
func (v *Vulkan) WaitFence(h core.Device, f core.Fence, timeout uint64) error {
	return resultError("vk.WaitForFences()", vk.WaitForFences(v.device(h), 1, []vk.Fence{v.fence(f)}, vk.True, timeout))
}

// ResetFence implements interface
func (v *Vulkan) ResetFence(h core.Device, f core.Fence) error {
	return resultError("vk.ResetFences()", vk.ResetFences(v.device(h), 1, []vk.Fence{v.fence(f)}))
}

// AcquireNextImage implements interface
func (v *Vulkan) AcquireNextImage(h core.Device, s core.Swapchain, sem core.Semaphore) (uint32, error) {
	var imageIndex uint32
	ret := vk.AcquireNextImage(v.device(h), v.swapchain(s), vk.MaxUint64, v.semaphore(sem), vk.Fence(vk.NullHandle), &imageIndex)
	return imageIndex, resultError("vk.AcquireNextImage()", ret)
}

// ResetCommandBuffer implements interface
func (v *Vulkan) ResetCommandBuffer(cb core.CommandBuffer) error {
	return resultError("vk.ResetCommandBuffer()", vk.ResetCommandBuffer(v.commandBuffer(cb), 0))
}

// BeginCommandBuffer implements interface
func (v *Vulkan) BeginCommandBuffer(cb core.CommandBuffer) error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	return resultError("vk.BeginCommandBuffer()", vk.BeginCommandBuffer(v.commandBuffer(cb), &cbbi))
}

// CmdBeginRenderPass implements interface
func (v *Vulkan) CmdBeginRenderPass(cb core.CommandBuffer, begin core.RenderPassBegin) {
	clearValues := []vk.ClearValue{
		vk.NewClearValue(begin.ClearColor[:]),
	}

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  v.renderPass(begin.RenderPass),
		Framebuffer: v.framebuffer(begin.Framebuffer),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{
				Width:  begin.Extent.Width,
				Height: begin.Extent.Height,
			},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(v.commandBuffer(cb), &rpbi, vk.SubpassContentsInline)
}

// CmdBindPipeline implements interface
func (v *Vulkan) CmdBindPipeline(cb core.CommandBuffer, p core.Pipeline) {
	vk.CmdBindPipeline(v.commandBuffer(cb), vk.PipelineBindPointGraphics, v.pipeline(p))
}

// CmdSetViewport implements interface
func (v *Vulkan) CmdSetViewport(cb core.CommandBuffer, viewport core.Viewport) {
	vk.CmdSetViewport(v.commandBuffer(cb), 0, 1, []vk.Viewport{{
		X:        viewport.X,
		Y:        viewport.Y,
		Width:    viewport.Width,
		Height:   viewport.Height,
		MinDepth: viewport.MinDepth,
		MaxDepth: viewport.MaxDepth,
	}})
}

// CmdSetScissor implements interface
func (v *Vulkan) CmdSetScissor(cb core.CommandBuffer, extent core.Extent2D) {
	vk.CmdSetScissor(v.commandBuffer(cb), 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
	}})
}

// CmdDraw implements interface
func (v *Vulkan) CmdDraw(cb core.CommandBuffer, vertexCount, instanceCount uint32) {
	vk.CmdDraw(v.commandBuffer(cb), vertexCount, instanceCount, 0, 0)
}

// CmdEndRenderPass implements interface
func (v *Vulkan) CmdEndRenderPass(cb core.CommandBuffer) {
	vk.CmdEndRenderPass(v.commandBuffer(cb))
}

// EndCommandBuffer implements interface
func (v *Vulkan) EndCommandBuffer(cb core.CommandBuffer) error {
	return resultError("vk.EndCommandBuffer()", vk.EndCommandBuffer(v.commandBuffer(cb)))
}

// Submit implements interface
func (v *Vulkan) Submit(q core.Queue, info core.SubmitInfo) error {
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.semaphore(info.WaitSemaphore)},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(info.WaitStage),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{v.commandBuffer(info.CommandBuffer)},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{v.semaphore(info.SignalSemaphore)},
	}}
	return resultError("vk.QueueSubmit()", vk.QueueSubmit(v.queue(q), 1, submit, v.fence(info.Fence)))
}

// Present implements interface
func (v *Vulkan) Present(q core.Queue, info core.PresentInfo) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.semaphore(info.WaitSemaphore)},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{v.swapchain(info.Swapchain)},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	return resultError("vk.QueuePresent()", vk.QueuePresent(v.queue(q), &presentInfo))
}
