// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/devblok/learnvk/core"
	"github.com/pkg/errors"
)

var errInjected = errors.New("injected failure")

var (
	_ core.Driver       = (*mockDriver)(nil)
	_ core.Window       = (*mockWindow)(nil)
	_ core.ShaderSource = mapShaders(nil)
)

type mockDevice struct {
	props      core.DeviceProperties
	families   []core.QueueFamilyProperties
	present    map[uint32]bool
	extensions []string
	caps       core.SurfaceCapabilities
	formats    []core.SurfaceFormat
	modes      []core.PresentMode
}

// eligibleDevice is a device with one combined queue family,
// the swapchain extension and a single format and present mode
func eligibleDevice(name string) mockDevice {
	return mockDevice{
		props: core.DeviceProperties{
			Name: name,
			Type: core.DeviceTypeDiscreteGpu,
		},
		families: []core.QueueFamilyProperties{
			{Graphics: true, QueueCount: 1},
		},
		present:    map[uint32]bool{0: true},
		extensions: []string{"VK_KHR_swapchain"},
		caps: core.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  core.Extent2D{Width: 800, Height: 600},
			MinImageExtent: core.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: core.Extent2D{Width: 4096, Height: 4096},
		},
		formats: []core.SurfaceFormat{
			{Format: core.FormatB8G8R8A8Srgb, ColorSpace: core.ColorSpaceSrgbNonlinear},
		},
		modes: []core.PresentMode{core.PresentModeFifo},
	}
}

type object struct {
	kind   string
	handle uint64
}

// mockDriver simulates the API closely enough to check object
// lifetimes and the synchronization of the single frame in flight.
type mockDriver struct {
	layers  []string
	devices []mockDevice

	// fail makes the named call return the given error,
	// failAt only on its nth invocation, counting from 0
	fail   map[string]error
	failAt map[string]int
	counts map[string]int

	// frame outcomes, consumed one per call
	acquireResults []error
	presentResults []error

	calls     []string
	live      map[uint64]string
	destroyed []object
	problems  []string
	next      uint64

	instanceInfo  core.InstanceInfo
	deviceInfo    core.DeviceInfo
	swapchainInfo core.SwapchainInfo
	pipelineDesc  core.PipelineDescription
	renderPass    core.RenderPassDescription
	handler       core.DebugHandler
	begins        []core.RenderPassBegin
	draws         int

	fenceSignaled map[core.Fence]bool
	fencePending  map[core.Fence]bool
	lastSubmitted core.Fence
	nextImage     uint32
	imageCount    uint32
}

func newMockDriver(devices ...mockDevice) *mockDriver {
	return &mockDriver{
		layers:        []string{"VK_LAYER_KHRONOS_validation"},
		devices:       devices,
		fail:          make(map[string]error),
		failAt:        make(map[string]int),
		counts:        make(map[string]int),
		live:          make(map[uint64]string),
		fenceSignaled: make(map[core.Fence]bool),
		fencePending:  make(map[core.Fence]bool),
	}
}

func (m *mockDriver) call(name string) error {
	m.calls = append(m.calls, name)
	n := m.counts[name]
	m.counts[name]++
	if err, ok := m.fail[name]; ok {
		if at, ok := m.failAt[name]; !ok || at == n {
			return err
		}
	}
	return nil
}

func (m *mockDriver) create(kind string) uint64 {
	m.next++
	m.live[m.next] = kind
	return m.next
}

func (m *mockDriver) destroy(kind string, handle uint64) {
	m.calls = append(m.calls, "Destroy"+kind)
	if got, ok := m.live[handle]; !ok || got != kind {
		m.problems = append(m.problems, fmt.Sprintf("destroy of unknown %s %d", kind, handle))
		return
	}
	delete(m.live, handle)
	m.destroyed = append(m.destroyed, object{kind: kind, handle: handle})
}

func (m *mockDriver) liveOf(kind string) int {
	var n int
	for _, k := range m.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (m *mockDriver) destroyOrder() []string {
	var order []string
	for _, o := range m.destroyed {
		if len(order) == 0 || order[len(order)-1] != o.kind {
			order = append(order, o.kind)
		}
	}
	return order
}

func (m *mockDriver) device(pd core.PhysicalDevice) *mockDevice {
	return &m.devices[int(pd)-1]
}

func (m *mockDriver) Load(unsafe.Pointer) error { return m.call("Load") }

func (m *mockDriver) InstanceLayers() ([]string, error) {
	return m.layers, m.call("InstanceLayers")
}

func (m *mockDriver) CreateInstance(info core.InstanceInfo) (core.Instance, error) {
	if err := m.call("CreateInstance"); err != nil {
		return 0, err
	}
	m.instanceInfo = info
	return core.Instance(m.create("Instance")), nil
}

func (m *mockDriver) DestroyInstance(h core.Instance) {
	if len(m.live) > 1 {
		m.problems = append(m.problems, fmt.Sprintf("instance destroyed with %d objects alive", len(m.live)-1))
	}
	m.destroy("Instance", uint64(h))
}

func (m *mockDriver) NativeInstance(h core.Instance) interface{} { return uint64(h) }

func (m *mockDriver) CreateDebugCallback(_ core.Instance, handler core.DebugHandler) (core.DebugCallback, error) {
	if err := m.call("CreateDebugCallback"); err != nil {
		return 0, err
	}
	m.handler = handler
	return core.DebugCallback(m.create("DebugCallback")), nil
}

func (m *mockDriver) DestroyDebugCallback(_ core.Instance, cb core.DebugCallback) {
	m.destroy("DebugCallback", uint64(cb))
}

func (m *mockDriver) AdoptSurface(_ core.Instance, native unsafe.Pointer) (core.Surface, error) {
	if err := m.call("AdoptSurface"); err != nil {
		return 0, err
	}
	if native == nil {
		return 0, errors.New("nil surface")
	}
	return core.Surface(m.create("Surface")), nil
}

func (m *mockDriver) DestroySurface(_ core.Instance, s core.Surface) { m.destroy("Surface", uint64(s)) }

func (m *mockDriver) PhysicalDevices(core.Instance) ([]core.PhysicalDevice, error) {
	if err := m.call("PhysicalDevices"); err != nil {
		return nil, err
	}
	handles := make([]core.PhysicalDevice, len(m.devices))
	for i := range m.devices {
		handles[i] = core.PhysicalDevice(i + 1)
	}
	return handles, nil
}

func (m *mockDriver) DeviceProperties(pd core.PhysicalDevice) core.DeviceProperties {
	return m.device(pd).props
}

func (m *mockDriver) QueueFamilies(pd core.PhysicalDevice) []core.QueueFamilyProperties {
	return m.device(pd).families
}

func (m *mockDriver) SurfaceSupport(pd core.PhysicalDevice, family uint32, _ core.Surface) (bool, error) {
	m.calls = append(m.calls, "SurfaceSupport")
	return m.device(pd).present[family], nil
}

func (m *mockDriver) DeviceExtensions(pd core.PhysicalDevice) ([]string, error) {
	return m.device(pd).extensions, m.call("DeviceExtensions")
}

func (m *mockDriver) SurfaceCapabilities(pd core.PhysicalDevice, _ core.Surface) (core.SurfaceCapabilities, error) {
	return m.device(pd).caps, m.call("SurfaceCapabilities")
}

func (m *mockDriver) SurfaceFormats(pd core.PhysicalDevice, _ core.Surface) ([]core.SurfaceFormat, error) {
	return m.device(pd).formats, m.call("SurfaceFormats")
}

func (m *mockDriver) PresentModes(pd core.PhysicalDevice, _ core.Surface) ([]core.PresentMode, error) {
	return m.device(pd).modes, m.call("PresentModes")
}

func (m *mockDriver) CreateDevice(_ core.PhysicalDevice, info core.DeviceInfo) (core.Device, error) {
	if err := m.call("CreateDevice"); err != nil {
		return 0, err
	}
	m.deviceInfo = info
	return core.Device(m.create("Device")), nil
}

func (m *mockDriver) DestroyDevice(h core.Device) {
	for handle, kind := range m.live {
		switch kind {
		case "Instance", "DebugCallback", "Surface", "Device":
		default:
			m.problems = append(m.problems, fmt.Sprintf("device destroyed with %s %d alive", kind, handle))
		}
	}
	m.destroy("Device", uint64(h))
}

func (m *mockDriver) DeviceQueue(_ core.Device, family uint32) core.Queue {
	m.calls = append(m.calls, "DeviceQueue")
	return core.Queue(100 + family)
}

func (m *mockDriver) WaitIdle(device core.Device) error {
	if err := m.call("WaitIdle"); err != nil {
		return err
	}
	if m.live[uint64(device)] != "Device" {
		m.problems = append(m.problems, fmt.Sprintf("wait idle on unknown device %d", device))
	}
	for f := range m.fencePending {
		m.complete(f)
	}
	return nil
}

func (m *mockDriver) CreateSwapchain(_ core.Device, info core.SwapchainInfo) (core.Swapchain, error) {
	if err := m.call("CreateSwapchain"); err != nil {
		return 0, err
	}
	m.swapchainInfo = info
	m.imageCount = info.MinImageCount
	return core.Swapchain(m.create("Swapchain")), nil
}

func (m *mockDriver) DestroySwapchain(_ core.Device, s core.Swapchain) {
	m.destroy("Swapchain", uint64(s))
}

func (m *mockDriver) SwapchainImages(core.Device, core.Swapchain) ([]core.Image, error) {
	if err := m.call("SwapchainImages"); err != nil {
		return nil, err
	}
	images := make([]core.Image, m.imageCount)
	for i := range images {
		images[i] = core.Image(1000 + i)
	}
	return images, nil
}

func (m *mockDriver) CreateImageView(core.Device, core.Image, core.Format) (core.ImageView, error) {
	if err := m.call("CreateImageView"); err != nil {
		return 0, err
	}
	return core.ImageView(m.create("ImageView")), nil
}

func (m *mockDriver) DestroyImageView(_ core.Device, v core.ImageView) {
	m.destroy("ImageView", uint64(v))
}

func (m *mockDriver) CreateRenderPass(_ core.Device, desc core.RenderPassDescription) (core.RenderPass, error) {
	if err := m.call("CreateRenderPass"); err != nil {
		return 0, err
	}
	m.renderPass = desc
	return core.RenderPass(m.create("RenderPass")), nil
}

func (m *mockDriver) DestroyRenderPass(_ core.Device, rp core.RenderPass) {
	m.destroy("RenderPass", uint64(rp))
}

func (m *mockDriver) CreateShaderModule(core.Device, []byte) (core.ShaderModule, error) {
	if err := m.call("CreateShaderModule"); err != nil {
		return 0, err
	}
	return core.ShaderModule(m.create("ShaderModule")), nil
}

func (m *mockDriver) DestroyShaderModule(_ core.Device, sm core.ShaderModule) {
	m.destroy("ShaderModule", uint64(sm))
}

func (m *mockDriver) CreatePipelineLayout(core.Device) (core.PipelineLayout, error) {
	if err := m.call("CreatePipelineLayout"); err != nil {
		return 0, err
	}
	return core.PipelineLayout(m.create("PipelineLayout")), nil
}

func (m *mockDriver) DestroyPipelineLayout(_ core.Device, l core.PipelineLayout) {
	m.destroy("PipelineLayout", uint64(l))
}

func (m *mockDriver) CreateGraphicsPipeline(_ core.Device, desc core.PipelineDescription) (core.Pipeline, error) {
	if err := m.call("CreateGraphicsPipeline"); err != nil {
		return 0, err
	}
	m.pipelineDesc = desc
	return core.Pipeline(m.create("Pipeline")), nil
}

func (m *mockDriver) DestroyPipeline(_ core.Device, p core.Pipeline) {
	m.destroy("Pipeline", uint64(p))
}

func (m *mockDriver) CreateFramebuffer(core.Device, core.RenderPass, core.ImageView, core.Extent2D) (core.Framebuffer, error) {
	if err := m.call("CreateFramebuffer"); err != nil {
		return 0, err
	}
	return core.Framebuffer(m.create("Framebuffer")), nil
}

func (m *mockDriver) DestroyFramebuffer(_ core.Device, fb core.Framebuffer) {
	m.destroy("Framebuffer", uint64(fb))
}

func (m *mockDriver) CreateCommandPool(core.Device, uint32) (core.CommandPool, error) {
	if err := m.call("CreateCommandPool"); err != nil {
		return 0, err
	}
	return core.CommandPool(m.create("CommandPool")), nil
}

func (m *mockDriver) DestroyCommandPool(_ core.Device, p core.CommandPool) {
	m.destroy("CommandPool", uint64(p))
}

func (m *mockDriver) AllocateCommandBuffer(core.Device, core.CommandPool) (core.CommandBuffer, error) {
	if err := m.call("AllocateCommandBuffer"); err != nil {
		return 0, err
	}
	m.next++
	return core.CommandBuffer(m.next), nil
}

func (m *mockDriver) CreateSemaphore(core.Device) (core.Semaphore, error) {
	if err := m.call("CreateSemaphore"); err != nil {
		return 0, err
	}
	return core.Semaphore(m.create("Semaphore")), nil
}

func (m *mockDriver) DestroySemaphore(_ core.Device, s core.Semaphore) {
	m.destroy("Semaphore", uint64(s))
}

func (m *mockDriver) CreateFence(_ core.Device, signaled bool) (core.Fence, error) {
	if err := m.call("CreateFence"); err != nil {
		return 0, err
	}
	f := core.Fence(m.create("Fence"))
	m.fenceSignaled[f] = signaled
	return f, nil
}

func (m *mockDriver) DestroyFence(_ core.Device, f core.Fence) {
	if m.fencePending[f] {
		m.problems = append(m.problems, "fence destroyed while in use")
	}
	m.destroy("Fence", uint64(f))
}

// complete finishes the GPU work guarded by f
func (m *mockDriver) complete(f core.Fence) {
	delete(m.fencePending, f)
	m.fenceSignaled[f] = true
}

func (m *mockDriver) WaitFence(_ core.Device, f core.Fence, _ uint64) error {
	if err := m.call("WaitFence"); err != nil {
		return err
	}
	if m.fencePending[f] {
		m.complete(f)
	}
	if !m.fenceSignaled[f] {
		// nothing will ever signal it
		return errors.Wrap(core.ErrTimeout, "fence never submitted")
	}
	return nil
}

func (m *mockDriver) ResetFence(_ core.Device, f core.Fence) error {
	if err := m.call("ResetFence"); err != nil {
		return err
	}
	if m.fencePending[f] {
		m.problems = append(m.problems, "fence reset while in use")
	}
	m.fenceSignaled[f] = false
	return nil
}

func (m *mockDriver) AcquireNextImage(core.Device, core.Swapchain, core.Semaphore) (uint32, error) {
	if err := m.call("AcquireNextImage"); err != nil {
		return 0, err
	}
	idx := m.nextImage
	m.nextImage = (m.nextImage + 1) % m.imageCount
	if len(m.acquireResults) > 0 {
		err := m.acquireResults[0]
		m.acquireResults = m.acquireResults[1:]
		return idx, err
	}
	return idx, nil
}

func (m *mockDriver) ResetCommandBuffer(core.CommandBuffer) error {
	if err := m.call("ResetCommandBuffer"); err != nil {
		return err
	}
	if m.fencePending[m.lastSubmitted] {
		m.problems = append(m.problems, "command buffer reset while in use")
	}
	return nil
}

func (m *mockDriver) BeginCommandBuffer(core.CommandBuffer) error {
	return m.call("BeginCommandBuffer")
}

func (m *mockDriver) CmdBeginRenderPass(_ core.CommandBuffer, begin core.RenderPassBegin) {
	m.calls = append(m.calls, "CmdBeginRenderPass")
	m.begins = append(m.begins, begin)
}

func (m *mockDriver) CmdBindPipeline(core.CommandBuffer, core.Pipeline) {
	m.calls = append(m.calls, "CmdBindPipeline")
}

func (m *mockDriver) CmdSetViewport(core.CommandBuffer, core.Viewport) {
	m.calls = append(m.calls, "CmdSetViewport")
}

func (m *mockDriver) CmdSetScissor(core.CommandBuffer, core.Extent2D) {
	m.calls = append(m.calls, "CmdSetScissor")
}

func (m *mockDriver) CmdDraw(_ core.CommandBuffer, vertices, instances uint32) {
	m.calls = append(m.calls, "CmdDraw")
	if vertices == 3 && instances == 1 {
		m.draws++
	}
}

func (m *mockDriver) CmdEndRenderPass(core.CommandBuffer) {
	m.calls = append(m.calls, "CmdEndRenderPass")
}

func (m *mockDriver) EndCommandBuffer(core.CommandBuffer) error {
	return m.call("EndCommandBuffer")
}

func (m *mockDriver) Submit(_ core.Queue, info core.SubmitInfo) error {
	if err := m.call("Submit"); err != nil {
		return err
	}
	if m.fenceSignaled[info.Fence] {
		m.problems = append(m.problems, "submitted with a signaled fence")
	}
	m.fencePending[info.Fence] = true
	m.lastSubmitted = info.Fence
	return nil
}

func (m *mockDriver) Present(core.Queue, core.PresentInfo) error {
	if err := m.call("Present"); err != nil {
		return err
	}
	if len(m.presentResults) > 0 {
		err := m.presentResults[0]
		m.presentResults = m.presentResults[1:]
		return err
	}
	return nil
}

type mockWindow struct {
	extensions  []string
	width       uint32
	height      uint32
	closeAfter  int
	polls       int
	surfaceErr  error
	sizeQueried bool
	destroyed   bool
}

func newMockWindow() *mockWindow {
	return &mockWindow{
		extensions: []string{"VK_KHR_surface"},
		width:      800,
		height:     600,
		closeAfter: -1,
	}
}

var surfaceTarget byte

func (w *mockWindow) InstanceExtensions() []string { return w.extensions }

func (w *mockWindow) ProcAddr() unsafe.Pointer { return nil }

func (w *mockWindow) CreateSurface(interface{}) (unsafe.Pointer, error) {
	if w.surfaceErr != nil {
		return nil, w.surfaceErr
	}
	return unsafe.Pointer(&surfaceTarget), nil
}

func (w *mockWindow) FramebufferSize() (uint32, uint32) {
	w.sizeQueried = true
	return w.width, w.height
}

func (w *mockWindow) PollEvents() { w.polls++ }

func (w *mockWindow) ShouldClose() bool {
	return w.closeAfter >= 0 && w.polls > w.closeAfter
}

func (w *mockWindow) Destroy() { w.destroyed = true }

// spirv returns a minimal well formed module header
func spirv(words int) []byte {
	code := make([]byte, 4*words)
	binary.LittleEndian.PutUint32(code, core.SpirvMagic)
	return code
}

type mapShaders map[string][]byte

func (s mapShaders) Load(name string) ([]byte, error) {
	code, ok := s[name]
	if !ok {
		return nil, errors.Errorf("shader %s not found", name)
	}
	return code, nil
}

func defaultShaders() mapShaders {
	return mapShaders{
		"shader.vert.spv": spirv(5),
		"shader.frag.spv": spirv(5),
	}
}
