// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DebugReportExtension is the instance extension providing the validation callback
const DebugReportExtension = "VK_EXT_debug_report"

var _ Application = (*Renderer)(nil)

// NewRenderer creates a not yet initialised renderer
func NewRenderer(cfg Configuration, driver Driver, window Window, shaders ShaderSource) *Renderer {
	return &Renderer{
		configuration: cfg,
		driver:        driver,
		window:        window,
		shaders:       shaders,
		logger:        log.StandardLogger(),
	}
}

// Renderer owns the whole presentation pipeline, from the instance
// down to the synchronization objects of the single frame in flight.
type Renderer struct {
	configuration Configuration
	driver        Driver
	window        Window
	shaders       ShaderSource
	logger        log.FieldLogger
	registry      Registry

	instance      Instance
	debugCallback DebugCallback
	surface       Surface

	physicalDevice SelectedDevice
	device         Device
	graphicsQueue  Queue
	presentQueue   Queue

	swapchain           Swapchain
	swapchainImages     []Image
	swapchainImageViews []ImageView
	swapchainFormat     SurfaceFormat
	swapchainExtent     Extent2D
	presentMode         PresentMode

	renderPass     RenderPass
	pipelineLayout PipelineLayout
	pipeline       Pipeline
	framebuffers   []Framebuffer

	commandPool   CommandPool
	commandBuffer CommandBuffer
	sync          SyncSet

	initialised bool
	phase       Phase
	frame       uint64
}

// SetLogger replaces the logger used for progress and diagnostics
func (r *Renderer) SetLogger(logger log.FieldLogger) {
	r.logger = logger
}

// Initialise implements interface. Objects are created in dependency
// order, a failure leaves everything created so far to Shutdown.
func (r *Renderer) Initialise() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"instance", r.createInstance},
		{"surface", r.createSurface},
		{"physical device", r.selectPhysicalDevice},
		{"logical device", r.createLogicalDevice},
		{"swapchain", r.createSwapchain},
		{"image views", r.createImageViews},
		{"render pass", r.createRenderPass},
		{"pipeline", r.createPipeline},
		{"framebuffers", r.createFramebuffers},
		{"command buffer", r.createCommandPool},
		{"synchronization", r.createSynchronization},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return err
		}
		r.logger.WithField("stage", step.name).Debug("created")
	}

	r.initialised = true
	r.phase = PhaseIdle
	return nil
}

func (r *Renderer) createInstance() error {
	if err := r.driver.Load(r.window.ProcAddr()); err != nil {
		return setupError("loader", err)
	}

	cfg := r.configuration.Instance
	info := InstanceInfo{
		ApplicationName: cfg.ApplicationName,
		EngineName:      cfg.EngineName,
		Extensions:      append([]string{}, r.window.InstanceExtensions()...),
	}

	if cfg.EnableDiagnostics {
		available, err := r.driver.InstanceLayers()
		if err != nil {
			return setupError("instance", errors.Wrap(err, "enumerate instance layers"))
		}
		if !containsAll(available, cfg.ValidationLayers) {
			return setupError("instance", errors.Wrapf(ErrValidationLayers, "%v", cfg.ValidationLayers))
		}
		info.Layers = cfg.ValidationLayers
		info.Extensions = append(info.Extensions, DebugReportExtension)
	}

	instance, err := r.driver.CreateInstance(info)
	if err != nil {
		return setupError("instance", err)
	}
	r.registry.Track(KindInstance, "instance", func() {
		r.driver.DestroyInstance(instance)
	})
	r.instance = instance

	if !cfg.EnableDiagnostics {
		return nil
	}

	callback, err := r.driver.CreateDebugCallback(instance, r.logDebugMessage)
	if err != nil {
		return setupError("debug callback", err)
	}
	r.registry.Track(KindDebugCallback, "debug callback", func() {
		r.driver.DestroyDebugCallback(instance, callback)
	})
	r.debugCallback = callback
	return nil
}

func (r *Renderer) logDebugMessage(msg DebugMessage) {
	entry := r.logger.WithFields(log.Fields{
		"layer": msg.Layer,
		"code":  msg.Code,
	})
	switch msg.Severity {
	case SeverityError:
		entry.Error(msg.Text)
	case SeverityWarning:
		entry.Warn(msg.Text)
	case SeverityInfo:
		entry.Info(msg.Text)
	default:
		entry.Debug(msg.Text)
	}
}

func (r *Renderer) createSurface() error {
	native, err := r.window.CreateSurface(r.driver.NativeInstance(r.instance))
	if err != nil {
		return setupError("surface", err)
	}
	surface, err := r.driver.AdoptSurface(r.instance, native)
	if err != nil {
		return setupError("surface", err)
	}
	r.registry.Track(KindSurface, "surface", func() {
		r.driver.DestroySurface(r.instance, surface)
	})
	r.surface = surface
	return nil
}

func (r *Renderer) selectPhysicalDevice() error {
	selected, err := SelectPhysicalDevice(r.driver, r.instance, r.surface, DeviceRequirements{
		Extensions:      r.configuration.Renderer.DeviceExtensions,
		RequireDiscrete: r.configuration.Renderer.RequireDiscrete,
	}, r.logger)
	if err != nil {
		return setupError("physical device", err)
	}
	r.physicalDevice = selected

	r.logger.WithFields(log.Fields{
		"device":   selected.Properties.Name,
		"type":     selected.Properties.Type,
		"graphics": selected.Queues.Graphics,
		"present":  selected.Queues.Present,
	}).Info("physical device selected")
	return nil
}

func (r *Renderer) createLogicalDevice() error {
	info := DeviceInfo{
		QueueFamilies: r.physicalDevice.Queues.Unique(),
		Extensions:    r.configuration.Renderer.DeviceExtensions,
	}
	if r.configuration.Instance.EnableDiagnostics {
		info.Layers = r.configuration.Instance.ValidationLayers
	}

	device, err := r.driver.CreateDevice(r.physicalDevice.Handle, info)
	if err != nil {
		return setupError("logical device", err)
	}
	r.registry.Track(KindDevice, "device", func() {
		r.driver.DestroyDevice(device)
	})
	r.device = device

	r.graphicsQueue = r.driver.DeviceQueue(device, r.physicalDevice.Queues.Graphics)
	r.presentQueue = r.driver.DeviceQueue(device, r.physicalDevice.Queues.Present)
	return nil
}

// Shutdown implements interface. The device is made idle before the
// first object is destroyed, objects are then destroyed in reverse
// dependency order. Safe to call after a failed Initialise.
func (r *Renderer) Shutdown() error {
	var idleErr error
	if r.device != 0 {
		if idleErr = r.driver.WaitIdle(r.device); idleErr != nil {
			r.logger.WithError(idleErr).Error("device did not become idle")
		}
	}

	r.registry.Release()
	r.forget()
	r.logger.WithField("frames", r.frame).Info("renderer destroyed")

	if idleErr != nil {
		return errors.Wrap(idleErr, "wait idle")
	}
	return nil
}

// forget drops every handle released by the registry, so a later
// Shutdown finds nothing to wait on
func (r *Renderer) forget() {
	r.initialised = false
	r.instance, r.debugCallback, r.surface = 0, 0, 0
	r.device, r.graphicsQueue, r.presentQueue = 0, 0, 0
	r.swapchain = 0
	r.swapchainImages, r.swapchainImageViews = nil, nil
	r.renderPass, r.pipelineLayout, r.pipeline = 0, 0, 0
	r.framebuffers = nil
	r.commandPool, r.commandBuffer = 0, 0
	r.sync = SyncSet{}
}

// PhysicalDevice returns the selected device
func (r *Renderer) PhysicalDevice() SelectedDevice {
	return r.physicalDevice
}

// SwapchainFormat returns the negotiated surface format
func (r *Renderer) SwapchainFormat() SurfaceFormat {
	return r.swapchainFormat
}

// SwapchainExtent returns the negotiated image size
func (r *Renderer) SwapchainExtent() Extent2D {
	return r.swapchainExtent
}

// PresentMode returns the negotiated present mode
func (r *Renderer) PresentMode() PresentMode {
	return r.presentMode
}

// Phase returns the frame phase currently executing, or the
// one that failed
func (r *Renderer) Phase() Phase {
	return r.phase
}

// Frames returns the number of frames presented
func (r *Renderer) Frames() uint64 {
	return r.frame
}
