// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Phase is a step of the per-frame state machine
type Phase int

// Frame phases in execution order
const (
	PhaseIdle Phase = iota
	PhaseWaitPrevious
	PhaseAcquire
	PhaseRecord
	PhaseSubmit
	PhasePresent
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWaitPrevious:
		return "wait previous"
	case PhaseAcquire:
		return "acquire"
	case PhaseRecord:
		return "record"
	case PhaseSubmit:
		return "submit"
	case PhasePresent:
		return "present"
	}
	return "unknown"
}

// SyncSet coordinates one frame in flight: the fence keeps the CPU
// from re-recording the command buffer while the GPU still uses it.
type SyncSet struct {
	ImageAvailable Semaphore
	RenderFinished Semaphore
	InFlight       Fence
}

// DrawVertexCount is the number of vertices the vertex shader generates
const DrawVertexCount = 3

func (r *Renderer) createCommandPool() error {
	pool, err := r.driver.CreateCommandPool(r.device, r.physicalDevice.Queues.Graphics)
	if err != nil {
		return setupError("command pool", err)
	}
	r.registry.Track(KindCommandPool, "command pool", func() {
		r.driver.DestroyCommandPool(r.device, pool)
	})
	r.commandPool = pool

	// freed together with the pool
	buffer, err := r.driver.AllocateCommandBuffer(r.device, pool)
	if err != nil {
		return setupError("command buffer", err)
	}
	r.commandBuffer = buffer
	return nil
}

func (r *Renderer) createSynchronization() error {
	imageAvailable, err := r.driver.CreateSemaphore(r.device)
	if err != nil {
		return setupError("semaphore", err)
	}
	r.registry.Track(KindSemaphore, "image available", func() {
		r.driver.DestroySemaphore(r.device, imageAvailable)
	})

	renderFinished, err := r.driver.CreateSemaphore(r.device)
	if err != nil {
		return setupError("semaphore", err)
	}
	r.registry.Track(KindSemaphore, "render finished", func() {
		r.driver.DestroySemaphore(r.device, renderFinished)
	})

	// signaled, so the first frame does not wait forever
	inFlight, err := r.driver.CreateFence(r.device, true)
	if err != nil {
		return setupError("fence", err)
	}
	r.registry.Track(KindFence, "in flight", func() {
		r.driver.DestroyFence(r.device, inFlight)
	})

	r.sync = SyncSet{
		ImageAvailable: imageAvailable,
		RenderFinished: renderFinished,
		InFlight:       inFlight,
	}
	return nil
}

func (r *Renderer) fenceTimeout() uint64 {
	if t := r.configuration.Renderer.FenceTimeout; t > 0 {
		return uint64(t.Nanoseconds())
	}
	return math.MaxUint64
}

// Tick implements interface. It renders and presents exactly one frame.
func (r *Renderer) Tick() error {
	if !r.initialised {
		return ErrNotInitialised
	}

	r.phase = PhaseWaitPrevious
	if err := r.driver.WaitFence(r.device, r.sync.InFlight, r.fenceTimeout()); err != nil {
		return r.frameError(err)
	}
	if err := r.driver.ResetFence(r.device, r.sync.InFlight); err != nil {
		return r.frameError(err)
	}

	r.phase = PhaseAcquire
	imageIndex, err := r.driver.AcquireNextImage(r.device, r.swapchain, r.sync.ImageAvailable)
	if err != nil && !r.tolerable(err) {
		return r.frameError(err)
	}
	if int(imageIndex) >= len(r.framebuffers) {
		return r.frameError(errors.Errorf("image index %d out of range", imageIndex))
	}

	r.phase = PhaseRecord
	if err := r.record(imageIndex); err != nil {
		return r.frameError(err)
	}

	r.phase = PhaseSubmit
	if err := r.driver.Submit(r.graphicsQueue, SubmitInfo{
		WaitSemaphore:   r.sync.ImageAvailable,
		WaitStage:       PipelineStageColorAttachmentOutput,
		CommandBuffer:   r.commandBuffer,
		SignalSemaphore: r.sync.RenderFinished,
		Fence:           r.sync.InFlight,
	}); err != nil {
		return r.frameError(err)
	}

	r.phase = PhasePresent
	if err := r.driver.Present(r.presentQueue, PresentInfo{
		WaitSemaphore: r.sync.RenderFinished,
		Swapchain:     r.swapchain,
		ImageIndex:    imageIndex,
	}); err != nil && !r.tolerable(err) {
		return r.frameError(err)
	}

	r.phase = PhaseIdle
	r.frame++
	return nil
}

// record re-records the single command buffer for the acquired image
func (r *Renderer) record(imageIndex uint32) error {
	cb := r.commandBuffer
	if err := r.driver.ResetCommandBuffer(cb); err != nil {
		return errors.Wrap(err, "reset command buffer")
	}
	if err := r.driver.BeginCommandBuffer(cb); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	r.driver.CmdBeginRenderPass(cb, RenderPassBegin{
		RenderPass:  r.renderPass,
		Framebuffer: r.framebuffers[imageIndex],
		Extent:      r.swapchainExtent,
		ClearColor:  r.configuration.Renderer.ClampedClearColor(),
	})
	r.driver.CmdBindPipeline(cb, r.pipeline)
	r.driver.CmdSetViewport(cb, Viewport{
		Width:    float32(r.swapchainExtent.Width),
		Height:   float32(r.swapchainExtent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	r.driver.CmdSetScissor(cb, r.swapchainExtent)
	r.driver.CmdDraw(cb, DrawVertexCount, 1)
	r.driver.CmdEndRenderPass(cb)

	if err := r.driver.EndCommandBuffer(cb); err != nil {
		return errors.Wrap(err, "end command buffer")
	}
	return nil
}

// tolerable reports errors that leave the frame usable. The window
// can't be resized, so a suboptimal swapchain is kept as it is.
func (r *Renderer) tolerable(err error) bool {
	if errors.Is(err, ErrSuboptimal) {
		r.logger.WithFields(log.Fields{
			"phase": r.phase,
			"frame": r.frame,
		}).Debug("swapchain suboptimal")
		return true
	}
	return false
}

func (r *Renderer) frameError(err error) error {
	return &FrameError{Phase: r.phase, Frame: r.frame, Err: err}
}
