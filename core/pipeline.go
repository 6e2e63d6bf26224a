// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Pipeline enumerations, numerically equal to their Vulkan counterparts
type (
	LoadOp            int32
	StoreOp           int32
	ImageLayout       int32
	PipelineStage     uint32
	Access            uint32
	PrimitiveTopology int32
	PolygonMode       int32
	CullMode          uint32
	FrontFace         int32
	DynamicState      int32
	ShaderStage       uint32
)

// Attachment operations and layouts
const (
	LoadOpLoad     LoadOp = 0
	LoadOpClear    LoadOp = 1
	LoadOpDontCare LoadOp = 2

	StoreOpStore    StoreOp = 0
	StoreOpDontCare StoreOp = 1

	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutColorAttachmentOptimal ImageLayout = 2
	ImageLayoutPresentSrc             ImageLayout = 1000001002
)

// Synchronization scopes
const (
	PipelineStageColorAttachmentOutput PipelineStage = 0x400

	AccessColorAttachmentWrite Access = 0x100

	// SubpassExternal refers to operations outside the render pass
	SubpassExternal = ^uint32(0)
)

// Fixed function state
const (
	TopologyTriangleList PrimitiveTopology = 3

	PolygonModeFill PolygonMode = 0

	CullModeNone CullMode = 0
	CullModeBack CullMode = 2

	FrontFaceClockwise FrontFace = 1

	DynamicStateViewport DynamicState = 0
	DynamicStateScissor  DynamicState = 1

	ShaderStageVertex   ShaderStage = 0x1
	ShaderStageFragment ShaderStage = 0x10
)

// SpirvMagic starts every SPIR-V module
const SpirvMagic uint32 = 0x07230203

// AttachmentDescription declares how a render pass uses an attachment
type AttachmentDescription struct {
	Format        Format
	Samples       uint32
	LoadOp        LoadOp
	StoreOp       StoreOp
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
}

// SubpassDependency orders a subpass against other work
type SubpassDependency struct {
	SrcSubpass uint32
	DstSubpass uint32
	SrcStage   PipelineStage
	DstStage   PipelineStage
	SrcAccess  Access
	DstAccess  Access
}

// RenderPassDescription is a single subpass render pass with one color attachment
type RenderPassDescription struct {
	ColorAttachment AttachmentDescription
	ColorLayout     ImageLayout
	Dependency      SubpassDependency
}

// ShaderStageDescription binds a module to a pipeline stage
type ShaderStageDescription struct {
	Stage      ShaderStage
	Module     ShaderModule
	EntryPoint string
}

// PipelineDescription describes a graphics pipeline without vertex input
type PipelineDescription struct {
	Stages        []ShaderStageDescription
	Topology      PrimitiveTopology
	PolygonMode   PolygonMode
	CullMode      CullMode
	FrontFace     FrontFace
	LineWidth     float32
	Samples       uint32
	BlendEnable   bool
	DynamicStates []DynamicState
	Layout        PipelineLayout
	RenderPass    RenderPass
	Subpass       uint32
}

// ColorRenderPass declares a cleared color attachment that is handed to
// presentation afterwards. The external dependency makes the layout
// transition wait for the image to be acquired before the first write.
func ColorRenderPass(format Format) RenderPassDescription {
	return RenderPassDescription{
		ColorAttachment: AttachmentDescription{
			Format:        format,
			Samples:       1,
			LoadOp:        LoadOpClear,
			StoreOp:       StoreOpStore,
			InitialLayout: ImageLayoutUndefined,
			FinalLayout:   ImageLayoutPresentSrc,
		},
		ColorLayout: ImageLayoutColorAttachmentOptimal,
		Dependency: SubpassDependency{
			SrcSubpass: SubpassExternal,
			DstSubpass: 0,
			SrcStage:   PipelineStageColorAttachmentOutput,
			DstStage:   PipelineStageColorAttachmentOutput,
			SrcAccess:  0,
			DstAccess:  AccessColorAttachmentWrite,
		},
	}
}

// FixedPipeline describes the pipeline drawing the geometry defined
// in the vertex shader, with viewport and scissor set when recording.
func FixedPipeline(vertex, fragment ShaderModule, layout PipelineLayout, renderPass RenderPass) PipelineDescription {
	return PipelineDescription{
		Stages: []ShaderStageDescription{
			{Stage: ShaderStageVertex, Module: vertex, EntryPoint: "main"},
			{Stage: ShaderStageFragment, Module: fragment, EntryPoint: "main"},
		},
		Topology:    TopologyTriangleList,
		PolygonMode: PolygonModeFill,
		CullMode:    CullModeNone,
		FrontFace:   FrontFaceClockwise,
		LineWidth:   1.0,
		Samples:     1,
		BlendEnable: false,
		DynamicStates: []DynamicState{
			DynamicStateViewport,
			DynamicStateScissor,
		},
		Layout:     layout,
		RenderPass: renderPass,
	}
}

// ValidateSpirv checks that code looks like a SPIR-V module
func ValidateSpirv(code []byte) error {
	if len(code) < 4 || len(code)%4 != 0 {
		return errors.Wrapf(ErrInvalidShader, "length %d", len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != SpirvMagic {
		return errors.Wrapf(ErrInvalidShader, "magic 0x%08x", magic)
	}
	return nil
}

func (r *Renderer) createRenderPass() error {
	renderPass, err := r.driver.CreateRenderPass(r.device, ColorRenderPass(r.swapchainFormat.Format))
	if err != nil {
		return setupError("render pass", err)
	}
	r.registry.Track(KindRenderPass, "render pass", func() {
		r.driver.DestroyRenderPass(r.device, renderPass)
	})
	r.renderPass = renderPass
	return nil
}

func (r *Renderer) createShaderModule(name string, shaderType ShaderType) (ShaderModule, error) {
	if detected := shaderTypeOf(name); detected != UnknownShaderType && detected != shaderType {
		return 0, setupError("shader", errors.Errorf("%s is a %s shader, expected %s", name, detected, shaderType))
	}

	code, err := r.shaders.Load(name)
	if err != nil {
		return 0, setupError("shader", errors.Wrapf(err, "read %s", name))
	}
	if err := ValidateSpirv(code); err != nil {
		return 0, setupError("shader", errors.Wrap(err, name))
	}

	module, err := r.driver.CreateShaderModule(r.device, code)
	if err != nil {
		return 0, setupError("shader module", errors.Wrap(err, name))
	}
	return module, nil
}

func (r *Renderer) createPipeline() error {
	layout, err := r.driver.CreatePipelineLayout(r.device)
	if err != nil {
		return setupError("pipeline layout", err)
	}
	r.registry.Track(KindPipelineLayout, "pipeline layout", func() {
		r.driver.DestroyPipelineLayout(r.device, layout)
	})
	r.pipelineLayout = layout

	cfg := r.configuration.Renderer
	vertex, err := r.createShaderModule(cfg.VertexShader, VertexShaderType)
	if err != nil {
		return err
	}
	defer r.driver.DestroyShaderModule(r.device, vertex)

	fragment, err := r.createShaderModule(cfg.FragmentShader, FragmentShaderType)
	if err != nil {
		return err
	}
	defer r.driver.DestroyShaderModule(r.device, fragment)

	pipeline, err := r.driver.CreateGraphicsPipeline(r.device, FixedPipeline(vertex, fragment, layout, r.renderPass))
	if err != nil {
		return setupError("pipeline", err)
	}
	r.registry.Track(KindPipeline, "pipeline", func() {
		r.driver.DestroyPipeline(r.device, pipeline)
	})
	r.pipeline = pipeline
	return nil
}

func (r *Renderer) createFramebuffers() error {
	r.framebuffers = make([]Framebuffer, 0, len(r.swapchainImageViews))
	for idx, view := range r.swapchainImageViews {
		framebuffer, err := r.driver.CreateFramebuffer(r.device, r.renderPass, view, r.swapchainExtent)
		if err != nil {
			return &SetupError{Stage: "framebuffer", Index: idx, Err: err}
		}
		r.registry.Track(KindFramebuffer, "framebuffer", func() {
			r.driver.DestroyFramebuffer(r.device, framebuffer)
		})
		r.framebuffers = append(r.framebuffers, framebuffer)
	}
	return nil
}
