// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"sort"
)

// Kind identifies the class of a tracked object. Kinds are declared
// in creation order, Release destroys higher kinds first.
type Kind int

// Object kinds in creation order
const (
	KindInstance Kind = iota
	KindDebugCallback
	KindSurface
	KindDevice
	KindSwapchain
	KindImageView
	KindRenderPass
	KindPipelineLayout
	KindPipeline
	KindFramebuffer
	KindCommandPool
	KindSemaphore
	KindFence
)

var kindNames = [...]string{
	KindInstance:       "instance",
	KindDebugCallback:  "debug callback",
	KindSurface:        "surface",
	KindDevice:         "device",
	KindSwapchain:      "swapchain",
	KindImageView:      "image view",
	KindRenderPass:     "render pass",
	KindPipelineLayout: "pipeline layout",
	KindPipeline:       "pipeline",
	KindFramebuffer:    "framebuffer",
	KindCommandPool:    "command pool",
	KindSemaphore:      "semaphore",
	KindFence:          "fence",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

type slot struct {
	kind    Kind
	seq     int
	name    string
	release func()
}

// Registry owns every object of the presentation pipeline and
// destroys them in a fixed order, independent of the order they
// were tracked in. Not safe for concurrent use.
type Registry struct {
	slots []slot
	seq   int

	// OnRelease, when set, is called before each object is destroyed
	OnRelease func(kind Kind, name string)
}

// Track records an object together with the function destroying it.
func (r *Registry) Track(kind Kind, name string, release func()) {
	r.seq++
	r.slots = append(r.slots, slot{
		kind:    kind,
		seq:     r.seq,
		name:    name,
		release: release,
	})
}

// Len returns the number of live objects
func (r *Registry) Len() int {
	return len(r.slots)
}

// Count returns the number of live objects of a kind
func (r *Registry) Count(kind Kind) int {
	var n int
	for _, s := range r.slots {
		if s.kind == kind {
			n++
		}
	}
	return n
}

// Release destroys all tracked objects, highest kind first and most
// recently tracked first within a kind. Calling it again is a no-op.
func (r *Registry) Release() {
	slots := r.slots
	r.slots = nil

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].kind != slots[j].kind {
			return slots[i].kind > slots[j].kind
		}
		return slots[i].seq > slots[j].seq
	})

	for _, s := range slots {
		if r.OnRelease != nil {
			r.OnRelease(s.kind, s.name)
		}
		s.release()
	}
}
