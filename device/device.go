// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device talks to the Vulkan API on behalf of the core.
package device

import (
	"github.com/devblok/learnvk/core"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            uint32
	VendorID      uint32
	DriverVersion uint32
	Name          string
	Type          string
	Invalid       bool
	QueueFamilies []core.QueueFamilyProperties
	Extensions    []string
	Layers        []string
	Memory        uint64
}

// Describe lists every physical device of the instance. A device
// whose extensions or layers can't be enumerated is marked Invalid.
func Describe(v *Vulkan, instance core.Instance) ([]PhysicalDeviceInfo, error) {
	devices, err := v.PhysicalDevices(instance)
	if err != nil {
		return nil, errors.Wrap(err, "describe")
	}

	pdi := make([]PhysicalDeviceInfo, len(devices))
	for i, handle := range devices {
		props := v.DeviceProperties(handle)
		pdi[i].ID = props.ID
		pdi[i].VendorID = props.VendorID
		pdi[i].DriverVersion = props.DriverVersion
		pdi[i].Name = props.Name
		pdi[i].Type = props.Type.String()
		pdi[i].QueueFamilies = v.QueueFamilies(handle)

		physicalDevice := v.physicalDevice(handle)
		if pdi[i].Extensions, err = deviceExtensions(physicalDevice); err != nil {
			pdi[i].Invalid = true
		}
		if pdi[i].Layers, err = deviceLayers(physicalDevice); err != nil {
			pdi[i].Invalid = true
		}
		pdi[i].Memory = deviceMemory(physicalDevice)
	}
	return pdi, nil
}

func deviceLayers(pd vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := resultError("vk.EnumerateDeviceLayerProperties()", vk.EnumerateDeviceLayerProperties(pd, &count, nil)); err != nil {
		return nil, err
	}
	properties := make([]vk.LayerProperties, count)
	if err := resultError("vk.EnumerateDeviceLayerProperties()", vk.EnumerateDeviceLayerProperties(pd, &count, properties)); err != nil {
		return nil, err
	}

	layers := make([]string, 0, count)
	for _, layer := range properties[:count] {
		layer.Deref()
		layers = append(layers, vk.ToString(layer.LayerName[:]))
	}
	return layers, nil
}

// deviceMemory sums up the sizes of all memory heaps
func deviceMemory(pd vk.PhysicalDevice) uint64 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memoryProperties)
	memoryProperties.Deref()

	var total uint64
	for idx := uint32(0); idx < memoryProperties.MemoryHeapCount; idx++ {
		memoryProperties.MemoryHeaps[idx].Deref()
		total += uint64(memoryProperties.MemoryHeaps[idx].Size)
	}
	return total
}
