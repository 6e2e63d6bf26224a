// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"runtime"

	"github.com/devblok/learnvk/core"
	"github.com/devblok/learnvk/device"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

var layers = flag.Bool("layers", false, "List instance layers instead of devices")

func main() {
	flag.Parse()

	driver := device.NewVulkan()
	if err := driver.Load(nil); err != nil {
		log.WithError(err).Fatal("vulkan loader")
	}

	var output interface{}
	if *layers {
		available, err := driver.InstanceLayers()
		if err != nil {
			log.WithError(err).Fatal("instance layers")
		}
		output = available
	} else {
		instance, err := driver.CreateInstance(core.InstanceInfo{
			ApplicationName: "vkinfo",
			EngineName:      "LearnVK",
		})
		if err != nil {
			log.WithError(err).Fatal("instance")
		}
		defer driver.DestroyInstance(instance)

		info, err := device.Describe(driver, instance)
		if err != nil {
			log.WithError(err).Error("physical devices")
			return
		}
		output = info
	}

	bytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.WithError(err).Error("encode")
		return
	}
	fmt.Printf("%s\n", bytes)
}
