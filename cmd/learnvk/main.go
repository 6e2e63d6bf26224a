// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"

	"github.com/devblok/learnvk/core"
	"github.com/devblok/learnvk/device"
	"github.com/devblok/learnvk/window"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

var (
	envFile = flag.String("env", "", "Additional dotenv file with LEARNVK_* settings, ./.env is always read")
	verbose = flag.Bool("v", false, "Log debug messages")
)

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	configuration, err := loadConfiguration()
	if err != nil {
		log.WithError(err).Fatal("configuration")
	}
	if configuration.Instance.EnableDiagnostics {
		log.SetLevel(log.DebugLevel)
	}

	if err := run(configuration); err != nil {
		log.WithError(err).Fatal("learnvk exited")
	}
}

func loadConfiguration() (core.Configuration, error) {
	if *envFile != "" {
		if err := core.LoadEnvFiles(*envFile); err != nil {
			return core.Configuration{}, err
		}
	}
	return core.FromEnvironment(core.DefaultConfiguration())
}

func run(configuration core.Configuration) error {
	shaders, err := core.NewShaderSource(configuration.Renderer)
	if err != nil {
		return err
	}
	if archive, ok := shaders.(*core.ArchiveShaders); ok {
		defer archive.Close()
	}

	sdlWindow, err := window.NewSDL(configuration.Window)
	if err != nil {
		return err
	}
	defer sdlWindow.Destroy()

	renderer := core.NewRenderer(configuration, device.NewVulkan(), sdlWindow, shaders)

	time := core.NewTime(configuration.Time)
	defer time.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := core.Run(ctx, sdlWindow, renderer, time); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"frames": renderer.Frames(),
		"rate":   time.Rate(),
	}).Info("event loop exited")
	return nil
}
