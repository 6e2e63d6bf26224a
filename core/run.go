// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"context"

	"github.com/pkg/errors"
)

// Run initialises app and ticks it once per paced frame until the window
// asks to close or ctx is cancelled. Shutdown is always called, also when
// Initialise fails. The first error encountered is returned.
func Run(ctx context.Context, window Window, app Application, pacer *Time) (err error) {
	defer func() {
		if shutdownErr := app.Shutdown(); shutdownErr != nil && err == nil {
			err = errors.Wrap(shutdownErr, "shutdown")
		}
	}()

	if err := app.Initialise(); err != nil {
		return err
	}

	for {
		window.PollEvents()
		if window.ShouldClose() {
			return nil
		}

		if err := pacer.Pace(ctx); err != nil {
			if err == context.Canceled {
				return nil
			}
			return err
		}

		if err := app.Tick(); err != nil {
			return err
		}
	}
}
