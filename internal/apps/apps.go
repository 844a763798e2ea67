// Package apps contains the built-in apps every board ships with.
package apps

import (
	"github.com/GriffinCanCode/tactility/internal/domain/app"
)

const (
	LauncherID    = "Launcher"
	InputDialogID = "InputDialog"
)

// Register adds the built-in manifests to registry
func Register(registry *app.Registry) {
	registry.Add(LauncherManifest(registry))
	registry.Add(InputDialogManifest())
}

// Launch starts appID on behalf of the app owning ctx. It fails when the
// app runs on a stack without a loader.
func Launch(ctx *app.Context, appID string, params map[string]string) (app.LaunchID, bool) {
	starter := ctx.Starter()
	if starter == nil {
		return 0, false
	}
	return starter.Start(appID, bundleOf(params))
}
