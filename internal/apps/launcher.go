package apps

import (
	"github.com/GriffinCanCode/tactility/internal/domain/app"
)

// LauncherManifest describes the root app. Its entries are the visible
// manifests of registry at the time it is shown.
func LauncherManifest(registry *app.Registry) app.Manifest {
	return app.Manifest{
		ID:       LauncherID,
		Name:     "Launcher",
		Icon:     "launcher",
		Category: app.CategorySystem,
		Factory: func() app.App {
			return &Launcher{registry: registry}
		},
	}
}

// Launcher lists the apps a user can open
type Launcher struct {
	app.Base
	registry *app.Registry
}

// Entries is the list the launcher shows, stored as the context data
type Entries []app.ManifestInfo

// OnShow rebuilds the entries so apps registered while hidden appear
func (l *Launcher) OnShow(ctx *app.Context, _ any) {
	visible := l.registry.ListVisible()
	entries := make(Entries, 0, len(visible))
	for _, m := range visible {
		if m.ID == LauncherID {
			continue
		}
		entries = append(entries, m.Describe())
	}
	ctx.SetData(entries)
}

func (l *Launcher) OnStop(ctx *app.Context) {
	ctx.SetData(nil)
}

// LauncherEntries returns what the launcher in ctx currently lists
func LauncherEntries(ctx *app.Context) Entries {
	entries, _ := ctx.Data().(Entries)
	return entries
}
