// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/stash/internal/adapters/archive"
	_ "go.trai.ch/stash/internal/adapters/config"
	_ "go.trai.ch/stash/internal/adapters/env"
	_ "go.trai.ch/stash/internal/adapters/fs"
	_ "go.trai.ch/stash/internal/adapters/logger"
	_ "go.trai.ch/stash/internal/adapters/shell"
	_ "go.trai.ch/stash/internal/adapters/store"
	// Register app and engine nodes.
	_ "go.trai.ch/stash/internal/app"
	_ "go.trai.ch/stash/internal/engine/cacher"
)
