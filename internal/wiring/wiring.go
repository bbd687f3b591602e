// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/viva/internal/adapters/archive"
	_ "go.trai.ch/viva/internal/adapters/cas"
	_ "go.trai.ch/viva/internal/adapters/channel"
	_ "go.trai.ch/viva/internal/adapters/config"
	_ "go.trai.ch/viva/internal/adapters/lock"
	_ "go.trai.ch/viva/internal/adapters/logger"
	_ "go.trai.ch/viva/internal/adapters/registry"
	_ "go.trai.ch/viva/internal/adapters/shell"
	_ "go.trai.ch/viva/internal/adapters/specifier"
	_ "go.trai.ch/viva/internal/adapters/specstore"
	_ "go.trai.ch/viva/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/viva/internal/app"
	_ "go.trai.ch/viva/internal/engine/lifecycle"
)
