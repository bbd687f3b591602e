package ports

import "go.trai.ch/viva/internal/core/domain"

// ConfigLoader defines the interface for loading the user configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration, writing the defaults first when no file exists yet.
	Load() (*domain.Config, error)
}
