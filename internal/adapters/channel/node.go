package channel

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/viva/internal/adapters/config"
	"go.trai.ch/viva/internal/adapters/logger"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the channel resolver Graft node.
	NodeID graft.ID = "adapter.resolver"
	// FetcherNodeID is the unique identifier for the package fetcher Graft node.
	FetcherNodeID graft.ID = "adapter.package_fetcher"
)

func init() {
	graft.Register(graft.Node[ports.Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.ConfigNodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Resolver, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			client := NewClient(domain.RepodataCachePath(cfg.CacheDir), cfg.RepodataTTL, log)
			return NewSolver(client, cfg.ChannelAlias, cfg.Platform), nil
		},
	})

	graft.Register(graft.Node[ports.PackageFetcher]{
		ID:        FetcherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.PackageFetcher, error) {
			return NewFetcher(), nil
		},
	})
}
