package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/viva/internal/adapters/archive"
	"go.trai.ch/viva/internal/adapters/channel"
	"go.trai.ch/viva/internal/adapters/config"
	"go.trai.ch/viva/internal/adapters/lock"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
)

// NodeID is the unique identifier for the package store Graft node.
const NodeID graft.ID = "adapter.package_store"

func init() {
	graft.Register(graft.Node[ports.PackageStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.ConfigNodeID, channel.FetcherNodeID, archive.NodeID, lock.NodeID},
		Run: func(ctx context.Context) (ports.PackageStore, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			fetcher, err := graft.Dep[ports.PackageFetcher](ctx)
			if err != nil {
				return nil, err
			}
			extractor, err := graft.Dep[ports.Extractor](ctx)
			if err != nil {
				return nil, err
			}
			locker, err := graft.Dep[ports.Locker](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(domain.PackageStorePath(cfg.CacheDir), fetcher, extractor, locker), nil
		},
	})
}
