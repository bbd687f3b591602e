package lifecycle

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/viva/internal/adapters/cas"
	"go.trai.ch/viva/internal/adapters/channel"
	"go.trai.ch/viva/internal/adapters/config"
	"go.trai.ch/viva/internal/adapters/lock"
	"go.trai.ch/viva/internal/adapters/logger"
	"go.trai.ch/viva/internal/adapters/registry"
	"go.trai.ch/viva/internal/adapters/specstore"
	"go.trai.ch/viva/internal/adapters/telemetry"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/viva/internal/core/ports"
)

// NodeID is the unique identifier for the lifecycle manager Graft node.
const NodeID graft.ID = "engine.lifecycle"

func init() {
	graft.Register(graft.Node[*Manager]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			specstore.NodeID,
			specstore.ManifestNodeID,
			channel.NodeID,
			cas.NodeID,
			lock.NodeID,
			registry.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
			config.ConfigNodeID,
		},
		Run: runManagerNode,
	})
}

func runManagerNode(ctx context.Context) (*Manager, error) {
	specs, err := graft.Dep[ports.SpecStore](ctx)
	if err != nil {
		return nil, err
	}
	manifests, err := graft.Dep[ports.ManifestStore](ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := graft.Dep[ports.Resolver](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.PackageStore](ctx)
	if err != nil {
		return nil, err
	}
	locker, err := graft.Dep[ports.Locker](ctx)
	if err != nil {
		return nil, err
	}
	reg, err := graft.Dep[ports.Registry](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := graft.Dep[*domain.Config](ctx)
	if err != nil {
		return nil, err
	}

	return NewManager(specs, manifests, resolver, store, locker, reg, tracer, log, cfg), nil
}
