package specifier

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/viva/internal/adapters/config"
	"go.trai.ch/viva/internal/core/domain"
)

// NodeID is the unique identifier for the OS context Graft node.
const NodeID graft.ID = "adapter.os_context"

func init() {
	graft.Register(graft.Node[OSContext]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.ConfigNodeID},
		Run: func(ctx context.Context) (OSContext, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return OSContext{}, err
			}
			return NewOSContext(cfg)
		},
	})
}
