package specstore

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/viva/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the spec store Graft node.
	NodeID graft.ID = "adapter.spec_store"
	// ManifestNodeID is the unique identifier for the manifest store Graft node.
	ManifestNodeID graft.ID = "adapter.manifest_store"
)

func init() {
	graft.Register(graft.Node[ports.SpecStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SpecStore, error) {
			return NewStore(), nil
		},
	})

	graft.Register(graft.Node[ports.ManifestStore]{
		ID:        ManifestNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ManifestStore, error) {
			return NewManifestStore(), nil
		},
	})
}
