package shell

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stash/internal/adapters/logger"
	"go.trai.ch/stash/internal/core/ports"
)

// NodeID is the unique identifier for the dataset probe Graft node.
const NodeID graft.ID = "adapter.dataset_probe"

func init() {
	graft.Register(graft.Node[ports.DatasetProbe]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.DatasetProbe, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewProbe(log), nil
		},
	})
}
