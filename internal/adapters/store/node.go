package store

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/stash/internal/adapters/logger"
	"go.trai.ch/stash/internal/core/ports"
)

// NodeID is the unique identifier for the store opener Graft node.
const NodeID graft.ID = "adapter.store_opener"

func init() {
	graft.Register(graft.Node[ports.StoreOpener]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.StoreOpener, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewOpener(clockwork.NewRealClock(), log), nil
		},
	})
}
