package env

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/stash/internal/core/ports"
)

// NodeID is the unique identifier for the environment input source Graft node.
const NodeID graft.ID = "adapter.env_source"

func init() {
	graft.Register(graft.Node[ports.InputSource]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.InputSource, error) {
			return NewSource(clockwork.NewRealClock()), nil
		},
	})
}
