package cacher

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/stash/internal/adapters/archive"
	"go.trai.ch/stash/internal/adapters/fs"
	"go.trai.ch/stash/internal/adapters/logger"
	"go.trai.ch/stash/internal/core/ports"
)

// NodeID is the unique identifier for the cacher Graft node.
const NodeID graft.ID = "engine.cacher"

func init() {
	graft.Register(graft.Node[*Cacher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			archive.NodeID,
			fs.HasherNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Cacher, error) {
			archiver, err := graft.Dep[ports.Archiver](ctx)
			if err != nil {
				return nil, err
			}
			fingerprinter, err := graft.Dep[ports.Fingerprinter](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewCacher(archiver, fingerprinter, log, clockwork.NewRealClock()), nil
		},
	})
}
