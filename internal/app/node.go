package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stash/internal/adapters/config" //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/adapters/env"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/adapters/logger" //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/adapters/shell"  //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/adapters/store"  //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/stash/internal/engine/cacher"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			env.NodeID,
			shell.NodeID,
			store.NodeID,
			cacher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewComponents(app, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	source, err := graft.Dep[ports.InputSource](ctx)
	if err != nil {
		return nil, err
	}

	probe, err := graft.Dep[ports.DatasetProbe](ctx)
	if err != nil {
		return nil, err
	}

	opener, err := graft.Dep[ports.StoreOpener](ctx)
	if err != nil {
		return nil, err
	}

	c, err := graft.Dep[*cacher.Cacher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, source, probe, opener, c, log), nil
}
