package services

import (
	"context"

	"github.com/testboard/engine/internal/realtime"
	"github.com/testboard/engine/internal/repository"
)

// Notifier is told which collections changed after a mutation commits.
type Notifier interface {
	Changed(ctx context.Context, collections ...realtime.Collection)
}

type nopNotifier struct{}

func (nopNotifier) Changed(context.Context, ...realtime.Collection) {}

// NopNotifier discards change notifications.
var NopNotifier Notifier = nopNotifier{}

// HubNotifier republishes changed collections on a realtime hub.
type HubNotifier struct {
	Hub     *realtime.Hub
	loaders map[realtime.Collection]realtime.Loader
}

// NewHubNotifier wires collection loaders backed by the repositories.
func NewHubNotifier(hub *realtime.Hub, projects repository.ProjectRepository, features repository.FeatureRepository, cases repository.TestCaseRepository) *HubNotifier {
	return &HubNotifier{
		Hub: hub,
		loaders: map[realtime.Collection]realtime.Loader{
			realtime.Projects:  func(ctx context.Context) (any, error) { return projects.List(ctx) },
			realtime.Features:  func(ctx context.Context) (any, error) { return features.List(ctx) },
			realtime.TestCases: func(ctx context.Context) (any, error) { return cases.List(ctx) },
		},
	}
}

// Changed publishes a fresh snapshot of each collection. The caller's
// context is detached so a client disconnect after commit still publishes.
func (n *HubNotifier) Changed(ctx context.Context, collections ...realtime.Collection) {
	ctx = context.WithoutCancel(ctx)
	for _, c := range collections {
		if load, ok := n.loaders[c]; ok {
			n.Hub.Refresh(ctx, c, load)
		}
	}
}

// Initial returns the snapshots a new subscriber starts from.
func (n *HubNotifier) Initial(ctx context.Context) ([]realtime.Snapshot, error) {
	out := make([]realtime.Snapshot, 0, len(n.loaders))
	for _, c := range []realtime.Collection{realtime.Projects, realtime.Features, realtime.TestCases} {
		s, err := n.Hub.Load(ctx, c, n.loaders[c])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
