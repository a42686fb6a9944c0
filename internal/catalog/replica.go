package catalog

import (
	"context"

	"RetroStore/pkg/kit"
)

// EventCatalogChanged is published after every successful SaveAll so UI
// layers can re-render. The gateway never depends on it for correctness.
const EventCatalogChanged kit.Event = "catalog_changed"

// ReplicaStore is the durable local copy of the remote catalog, the source
// of truth while offline. SaveAll overwrites the whole collection; a partial
// write must never be observable.
type ReplicaStore interface {
	LoadAll(ctx context.Context) ([]Product, error)
	SaveAll(ctx context.Context, products []Product) error
	OfflineFlag(ctx context.Context) (bool, error)
	SetOfflineFlag(ctx context.Context, offline bool) error
	Ping(ctx context.Context) error
}
