package session

import (
	"context"

	"github.com/ggfincke/swimmate/internal/models"
)

// Config describes the workout being started: pool or open water, and the
// pool's length and unit when pooled.
type Config struct {
	Location   models.LocationType
	PoolLength *float64
	PoolUnit   *models.PoolUnit
}

// Tracker is the platform tracking service collaborator. Both calls enqueue a
// request and return immediately; the platform adapter reports the outcome
// asynchronously by delivering EventCollectionStarted / EventCollectionStopped
// through the session mailbox. An error here means the request could not even
// be enqueued.
type Tracker interface {
	StartCollection(ctx context.Context, cfg Config) error
	StopCollection(ctx context.Context) error
}
