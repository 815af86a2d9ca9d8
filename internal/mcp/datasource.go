package mcp

import (
	"context"
	"time"

	"github.com/ggfincke/swimmate/internal/models"
	"github.com/ggfincke/swimmate/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QuerySwims(ctx context.Context, start, end time.Time) ([]storage.SwimSummary, error)
	GetSwim(ctx context.Context, id uuid.UUID) (*models.Swim, error)
	GetSwimStats(ctx context.Context, start, end time.Time) (*storage.SwimStats, error)
	QuerySetTemplates(ctx context.Context) ([]models.SetMessage, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
