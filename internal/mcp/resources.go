package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) recentSwims(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	swims, err := h.ds.QuerySwims(ctx, start, end)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(swims)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) trainingSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	stats, err := h.ds.GetSwimStats(ctx, start, end)
	if err != nil {
		return nil, err
	}

	summary := map[string]any{
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
		"stats": stats,
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
