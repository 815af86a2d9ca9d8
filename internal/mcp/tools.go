package mcp

import (
	"context"
	"time"

	"github.com/ggfincke/swimmate/internal/segment"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolListSwims = mcp.NewTool("list_swims",
	mcp.WithDescription("List swim workouts in a time range. Returns summaries with start/end time, location type, and lap count."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetSwim = mcp.NewTool("get_swim",
	mcp.WithDescription("Retrieve a single swim with full lap detail: per-lap times, stroke styles, and efficiency scores."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Swim UUID")),
)

var toolGetSwimStructure = mcp.NewTool("get_swim_structure",
	mcp.WithDescription("Derive the set structure of a swim: laps grouped into consecutive swims and workout sets, with per-group stroke style, total/average time, average SWOLF, and individual medley detection."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Swim UUID")),
)

var toolGetSwimStats = mcp.NewTool("get_swim_stats",
	mcp.WithDescription("Aggregate statistics over a time range: swim count, lap count, total distance, energy, and time in the water."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolListSetTemplates = mcp.NewTool("list_set_templates",
	mcp.WithDescription("List stored training set templates shared from peer devices, including stroke style, distance, and difficulty."),
)

// --- Tool handlers ---

func (h *handlers) listSwims(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	swims, err := h.ds.QuerySwims(ctx, start, end)
	if err != nil {
		h.log.Error("mcp list_swims", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(swims)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSwim(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid swim ID: " + err.Error()), nil
	}

	swim, err := h.ds.GetSwim(ctx, id)
	if err != nil {
		h.log.Error("mcp get_swim", "swim", id, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(swim)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSwimStructure(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid swim ID: " + err.Error()), nil
	}

	swim, err := h.ds.GetSwim(ctx, id)
	if err != nil {
		h.log.Error("mcp get_swim_structure", "swim", id, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	sets, err := segment.Segment(swim.Laps)
	if err != nil {
		h.log.Error("mcp get_swim_structure segmentation", "swim", id, "error", err)
		return mcp.NewToolResultError("segmentation failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"swimId": swim.ID,
		"sets":   structureViews(sets),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSwimStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	stats, err := h.ds.GetSwimStats(ctx, start, end)
	if err != nil {
		h.log.Error("mcp get_swim_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listSetTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.ds.QuerySetTemplates(ctx)
	if err != nil {
		h.log.Error("mcp list_set_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(templates)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func structureViews(sets []segment.WorkoutSet) []map[string]any {
	views := make([]map[string]any, 0, len(sets))
	for _, set := range sets {
		swims := make([]map[string]any, 0, len(set.Swims))
		for _, swim := range set.Swims {
			swims = append(swims, map[string]any{
				"startLapNumber":     swim.StartLapNumber,
				"lapCount":           len(swim.Laps),
				"strokeStyle":        swim.EffectiveStrokeStyle(),
				"isIndividualMedley": swim.IsIndividualMedley(),
				"totalSeconds":       swim.TotalTime().Seconds(),
				"averageSeconds":     swim.AverageTime().Seconds(),
				"averageSwolf":       swim.AverageSwolf(),
			})
		}
		views = append(views, map[string]any{
			"setNumber":        set.SetNumber,
			"strokeStyle":      set.StrokeStyle(),
			"totalSeconds":     set.TotalTime().Seconds(),
			"averageSeconds":   set.AverageTime().Seconds(),
			"averageSwolf":     set.AverageSwolf(),
			"consecutiveSwims": swims,
		})
	}
	return views
}
