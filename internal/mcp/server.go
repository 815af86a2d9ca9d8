package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("SwimMate", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("SwimMate swim data server. Query recorded swims, lap-level detail, derived set structure, and training set templates."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListSwims, Handler: h.listSwims},
		server.ServerTool{Tool: toolGetSwim, Handler: h.getSwim},
		server.ServerTool{Tool: toolGetSwimStructure, Handler: h.getSwimStructure},
		server.ServerTool{Tool: toolGetSwimStats, Handler: h.getSwimStats},
		server.ServerTool{Tool: toolListSetTemplates, Handler: h.listSetTemplates},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentSwims, Handler: h.recentSwims},
		server.ServerResource{Resource: resTrainingSummary, Handler: h.trainingSummary},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resRecentSwims = mcp.NewResource(
	"swimmate://recent_swims",
	"Recent Swims",
	mcp.WithResourceDescription("Swim workouts from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resTrainingSummary = mcp.NewResource(
	"swimmate://training_summary",
	"Training Summary",
	mcp.WithResourceDescription("Aggregate swim totals (count, laps, distance, energy, time) for the last 30 days"),
	mcp.WithMIMEType("application/json"),
)
