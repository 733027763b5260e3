// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Orrery galaxy tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/orrery/internal/apperr"
	"github.com/starford/orrery/internal/galaxy"
)

const legendURI = "orrery://legend"

// Server wraps the MCP server with Orrery tools.
type Server struct {
	mcp *server.MCPServer
	svc *galaxy.Service
}

// New creates a new MCP server with all Orrery tools registered.
func New(svc *galaxy.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Orrery",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("galaxy_summary",
		mcp.WithDescription("Summarise the loaded galaxy: folder and file counts, total size, "+
			"layout strategy and the most common file extensions."),
		mcp.WithNumber("top", mcp.Description("Number of extensions to report (default 10)")),
	), s.galaxySummary)

	s.mcp.AddTool(mcp.NewTool("search_nodes",
		mcp.WithDescription("Search files and folders by name and path."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
	), s.searchNodes)

	s.mcp.AddTool(mcp.NewTool("locate_node",
		mcp.WithDescription("World position of a file (planet) or folder (star) at simulation time t. "+
			"Read the orrery://legend resource for the coordinate conventions."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Node path (e.g. /src/main.go)")),
		mcp.WithNumber("time", mcp.Description("Simulation time in seconds (default 0)")),
	), s.locateNode)

	s.mcp.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read the content of a repository file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path (e.g. /src/main.go)")),
	), s.readFile)

	s.mcp.AddTool(mcp.NewTool("list_system",
		mcp.WithDescription("List the sub-systems (folders) and planets (files) of a star system."),
		mcp.WithString("path", mcp.Description("Folder path; empty or / for the galactic core")),
	), s.listSystem)

	s.mcp.AddTool(mcp.NewTool("get_legend",
		mcp.WithDescription("Returns the legend explaining how the repository maps onto the galaxy."),
	), s.getLegend)

	// Resource: galaxy legend.
	s.mcp.AddResource(
		mcp.NewResource(legendURI, "Galaxy Legend",
			mcp.WithResourceDescription("How folders, files and sizes map to stars, planets and orbits."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLegendResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(path string, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) galaxySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := s.svc.Summary(ctx, req.GetInt("top", 10))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sum)
}

func (s *Server) searchNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("no matching nodes"), nil
	}
	return jsonResult(hits)
}

func (s *Server) locateNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc, err := s.svc.Locate(ctx, path, float32(req.GetFloat("time", 0)))
	if err != nil {
		return errorResult(path, err), nil
	}
	return jsonResult(loc)
}

func (s *Server) readFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.svc.ReadFile(ctx, path)
	if err != nil {
		return errorResult(path, err), nil
	}
	return mcp.NewToolResultText(f.Content), nil
}

func (s *Server) listSystem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "/")
	sys, err := s.svc.System(ctx, path)
	if err != nil {
		return errorResult(path, err), nil
	}
	return jsonResult(sys)
}

func (s *Server) getLegend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(GalaxyLegend), nil
}

func (s *Server) readLegendResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      legendURI,
			MIMEType: "text/markdown",
			Text:     GalaxyLegend,
		},
	}, nil
}
