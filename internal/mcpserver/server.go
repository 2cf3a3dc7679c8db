// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes chemid lookups for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/chemid/internal/apperr"
	"github.com/starford/chemid/internal/lookup"
	"github.com/starford/chemid/internal/models"
	"github.com/starford/chemid/internal/parser"
)

const nameTypesURI = "chemid://name-types"

// Server wraps the MCP server with chemid tools.
type Server struct {
	mcp *server.MCPServer
	svc *lookup.Service
}

// New creates a new MCP server with all chemid tools registered.
func New(svc *lookup.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"chemid",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("resolve_compound",
		mcp.WithDescription("Resolve a compound name into its identity chain: the compound's CID and "+
			"selected IUPAC name, followed by its parents. Read the chemid://name-types resource "+
			"for how names are selected."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Compound name, e.g. lactate")),
		mcp.WithBoolean("oldest", mcp.Description("Order records by ascending CID before resolving")),
		mcp.WithString("name_types", mcp.Description("Comma-separated name-type priority (default Traditional,Preferred)")),
	), s.resolveCompound)

	s.mcp.AddTool(mcp.NewTool("get_synonyms",
		mcp.WithDescription("List every synonym PubChem knows for a compound name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Compound name")),
	), s.getSynonyms)

	s.mcp.AddTool(mcp.NewTool("get_titles",
		mcp.WithDescription("Map compound identifiers to their PubChem titles."),
		mcp.WithString("cids", mcp.Required(), mcp.Description("Comma-separated CIDs, e.g. 222,280,962")),
	), s.getTitles)

	s.mcp.AddTool(mcp.NewTool("get_descriptions",
		mcp.WithDescription("Fetch the description records (title, text, source) of compound identifiers."),
		mcp.WithString("cids", mcp.Required(), mcp.Description("Comma-separated CIDs")),
	), s.getDescriptions)

	s.mcp.AddTool(mcp.NewTool("get_compound_cid",
		mcp.WithDescription("Look up the first CID PubChem lists for a compound name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Compound name")),
	), s.getCompoundCID)

	s.mcp.AddTool(mcp.NewTool("get_parent_cid",
		mcp.WithDescription("Look up the parent CID of a compound identifier."),
		mcp.WithString("cid", mcp.Required(), mcp.Description("Compound identifier")),
	), s.getParentCID)

	// Resource: name-type selection guide.
	s.mcp.AddResource(
		mcp.NewResource(nameTypesURI, "Name-Type Guide",
			mcp.WithResourceDescription("How IUPAC names are selected while resolving a compound."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNameTypesResource,
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

func (s *Server) resolveCompound(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := lookup.ResolveOptions{
		Oldest:    req.GetBool("oldest", false),
		NameTypes: models.ParseNameTypes(req.GetString("name_types", "")),
	}
	id, err := s.svc.Resolve(ctx, name, opts)
	if err != nil {
		return toolError(err, name), nil
	}
	return jsonResult(map[string]any{"chain": id.String(), "identity": id})
}

func (s *Server) getSynonyms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	syn, err := s.svc.Synonyms(ctx, name)
	if err != nil {
		return toolError(err, name), nil
	}
	return jsonResult(syn)
}

func (s *Server) getTitles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("cids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Titles(ctx, parser.SplitList(raw))
	if err != nil {
		return toolError(err, raw), nil
	}
	return jsonResult(res)
}

func (s *Server) getDescriptions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("cids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ds, err := s.svc.Descriptions(ctx, parser.SplitList(raw))
	if err != nil {
		return toolError(err, raw), nil
	}
	return jsonResult(ds)
}

func (s *Server) getCompoundCID(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cid, err := s.svc.CID(ctx, name)
	if err != nil {
		return toolError(err, name), nil
	}
	return mcp.NewToolResultText(cid), nil
}

func (s *Server) getParentCID(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cid, err := req.RequireString("cid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parent, err := s.svc.ParentCID(ctx, cid)
	if err != nil {
		return toolError(err, cid), nil
	}
	return mcp.NewToolResultText(parent), nil
}

func (s *Server) readNameTypesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      nameTypesURI,
			MIMEType: "text/markdown",
			Text:     NameTypesGuide,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error, subject string) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", subject))
	}
	if code, ok := apperr.StatusCode(err); ok {
		return mcp.NewToolResultError(fmt.Sprintf("pubchem returned status %d", code))
	}
	return mcp.NewToolResultError(err.Error())
}
