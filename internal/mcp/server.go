// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aar-healthcare/medbot/application/service"
	"github.com/aar-healthcare/medbot/domain/chat"
	"github.com/aar-healthcare/medbot/domain/clinic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Responder answers chat messages for the ask tool.
type Responder interface {
	Answer(ctx context.Context, message string) (chat.Answer, error)
}

// ClinicFinder ranks clinics for the find_clinics tool.
type ClinicFinder interface {
	NearestClinics(ctx context.Context, lat, lng float64, k int) ([]clinic.Ranked, error)
}

// Server wraps the MCP server with medbot tools.
type Server struct {
	mcpServer *server.MCPServer
	responder Responder
	clinics   ClinicFinder
	version   string
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(responder Responder, clinics ClinicFinder, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		responder: responder,
		clinics:   clinics,
		version:   version,
		logger:    logger,
	}

	mcpServer := server.NewMCPServer(
		"medbot",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Ask the AAR medical information assistant a health question. Answers are general information, not a diagnosis."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The question, in plain English"),
		),
	)
	mcpServer.AddTool(askTool, s.handleAsk)

	clinicsTool := mcp.NewTool("find_clinics",
		mcp.WithDescription("Find the AAR clinics nearest to a location"),
		mcp.WithNumber("lat",
			mcp.Required(),
			mcp.Description("Latitude in decimal degrees"),
		),
		mcp.WithNumber("lng",
			mcp.Required(),
			mcp.Description("Longitude in decimal degrees"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of clinics to return (default: 3)"),
		),
	)
	mcpServer.AddTool(clinicsTool, s.handleFindClinics)

	versionTool := mcp.NewTool("get_version",
		mcp.WithDescription("Get the medbot server version"),
	)
	mcpServer.AddTool(versionTool, s.handleGetVersion)
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message is required"), nil
	}

	answer, err := s.responder.Answer(ctx, message)
	if errors.Is(err, service.ErrEmptyMessage) {
		return mcp.NewToolResultError(chat.EmptyPrompt), nil
	}
	if err != nil {
		s.logger.Error("ask failed", slog.Any("error", err))
		return mcp.NewToolResultError(chat.ErrorApology), nil
	}

	type askResult struct {
		Response string  `json:"response"`
		Source   string  `json:"source"`
		Keyword  string  `json:"keyword,omitempty"`
		Score    float64 `json:"score,omitempty"`
	}

	return jsonResult(askResult{
		Response: answer.Text(),
		Source:   answer.Tier().String(),
		Keyword:  answer.Keyword(),
		Score:    answer.Score(),
	})
}

func (s *Server) handleFindClinics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lat, err := request.RequireFloat("lat")
	if err != nil {
		return mcp.NewToolResultError("lat must be a number"), nil
	}
	lng, err := request.RequireFloat("lng")
	if err != nil {
		return mcp.NewToolResultError("lng must be a number"), nil
	}
	limit := request.GetInt("limit", clinic.DefaultNearest)
	if limit <= 0 {
		limit = clinic.DefaultNearest
	}

	ranked, err := s.clinics.NearestClinics(ctx, lat, lng, limit)
	if err != nil {
		s.logger.Error("find clinics failed", slog.Any("error", err))
		return mcp.NewToolResultError("an error occurred while finding clinics"), nil
	}

	type clinicResult struct {
		ID       int64   `json:"id"`
		Name     string  `json:"name"`
		Address  string  `json:"address"`
		Lat      float64 `json:"lat"`
		Lng      float64 `json:"lng"`
		Phone    string  `json:"phone"`
		Distance float64 `json:"distance"`
	}

	results := make([]clinicResult, len(ranked))
	for i, r := range ranked {
		c := r.Clinic()
		results[i] = clinicResult{
			ID:       c.ID(),
			Name:     c.Name(),
			Address:  c.Address(),
			Lat:      c.Location().Lat(),
			Lng:      c.Location().Lng(),
			Phone:    c.Phone(),
			Distance: r.Distance(),
		}
	}
	return jsonResult(results)
}

func (s *Server) handleGetVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.version), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
