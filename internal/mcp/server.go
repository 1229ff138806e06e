// Package mcp exposes the risk engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/hf-risk-server/internal/domain"
	"github.com/hf-risk-server/internal/service"
)

// Tool names
const (
	ToolAssess        = "assess_heart_failure_risk"
	ToolDescribeModel = "describe_risk_model"
)

// Server represents the MCP server
type Server struct {
	mcpServer *mcp.Server
	service   *service.AssessmentService
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance and registers its tools
func NewServer(cfg domain.MCPConfig, logger *logrus.Logger, svc *service.AssessmentService) *Server {
	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}

	server := &Server{
		mcpServer: mcp.NewServer(serverInfo, nil),
		service:   svc,
		logger:    logger,
	}
	server.registerTools()

	return server
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolAssess,
		Description: "Compute a heart failure risk score (0-100) and category for one patient profile. " +
			"Returns the score, per-parameter contributions and recommendations. " +
			"The model is a configurable placeholder and is not clinically validated.",
	}, s.handleAssess)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolDescribeModel,
		Description: "Describe the active risk model: parameters, weights, normalization bounds, risk bands and base recommendations.",
	}, s.handleDescribeModel)

	s.logger.WithField("tool_count", 2).Debug("Registered MCP tools")
}

// Run serves the tools over stdio until ctx is cancelled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
