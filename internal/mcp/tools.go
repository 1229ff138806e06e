package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/hf-risk-server/internal/domain"
	"github.com/hf-risk-server/internal/report"
	"github.com/hf-risk-server/internal/scoring"
	"github.com/hf-risk-server/internal/service"
)

// DescribeModelParams defines parameters for the describe_risk_model tool
type DescribeModelParams struct {
	Format string `json:"format,omitempty"` // "yaml" (default) or "json"
}

// handleAssess handles the assess_heart_failure_risk tool invocation
func (s *Server) handleAssess(ctx context.Context, req *mcp.CallToolRequest, params service.ProfileRequest) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolAssess).Info("Tool invoked")

	assessment, err := s.service.Assess(ctx, params, service.SourceMCP)
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			return s.createErrorResult("Invalid patient profile", err), nil, nil
		}
		s.logger.WithError(err).WithField("tool", ToolAssess).Error("Tool failed")
		return s.createErrorResult("Assessment failed", err), nil, nil
	}

	var text bytes.Buffer
	summary := report.Summary{
		PatientRef: assessment.PatientRef,
		CreatedAt:  assessment.CreatedAt,
		Result:     *assessment.Result,
	}
	if assessment.Stored {
		summary.ID = assessment.ID.String()
	}
	if err := report.WriteText(&text, summary); err != nil {
		return s.createErrorResult("Rendering summary failed", err), nil, nil
	}

	payload, err := json.Marshal(assessment)
	if err != nil {
		return s.createErrorResult("Encoding result failed", err), nil, nil
	}

	s.logger.WithFields(logrus.Fields{
		"tool":     ToolAssess,
		"category": assessment.Result.Category,
		"stored":   assessment.Stored,
	}).Info("Tool completed")

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text.String()},
			&mcp.TextContent{Text: string(payload)},
		},
	}, nil, nil
}

// handleDescribeModel handles the describe_risk_model tool invocation
func (s *Server) handleDescribeModel(ctx context.Context, req *mcp.CallToolRequest, params DescribeModelParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolDescribeModel).Info("Tool invoked")

	model := s.service.Model()
	if model == nil {
		return s.createErrorResult("No risk model is loaded", nil), nil, nil
	}

	var buf bytes.Buffer
	switch params.Format {
	case "", "yaml":
		if err := scoring.EncodeConfig(&buf, model); err != nil {
			return s.createErrorResult("Encoding model failed", err), nil, nil
		}
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(model); err != nil {
			return s.createErrorResult("Encoding model failed", err), nil, nil
		}
	default:
		return s.createErrorResult("Invalid parameters", fmt.Errorf("format must be yaml or json, got %q", params.Format)), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: buf.String()},
		},
	}, nil, nil
}

// createErrorResult creates an error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
