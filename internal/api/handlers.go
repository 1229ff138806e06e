package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hf-risk-server/internal/history"
	"github.com/hf-risk-server/internal/report"
	"github.com/hf-risk-server/internal/service"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500

	maxProfileBytes = 1 << 20
	maxImportBytes  = 64 << 20
)

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	cfg := s.configManager.GetConfig()
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   cfg.MCP.ServerVersion,
		"history":   s.service.HistoryEnabled(),
	}
	if model := s.service.Model(); model != nil {
		body["model_version"] = model.Version
	}
	c.JSON(http.StatusOK, body)
}

// handleGetModel returns the active parameter table, bands and base recommendations
func (s *Server) handleGetModel(c *gin.Context) {
	model := s.service.Model()
	if model == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, model)
}

// handleCreateAssessment scores a profile and stores the result
func (s *Server) handleCreateAssessment(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxProfileBytes)

	var req service.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortInvalidInput(c, "Request body must be a JSON patient profile", err)
		return
	}

	assessment, err := s.service.Assess(c.Request.Context(), req, service.SourceAPI)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assessment)
}

// handleListAssessments returns stored assessments newest first
func (s *Server) handleListAssessments(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil || limit < 1 {
		s.abortInvalidInput(c, "limit must be a positive integer", err)
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		s.abortInvalidInput(c, "offset must be a non-negative integer", err)
		return
	}

	records, total, err := s.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if records == nil {
		records = []*history.Record{}
	}
	c.JSON(http.StatusOK, gin.H{
		"assessments": records,
		"total":       total,
		"limit":       limit,
		"offset":      offset,
	})
}

// handleGetAssessment returns one stored assessment
func (s *Server) handleGetAssessment(c *gin.Context) {
	rec, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

// handleDeleteAssessment removes one stored assessment
func (s *Server) handleDeleteAssessment(c *gin.Context) {
	id, ok := s.parseID(c)
	if !ok {
		return
	}
	if err := s.service.Delete(c.Request.Context(), id); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleAssessmentReport renders a stored assessment as text, or JSON with ?format=json
func (s *Server) handleAssessmentReport(c *gin.Context) {
	rec, ok := s.lookup(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	summary := report.FromRecord(rec)
	if c.Query("format") == "json" {
		if err := report.WriteJSON(&buf, summary); err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
		return
	}
	if err := report.WriteText(&buf, summary); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// handleExportAssessments downloads every stored assessment
func (s *Server) handleExportAssessments(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.service.Export(c.Request.Context(), &buf); err != nil {
		s.abortWithError(c, err)
		return
	}
	filename := fmt.Sprintf("assessments-%s.json", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

// handleImportAssessments loads a previously exported document
func (s *Server) handleImportAssessments(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	imported, skipped, err := s.service.Import(c.Request.Context(), body)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"imported": imported,
		"skipped":  skipped,
	})
}

func (s *Server) lookup(c *gin.Context) (*history.Record, bool) {
	id, ok := s.parseID(c)
	if !ok {
		return nil, false
	}
	rec, err := s.service.Get(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return nil, false
	}
	return rec, true
}

func (s *Server) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.abortInvalidInput(c, "id must be a UUID", err)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
