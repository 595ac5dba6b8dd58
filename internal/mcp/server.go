package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/service"
)

// TransportStdio is the only transport the tool server speaks.
const TransportStdio = "stdio"

// Server exposes the narrative service as MCP tools.
type Server struct {
	config     domain.MCPConfig
	mcpServer  *mcp.Server
	narratives *service.NarrativeService
	exportDir  string
	logger     *logrus.Logger
}

// NewServer creates a new MCP server instance and registers its tools. exportDir receives
// feedback exports; an empty value disables the export tool.
func NewServer(cfg domain.MCPConfig, narratives *service.NarrativeService, exportDir string, logger *logrus.Logger) (*Server, error) {
	if narratives == nil {
		return nil, fmt.Errorf("narrative service is required")
	}
	if cfg.ServerName == "" {
		cfg.ServerName = "nursing-narrative-mcp-server"
	}
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "v0.1.0"
	}
	if cfg.TransportType == "" {
		cfg.TransportType = TransportStdio
	}

	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}

	server := &Server{
		config:     cfg,
		mcpServer:  mcp.NewServer(serverInfo, nil),
		narratives: narratives,
		exportDir:  exportDir,
		logger:     logger,
	}
	server.registerTools()

	return server, nil
}

// Run serves MCP requests until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	if s.config.TransportType != TransportStdio {
		return fmt.Errorf("unsupported transport: %q", s.config.TransportType)
	}

	s.logger.WithFields(logrus.Fields{
		"server":    s.config.ServerName,
		"transport": s.config.TransportType,
	}).Info("Starting MCP server")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// registerTools registers every narrative tool with the SDK.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "classify_narrative",
		Description: "Detect the documentation format (SOAP, SBAR, DAR, MAR, ...) of a free-text nursing narrative",
	}, s.handleClassifyNarrative)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "extract_fields",
		Description: "Extract vital signs, symptoms, medications, interventions and other clinical fields from a nursing narrative",
	}, s.handleExtractFields)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "draft_note",
		Description: "Draft a structured note from a nursing narrative, optionally forcing a documentation format",
	}, s.handleDraftNote)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "compose_note",
		Description: "Draft a structured note and have the completion backend write the finished prose note",
	}, s.handleComposeNote)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_formats",
		Description: "List supported documentation formats with their sections",
	}, s.handleListFormats)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_format_feedback",
		Description: "Record a reviewer's verdict on the format detected for a narrative",
	}, s.handleRecordFeedback)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_feedback",
		Description: "List recorded format verdicts with per-format agreement rates",
	}, s.handleListFeedback)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "export_feedback",
		Description: "Export all recorded format verdicts to a JSON file in the data directory",
	}, s.handleExportFeedback)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "import_feedback",
		Description: "Import format verdicts from a JSON export in the data directory",
	}, s.handleImportFeedback)

	s.logger.WithField("tool_count", 9).Info("Registered MCP tools")
}
