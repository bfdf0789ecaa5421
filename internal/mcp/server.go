package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cadbridge/dxf-translator/internal/config"
	"github.com/cadbridge/dxf-translator/internal/descriptions"
	"github.com/cadbridge/dxf-translator/internal/pipeline"
	"github.com/cadbridge/dxf-translator/internal/translate"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *pipeline.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *pipeline.Service, logger *slog.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractFileTool := mcp.NewTool(
		"dxf_extract_file",
		mcp.WithDescription(descriptions.DXFExtractFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the DXF file"),
		),
		mcp.WithString("output_path",
			mcp.Description("Optional CSV path for the extracted strings"),
		),
	)
	s.mcpServer.AddTool(extractFileTool, s.handleExtractFile)

	extractDirectoryTool := mcp.NewTool(
		"dxf_extract_directory",
		mcp.WithDescription(descriptions.DXFExtractDirectoryDescription),
		mcp.WithString("directory",
			mcp.Description("Directory to scan (uses the configured directory if empty)"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Descend into subdirectories"),
		),
		mcp.WithString("output_path",
			mcp.Description("Optional CSV path for the merged strings"),
		),
	)
	s.mcpServer.AddTool(extractDirectoryTool, s.handleExtractDirectory)

	translateFileTool := mcp.NewTool(
		"dxf_translate_file",
		mcp.WithDescription(descriptions.DXFTranslateFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the DXF file"),
		),
		mcp.WithString("table_path",
			mcp.Required(),
			mcp.Description("Path to the translation table (CSV or XLSX)"),
		),
		mcp.WithString("output_path",
			mcp.Description("Path for the translated copy (defaults to a _translated suffix)"),
		),
	)
	s.mcpServer.AddTool(translateFileTool, s.handleTranslateFile)

	translateDirectoryTool := mcp.NewTool(
		"dxf_translate_directory",
		mcp.WithDescription(descriptions.DXFTranslateDirectoryDescription),
		mcp.WithString("directory",
			mcp.Description("Directory of drawings (uses the configured directory if empty)"),
		),
		mcp.WithString("table_path",
			mcp.Required(),
			mcp.Description("Path to the translation table (CSV or XLSX)"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Descend into subdirectories"),
		),
	)
	s.mcpServer.AddTool(translateDirectoryTool, s.handleTranslateDirectory)

	validateFileTool := mcp.NewTool(
		"dxf_validate_file",
		mcp.WithDescription(descriptions.DXFValidateFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the DXF file"),
		),
	)
	s.mcpServer.AddTool(validateFileTool, s.handleValidateFile)

	serverInfoTool := mcp.NewTool(
		"dxf_server_info",
		mcp.WithDescription(descriptions.DXFServerInfoDescription),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	req := pipeline.ExtractFileRequest{Path: path}
	if out, ok := args["output_path"].(string); ok {
		req.OutputPath = out
	}

	result, err := s.service.ExtractFile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatExtractFileResult(result)), nil
}

func (s *Server) handleExtractDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	req := pipeline.ExtractDirectoryRequest{}
	if dir, ok := args["directory"].(string); ok {
		req.Directory = dir
	}
	if rec, ok := args["recursive"].(bool); ok {
		req.Recursive = rec
	}
	if out, ok := args["output_path"].(string); ok {
		req.OutputPath = out
	}

	result, err := s.service.ExtractDirectory(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatExtractDirectoryResult(result)), nil
}

func (s *Server) handleTranslateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tablePath, err := request.RequireString("table_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	req := pipeline.TranslateFileRequest{Path: path, TablePath: tablePath}
	if out, ok := args["output_path"].(string); ok {
		req.OutputPath = out
	}

	result, err := s.service.TranslateFile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Translated drawing: %s\n", result.Path)
	responseText += fmt.Sprintf("Output: %s\n", result.OutputPath)
	responseText += formatOutcome(result.Summary)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleTranslateDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	tablePath, err := request.RequireString("table_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	req := pipeline.TranslateDirectoryRequest{TablePath: tablePath}
	if dir, ok := args["directory"].(string); ok {
		req.Directory = dir
	}
	if rec, ok := args["recursive"].(bool); ok {
		req.Recursive = rec
	}

	result, err := s.service.TranslateDirectory(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatTranslateDirectoryResult(result)), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ValidateFile(pipeline.ValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("DXF file %s is valid and readable\n", result.Path)
		responseText += fmt.Sprintf("Size: %d bytes\n", result.SizeByte)
		responseText += fmt.Sprintf("Paper-space layouts: %d\n", result.Layouts)
		responseText += fmt.Sprintf("Block definitions: %d\n", result.Blocks)
		responseText += fmt.Sprintf("Text-bearing entities: %d", result.Entities)
	} else {
		responseText = fmt.Sprintf("DXF validation failed for %s: %s", result.Path, result.Message)
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.ServerInfo(pipeline.ServerInfoRequest{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("%s v%s - Server Information\n", result.Name, result.Version)
	text += fmt.Sprintf("Drawing directory: %s\n", result.DrawingDirectory)
	text += fmt.Sprintf("Drawings found: %d\n", result.DrawingCount)
	text += fmt.Sprintf("Max file size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += "\nAvailable tools: dxf_extract_file, dxf_extract_directory, dxf_translate_file, " +
		"dxf_translate_directory, dxf_validate_file, dxf_server_info"
	return mcp.NewToolResultText(text), nil
}

// Formatting methods
func (s *Server) formatExtractFileResult(result *pipeline.ExtractFileResult) string {
	text := fmt.Sprintf("Extracted text from: %s\n", result.Path)
	text += fmt.Sprintf("Strings found: %d\n", len(result.Texts))
	if result.Degraded {
		text += "NOTE: structured parsing failed; results come from the raw record scan and carry no provenance.\n"
	}
	if result.OutputPath != "" {
		text += fmt.Sprintf("Worksheet written to: %s\n", result.OutputPath)
	}
	if len(result.Texts) > 0 {
		text += "\nStrings:\n"
		for i, t := range result.Texts {
			text += fmt.Sprintf("%d. %s\n", i+1, t)
		}
	}
	return text
}

func (s *Server) formatExtractDirectoryResult(result *pipeline.ExtractDirectoryResult) string {
	text := fmt.Sprintf("Extracted text from %d drawing(s) in: %s\n", result.Files, result.Directory)
	text += fmt.Sprintf("Unique strings: %d\n", len(result.Texts))
	if len(result.FailedFiles) > 0 {
		text += fmt.Sprintf("Unreadable drawings: %s\n", strings.Join(result.FailedFiles, ", "))
	}
	if result.OutputPath != "" {
		text += fmt.Sprintf("Worksheet written to: %s\n", result.OutputPath)
	}
	if len(result.Texts) > 0 {
		text += "\nStrings:\n"
		for i, t := range result.Texts {
			text += fmt.Sprintf("%d. %s\n", i+1, t)
		}
	}
	return text
}

func (s *Server) formatTranslateDirectoryResult(result *pipeline.TranslateDirectoryResult) string {
	sum := result.Summary
	text := fmt.Sprintf("Translated %d of %d drawing(s) in: %s\n", sum.Succeeded, sum.Files, result.Directory)
	if sum.Failed > 0 {
		text += fmt.Sprintf("Failed drawings: %s\n", strings.Join(sum.FailedPaths, ", "))
	}
	text += formatOutcome(sum.Totals)
	return text
}

func formatOutcome(o translate.Outcome) string {
	return fmt.Sprintf("Entities processed: %d\nTranslated: %d\nSkipped: %d\nErrors: %d\n",
		o.Processed, o.Translated, o.Skipped, o.Errors)
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Debug("starting DXF MCP server in stdio mode",
		"directory", s.config.DrawingDirectory)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server over streamable HTTP
func (s *Server) runServerMode(_ context.Context) error {
	s.logger.Info("starting DXF MCP server over HTTP", "address", s.config.Address())

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	if err := httpServer.Start(s.config.Address()); err != nil {
		return fmt.Errorf("failed to serve http: %w", err)
	}
	return nil
}
