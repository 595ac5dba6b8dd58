package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/feedback"
	"github.com/nursing-narrative-mcp-server/internal/service"
)

// NarrativeParams is the input shared by the classify, extract, draft and compose tools.
type NarrativeParams struct {
	Narrative string `json:"narrative"`
	Format    string `json:"format,omitempty"`
	UnitType  string `json:"unit_type,omitempty"`
}

func (p NarrativeParams) request() service.DraftRequest {
	return service.DraftRequest{Narrative: p.Narrative, Format: p.Format, UnitType: p.UnitType}
}

// ListFormatsParams takes no arguments.
type ListFormatsParams struct{}

// FormatsResult defines the result structure for the list_formats tool
type FormatsResult struct {
	Formats []service.FormatDescriptor `json:"formats"`
}

// RecordFeedbackParams defines parameters for the record_format_feedback tool
type RecordFeedbackParams struct {
	Narrative       string `json:"narrative"`
	UnitType        string `json:"unit_type,omitempty"`
	CorrectedFormat string `json:"corrected_format"`
	Notes           string `json:"notes,omitempty"`
}

// ListFeedbackParams defines parameters for the list_feedback tool
type ListFeedbackParams struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ListFeedbackResult defines the result structure for the list_feedback tool
type ListFeedbackResult struct {
	Feedback  []*feedback.Feedback `json:"feedback"`
	Total     int64                `json:"total"`
	Agreement []AgreementSummary   `json:"agreement"`
}

// AgreementSummary reports reviewer agreement for one detected format.
type AgreementSummary struct {
	Format domain.FormatID `json:"format"`
	Total  int64           `json:"total"`
	Agreed int64           `json:"agreed"`
	Rate   float64         `json:"rate"`
}

// ExportFeedbackParams defines parameters for the export_feedback tool
type ExportFeedbackParams struct {
	FileName string `json:"file_name,omitempty"`
}

// ImportFeedbackParams defines parameters for the import_feedback tool
type ImportFeedbackParams struct {
	FileName string `json:"file_name"`
}

// TransferResult reports the outcome of an export or import.
type TransferResult struct {
	Path     string `json:"path"`
	Imported int    `json:"imported,omitempty"`
	Skipped  int    `json:"skipped,omitempty"`
}

func (s *Server) handleClassifyNarrative(ctx context.Context, req *mcp.CallToolRequest, params NarrativeParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "classify_narrative").Info("Tool invoked")

	detected, err := s.narratives.Classify(params.request())
	if err != nil {
		return s.toolError(err), nil, nil
	}
	return s.jsonResult(fmt.Sprintf("Detected format %s (confidence %.2f)", detected.Format, detected.Confidence), detected)
}

func (s *Server) handleExtractFields(ctx context.Context, req *mcp.CallToolRequest, params NarrativeParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "extract_fields").Info("Tool invoked")

	fields, err := s.narratives.Extract(params.request())
	if err != nil {
		return s.toolError(err), nil, nil
	}
	return s.jsonResult(fmt.Sprintf("Extracted %d vital signs and %d medications", len(fields.VitalSigns), len(fields.Medications)), fields)
}

func (s *Server) handleDraftNote(ctx context.Context, req *mcp.CallToolRequest, params NarrativeParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "draft_note").Info("Tool invoked")

	result, err := s.narratives.Draft(ctx, params.request())
	if err != nil {
		return s.toolError(err), nil, nil
	}
	summary := fmt.Sprintf("Drafted %s note with %d sections", result.Draft.Format, len(result.Draft.Sections))
	if !result.Draft.ReadyForReview {
		summary += " (not ready to finalize)"
	}
	return s.jsonResult(summary, result)
}

func (s *Server) handleComposeNote(ctx context.Context, req *mcp.CallToolRequest, params NarrativeParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "compose_note").Info("Tool invoked")

	note, err := s.narratives.Compose(ctx, params.request())
	if err != nil {
		return s.toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: note.Body},
		},
	}, note, nil
}

func (s *Server) handleListFormats(ctx context.Context, req *mcp.CallToolRequest, params ListFormatsParams) (*mcp.CallToolResult, any, error) {
	formats := s.narratives.Formats()
	return s.jsonResult(fmt.Sprintf("%d documentation formats available", len(formats)), FormatsResult{Formats: formats})
}

func (s *Server) handleRecordFeedback(ctx context.Context, req *mcp.CallToolRequest, params RecordFeedbackParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "record_format_feedback").Info("Tool invoked")

	fb, err := s.narratives.RecordFeedback(ctx, service.FeedbackRequest{
		Narrative:       params.Narrative,
		UnitType:        params.UnitType,
		CorrectedFormat: params.CorrectedFormat,
		Notes:           params.Notes,
	})
	if err != nil {
		return s.toolError(err), nil, nil
	}

	verdict := "disagreed with"
	if fb.Agreed {
		verdict = "agreed with"
	}
	return s.jsonResult(fmt.Sprintf("Reviewer %s detected format %s", verdict, fb.DetectedFormat), fb)
}

func (s *Server) handleListFeedback(ctx context.Context, req *mcp.CallToolRequest, params ListFeedbackParams) (*mcp.CallToolResult, any, error) {
	list, total, err := s.narratives.ListFeedback(ctx, params.Limit, params.Offset)
	if err != nil {
		return s.toolError(err), nil, nil
	}
	agreement, err := s.narratives.FeedbackAgreement(ctx)
	if err != nil {
		return s.toolError(err), nil, nil
	}

	result := ListFeedbackResult{Feedback: list, Total: total, Agreement: make([]AgreementSummary, 0, len(agreement))}
	for _, a := range agreement {
		result.Agreement = append(result.Agreement, AgreementSummary{
			Format: a.Format,
			Total:  a.Total,
			Agreed: a.Agreed,
			Rate:   a.Rate(),
		})
	}
	return s.jsonResult(fmt.Sprintf("%d of %d verdicts", len(list), total), result)
}

func (s *Server) handleExportFeedback(ctx context.Context, req *mcp.CallToolRequest, params ExportFeedbackParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "export_feedback").Info("Tool invoked")

	name := params.FileName
	if name == "" {
		name = fmt.Sprintf("feedback-%s.json", time.Now().UTC().Format("20060102-150405"))
	}
	path, err := s.exportPath(name)
	if err != nil {
		return s.createErrorResult("Invalid file name", err), nil, nil
	}

	var buf bytes.Buffer
	if err := s.narratives.ExportFeedback(ctx, &buf); err != nil {
		return s.toolError(err), nil, nil
	}
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return s.createErrorResult("Failed to create export directory", err), nil, nil
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return s.createErrorResult("Failed to write export file", err), nil, nil
	}
	return s.jsonResult("Exported feedback to "+path, TransferResult{Path: path})
}

func (s *Server) handleImportFeedback(ctx context.Context, req *mcp.CallToolRequest, params ImportFeedbackParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "import_feedback").Info("Tool invoked")

	if params.FileName == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("file_name is required")), nil, nil
	}
	path, err := s.exportPath(params.FileName)
	if err != nil {
		return s.createErrorResult("Invalid file name", err), nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return s.createErrorResult("Failed to open import file", err), nil, nil
	}
	defer f.Close()

	imported, skipped, err := s.narratives.ImportFeedback(ctx, f)
	if err != nil {
		return s.toolError(err), nil, nil
	}
	return s.jsonResult(fmt.Sprintf("Imported %d verdicts, skipped %d", imported, skipped),
		TransferResult{Path: path, Imported: imported, Skipped: skipped})
}

// exportPath confines name to the export directory.
func (s *Server) exportPath(name string) (string, error) {
	if s.exportDir == "" {
		return "", fmt.Errorf("export directory not configured")
	}
	base := filepath.Base(name)
	if base != name || base == "." || base == ".." || strings.HasPrefix(base, ".") {
		return "", fmt.Errorf("%q must be a plain file name", name)
	}
	return filepath.Join(s.exportDir, base), nil
}

// jsonResult renders v as indented JSON beneath a one-line summary.
func (s *Server) jsonResult(summary string, v any) (*mcp.CallToolResult, any, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s.createErrorResult("Failed to encode result", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary + "\n\n" + string(payload)},
		},
	}, v, nil
}

// toolError maps service errors onto tool error results.
func (s *Server) toolError(err error) *mcp.CallToolResult {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return s.createErrorResult(domain.ErrValidation, err)
	case errors.Is(err, domain.ErrEmptyNarrative), errors.Is(err, domain.ErrInvalidFormat):
		return s.createErrorResult(domain.ErrInvalidInput, err)
	case errors.Is(err, domain.ErrNotFound):
		return s.createErrorResult(domain.ErrNotFoundCode, err)
	case errors.Is(err, service.ErrFeedbackDisabled):
		return s.createErrorResult(domain.ErrStorage, err)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return s.createErrorResult(domain.ErrUpstream, err)
	}
	s.logger.WithError(err).Error("Tool call failed")
	return s.createErrorResult(domain.ErrInternalServer, nil)
}

// createErrorResult creates a standardized error result for tool calls
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
