package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/patternrank/internal/app"
	"github.com/dshills/patternrank/internal/embedder"
	"github.com/dshills/patternrank/internal/indexer"
	"github.com/dshills/patternrank/internal/searcher"
	"github.com/dshills/patternrank/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams       = -32602 // Invalid method parameters
	ErrorCodeInternalError       = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress  = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed          = -32003 // Vector collection does not exist yet
	ErrorCodeEmptyRequirements   = -32004 // Requirements carry nothing to match on
	ErrorCodeSemanticUnavailable = -32005 // Hybrid required but the semantic leg failed
	ErrorCodeSemanticDisabled    = -32006 // Operation needs semantic retrieval which is off
)

// maxReportedErrors caps the per-batch errors echoed back by index_corpus
const maxReportedErrors = 5

// handleRetrievePatterns handles the retrieve_patterns tool invocation
func (s *Server) handleRetrievePatterns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	rawReq, ok := args["requirements"]
	if !ok || rawReq == nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "requirements parameter is required", map[string]interface{}{
			"param":  "requirements",
			"reason": "missing",
		})
	}

	req, err := parseRequirements(rawReq)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid requirements", map[string]interface{}{
			"param":  "requirements",
			"reason": err.Error(),
		})
	}
	if req.IsEmpty() {
		return nil, newMCPError(ErrorCodeEmptyRequirements, "requirements cannot be empty", map[string]interface{}{
			"param":  "requirements",
			"reason": "no component type, props, variants, a11y or states",
		})
	}

	limit := getIntDefault(args, "limit", s.app.Config.TopK)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", searcher.MaxLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	mode := searcher.Mode(getStringDefault(args, "mode", ""))
	policy := searcher.Policy(getStringDefault(args, "policy", ""))

	resp, err := s.app.Searcher.Search(ctx, searcher.SearchRequest{
		Requirements: req,
		Limit:        limit,
		Mode:         mode,
		Policy:       policy,
	})
	if err != nil {
		return nil, searchError(err)
	}

	return mcp.NewToolResultText(formatJSON(resp)), nil
}

// searchError maps a searcher failure onto an MCP error
func searchError(err error) error {
	data := map[string]interface{}{"error": err.Error()}
	switch {
	case errors.Is(err, searcher.ErrUnsupportedMode), errors.Is(err, searcher.ErrUnsupportedPolicy),
		errors.Is(err, searcher.ErrInvalidRequest):
		return newMCPError(ErrorCodeInvalidParams, "invalid search request", data)
	case errors.Is(err, types.ErrCollectionNotFound):
		return newMCPError(ErrorCodeNotIndexed, "corpus not indexed; use index_corpus first", data)
	case errors.Is(err, searcher.ErrSemanticDisabled):
		return newMCPError(ErrorCodeSemanticDisabled, "semantic retrieval is disabled", data)
	case errors.Is(err, types.ErrRetrievalUnavailable):
		return newMCPError(ErrorCodeSemanticUnavailable, "semantic retrieval unavailable", data)
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", data)
	}
}

// parseRequirements accepts the requirements object or its JSON encoding
// and normalizes props through types.Requirements
func parseRequirements(raw interface{}) (types.Requirements, error) {
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case map[string]interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return types.Requirements{}, err
		}
		data = b
	default:
		return types.Requirements{}, fmt.Errorf("expected object, got %T", raw)
	}

	var req types.Requirements
	if err := json.Unmarshal(data, &req); err != nil {
		return types.Requirements{}, err
	}
	return req, nil
}

// handleIndexCorpus handles the index_corpus tool invocation
func (s *Server) handleIndexCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		if request.Params.Arguments != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
		}
		args = map[string]interface{}{}
	}

	recreate := getBoolDefault(args, "recreate", false)
	batchSize := getIntDefault(args, "batch_size", 0)
	if batchSize < 0 || batchSize > embedder.MaxBatchSize {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("batch_size must be between 1 and %d", embedder.MaxBatchSize), map[string]interface{}{
			"param": "batch_size",
			"value": batchSize,
		})
	}

	stats, err := s.app.Index(ctx, recreate, batchSize)
	switch {
	case errors.Is(err, app.ErrSemanticDisabled):
		return nil, newMCPError(ErrorCodeSemanticDisabled, "semantic retrieval is disabled; nothing to index", nil)
	case errors.Is(err, indexer.ErrIndexingInProgress):
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":          stats.PatternsFailed == 0,
		"collection":       stats.Collection,
		"dimension":        stats.Dimension,
		"patterns_indexed": stats.PatternsIndexed,
		"patterns_failed":  stats.PatternsFailed,
		"batches":          stats.Batches,
		"duration_ms":      stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > maxReportedErrors {
			response["errors"] = stats.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatJSON(s.app.Status(ctx))), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
