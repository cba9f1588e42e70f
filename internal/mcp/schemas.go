package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/patternrank/internal/searcher"
)

// retrievePatternsTool returns the tool definition for retrieve_patterns
func retrievePatternsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "retrieve_patterns",
		Description: "Rank curated UI component patterns against structured component requirements, with an explanation per result",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"requirements": map[string]interface{}{
					"type":        "object",
					"description": "Structured description of the wanted component",
					"properties": map[string]interface{}{
						"component_type": map[string]interface{}{
							"type":        "string",
							"description": "Component type, e.g. Button or Card",
						},
						"props": map[string]interface{}{
							"description": "Wanted props: names, {name, type} objects, or a name to type map",
							"oneOf": []interface{}{
								map[string]interface{}{"type": "array"},
								map[string]interface{}{"type": "object"},
							},
						},
						"variants": map[string]interface{}{
							"type":        "array",
							"description": "Wanted variant names",
							"items":       map[string]interface{}{"type": "string"},
						},
						"a11y": map[string]interface{}{
							"type":        "array",
							"description": "Wanted accessibility features",
							"items":       map[string]interface{}{"type": "string"},
						},
						"states": map[string]interface{}{
							"type":        "array",
							"description": "Wanted interaction states",
							"items":       map[string]interface{}{"type": "string"},
						},
					},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     searcher.DefaultLimit,
					"minimum":     1,
					"maximum":     searcher.MaxLimit,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Retrieval strategy: hybrid (keyword + semantic), lexical (BM25 only), or semantic (embeddings only)",
					"enum":        []string{string(searcher.ModeHybrid), string(searcher.ModeLexical), string(searcher.ModeSemantic)},
				},
				"policy": map[string]interface{}{
					"type":        "string",
					"description": "On semantic failure: degrade to keyword ranking, or require_hybrid to fail the call",
					"enum":        []string{string(searcher.PolicyDegrade), string(searcher.PolicyRequireHybrid)},
				},
			},
			Required: []string{"requirements"},
		},
	}
}

// indexCorpusTool returns the tool definition for index_corpus
func indexCorpusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_corpus",
		Description: "Embed the loaded pattern corpus into the vector index so semantic retrieval can use it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"recreate": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, drop the collection before indexing (full rebuild)",
					"default":     false,
				},
				"batch_size": map[string]interface{}{
					"type":        "integer",
					"description": "Patterns per embedding request",
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report corpus size, embedding provider and vector index health",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
