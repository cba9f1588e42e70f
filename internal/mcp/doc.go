// Package mcp implements the Model Context Protocol (MCP) server for patternrank.
//
// The MCP server exposes three tools to agents that design UI components:
//   - retrieve_patterns: Rank corpus patterns against component requirements
//   - index_corpus: Embed the corpus into the vector index
//   - get_status: Report corpus size, provider and index health
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport. stdout carries
// protocol messages only; logs go to stderr.
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	patternrank serve
//
// # Tool: retrieve_patterns
//
//	Request:
//	{
//	  "name": "retrieve_patterns",
//	  "arguments": {
//	    "requirements": {
//	      "component_type": "Button",
//	      "props": ["variant", "size"],
//	      "variants": ["primary"]
//	    },
//	    "limit": 3
//	  }
//	}
//
//	Response:
//	{
//	  "request_id": "3f0c...",
//	  "results": [
//	    {
//	      "pattern_id": "button",
//	      "final_score": 1,
//	      "final_rank": 1,
//	      "confidence": 0.95,
//	      "rationale": "Exact component type match: Button. Supports requested props variant and size. Offers variants primary.",
//	      "matched_props": ["variant", "size"],
//	      "matched_variants": ["primary"],
//	      "ranking_details": {"lexical_rank": 1, "semantic_rank": 1, ...}
//	    }
//	  ],
//	  "degraded": false,
//	  "semantic_status": "ok"
//	}
//
// When the semantic leg fails and the policy is degrade, the ranking is
// keyword only and "degraded" is true. With policy require_hybrid the call
// fails with one of the error codes below.
//
// # Error Codes
//
//	-32602  Invalid parameters
//	-32603  Internal error
//	-32002  Indexing already in progress
//	-32003  Corpus not indexed (collection missing)
//	-32004  Empty requirements
//	-32005  Semantic retrieval unavailable
//	-32006  Semantic retrieval disabled
package mcp
