// Package mcp provides an MCP (Model Context Protocol) server adapter for the engine.
// It lets AI assistants search the index and ask for query expansions.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrEmptyQuery is returned when a tool is invoked without a query.
var ErrEmptyQuery = errors.New("mcp: query is required")
