package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

const (
	defaultSearchLimit = 10
	defaultExpandTerms = 10
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query    string   `json:"query" jsonschema:"the search query; supports AND OR NOT, phrases and field:value"`
	Limit    int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Offset   int      `json:"offset,omitempty" jsonschema:"number of ranked results to skip"`
	Exclude  []uint32 `json:"exclude,omitempty" jsonschema:"document ids to leave out of the results"`
	Snippets bool     `json:"snippets,omitempty" jsonschema:"include highlighted extracts"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results          []SearchResultOutput `json:"results"`
	Count            int                  `json:"count"`
	MatchesEstimated int                  `json:"matches_estimated"`
	Exact            bool                 `json:"exact"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID uint32  `json:"document_id"`
	Rank       int     `json:"rank"`
	Score      float64 `json:"score"`
	Percent    int     `json:"percent"`
	Content    string  `json:"content,omitempty"`
	Snippet    string  `json:"snippet,omitempty"`
}

// ExpandInput is the input schema for the expand tool.
type ExpandInput struct {
	Query    string   `json:"query" jsonschema:"the query whose top results seed the expansion"`
	MaxTerms int      `json:"max_terms,omitempty" jsonschema:"maximum number of terms to suggest (default 10)"`
	Relevant []uint32 `json:"relevant,omitempty" jsonschema:"document ids known to be relevant"`
}

// ExpandOutput is the output schema for the expand tool.
type ExpandOutput struct {
	Terms []ExpandTermOutput `json:"terms"`
}

// ExpandTermOutput is one suggested term.
type ExpandTermOutput struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the index and return ranked documents",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "expand",
		Description: "Suggest terms to broaden a query, learned from its best matches",
	}, s.handleExpand)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, ErrEmptyQuery
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	opts := domain.SearchOptions{
		Offset:     max(input.Offset, 0),
		Limit:      limit,
		ExcludeIDs: docIDs(input.Exclude),
		Snippets:   input.Snippets,
	}
	page, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:          make([]SearchResultOutput, len(page.Hits)),
		Count:            len(page.Hits),
		MatchesEstimated: page.MatchesEstimated,
		Exact:            page.Exact,
	}
	for i, hit := range page.Hits {
		output.Results[i] = SearchResultOutput{
			DocumentID: uint32(hit.DocID),
			Rank:       hit.Rank,
			Score:      hit.Weight,
			Percent:    hit.Percent,
			Content:    hit.Data,
			Snippet:    hit.Snippet,
		}
	}

	return nil, output, nil
}

// handleExpand handles the expand tool invocation.
func (s *Server) handleExpand(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExpandInput,
) (*mcp.CallToolResult, ExpandOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, ExpandOutput{}, ErrEmptyQuery
	}
	maxTerms := input.MaxTerms
	if maxTerms <= 0 {
		maxTerms = defaultExpandTerms
	}

	terms, err := s.ports.Search.Expand(ctx, input.Query, domain.ExpandOptions{
		MaxTerms:    maxTerms,
		RelevantIDs: docIDs(input.Relevant),
	})
	if err != nil {
		return nil, ExpandOutput{}, err
	}

	output := ExpandOutput{Terms: make([]ExpandTermOutput, len(terms))}
	for i, t := range terms {
		output.Terms[i] = ExpandTermOutput{Term: t.Term, Weight: t.Weight}
	}
	return nil, output, nil
}

func docIDs(ids []uint32) []domain.DocID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]domain.DocID, len(ids))
	for i, id := range ids {
		out[i] = domain.DocID(id)
	}
	return out
}
