package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

func newReadRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	}
}

func TestServer_handleStatsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stats as json", func(t *testing.T) {
		index := &mockIndexService{stats: &domain.IndexStats{UUID: "abc", DocCount: 3}}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Index: index})
		require.NoError(t, err)

		result, err := server.handleStatsResource(ctx, newReadRequest(statsURI))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, statsURI, result.Contents[0].URI)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"DocCount":3`)
		assert.Contains(t, result.Contents[0].Text, `"UUID":"abc"`)
	})

	t.Run("propagates errors", func(t *testing.T) {
		index := &mockIndexService{err: errors.New("closed")}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Index: index})
		require.NoError(t, err)

		_, err = server.handleStatsResource(ctx, newReadRequest(statsURI))
		assert.Error(t, err)
	})
}
