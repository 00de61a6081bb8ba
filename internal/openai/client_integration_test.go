//go:build integration

package openai

import (
	"context"
	"os"
	"testing"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_Embed_RealAPI(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	client := NewClient(apiKey)
	ctx := context.Background()

	embedding, err := client.Embed(ctx, "Monthly inspection checklist for dry riser outlets.")

	require.NoError(t, err)
	assert.False(t, embedding.IsZero())
	assert.Len(t, embedding.Slice(), domain.EmbeddingDim)
}
