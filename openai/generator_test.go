package openai_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarwowski/docdex"
	"github.com/akarwowski/docdex/openai"
)

func TestGenerator_Generate_ReturnsErrorWhenQuestionEmpty(t *testing.T) {
	t.Parallel()

	g := openai.NewGenerator(nil) // nil client ok for this test

	_, err := g.Generate(context.Background(), "", []docdex.SearchResult{{Content: "docs"}})

	require.Error(t, err)
	assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
}

func TestGenerator_Generate_ReturnsErrorWhenNoContext(t *testing.T) {
	t.Parallel()

	g := openai.NewGenerator(nil)

	_, err := g.Generate(context.Background(), "what is this?", nil)

	require.Error(t, err)
	assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
}

func TestBuildUserPrompt(t *testing.T) {
	t.Parallel()

	results := []docdex.SearchResult{
		{
			Content:  "Use the client options to configure retries.",
			Metadata: map[string]string{"title": "Configuration"},
		},
	}

	prompt := openai.BuildUserPrompt(results, "how do I configure retries?")

	assert.Contains(t, prompt, "## Document: Configuration")
	assert.Contains(t, prompt, "Use the client options to configure retries.")
	assert.Contains(t, prompt, "Question: how do I configure retries?")
}
