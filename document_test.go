package docdex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarwowski/docdex"
)

func TestDocument_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		doc := &docdex.Document{Source: "react", Content: "Hooks let you use state."}
		require.NoError(t, doc.Validate())
	})

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()
		doc := &docdex.Document{Content: "content"}
		err := doc.Validate()
		require.Error(t, err)
		assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
	})

	t.Run("missing content", func(t *testing.T) {
		t.Parallel()
		doc := &docdex.Document{Source: "react"}
		err := doc.Validate()
		require.Error(t, err)
		assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
	})
}

func TestChunkMetadata_Map(t *testing.T) {
	t.Parallel()

	meta := docdex.ChunkMetadata{
		Source:      "react",
		Title:       "Hooks",
		URL:         "https://react.dev/hooks",
		DocType:     docdex.DocTypeDocumentation,
		ChunkIndex:  2,
		TotalChunks: 5,
		ChunkType:   docdex.ChunkTypeText,
	}

	m := meta.Map()

	assert.Equal(t, "react", m["source"])
	assert.Equal(t, "Hooks", m["title"])
	assert.Equal(t, "https://react.dev/hooks", m["url"])
	assert.Equal(t, docdex.DocTypeDocumentation, m["doc_type"])
	assert.Equal(t, 2, m["chunk_index"])
	assert.Equal(t, 5, m["total_chunks"])
	assert.Equal(t, docdex.ChunkTypeText, m["chunk_type"])
}
