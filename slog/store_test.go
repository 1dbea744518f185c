package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarwowski/docdex"
	"github.com/akarwowski/docdex/mock"
	docslog "github.com/akarwowski/docdex/slog"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingStore_AddDocuments(t *testing.T) {
	t.Parallel()

	t.Run("logs counts and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Store{
			AddDocumentsFn: func(context.Context, []string, []map[string]any, []string) (int, error) {
				return 2, nil
			},
		}

		store := docslog.NewLoggingStore(inner, debugLogger(&buf))
		added, err := store.AddDocuments(context.Background(),
			[]string{"a", "b"}, []map[string]any{nil, nil}, []string{"1", "2"})

		require.NoError(t, err)
		assert.Equal(t, 2, added)
		output := buf.String()
		assert.Contains(t, output, "store add")
		assert.Contains(t, output, "requested=2")
		assert.Contains(t, output, "added=2")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Store{
			AddDocumentsFn: func(context.Context, []string, []map[string]any, []string) (int, error) {
				return 0, docdex.Errorf(docdex.EINTERNAL, "write failed")
			},
		}

		store := docslog.NewLoggingStore(inner, debugLogger(&buf))
		_, err := store.AddDocuments(context.Background(), []string{"a"}, []map[string]any{nil}, []string{"1"})

		require.Error(t, err)
		assert.Contains(t, buf.String(), "write failed")
	})
}

func TestLoggingStore_Search(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.Store{
		SearchFn: func(context.Context, string, int, *docdex.SearchFilter) ([]docdex.SearchResult, error) {
			return []docdex.SearchResult{{Content: "a"}}, nil
		},
	}

	store := docslog.NewLoggingStore(inner, debugLogger(&buf))
	results, err := store.Search(context.Background(), "query terms", 5, nil)

	require.NoError(t, err)
	assert.Len(t, results, 1)
	output := buf.String()
	assert.Contains(t, output, "store search")
	assert.Contains(t, output, "k=5")
	assert.Contains(t, output, "count=1")
}

func TestLoggingRetriever_Retrieve(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.Retriever{
		RetrieveFn: func(context.Context, string) ([]docdex.SearchResult, error) {
			return []docdex.SearchResult{{Content: "a"}, {Content: "b"}}, nil
		},
	}

	r := docslog.NewLoggingRetriever(inner, debugLogger(&buf))
	results, err := r.Retrieve(context.Background(), "how do I")

	require.NoError(t, err)
	assert.Len(t, results, 2)
	output := buf.String()
	assert.Contains(t, output, "retrieve")
	assert.Contains(t, output, "count=2")
}
