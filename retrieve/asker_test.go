package retrieve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarwowski/docdex"
	"github.com/akarwowski/docdex/cache"
	"github.com/akarwowski/docdex/mock"
)

func fixedRetriever(results ...docdex.SearchResult) *mock.Retriever {
	return &mock.Retriever{
		RetrieveFn: func(context.Context, string) ([]docdex.SearchResult, error) {
			return results, nil
		},
	}
}

func TestAsker_Ask(t *testing.T) {
	t.Parallel()

	t.Run("EmptyQuestion", func(t *testing.T) {
		t.Parallel()
		a := NewAsker(fixedRetriever(), &mock.Generator{}, nil)

		_, err := a.Ask(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
	})

	t.Run("NoContextFound", func(t *testing.T) {
		t.Parallel()
		a := NewAsker(fixedRetriever(), &mock.Generator{}, nil)

		_, err := a.Ask(context.Background(), "how do I configure retries")
		require.Error(t, err)
		assert.Equal(t, docdex.ENOTFOUND, docdex.ErrorCode(err))
	})

	t.Run("GeneratesFromRetrievedContext", func(t *testing.T) {
		t.Parallel()
		generator := &mock.Generator{
			GenerateFn: func(_ context.Context, question string, results []docdex.SearchResult) (string, error) {
				require.Len(t, results, 1)
				return "retries are configured via the client options", nil
			},
		}
		a := NewAsker(fixedRetriever(result("retry docs", "documentation", 0.9)), generator, nil)

		answer, err := a.Ask(context.Background(), "how do I configure retries")
		require.NoError(t, err)
		assert.Equal(t, "retries are configured via the client options", answer)
	})

	t.Run("CacheHitSkipsGenerator", func(t *testing.T) {
		t.Parallel()
		calls := 0
		generator := &mock.Generator{
			GenerateFn: func(context.Context, string, []docdex.SearchResult) (string, error) {
				calls++
				return "retries are configured via the client options", nil
			},
		}
		responses := cache.NewResponseCache(cache.WithResponseDir(t.TempDir()))
		a := NewAsker(fixedRetriever(result("retry docs", "documentation", 0.9)), generator, responses)

		ctx := context.Background()
		first, err := a.Ask(ctx, "how do I configure retries")
		require.NoError(t, err)

		second, err := a.Ask(ctx, "how do I configure retries")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("ShortAnswersAreNotCached", func(t *testing.T) {
		t.Parallel()
		calls := 0
		generator := &mock.Generator{
			GenerateFn: func(context.Context, string, []docdex.SearchResult) (string, error) {
				calls++
				return "no", nil
			},
		}
		responses := cache.NewResponseCache(cache.WithResponseDir(t.TempDir()))
		a := NewAsker(fixedRetriever(result("retry docs", "documentation", 0.9)), generator, responses)

		ctx := context.Background()
		_, err := a.Ask(ctx, "is this supported")
		require.NoError(t, err)
		_, err = a.Ask(ctx, "is this supported")
		require.NoError(t, err)

		assert.Equal(t, 2, calls)
	})

	t.Run("TokenCounterFailureIsNonFatal", func(t *testing.T) {
		t.Parallel()
		generator := &mock.Generator{
			GenerateFn: func(context.Context, string, []docdex.SearchResult) (string, error) {
				return "an answer long enough to cache", nil
			},
		}
		counter := &mock.TokenCounter{
			CountTokensFn: func(context.Context, string) (int, error) {
				return 0, docdex.Errorf(docdex.EUNAVAILABLE, "tokenizer offline")
			},
		}
		a := NewAsker(fixedRetriever(result("docs", "documentation", 0.9)), generator, nil,
			WithTokenCounter(counter))

		answer, err := a.Ask(context.Background(), "anything")
		require.NoError(t, err)
		assert.NotEmpty(t, answer)
	})
}
