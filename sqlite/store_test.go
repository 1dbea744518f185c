package sqlite_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarwowski/docdex"
	"github.com/akarwowski/docdex/flock"
	"github.com/akarwowski/docdex/mock"
	"github.com/akarwowski/docdex/sqlite"
)

// vocab drives the deterministic test embedder: each dimension counts
// occurrences of one vocabulary word, so texts sharing words score high.
var vocab = []string{"alpha", "beta", "gamma"}

func testEmbedder() *mock.Embedder {
	embed := func(text string) []float32 {
		vec := make([]float32, len(vocab))
		words := strings.Fields(strings.ToLower(text))
		for i, term := range vocab {
			for _, w := range words {
				if w == term {
					vec[i]++
				}
			}
		}
		return vec
	}
	return &mock.Embedder{
		EmbedFn: func(_ context.Context, text string) ([]float32, error) {
			return embed(text), nil
		},
	}
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	dir := t.TempDir()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })

	locker, err := flock.New(dir, "test")
	require.NoError(t, err)

	return sqlite.NewStore(db, testEmbedder(), locker)
}

func TestStore_AddDocuments(t *testing.T) {
	t.Parallel()

	t.Run("MismatchedLengths", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		_, err := s.AddDocuments(context.Background(),
			[]string{"alpha", "beta"},
			[]map[string]any{{"source": "a"}},
			[]string{"1", "2"},
		)
		require.Error(t, err)
		assert.Equal(t, docdex.EINVALID, docdex.ErrorCode(err))
	})

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		n, err := s.AddDocuments(context.Background(), nil, nil, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("UpsertIsIdempotent", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		ctx := context.Background()

		texts := []string{"alpha one", "beta two"}
		metas := []map[string]any{{"source": "s1"}, {"source": "s1"}}
		ids := []string{"doc-1", "doc-2"}

		n, err := s.AddDocuments(ctx, texts, metas, ids)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		texts[0] = "alpha one revised"
		n, err = s.AddDocuments(ctx, texts, metas, ids)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalChunks)

		results, err := s.Search(ctx, "alpha one revised", 1, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "alpha one revised", results[0].Content)
	})

	t.Run("SkipsEmptyTexts", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		ctx := context.Background()

		n, err := s.AddDocuments(ctx,
			[]string{"alpha", "", "beta"},
			[]map[string]any{nil, nil, nil},
			[]string{"1", "2", "3"},
		)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("GeneratesIDsWhenMissing", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		ctx := context.Background()

		n, err := s.AddDocuments(ctx,
			[]string{"alpha", "beta"},
			[]map[string]any{{"source": "s1"}, {"source": "s1"}},
			[]string{"", ""},
		)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalChunks)
	})

	t.Run("SanitizesNilMetadataValues", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		ctx := context.Background()

		_, err := s.AddDocuments(ctx,
			[]string{"alpha content"},
			[]map[string]any{{"source": "docs", "title": nil}},
			[]string{"doc-1"},
		)
		require.NoError(t, err)

		results, err := s.Search(ctx, "alpha content", 1, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "", results[0].Metadata["title"])
		assert.Equal(t, "docs", results[0].Metadata["source"])
	})

	t.Run("StripsNullBytes", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		ctx := context.Background()

		_, err := s.AddDocuments(ctx,
			[]string{"alpha\x00content"},
			[]map[string]any{{"source": "docs"}},
			[]string{"doc-1"},
		)
		require.NoError(t, err)

		results, err := s.Search(ctx, "alpha content", 1, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.NotContains(t, results[0].Content, "\x00")
	})
}

func TestStore_Search(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, s *sqlite.Store) {
		t.Helper()
		_, err := s.AddDocuments(context.Background(),
			[]string{"alpha alpha alpha", "alpha beta", "beta beta", "gamma"},
			[]map[string]any{
				{"source": "s1", "doc_type": "documentation"},
				{"source": "s1", "doc_type": "api"},
				{"source": "s2", "doc_type": "documentation"},
				{"source": "s2", "doc_type": "code"},
			},
			[]string{"1", "2", "3", "4"},
		)
		require.NoError(t, err)
	}

	t.Run("RanksByDescendingScore", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		seed(t, s)

		results, err := s.Search(context.Background(), "alpha alpha alpha", 4, nil)
		require.NoError(t, err)
		require.NotEmpty(t, results)

		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		}
		assert.Equal(t, "alpha alpha alpha", results[0].Content)
	})

	t.Run("ScoresWithinUnitInterval", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		seed(t, s)

		results, err := s.Search(context.Background(), "alpha beta gamma", 4, nil)
		require.NoError(t, err)
		for _, r := range results {
			assert.GreaterOrEqual(t, r.Score, 0.0)
			assert.LessOrEqual(t, r.Score, 1.0)
		}
	})

	t.Run("RespectsK", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		seed(t, s)

		results, err := s.Search(context.Background(), "alpha beta", 2, nil)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("CapsOversizedK", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		seed(t, s)

		results, err := s.Search(context.Background(), "alpha beta", 10_000, nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(results), docdex.MaxSearchResults)
	})

	t.Run("EmptyQueryOnEmptyStore", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)

		results, err := s.Search(context.Background(), "", 5, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.NotNil(t, results)
	})

	t.Run("FilterBySource", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		seed(t, s)

		results, err := s.Search(context.Background(), "alpha beta gamma", 10,
			&docdex.SearchFilter{Source: "s2"})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Equal(t, "s2", r.Metadata["source"])
		}
	})

	t.Run("FilterByDocType", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t)
		seed(t, s)

		results, err := s.Search(context.Background(), "alpha beta gamma", 10,
			&docdex.SearchFilter{DocType: "api"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "alpha beta", results[0].Content)
	})

	t.Run("EmbeddingFailureDegradesToEmpty", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		db := sqlite.NewDB(":memory:")
		require.NoError(t, db.Open())
		t.Cleanup(func() { db.Close() })

		locker, err := flock.New(dir, "test")
		require.NoError(t, err)

		embedder := &mock.Embedder{
			EmbedFn: func(context.Context, string) ([]float32, error) {
				return nil, docdex.Errorf(docdex.EINVALID, "embedding rejected")
			},
		}
		s := sqlite.NewStore(db, embedder, locker)

		results, err := s.Search(context.Background(), "alpha", 5, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestStore_Stats(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalChunks)
	assert.Empty(t, stats.Sources)

	_, err = s.AddDocuments(ctx,
		[]string{"alpha", "beta", "gamma"},
		[]map[string]any{{"source": "s1"}, {"source": "s1"}, {"source": "s2"}},
		[]string{"1", "2", "3"},
	)
	require.NoError(t, err)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, map[string]int{"s1": 2, "s2": 1}, stats.Sources)
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddDocuments(ctx,
		[]string{"alpha", "beta"},
		[]map[string]any{{"source": "s1"}, {"source": "s1"}},
		[]string{"1", "2"},
	)
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalChunks)
}

func TestStore_QuotaErrorAborts(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })

	locker, err := flock.New(dir, "test")
	require.NoError(t, err)

	var calls int
	embedder := &mock.Embedder{
		EmbedBatchFn: func(context.Context, []string) ([][]float32, error) {
			calls++
			return nil, docdex.Errorf(docdex.EQUOTA, "embedding quota exhausted")
		},
	}
	s := sqlite.NewStore(db, embedder, locker)

	n, err := s.AddDocuments(context.Background(),
		[]string{"alpha", "beta"},
		[]map[string]any{{"source": "s1"}, {"source": "s1"}},
		[]string{"1", "2"},
	)
	require.Error(t, err)
	assert.Equal(t, docdex.EQUOTA, docdex.ErrorCode(err))
	assert.Zero(t, n)
	assert.Equal(t, 1, calls, "quota errors must not be retried")
}
