package vectorstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pratszszszzz/Courtify/internal/domain"
)

func testBuildFunc(calls *int, chunks []domain.Chunk) BuildFunc {
	return func(ctx context.Context) ([]domain.Chunk, error) {
		*calls++
		out := make([]domain.Chunk, len(chunks))
		copy(out, chunks)
		return out, nil
	}
}

func TestServiceBuildsWhenMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	calls := 0
	svc := NewService(dir, testEmbedder(), testBuildFunc(&calls, testChunks()), zap.NewNop())

	ix, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Count())
	assert.Equal(t, 1, calls)
	assert.True(t, Exists(dir))
}

func TestServiceGetIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	calls := 0
	svc := NewService(dir, testEmbedder(), testBuildFunc(&calls, testChunks()), zap.NewNop())

	first, err := svc.Get(context.Background())
	require.NoError(t, err)
	second, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestServiceLoadsPersistedIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	emb := testEmbedder()
	built, err := Build(context.Background(), testChunks(), emb)
	require.NoError(t, err)
	require.NoError(t, Save(dir, built, emb))

	calls := 0
	svc := NewService(dir, testEmbedder(), testBuildFunc(&calls, testChunks()), zap.NewNop())
	ix, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Count())
	assert.Equal(t, 0, calls, "loading from disk must not rebuild")
}

func TestServiceRebuildsOnModelMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	stale := testEmbedder()
	stale.model = "fake-v0"
	built, err := Build(context.Background(), testChunks(), stale)
	require.NoError(t, err)
	require.NoError(t, Save(dir, built, stale))

	calls := 0
	svc := NewService(dir, testEmbedder(), testBuildFunc(&calls, testChunks()), zap.NewNop())
	ix, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fake-v1", ix.Model())
	assert.Equal(t, 1, calls)
}

func TestServiceRebuildForced(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	calls := 0
	svc := NewService(dir, testEmbedder(), testBuildFunc(&calls, testChunks()), zap.NewNop())

	_, err := svc.Get(context.Background())
	require.NoError(t, err)
	_, err = svc.Rebuild(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "non-forced rebuild with loadable index is a no-op")

	_, err = svc.Rebuild(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestServiceBuildErrorPropagates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	svc := NewService(dir, testEmbedder(), func(ctx context.Context) ([]domain.Chunk, error) {
		return nil, nil
	}, zap.NewNop())

	_, err := svc.Get(context.Background())
	assert.True(t, errors.Is(err, domain.ErrEmptyCorpus))
}

func TestServiceStatus(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	calls := 0
	svc := NewService(dir, testEmbedder(), testBuildFunc(&calls, testChunks()), zap.NewNop())

	st := svc.Status()
	assert.False(t, st.Ready)
	assert.Equal(t, dir, st.Path)

	_, err := svc.Get(context.Background())
	require.NoError(t, err)

	st = svc.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, "fake-v1", st.Model)
}
