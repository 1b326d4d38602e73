package vectorstore

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratszszszzz/Courtify/internal/domain"
)

func TestSaveOpenRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	emb := testEmbedder()

	built, err := Build(context.Background(), testChunks(), emb)
	require.NoError(t, err)
	require.NoError(t, Save(dir, built, emb))

	loaded, err := Open(dir, emb)
	require.NoError(t, err)
	assert.Equal(t, built.Model(), loaded.Model())
	assert.Equal(t, built.Count(), loaded.Count())

	query := []float32{1, 0, 0}
	want, err := built.Search(query, 3)
	require.NoError(t, err)
	got, err := loaded.Search(query, 3)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Chunk, got[i].Chunk)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-6)
	}
}

func TestSaveReplacesExistingIndexAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	emb := testEmbedder()

	first, err := Build(context.Background(), testChunks()[:1], emb)
	require.NoError(t, err)
	require.NoError(t, Save(dir, first, emb))

	second, err := Build(context.Background(), testChunks(), emb)
	require.NoError(t, err)
	require.NoError(t, Save(dir, second, emb))

	loaded, err := Open(dir, emb)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Count())

	_, err = os.Stat(dir + ".tmp")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir + ".old")
	assert.True(t, os.IsNotExist(err))
}

func TestOpenModelMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	emb := testEmbedder()

	built, err := Build(context.Background(), testChunks(), emb)
	require.NoError(t, err)
	require.NoError(t, Save(dir, built, emb))

	other := testEmbedder()
	other.model = "fake-v2"
	_, err = Open(dir, other)
	assert.True(t, errors.Is(err, ErrModelMismatch))
}

func TestOpenMissingIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	_, err := Open(dir, testEmbedder())
	assert.True(t, errors.Is(err, domain.ErrIndexCorrupt))
}

func TestOpenTruncatedVectors(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	emb := testEmbedder()

	built, err := Build(context.Background(), testChunks(), emb)
	require.NoError(t, err)
	require.NoError(t, Save(dir, built, emb))

	path := filepath.Join(dir, vectorsFile)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o644))

	_, err = Open(dir, emb)
	assert.True(t, errors.Is(err, domain.ErrIndexCorrupt))
}

func TestOpenRejectsOversizedCountHeader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	emb := testEmbedder()

	built, err := Build(context.Background(), testChunks(), emb)
	require.NoError(t, err)
	require.NoError(t, Save(dir, built, emb))

	path := filepath.Join(dir, vectorsFile)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	modelLen := int(binary.LittleEndian.Uint16(data[4:6]))
	countOff := 4 + 2 + modelLen + 4
	binary.LittleEndian.PutUint32(data[countOff:], 0xFFFFFFFF)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(dir, emb)
	assert.True(t, errors.Is(err, domain.ErrIndexCorrupt))
}

func TestOpenMissingChunkStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	emb := testEmbedder()

	built, err := Build(context.Background(), testChunks(), emb)
	require.NoError(t, err)
	require.NoError(t, Save(dir, built, emb))
	require.NoError(t, os.Remove(filepath.Join(dir, chunksFile)))

	_, err = Open(dir, emb)
	assert.True(t, errors.Is(err, domain.ErrIndexCorrupt))
}

func TestExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	assert.False(t, Exists(dir))

	emb := testEmbedder()
	built, err := Build(context.Background(), testChunks(), emb)
	require.NoError(t, err)
	require.NoError(t, Save(dir, built, emb))
	assert.True(t, Exists(dir))
}
