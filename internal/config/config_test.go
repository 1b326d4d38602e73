package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "storage", cfg.StorageDir)
	assert.Equal(t, 1800, cfg.Chunker.ChunkSize)
	require.NotNil(t, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, 200, *cfg.Chunker.ChunkOverlap)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "deepseek", cfg.Generator.Type)
	assert.Equal(t, "https://api.deepseek.com/v1", cfg.Generator.BaseURL)
	assert.Equal(t, 60, cfg.Generator.TimeoutSecs)
	assert.Equal(t, 20, cfg.Retrieval.TopK)
	require.NotNil(t, cfg.Retrieval.MMRLambda)
	assert.Equal(t, 0.5, *cfg.Retrieval.MMRLambda)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Len(t, cfg.Sources, 2)
	assert.NotEmpty(t, cfg.Expansion)
}

func TestIndexDir(t *testing.T) {
	cfg := &AppConfig{StorageDir: "data"}
	assert.Equal(t, filepath.Join("data", "index"), cfg.IndexDir())
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := writeConfig(t, `
storage_dir: /tmp/courtify
sources:
  - id: constitution
    path: corpus/constitution.txt
    format: text
generator:
  type: openai
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/courtify", cfg.StorageDir)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, 1800, cfg.Chunker.ChunkSize)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Generator.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Generator.APIKeyEnv)
	assert.Equal(t, "gpt-4o-mini", cfg.Generator.Model)
}

func TestLoadRejectsBadSource(t *testing.T) {
	path := writeConfig(t, `
sources:
  - id: constitution
    path: corpus/constitution.txt
    format: docx
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsSourceWithoutPath(t *testing.T) {
	path := writeConfig(t, `
sources:
  - id: constitution
    format: text
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadKeepsExplicitZeroLambda(t *testing.T) {
	path := writeConfig(t, `
retrieval:
  diversity: true
  mmr_lambda: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Retrieval.MMRLambda)
	assert.Equal(t, 0.0, *cfg.Retrieval.MMRLambda)
}

func TestLoadKeepsExplicitZeroOverlap(t *testing.T) {
	path := writeConfig(t, `
chunker:
  chunk_overlap: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, 0, *cfg.Chunker.ChunkOverlap)
}

func TestLoadRejectsBadLambda(t *testing.T) {
	path := writeConfig(t, `
retrieval:
  mmr_lambda: 1.5
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadGeminiDefaults(t *testing.T) {
	path := writeConfig(t, `
embedder:
  type: gemini
generator:
  type: gemini
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Embedder.Gemini)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Embedder.Gemini.APIKeyEnv)
	assert.Equal(t, "gemini-embedding-001", cfg.Embedder.Gemini.Model)
	require.NotNil(t, cfg.Generator.Gemini)
	assert.Equal(t, "gemini-1.5-flash", cfg.Generator.Gemini.Model)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "sources: [")
	_, err := Load(path)
	assert.Error(t, err)
}
