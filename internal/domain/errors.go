package domain

import "errors"

// Error taxonomy of the pipeline. Ingestion-time errors abort the build
// CLI with a non-zero exit; query-time errors surface to the caller as a
// degraded response. ErrGenerationTimeout is the only category with a
// designed-in recovery path (the extractive fallback).
var (
	ErrSourceNotFound       = errors.New("corpus source not found")
	ErrExtractionFailed     = errors.New("text extraction produced no content")
	ErrInvalidChunkConfig   = errors.New("invalid chunk size/overlap configuration")
	ErrEmbeddingUnavailable = errors.New("embedding model unavailable")
	ErrEmptyCorpus          = errors.New("no chunks to index")
	ErrIndexCorrupt         = errors.New("persisted index is corrupt")
	ErrGeneration           = errors.New("answer generation failed")
	ErrGenerationTimeout    = errors.New("answer generation exceeded deadline")
)
