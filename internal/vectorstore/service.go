package vectorstore

import (
	"context"
	"errors"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/pratszszszzz/Courtify/internal/domain"
)

// BuildFunc loads and chunks the corpus for a fresh index build.
type BuildFunc func(ctx context.Context) ([]domain.Chunk, error)

// Service owns the single on-disk index: it loads it once on first use,
// rebuilds it when missing or built with a stale embedding model, and
// serializes all of that behind one mutex so concurrent callers never
// trigger duplicate builds.
type Service struct {
	mu       sync.Mutex
	dir      string
	embedder domain.Embedder
	build    BuildFunc
	log      *zap.Logger
	idx      *Index
}

// Status describes the loaded index for diagnostics.
type Status struct {
	Ready bool   `json:"ready"`
	Path  string `json:"path"`
	Model string `json:"model,omitempty"`
	Count int    `json:"count"`
}

func NewService(dir string, emb domain.Embedder, build BuildFunc, log *zap.Logger) *Service {
	return &Service{dir: dir, embedder: emb, build: build, log: log}
}

// Get returns the index, loading it from disk or building it as needed.
// A model mismatch on disk triggers a rebuild; any other load failure is
// returned to the caller so a corrupt index is never silently discarded.
func (s *Service) Get(ctx context.Context) (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx)
}

func (s *Service) getLocked(ctx context.Context) (*Index, error) {
	if s.idx != nil {
		return s.idx, nil
	}
	if Exists(s.dir) {
		ix, err := Open(s.dir, s.embedder)
		if err == nil {
			s.log.Info("index loaded", zap.String("path", s.dir), zap.Int("chunks", ix.Count()))
			s.idx = ix
			return ix, nil
		}
		if !errors.Is(err, ErrModelMismatch) {
			return nil, err
		}
		s.log.Warn("index model mismatch, rebuilding", zap.Error(err))
	}
	return s.buildLocked(ctx)
}

// Rebuild refreshes the on-disk index. Without force it is a no-op when a
// loadable index already exists. With force the existing index is removed
// first, so a failed rebuild leaves no index until the next attempt.
func (s *Service) Rebuild(ctx context.Context, force bool) (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force {
		return s.getLocked(ctx)
	}
	s.idx = nil
	if Exists(s.dir) {
		s.log.Warn("discarding existing index before forced rebuild", zap.String("path", s.dir))
		if err := os.RemoveAll(s.dir); err != nil {
			return nil, err
		}
	}
	return s.buildLocked(ctx)
}

func (s *Service) buildLocked(ctx context.Context) (*Index, error) {
	s.log.Info("building index", zap.String("path", s.dir))
	chunks, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	ix, err := Build(ctx, chunks, s.embedder)
	if err != nil {
		return nil, err
	}
	if err := Save(s.dir, ix, s.embedder); err != nil {
		return nil, err
	}
	s.log.Info("index built", zap.Int("chunks", ix.Count()), zap.String("model", ix.Model()))
	s.idx = ix
	return ix, nil
}

// Invalidate drops the in-memory index so the next Get reloads from disk.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.idx = nil
	s.mu.Unlock()
}

// Status reports whether an index is loaded and its basic shape.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Path: s.dir}
	if s.idx != nil {
		st.Ready = true
		st.Model = s.idx.Model()
		st.Count = s.idx.Count()
	}
	return st
}
