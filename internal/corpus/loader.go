package corpus

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/pratszszszzz/Courtify/internal/config"
	"github.com/pratszszszzz/Courtify/internal/domain"
)

// Loader reads configured corpus sources into Documents.
type Loader struct {
	extractors []Extractor
	log        *zap.Logger
}

// NewLoader creates a loader with the default PDF extraction cascade.
func NewLoader(log *zap.Logger) *Loader {
	return &Loader{
		extractors: []Extractor{PageExtractor{}, PlainTextExtractor{}},
		log:        log,
	}
}

// Load reads one source into an immutable Document.
// Returns domain.ErrSourceNotFound if the path does not exist and
// domain.ErrExtractionFailed if a PDF yields no text at all.
func (l *Loader) Load(src config.SourceConfig) (domain.Document, error) {
	if _, err := os.Stat(src.Path); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, src.Path)
	}
	switch domain.SourceFormat(src.Format) {
	case domain.FormatPDF:
		return l.loadPDF(src)
	default:
		return l.loadText(src)
	}
}

// LoadAll reads every configured source in order.
func (l *Loader) LoadAll(sources []config.SourceConfig) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(sources))
	for _, src := range sources {
		doc, err := l.Load(src)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", src.ID, err)
		}
		l.log.Info("loaded source",
			zap.String("source", doc.SourceID),
			zap.Int("chars", len(doc.RawText)))
		docs = append(docs, doc)
	}
	return docs, nil
}

func (l *Loader) loadText(src config.SourceConfig) (domain.Document, error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		SourceID: src.ID,
		RawText:  cleanup(string(data)),
		Format:   domain.FormatText,
	}, nil
}

// loadPDF runs the extraction cascade: the first strategy that produces
// non-whitespace text wins; strategies are not mixed within one document.
func (l *Loader) loadPDF(src config.SourceConfig) (domain.Document, error) {
	for _, ex := range l.extractors {
		text, err := ex.Extract(src.Path)
		if err != nil {
			l.log.Warn("pdf extraction strategy failed",
				zap.String("source", src.ID),
				zap.String("strategy", ex.Name()),
				zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			l.log.Warn("pdf extraction strategy yielded no text",
				zap.String("source", src.ID),
				zap.String("strategy", ex.Name()))
			continue
		}
		return domain.Document{
			SourceID: src.ID,
			RawText:  cleanup(text),
			Format:   domain.FormatPDF,
		}, nil
	}
	return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrExtractionFailed, src.ID)
}

// cleanup normalizes extracted text: bullet glyphs from PDF fonts become
// dashes and trailing whitespace is stripped per line.
func cleanup(text string) string {
	text = strings.ReplaceAll(text, "\uf0b7", "-")
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.Join(lines, "\n")
}
