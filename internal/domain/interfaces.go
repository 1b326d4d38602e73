package domain

import "context"

// SourceFormat identifies how a corpus source is stored on disk.
type SourceFormat string

const (
	FormatText SourceFormat = "text"
	FormatPDF  SourceFormat = "pdf"
)

// Document is a raw corpus source decoded into a single normalized string.
// Documents are created once per ingestion run and never modified.
type Document struct {
	SourceID string
	RawText  string
	Format   SourceFormat
}

// Chunk is a bounded span of a Document's text stored for retrieval.
// Label is a best-effort structural tag ("Article 14", "Section 303",
// "Preamble", "Part III") derived by re-scanning the chunk's own text;
// it may be wrong for a chunk whose window starts mid-article and must
// not be treated as authoritative.
type Chunk struct {
	ID       int
	Text     string
	SourceID string
	Label    string
	Start    int
	End      int
}

// SearchResult is a matching chunk with its relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
// Vectors are deterministic for a given Model() and input text.
type Embedder interface {
	Name() string
	// Model identifies the embedding model and version. Two indexes built
	// with different Model() values are incompatible.
	Model() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces an answer from system instructions and a user prompt.
// Deadlines are carried by the context.
type Generator interface {
	Name() string
	Generate(ctx context.Context, system, user string) (string, error)
}

// Retriever returns the chunks most relevant to a query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error)
}
