package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratszszszzz/Courtify/internal/domain"
)

func doc(text string) domain.Document {
	return domain.Document{SourceID: "test", RawText: text, Format: domain.FormatText}
}

func TestNewRejectsBadWindow(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero overlap", 100, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.size, tc.overlap)
			assert.True(t, errors.Is(err, domain.ErrInvalidChunkConfig))
		})
	}
}

func TestChunkEmptyDocument(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	chunks, err := c.Chunk(doc("   \n\t  "))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkShortDocumentSinglePiece(t *testing.T) {
	c, err := New(1800, 200)
	require.NoError(t, err)

	text := "Article 14. The State shall not deny to any person equality before the law."
	chunks, err := c.Chunk(doc(text))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, "test", chunks[0].SourceID)
	assert.Equal(t, "Article 14", chunks[0].Label)
}

func TestChunkRespectsSizeBound(t *testing.T) {
	c, err := New(300, 50)
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog near the riverbank. ")
	}
	chunks, err := c.Chunk(doc(b.String()))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 300, "chunk exceeds window: %q", ch.Text)
	}
}

func TestChunkOverlapSharesSuffix(t *testing.T) {
	c, err := New(300, 50)
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Whoever commits theft shall be punished with imprisonment of either description. ")
	}
	raw := b.String()
	chunks, err := c.Chunk(doc(raw))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		// each later window starts overlap chars before the previous end
		assert.Equal(t, prev.End-50, cur.Start)
		assert.Equal(t, raw[cur.Start:prev.End], prev.Text[len(prev.Text)-50:])
	}
}

func TestChunkOffsetsIndexRawText(t *testing.T) {
	c, err := New(200, 40)
	require.NoError(t, err)

	raw := strings.Repeat("Section 12 deals with punishments for public servants.\n\n", 20)
	chunks, err := c.Chunk(doc(raw))
	require.NoError(t, err)
	for _, ch := range chunks {
		assert.Equal(t, raw[ch.Start:ch.End], ch.Text)
	}
}

func TestChunkSplitsAtArticleBoundaries(t *testing.T) {
	c, err := New(1800, 200)
	require.NoError(t, err)

	raw := "PREAMBLE\nWE, THE PEOPLE OF INDIA, having solemnly resolved.\n" +
		"Article 14\nEquality before law.\n" +
		"Article 15\nProhibition of discrimination.\n"
	chunks, err := c.Chunk(doc(raw))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Preamble", chunks[0].Label)
	assert.Equal(t, "Article 14", chunks[1].Label)
	assert.Equal(t, "Article 15", chunks[2].Label)
}

func TestChunkHardCutWithoutSeparators(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	raw := strings.Repeat("x", 500)
	chunks, err := c.Chunk(doc(raw))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 100)
	}
	last := chunks[len(chunks)-1]
	assert.Equal(t, len(raw), last.End)
}

func TestLabel(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Article 21\nProtection of life and personal liberty.", "Article 21"},
		{"article 19 guarantees freedoms", "Article 19"},
		{"Section 303a theft of property", "Section 303A"},
		{"PREAMBLE\nWe, the people", "Preamble"},
		{"Part III\nFundamental Rights", "Part III"},
		{"some untagged running text", "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Label(tc.text), "text=%q", tc.text)
	}
}
