package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pratszszszzz/Courtify/internal/domain"
)

var (
	// boundaryRe marks the start of a structural unit: a line opening with
	// "Article 14", "Section 303A" and so on.
	boundaryRe = regexp.MustCompile(`(?im)^(article|section)\s+([0-9]+[A-Za-z]?)`)
	preambleRe = regexp.MustCompile(`(?im)^\s*preamble\b`)
	partRe     = regexp.MustCompile(`(?im)^\s*part\s+([IVXLCDM]+|[0-9]+)\b`)
)

// subSeparators are tried in priority order inside each structural block:
// paragraph breaks, line breaks, sentence breaks. A hard character cut is
// the last resort when none occurs within the window.
var subSeparators = []string{"\n\n", "\n", ". "}

// ArticleChunker splits legal documents into overlapping bounded-size
// chunks aligned, where possible, to article/section boundaries.
type ArticleChunker struct {
	chunkSize int
	overlap   int
}

// New validates the chunk window configuration.
func New(chunkSize, overlap int) (*ArticleChunker, error) {
	if overlap <= 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", domain.ErrInvalidChunkConfig, chunkSize, overlap)
	}
	return &ArticleChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits a document in two phases. Phase one cuts the text into
// blocks at structural boundary markers, keeping each marker with the
// text that follows it. Phase two sub-splits every block independently
// into windows of at most chunkSize-overlap characters along preferred
// separators, then widens every window after the first backwards by
// overlap characters so adjacent chunks share context.
//
// Chunk IDs are assigned later, at index build time.
func (c *ArticleChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	raw := doc.RawText
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var chunks []domain.Chunk
	for _, block := range c.preSplit(raw) {
		windows := c.subSplit(raw, block[0], block[1])
		for i, w := range windows {
			start := w[0]
			if i > 0 && start-c.overlap > block[0] {
				start -= c.overlap
			} else if i > 0 {
				start = block[0]
			}
			text := raw[start:w[1]]
			if strings.TrimSpace(text) == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				Text:     text,
				SourceID: doc.SourceID,
				Label:    Label(text),
				Start:    start,
				End:      w[1],
			})
		}
	}
	return chunks, nil
}

// preSplit returns block ranges cut at every boundary marker occurrence.
// Text before the first marker becomes its own leading block.
func (c *ArticleChunker) preSplit(raw string) [][2]int {
	marks := boundaryRe.FindAllStringIndex(raw, -1)
	if len(marks) == 0 {
		return [][2]int{{0, len(raw)}}
	}
	var blocks [][2]int
	if marks[0][0] > 0 {
		blocks = append(blocks, [2]int{0, marks[0][0]})
	}
	for i, m := range marks {
		end := len(raw)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		blocks = append(blocks, [2]int{m[0], end})
	}
	return blocks
}

// subSplit cuts [start,end) into windows no longer than chunkSize-overlap,
// recursing through the separator priority list.
func (c *ArticleChunker) subSplit(raw string, start, end int) [][2]int {
	return splitWindows(raw, start, end, c.chunkSize-c.overlap, subSeparators)
}

func splitWindows(raw string, start, end, limit int, seps []string) [][2]int {
	if end-start <= limit {
		return [][2]int{{start, end}}
	}
	for i, sep := range seps {
		if !strings.Contains(raw[start:end], sep) {
			continue
		}
		return mergeSegments(raw, cutAt(raw, start, end, sep), limit, seps[i+1:])
	}
	return hardCut(start, end, limit)
}

// cutAt splits [start,end) at every occurrence of sep, keeping the
// separator attached to the preceding segment so that concatenating the
// segments reproduces the input exactly.
func cutAt(raw string, start, end int, sep string) [][2]int {
	var segs [][2]int
	prev := start
	for {
		rel := strings.Index(raw[prev:end], sep)
		if rel < 0 {
			break
		}
		cut := prev + rel + len(sep)
		segs = append(segs, [2]int{prev, cut})
		prev = cut
	}
	if prev < end {
		segs = append(segs, [2]int{prev, end})
	}
	return segs
}

// mergeSegments greedily packs adjacent segments into windows of at most
// limit characters. A single segment longer than the limit falls through
// to the next separator level.
func mergeSegments(raw string, segs [][2]int, limit int, nextSeps []string) [][2]int {
	var out [][2]int
	cur := [2]int{-1, -1}
	flush := func() {
		if cur[0] >= 0 {
			out = append(out, cur)
			cur = [2]int{-1, -1}
		}
	}
	for _, seg := range segs {
		if seg[1]-seg[0] > limit {
			flush()
			out = append(out, splitWindows(raw, seg[0], seg[1], limit, nextSeps)...)
			continue
		}
		if cur[0] < 0 {
			cur = seg
			continue
		}
		if seg[1]-cur[0] <= limit {
			cur[1] = seg[1]
		} else {
			flush()
			cur = seg
		}
	}
	flush()
	return out
}

func hardCut(start, end, limit int) [][2]int {
	var out [][2]int
	for s := start; s < end; s += limit {
		e := s + limit
		if e > end {
			e = end
		}
		out = append(out, [2]int{s, e})
	}
	return out
}

// Label derives a best-effort structural tag by re-scanning the chunk's
// own text: boundary marker first, then a Preamble heading, then a
// part/division heading. This is a metadata pass only; it does not imply
// the chunk window aligns with the labeled boundary.
func Label(text string) string {
	if m := boundaryRe.FindStringSubmatch(text); m != nil {
		kw := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
		return kw + " " + strings.ToUpper(m[2])
	}
	if preambleRe.MatchString(text) {
		return "Preamble"
	}
	if m := partRe.FindStringSubmatch(text); m != nil {
		return "Part " + strings.ToUpper(m[1])
	}
	return "unknown"
}
