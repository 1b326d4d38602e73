package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pratszszszzz/Courtify/internal/domain"
)

// Status classifies how a response was produced.
type Status string

const (
	// Answered means the generator produced the answer from retrieved context.
	Answered Status = "answered"
	// NoMatch means retrieval found nothing relevant; no generation was attempted.
	NoMatch Status = "no_match"
	// TimedOut means generation exceeded its deadline and the response
	// contains raw excerpts instead of a generated answer.
	TimedOut Status = "timed_out"
	// Failed means retrieval or generation errored.
	Failed Status = "failed"
)

// Response is the pipeline output for one question.
type Response struct {
	Status  Status   `json:"status"`
	Content string   `json:"content"`
	Sources []string `json:"sources"`
}

const systemPrompt = `You are an expert legal assistant specializing in Indian law, ` +
	`covering the Constitution of India and the Bharatiya Nyaya Sanhita. ` +
	`Answer strictly from the provided context passages. Cite the article or ` +
	`section you rely on. If the context does not contain the answer, say so ` +
	`plainly instead of speculating. Keep answers clear and structured.`

const noMatchMessage = "I could not find anything relevant in the legal texts for that question. " +
	"Try rephrasing it or naming a specific article or section."

const fallbackExcerptLen = 400

// Orchestrator runs the full question pipeline: retrieve context, ask the
// generator under a deadline, and fall back to raw excerpts on timeout.
type Orchestrator struct {
	retriever domain.Retriever
	generator domain.Generator
	topK      int
	timeout   time.Duration
	log       *zap.Logger
}

func New(r domain.Retriever, g domain.Generator, topK int, timeout time.Duration, log *zap.Logger) *Orchestrator {
	return &Orchestrator{retriever: r, generator: g, topK: topK, timeout: timeout, log: log}
}

// Ask answers one question. It never returns an error: failures are
// folded into the response status so callers always have something to show.
func (o *Orchestrator) Ask(ctx context.Context, question string) Response {
	results, err := o.retriever.Retrieve(ctx, question, o.topK)
	if err != nil {
		o.log.Error("retrieval failed", zap.Error(err))
		return Response{
			Status:  Failed,
			Content: fmt.Sprintf("error while searching the legal database: %v", err),
		}
	}
	if len(results) == 0 {
		return Response{Status: NoMatch, Content: noMatchMessage}
	}

	prompt := buildPrompt(question, results)

	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	type genResult struct {
		text string
		err  error
	}
	done := make(chan genResult, 1)
	go func() {
		text, err := o.generator.Generate(genCtx, systemPrompt, prompt)
		done <- genResult{text, err}
	}()

	select {
	case res := <-done:
		if errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return o.timedOut(results)
		}
		if res.err != nil {
			o.log.Error("generation failed", zap.Error(res.err))
			return Response{
				Status:  Failed,
				Content: fmt.Sprintf("error while generating the answer: %v", res.err),
			}
		}
		return Response{Status: Answered, Content: res.text, Sources: sourceLabels(results)}
	case <-genCtx.Done():
		// the fallback is only for our own deadline; a cancelled caller
		// (client disconnect, shorter upstream deadline) gets a failure
		if ctx.Err() != nil {
			o.log.Warn("request cancelled during generation", zap.Error(ctx.Err()))
			return Response{
				Status:  Failed,
				Content: "the request was cancelled before an answer could be generated",
			}
		}
		return o.timedOut(results)
	}
}

func (o *Orchestrator) timedOut(results []domain.SearchResult) Response {
	o.log.Warn("returning excerpts instead of a generated answer",
		zap.Error(domain.ErrGenerationTimeout),
		zap.Duration("timeout", o.timeout))
	return Response{
		Status:  TimedOut,
		Content: excerptFallback(results),
		Sources: sourceLabels(results),
	}
}

// buildPrompt joins the retrieved chunks into one context block, each
// passage framed by a numbered source marker, followed by the original
// question.
func buildPrompt(question string, results []domain.SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "===== SOURCE %d =====\n%s", i+1, r.Chunk.Text)
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", b.String(), question)
}

// excerptFallback returns the leading text of the top matches verbatim,
// clearly marked as non-generated.
func excerptFallback(results []domain.SearchResult) string {
	n := 2
	if len(results) < n {
		n = len(results)
	}
	var b strings.Builder
	b.WriteString("The answer could not be generated in time. " +
		"Here are the most relevant passages from the legal texts:\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", results[i].Chunk.Label, excerpt(results[i].Chunk.Text))
	}
	return b.String()
}

// excerpt truncates to the excerpt length at a rune boundary.
func excerpt(text string) string {
	if len(text) <= fallbackExcerptLen {
		return text
	}
	cut := fallbackExcerptLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// sourceLabels returns the unique chunk labels in rank order.
func sourceLabels(results []domain.SearchResult) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, r := range results {
		label := r.Chunk.Label
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}
