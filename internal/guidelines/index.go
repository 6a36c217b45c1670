package guidelines

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/foxseedlab/mensetsu/internal/completion"
)

//go:embed docs/*.md
var embeddedDocs embed.FS

const (
	defaultMaxAttempts = 4
	defaultBaseDelay   = time.Second
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"are": {}, "was": {}, "from": {}, "have": {}, "has": {}, "not": {},
	"but": {}, "can": {}, "their": {}, "such": {}, "than": {}, "when": {},
}

// Index holds resume-writing guidance chunks and ranks them against a query.
// It ranks by embedding similarity when the provider supports embeddings and
// by keyword overlap otherwise. Nothing is returned until Init succeeds.
type Index struct {
	embedder    completion.Embedder
	docs        fs.FS
	maxAttempts int
	baseDelay   time.Duration

	once    sync.Once
	initErr error
	ready   atomic.Bool

	chunks  []string
	tokens  []map[string]int
	vectors [][]float32
}

func NewIndex(embedder completion.Embedder) *Index {
	sub, err := fs.Sub(embeddedDocs, "docs")
	if err != nil {
		panic(err)
	}
	return newIndex(embedder, sub)
}

func newIndex(embedder completion.Embedder, docs fs.FS) *Index {
	return &Index{
		embedder:    embedder,
		docs:        docs,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
}

// Init loads and indexes the documents once. Later calls return the first
// call's result.
func (x *Index) Init(ctx context.Context) error {
	x.once.Do(func() {
		x.initErr = x.build(ctx)
	})
	return x.initErr
}

func (x *Index) Ready() bool {
	return x.ready.Load()
}

// Retrieve returns up to k chunks most relevant to query, best first.
func (x *Index) Retrieve(ctx context.Context, query string, k int) []string {
	if !x.Ready() || k <= 0 || strings.TrimSpace(query) == "" {
		return nil
	}

	var scores []float64
	if x.vectors != nil {
		s, err := x.semanticScores(ctx, query)
		if err != nil {
			slog.Warn("guideline query embedding failed, ranking by keywords", "error", err)
		} else {
			scores = s
		}
	}
	if scores == nil {
		scores = x.lexicalScores(query)
	}
	return topChunks(x.chunks, scores, k)
}

func (x *Index) build(ctx context.Context) error {
	chunks, err := loadChunks(x.docs)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return errors.New("no guideline documents found")
	}

	tokens := make([]map[string]int, len(chunks))
	for i, c := range chunks {
		tokens[i] = tokenize(c)
	}

	var vectors [][]float32
	err = x.withRetry(ctx, func() error {
		v, err := x.embedder.Embed(ctx, chunks)
		if err != nil {
			return err
		}
		if len(v) != len(chunks) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(v), len(chunks))
		}
		vectors = v
		return nil
	})
	switch {
	case errors.Is(err, completion.ErrEmbeddingsUnsupported):
		slog.Info("embeddings unsupported, guidelines ranked by keywords")
		vectors = nil
	case err != nil:
		return fmt.Errorf("embed guideline chunks: %w", err)
	}

	x.chunks = chunks
	x.tokens = tokens
	x.vectors = vectors
	x.ready.Store(true)
	slog.Info("guidelines index ready", "chunks", len(chunks), "semantic", vectors != nil)
	return nil
}

// withRetry doubles the wait after each failure. Unsupported embeddings are
// not retried.
func (x *Index) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < x.maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || errors.Is(lastErr, completion.ErrEmbeddingsUnsupported) {
			return lastErr
		}
		if attempt == x.maxAttempts-1 {
			break
		}
		wait := x.baseDelay * time.Duration(1<<attempt)
		slog.Debug("guidelines init failed, retrying", "attempt", attempt+1, "wait_time", wait, "error", lastErr)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (x *Index) semanticScores(ctx context.Context, query string) ([]float64, error) {
	v, err := x.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(v) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(v))
	}
	scores := make([]float64, len(x.vectors))
	for i, vec := range x.vectors {
		scores[i] = cosineSimilarity(v[0], vec)
	}
	return scores, nil
}

func (x *Index) lexicalScores(query string) []float64 {
	q := tokenize(query)
	scores := make([]float64, len(x.tokens))
	for i, chunk := range x.tokens {
		var matched float64
		for tok := range q {
			if n, ok := chunk[tok]; ok {
				matched += 1 + math.Log(float64(n))
			}
		}
		if matched == 0 {
			continue
		}
		scores[i] = matched / math.Sqrt(float64(len(chunk)))
	}
	return scores
}

func topChunks(chunks []string, scores []float64, k int) []string {
	order := make([]int, 0, len(chunks))
	for i := range chunks {
		if scores[i] > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if len(order) > k {
		order = order[:k]
	}
	out := make([]string, len(order))
	for i, idx := range order {
		out[i] = chunks[idx]
	}
	return out
}

// loadChunks splits every markdown document into paragraphs, dropping
// headings.
func loadChunks(docs fs.FS) ([]string, error) {
	names, err := fs.Glob(docs, "*.md")
	if err != nil {
		return nil, fmt.Errorf("list guideline documents: %w", err)
	}
	sort.Strings(names)

	var chunks []string
	for _, name := range names {
		data, err := fs.ReadFile(docs, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path.Base(name), err)
		}
		for _, para := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" || strings.HasPrefix(para, "#") {
				continue
			}
			chunks = append(chunks, para)
		}
	}
	return chunks, nil
}

func tokenize(text string) map[string]int {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]int, len(words))
	for _, w := range words {
		if len([]rune(w)) < 3 {
			continue
		}
		if _, skip := stopwords[w]; skip {
			continue
		}
		out[w]++
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
