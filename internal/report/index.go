package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Embedder turns texts into vectors, one per text and in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunk is one embedded piece of a document.
type Chunk struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

// Match is a search hit.
type Match struct {
	Chunk
	Score float64
}

// Index is the embedded chunks of one document.
type Index struct {
	Source  string    `json:"source"`
	Created time.Time `json:"created"`
	Chunks  []Chunk   `json:"chunks"`

	embedder Embedder
}

// Search returns the k chunks most similar to query, best first.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]Match, error) {
	if idx == nil || len(idx.Chunks) == 0 || k < 1 {
		return nil, nil
	}
	if idx.embedder == nil {
		return nil, errors.New("search index: no embedder")
	}

	vecs, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}

	return TopK(idx.Chunks, vecs[0], k), nil
}

// TopK ranks chunks by cosine similarity to q. Ties keep document order.
func TopK(chunks []Chunk, q []float32, k int) []Match {
	matches := make([]Match, len(chunks))
	for i, c := range chunks {
		matches[i] = Match{Chunk: c, Score: Cosine(c.Vector, q)}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

// Cosine returns the cosine similarity of a and b, or 0 when either is zero
// or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// IndexerConfig holds chunking and storage settings.
type IndexerConfig struct {
	Dir          string // Where indexes are persisted
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int // Texts per Embed call, 0 means all at once
}

// Indexer builds and loads document indexes.
type Indexer struct {
	cfg       IndexerConfig
	extractor Extractor
	embedder  Embedder
	splitter  Splitter
	logger    *slog.Logger
}

// NewIndexer creates an Indexer. A nil extractor reads PDFs.
func NewIndexer(cfg IndexerConfig, extractor Extractor, embedder Embedder, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = PDFExtractor{}
	}
	return &Indexer{
		cfg:       cfg,
		extractor: extractor,
		embedder:  embedder,
		splitter:  NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		logger:    logger,
	}
}

// Path returns where the index for the document at src is persisted.
func (ix *Indexer) Path(src string) string {
	base := filepath.Base(src)
	return filepath.Join(ix.cfg.Dir, strings.TrimSuffix(base, filepath.Ext(base))+".json")
}

// Build extracts, splits and embeds the document at src and persists the
// result.
func (ix *Indexer) Build(ctx context.Context, src string) (*Index, error) {
	start := time.Now()

	text, err := ix.extractor.Extract(src)
	if err != nil {
		return nil, err
	}

	pieces, err := ix.splitter.Split(text)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("build index: %s has no text", src)
	}

	vecs, err := ix.embed(ctx, pieces)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		Source:   src,
		Created:  time.Now().UTC(),
		Chunks:   make([]Chunk, len(pieces)),
		embedder: ix.embedder,
	}
	for i, p := range pieces {
		idx.Chunks[i] = Chunk{Text: p, Vector: vecs[i]}
	}

	if err := ix.save(idx); err != nil {
		return nil, err
	}

	ix.logger.Info("built index",
		"source", src,
		"chunks", len(idx.Chunks),
		"path", ix.Path(src),
		"duration", time.Since(start),
	)
	return idx, nil
}

// Load reads the persisted index for the document at src.
func (ix *Indexer) Load(src string) (*Index, error) {
	data, err := os.ReadFile(ix.Path(src))
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	idx.embedder = ix.embedder
	return &idx, nil
}

// Open loads the index for src, building it when none is persisted.
func (ix *Indexer) Open(ctx context.Context, src string) (*Index, error) {
	idx, err := ix.Load(src)
	if err == nil {
		return idx, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return ix.Build(ctx, src)
}

func (ix *Indexer) embed(ctx context.Context, texts []string) ([][]float32, error) {
	size := ix.cfg.BatchSize
	if size <= 0 {
		size = len(texts)
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += size {
		end := min(i+size, len(texts))
		vecs, err := ix.embedder.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vecs) != end-i {
			return nil, fmt.Errorf("embed chunks: got %d vectors for %d texts", len(vecs), end-i)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (ix *Indexer) save(idx *Index) error {
	if err := os.MkdirAll(ix.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	path := ix.Path(idx.Source)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
