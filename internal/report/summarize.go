package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// NoRelevantContent is returned by Analyze when the search finds nothing.
const NoRelevantContent = "無法找到相關資訊"

const summarySystem = "你的任務是對年報資訊進行摘要總結。"

const summaryPrompt = `以下為提供的年報資訊：
%s

請給我重點數據，如銷售增長情形、營收變化、開發項目等，
最後請使用繁體中文輸出報告。`

// Generator produces text from a system instruction and a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Summarizer answers questions about an indexed report.
type Summarizer struct {
	gen    Generator
	topK   int
	logger *slog.Logger
}

// NewSummarizer creates a Summarizer that feeds topK chunks to gen.
func NewSummarizer(gen Generator, topK int, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if topK < 1 {
		topK = 2
	}
	return &Summarizer{gen: gen, topK: topK, logger: logger}
}

// Analyze searches idx for query and summarizes the matching chunks.
func (s *Summarizer) Analyze(ctx context.Context, idx *Index, query string) (string, error) {
	matches, err := idx.Search(ctx, query, s.topK)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return NoRelevantContent, nil
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	s.logger.Debug("summarizing", "query", query, "chunks", len(matches), "best_score", matches[0].Score)

	out, err := s.gen.Generate(ctx, summarySystem, fmt.Sprintf(summaryPrompt, strings.Join(texts, "\n\n")))
	if err != nil {
		return "", fmt.Errorf("summarize report: %w", err)
	}
	return out, nil
}
