package report

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeGenerator struct {
	system, prompt string
	reply          string
	err            error
}

func (g *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	g.system, g.prompt = system, prompt
	return g.reply, g.err
}

func TestSummarizer_Analyze(t *testing.T) {
	ix := newTestIndexer(t, &keywordEmbedder{})
	idx, err := ix.Build(context.Background(), "a.pdf")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	gen := &fakeGenerator{reply: "營收成長"}
	s := NewSummarizer(gen, 0, nil)

	got, err := s.Analyze(context.Background(), idx, "營收")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got != "營收成長" {
		t.Errorf("Analyze() = %q", got)
	}
	if gen.system != summarySystem {
		t.Errorf("system = %q", gen.system)
	}
	if !strings.Contains(gen.prompt, "營收創新高") || !strings.Contains(gen.prompt, "繁體中文") {
		t.Errorf("prompt missing content: %q", gen.prompt)
	}
	// Default top-k is 2 of the 3 chunks.
	if strings.Contains(gen.prompt, "股利") && strings.Contains(gen.prompt, "研發") {
		t.Error("prompt should carry only two chunks")
	}
}

func TestSummarizer_NoContent(t *testing.T) {
	gen := &fakeGenerator{}
	s := NewSummarizer(gen, 2, nil)

	got, err := s.Analyze(context.Background(), &Index{}, "營收")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got != NoRelevantContent {
		t.Errorf("Analyze() = %q, want %q", got, NoRelevantContent)
	}
	if gen.prompt != "" {
		t.Error("generator should not be called")
	}
}

func TestSummarizer_GenerateError(t *testing.T) {
	ix := newTestIndexer(t, &keywordEmbedder{})
	idx, _ := ix.Build(context.Background(), "a.pdf")

	boom := errors.New("blocked")
	s := NewSummarizer(&fakeGenerator{err: boom}, 2, nil)
	if _, err := s.Analyze(context.Background(), idx, "營收"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want blocked", err)
	}
}
