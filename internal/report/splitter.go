package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// DefaultSeparators are tried in order, from paragraphs down to characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts text into chunks of at most Size runes that overlap by up
// to Overlap runes. It splits on the coarsest separator present and recurses
// into pieces that are still too long.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

// NewSplitter returns a Splitter with the default separators.
func NewSplitter(size, overlap int) Splitter {
	if size < 1 {
		size = 1
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return Splitter{Size: size, Overlap: overlap, Separators: DefaultSeparators}
}

// Split returns the chunks of text. Whitespace-only chunks are dropped.
func (s Splitter) Split(text string) ([]string, error) {
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}

	rc := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.Size),
		textsplitter.WithChunkOverlap(s.Overlap),
		textsplitter.WithSeparators(seps),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)

	pieces, err := rc.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	var out []string
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
