// Package chunker splits document text into overlapping fixed-size windows.
//
// Sizes and offsets are counted in runes (Unicode code points) everywhere, so a
// multi-byte character is never cut in half.
package chunker

import (
	"fmt"
	"iter"
	"strings"

	"gopherai-docqa/internal/model"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Span is one chunk produced by the chunker.
type Span struct {
	Ordinal int
	// Start is the rune offset of the chunk inside its page (or the whole text).
	Start   int
	Text    string
	Locator string
}

// Page is a unit of paginated source text, numbered from 1.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

type Chunker struct {
	size    int
	overlap int
}

// New returns a chunker producing windows of size runes, each sharing overlap
// runes with the previous one.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", model.ErrInvalidConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", model.ErrInvalidConfiguration, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the chunks of text as a lazy sequence. Ranging over it again
// starts from the beginning; stopping early leaves nothing behind.
func (c *Chunker) Split(text string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		c.windows([]rune(text), 0, "", yield)
	}
}

// SplitPages chunks every page on its own so no chunk straddles a page break.
// Ordinals keep counting across pages and each chunk is located by its page.
func (c *Chunker) SplitPages(pages []Page) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		ordinal := 0
		for _, p := range pages {
			var ok bool
			ordinal, ok = c.windows([]rune(p.Text), ordinal, fmt.Sprintf("page %d", p.Number), yield)
			if !ok {
				return
			}
		}
	}
}

// windows emits the windows of runes starting at ordinal and reports the next
// ordinal and whether the consumer wants more.
func (c *Chunker) windows(runes []rune, ordinal int, locator string, yield func(Span) bool) (int, bool) {
	n := len(runes)
	if n == 0 {
		return ordinal, true
	}
	step := c.size - c.overlap
	for start := 0; ; start += step {
		end := min(start+c.size, n)
		piece := string(runes[start:end])
		if strings.TrimSpace(piece) != "" {
			if !yield(Span{Ordinal: ordinal, Start: start, Text: piece, Locator: locator}) {
				return ordinal, false
			}
			ordinal++
		}
		if end == n {
			return ordinal, true
		}
	}
}
