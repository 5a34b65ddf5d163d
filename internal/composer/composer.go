// Package composer turns retrieved chunks into a grounded, cited answer.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gopherai-docqa/internal/model"
	"gopherai-docqa/internal/retriever"
	"gopherai-docqa/internal/vectorindex"
)

// NoContextAnswer is returned verbatim whenever there is nothing to ground an
// answer on. The language model is not consulted in that case.
const NoContextAnswer = "No relevant documents found to answer your question."

const (
	DefaultContextBudget = 6000
	DefaultExcerptRunes  = 240
	DefaultAttempts      = 2
	defaultRetryDelay    = 500 * time.Millisecond
)

// Generator produces a completion for a system instruction and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

type Source struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Excerpt      string  `json:"excerpt"`
	Locator      string  `json:"locator,omitempty"`
	Score        float32 `json:"score"`
}

type Answer struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	NoContext bool     `json:"no_context"`
}

// NoContext is the deterministic answer for an empty retrieval.
func NoContext() *Answer {
	return &Answer{Answer: NoContextAnswer, Sources: []Source{}, NoContext: true}
}

type Composer struct {
	gen          Generator
	budget       int
	excerptRunes int
	attempts     int
	retryDelay   time.Duration
	now          func() time.Time
}

type Option func(*Composer)

// WithContextBudget caps the runes of chunk text placed in one prompt.
func WithContextBudget(runes int) Option {
	return func(c *Composer) {
		if runes > 0 {
			c.budget = runes
		}
	}
}

func WithExcerptRunes(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.excerptRunes = n
		}
	}
}

func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Composer) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

func New(gen Generator, opts ...Option) *Composer {
	c := &Composer{
		gen:          gen,
		budget:       DefaultContextBudget,
		excerptRunes: DefaultExcerptRunes,
		attempts:     DefaultAttempts,
		retryDelay:   defaultRetryDelay,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose answers query from result. A nil or empty result, or one whose hits
// all exceed the context budget, gives NoContext without calling the model.
// Generation failures surface as ErrGenerationUnavailable.
func (c *Composer) Compose(ctx context.Context, query string, result *retriever.Result) (*Answer, error) {
	if result == nil || len(result.Hits) == 0 {
		return NoContext(), nil
	}
	selected := c.fit(result.Hits)
	if len(selected) == 0 {
		return NoContext(), nil
	}

	system := systemPrompt(c.now())
	user := userPrompt(query, selected)
	text, err := c.generate(ctx, system, user)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, len(selected))
	for i, h := range selected {
		sources[i] = Source{
			DocumentID:   h.DocumentID,
			DocumentName: h.DocumentName,
			Excerpt:      excerpt(h.Text, c.excerptRunes),
			Locator:      h.Locator,
			Score:        h.Score,
		}
	}
	return &Answer{Answer: text, Sources: sources}, nil
}

// fit walks hits best first and keeps each one whose text still fits in the
// remaining budget. A hit that does not fit is skipped whole; later, shorter
// hits may still be taken.
func (c *Composer) fit(hits []vectorindex.Hit) []vectorindex.Hit {
	remaining := c.budget
	var out []vectorindex.Hit
	for _, h := range hits {
		n := utf8.RuneCountInString(h.Text)
		if n > remaining {
			continue
		}
		remaining -= n
		out = append(out, h)
	}
	return out
}

func (c *Composer) generate(ctx context.Context, system, user string) (string, error) {
	var lastErr error
	delay := c.retryDelay
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		text, err := c.gen.Generate(ctx, system, user)
		if err == nil {
			text = strings.TrimSpace(text)
			if text != "" {
				return text, nil
			}
			err = errors.New("empty completion")
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: %w", model.ErrGenerationUnavailable, lastErr)
}

func excerpt(text string, max int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:max])) + "..."
}
