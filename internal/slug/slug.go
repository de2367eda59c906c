// Package slug derives unique, URL-safe identifiers from task titles.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	nanoid "github.com/jaevor/go-nanoid"
)

const (
	// MaxAttempts caps the number of candidates Generate will try.
	MaxAttempts = 1000

	suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength   = 6

	// fallback is used when a title has no alphanumeric characters at all.
	fallback = "task"
)

// ErrExhausted is returned when every tried candidate was already taken.
var ErrExhausted = errors.New("slug: candidates exhausted")

// ExistsFunc reports whether a slug is already in use.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Slugify lowercases and trims the title, turns every run of characters that
// are not letters or digits into a single hyphen and drops hyphens at either end.
// Slugify(Slugify(s)) == Slugify(s).
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

type Generator struct {
	suffix      func() string
	maxAttempts int
}

func NewGenerator() (*Generator, error) {
	suffix, err := nanoid.CustomASCII(suffixAlphabet, suffixLength)
	if err != nil {
		return nil, fmt.Errorf("slug: init suffix generator: %w", err)
	}
	return &Generator{suffix: suffix, maxAttempts: MaxAttempts}, nil
}

// NewGeneratorWithSuffix builds a Generator with a caller-supplied suffix source.
// A non-positive maxAttempts falls back to MaxAttempts.
func NewGeneratorWithSuffix(suffix func() string, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = MaxAttempts
	}
	return &Generator{suffix: suffix, maxAttempts: maxAttempts}
}

// Generate returns the first candidate that exists reports as free, starting
// from Slugify(title) and then trying base-<suffix>. The check is not atomic
// with the caller's insert; the store's unique constraint has the last word.
func (g *Generator) Generate(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = fallback
	}

	candidate := base
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug: check %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + g.suffix()
	}

	return "", fmt.Errorf("%w after %d attempts for %q", ErrExhausted, g.maxAttempts, base)
}
