package markov

import (
	"regexp"
	"strings"
)

// Tokenizer is an interface that defines the contract for splitting input
// text into word tokens and for deciding which tokens may end a sentence.
// This keeps the chain builder and sampler independent of the specific
// tokenization strategy.
type Tokenizer interface {
	// Tokenize splits text into an ordered sequence of tokens. It never
	// emits empty tokens; empty input yields a nil slice.
	Tokenize(text string) []string
	// Terminal reports whether a token ends a sentence.
	Terminal(token string) bool
}

// DefaultTokenizer is a default implementation of the Tokenizer interface.
// It splits on whitespace, keeps sentence-ending punctuation attached to
// its word, and strips all other punctuation. Its behavior can be
// customized with functional options.
type DefaultTokenizer struct {
	terminalRegex *regexp.Regexp
	stripRegex    *regexp.Regexp
	spaceRegex    *regexp.Regexp
}

// Option Is a function that configures a DefaultTokenizer.
type Option func(*DefaultTokenizer)

// WithTerminalRegex sets the regex used to decide whether a word is kept
// verbatim as a sentence-ending token.
// Default: `[.!?]$`
func WithTerminalRegex(expr string) Option {
	return func(t *DefaultTokenizer) {
		t.terminalRegex = regexp.MustCompile(expr)
	}
}

// WithStripRegex sets the regex whose matches are removed from
// non-terminal words.
// Default: `[^\p{L}\p{N}_]+`
func WithStripRegex(expr string) Option {
	return func(t *DefaultTokenizer) {
		t.stripRegex = regexp.MustCompile(expr)
	}
}

// NewDefaultTokenizer creates a new tokenizer with default settings, which
// can be overridden by providing one or more Option functions.
func NewDefaultTokenizer(opts ...Option) *DefaultTokenizer {
	t := &DefaultTokenizer{
		// A word ending in one of these marks a possible sentence end.
		terminalRegex: regexp.MustCompile(`[.!?]$`),
		// Everything that isn't a letter, digit or underscore gets
		// stripped from ordinary words.
		stripRegex: regexp.MustCompile(`[^\p{L}\p{N}_]+`),
		spaceRegex: regexp.MustCompile(`\s+`),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Tokenize splits text into word tokens. Words ending in terminal
// punctuation are kept verbatim; other words have punctuation stripped and
// are dropped entirely if nothing remains.
func (t *DefaultTokenizer) Tokenize(text string) []string {
	text = strings.TrimSpace(t.spaceRegex.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}

	var tokens []string
	for _, word := range strings.Split(text, " ") {
		if t.terminalRegex.MatchString(word) {
			tokens = append(tokens, word)
			continue
		}
		word = t.stripRegex.ReplaceAllString(word, "")
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// Terminal reports whether the token ends with sentence-ending punctuation.
func (t *DefaultTokenizer) Terminal(token string) bool {
	return t.terminalRegex.MatchString(token)
}
