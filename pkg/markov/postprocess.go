package markov

import (
	"math/rand/v2"
	"strings"
)

// PostProcessor transforms a generated string into its final published
// form. Post-processing policies are layered outside the sampling loop so
// the sampler stays free of output heuristics.
type PostProcessor func(string) string

// Compose chains post-processors left to right. With no arguments it
// returns the identity.
func Compose(ps ...PostProcessor) PostProcessor {
	return func(s string) string {
		for _, p := range ps {
			s = p(s)
		}
		return s
	}
}

// TrimLastWord drops the final word of a generated text and re-terminates
// it, which tends to clip trailing fragments. Texts of fewer than two
// words pass through unchanged.
func TrimLastWord(tok Tokenizer) PostProcessor {
	return func(s string) string {
		words := strings.Fields(s)
		if len(words) < 2 {
			return s
		}
		words = words[:len(words)-1]
		last := len(words) - 1
		if !tok.Terminal(words[last]) {
			words[last] += "."
		}
		return strings.Join(words, " ")
	}
}

// Stitch appends a second independently generated sentence to the text.
func Stitch(m *Model, opts ...GenerateOption) PostProcessor {
	return func(s string) string {
		second := m.Generate(opts...)
		if second == "" {
			return s
		}
		if s == "" {
			return second
		}
		return s + " " + second
	}
}

// Maybe applies p with a 1-in-odds chance and passes the text through
// otherwise. Odds of 1 or less always apply p. A nil rng uses the
// process-global source.
func Maybe(rng *rand.Rand, odds int, p PostProcessor) PostProcessor {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}
	return func(s string) string {
		if odds <= 1 || intN(odds) == 0 {
			return p(s)
		}
		return s
	}
}
