package markov

import (
	"math/rand/v2"
	"strings"
)

// generateOptions Is used by Generate to configure default options.
type generateOptions struct {
	maxWords int
	minWords int
	rng      *rand.Rand
}

// GenerateOption is a function that configures generation parameters. It's
// used as a variadic argument to Generate.
type GenerateOption func(*generateOptions)

// WithMaxWords sets the maximum number of tokens in the generated output.
func WithMaxWords(n int) GenerateOption {
	return func(o *generateOptions) { o.maxWords = n }
}

// WithMinWords sets the number of tokens that must be generated before a
// sentence-ending token is allowed to stop generation.
func WithMinWords(n int) GenerateOption {
	return func(o *generateOptions) { o.minWords = n }
}

// WithRand sets the random source used for sampling. With a seeded source
// the output is reproducible; by default the process-global source is used.
func WithRand(rng *rand.Rand) GenerateOption {
	return func(o *generateOptions) { o.rng = rng }
}

// Generate samples a new text from the model. It seeds the output with a
// randomly chosen beginning window, then repeatedly appends a random
// successor of the trailing window until it hits a dead end, a
// sentence-ending token past the minimum length, or the word limit. The
// result always ends in terminal punctuation.
//
// An empty model yields an empty string; the caller should treat that as
// "nothing to publish" rather than an error.
func (m *Model) Generate(opts ...GenerateOption) string {
	options := &generateOptions{
		maxWords: 50,
		minWords: 10,
	}
	for _, opt := range opts {
		opt(options)
	}

	if len(m.chains) == 0 {
		return ""
	}

	intN := rand.IntN
	if options.rng != nil {
		intN = options.rng.IntN
	}

	var current []string
	if len(m.beginnings) > 0 {
		// Duplicate entries naturally bias the pick toward common openings.
		current = m.beginnings[intN(len(m.beginnings))]
	} else {
		// Degraded start: no genuine text opening was recorded, so any
		// known window has to do.
		current = strings.Split(m.keys[intN(len(m.keys))], " ")
	}

	result := append([]string(nil), current...)

	for i := 0; i < options.maxWords-m.order; i++ {
		next, ok := m.chains[windowKey(current)]
		if !ok {
			// Dead end in chain.
			break
		}

		word := next[intN(len(next))]
		result = append(result, word)
		current = result[len(result)-m.order:]

		if len(result) >= options.minWords && m.tokenizer.Terminal(word) {
			break
		}
	}

	last := len(result) - 1
	if !m.tokenizer.Terminal(result[last]) {
		result[last] += "."
	}

	return strings.Join(result, " ")
}
