package markov

import "strings"

// Model is an order-N Markov chain built from a corpus of source texts.
// It maps every observed window of N consecutive tokens to the multiset of
// tokens seen immediately after it (duplicates retained, so frequency is
// encoded by repetition), and records each contributing text's opening
// window as a valid generation start point.
//
// A Model is immutable once built and safe for concurrent sampling as long
// as every Generate call gets its own random source.
type Model struct {
	order     int
	tokenizer Tokenizer
	chains    map[string][]string
	// keys holds the chain keys in insertion order. The degraded-start
	// fallback samples from this slice so that output stays a function of
	// the random source alone; map iteration order is randomized.
	keys       []string
	beginnings [][]string
}

// Build constructs a model of the given order from the source texts.
// Texts that tokenize to order or fewer tokens are skipped entirely: they
// are too short to contribute a single window and appear neither in the
// chains nor in the beginnings.
func Build(tokenizer Tokenizer, order int, sources []string) *Model {
	if order < 1 {
		order = 1
	}
	m := &Model{
		order:     order,
		tokenizer: tokenizer,
		chains:    make(map[string][]string),
	}

	for _, text := range sources {
		words := tokenizer.Tokenize(text)
		if len(words) <= order {
			continue
		}

		m.beginnings = append(m.beginnings, words[:order:order])

		for i := 0; i+order < len(words); i++ {
			key := windowKey(words[i : i+order])
			if _, ok := m.chains[key]; !ok {
				m.keys = append(m.keys, key)
			}
			m.chains[key] = append(m.chains[key], words[i+order])
		}
	}

	return m
}

// windowKey joins a window's tokens into a chain key. Tokens never contain
// whitespace, so the join is collision-free.
func windowKey(window []string) string {
	return strings.Join(window, " ")
}

// Order returns the number of preceding tokens used as context when
// predicting the next token.
func (m *Model) Order() int {
	return m.order
}

// Len returns the number of distinct windows in the model. A length of
// zero means the corpus had no usable texts and Generate will return "".
func (m *Model) Len() int {
	return len(m.chains)
}

// BeginningCount returns the number of recorded text openings, duplicates
// included.
func (m *Model) BeginningCount() int {
	return len(m.beginnings)
}

// Successors returns a copy of the recorded successor tokens for a window,
// duplicates included, or nil if the window was never observed.
func (m *Model) Successors(window ...string) []string {
	next, ok := m.chains[windowKey(window)]
	if !ok {
		return nil
	}
	out := make([]string, len(next))
	copy(out, next)
	return out
}
