package markov

import "strings"

// ModelStats holds aggregated statistics for a single model.
type ModelStats struct {
	Windows     int // The number of distinct window keys.
	Transitions int // The total number of recorded successors, duplicates included.
	Beginnings  int // The number of recorded text openings, duplicates included.
	Vocabulary  int // The number of distinct tokens across windows and successors.
}

// Stats returns a snapshot of the model's size and shape.
func (m *Model) Stats() ModelStats {
	seen := make(map[string]struct{})
	var transitions int

	for key, next := range m.chains {
		for _, token := range strings.Split(key, " ") {
			seen[token] = struct{}{}
		}
		for _, token := range next {
			seen[token] = struct{}{}
		}
		transitions += len(next)
	}

	return ModelStats{
		Windows:     len(m.chains),
		Transitions: transitions,
		Beginnings:  len(m.beginnings),
		Vocabulary:  len(seen),
	}
}
