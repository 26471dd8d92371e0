package markov

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestBuild(t *testing.T) {
	corpus := []string{
		"the cat sat on the mat.",
		"the cat ran away.",
	}
	m := Build(NewDefaultTokenizer(), 2, corpus)

	if m.Order() != 2 {
		t.Errorf("Order() = %d, want 2", m.Order())
	}
	if m.BeginningCount() != 2 {
		t.Errorf("BeginningCount() = %d, want 2 (both texts open with the same window)", m.BeginningCount())
	}

	got := m.Successors("the", "cat")
	sort.Strings(got)
	want := []string{"ran", "sat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf(`Successors("the", "cat") = %v, want %v`, got, want)
	}

	if next := m.Successors("on", "the"); !reflect.DeepEqual(next, []string{"mat."}) {
		t.Errorf(`Successors("on", "the") = %v, want [mat.]`, next)
	}
	if next := m.Successors("never", "seen"); next != nil {
		t.Errorf("expected nil successors for an unseen window, got %v", next)
	}
}

func TestBuildSkipsShortTexts(t *testing.T) {
	testCases := []struct {
		name           string
		corpus         []string
		order          int
		wantLen        int
		wantBeginnings int
	}{
		{
			name:           "Empty corpus",
			corpus:         nil,
			order:          2,
			wantLen:        0,
			wantBeginnings: 0,
		},
		{
			name:           "Text of exactly order tokens is skipped",
			corpus:         []string{"one two"},
			order:          2,
			wantLen:        0,
			wantBeginnings: 0,
		},
		{
			name:           "Text of order plus one tokens contributes",
			corpus:         []string{"one two three"},
			order:          2,
			wantLen:        1,
			wantBeginnings: 1,
		},
		{
			name:           "Blank texts contribute nothing",
			corpus:         []string{"", "   ", "a b c."},
			order:          2,
			wantLen:        1,
			wantBeginnings: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := Build(NewDefaultTokenizer(), tc.order, tc.corpus)
			if m.Len() != tc.wantLen {
				t.Errorf("Len() = %d, want %d", m.Len(), tc.wantLen)
			}
			if m.BeginningCount() != tc.wantBeginnings {
				t.Errorf("BeginningCount() = %d, want %d", m.BeginningCount(), tc.wantBeginnings)
			}
		})
	}
}

func TestBuildKeepsDuplicates(t *testing.T) {
	// The same text twice doubles every successor's weight.
	corpus := []string{"a b c.", "a b c."}
	m := Build(NewDefaultTokenizer(), 2, corpus)

	if got := m.Successors("a", "b"); !reflect.DeepEqual(got, []string{"c.", "c."}) {
		t.Errorf(`Successors("a", "b") = %v, want [c. c.]`, got)
	}
	if m.BeginningCount() != 2 {
		t.Errorf("BeginningCount() = %d, want 2", m.BeginningCount())
	}
}

func TestStats(t *testing.T) {
	corpus := []string{
		"the cat sat on the mat.",
		"the cat ran away.",
	}
	m := Build(NewDefaultTokenizer(), 2, corpus)
	stats := m.Stats()

	// Windows: "the cat", "cat sat", "sat on", "on the", "cat ran".
	if stats.Windows != 5 {
		t.Errorf("Stats().Windows = %d, want 5", stats.Windows)
	}
	// One successor per window, except "the cat" which has two.
	if stats.Transitions != 6 {
		t.Errorf("Stats().Transitions = %d, want 6", stats.Transitions)
	}
	if stats.Beginnings != 2 {
		t.Errorf("Stats().Beginnings = %d, want 2", stats.Beginnings)
	}
	// the, cat, sat, on, mat., ran, away.
	if stats.Vocabulary != 7 {
		t.Errorf("Stats().Vocabulary = %d, want 7", stats.Vocabulary)
	}
}

func BenchmarkBuild(b *testing.B) {
	corpus := benchmarkCorpus(2000)
	tok := NewDefaultTokenizer()

	for _, order := range []int{2, 3, 4} {
		b.Run(fmt.Sprintf("Order%d", order), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				Build(tok, order, corpus)
			}
		})
	}
}

// benchmarkCorpus fabricates n pseudo-posts with enough shared windows to
// give the chains realistic branching.
func benchmarkCorpus(n int) []string {
	words := []string{"the", "quick", "brown", "fox", "jumps", "over", "a", "lazy", "dog", "and", "runs", "away"}
	corpus := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var sb strings.Builder
		for j := 0; j < 12; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(words[(i*7+j*3)%len(words)])
		}
		sb.WriteByte('.')
		corpus = append(corpus, sb.String())
	}
	return corpus
}
