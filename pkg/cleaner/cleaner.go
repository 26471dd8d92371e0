// Package cleaner provides the text-cleaning pipeline applied to candidate
// source texts before they reach the chain builder. A single configurable
// rule list replaces per-source ad hoc cleaning, so the engine never
// depends on which source a text came from.
package cleaner

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is one ordered pattern -> replacement step of the pipeline.
type Rule struct {
	Pattern string `json:"pattern"`
	Replace string `json:"replace"`
}

type compiledRule struct {
	re      *regexp.Regexp
	replace string
}

// Pipeline applies an ordered list of cleaning rules plus an exclusion
// filter. Texts matching the exclusion filter must never be added to the
// corpus.
type Pipeline struct {
	rules   []compiledRule
	exclude *regexp.Regexp
}

// DefaultRules strips URLs and mentions and collapses whitespace, which is
// the minimum cleaning any social feed needs before training.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: `https?://\S+`, Replace: ""},
		{Pattern: `@\w+`, Replace: ""},
		{Pattern: `\s+`, Replace: " "},
	}
}

// New compiles a pipeline from rules and an optional exclusion pattern.
// An empty exclude string disables the exclusion filter.
func New(rules []Rule, exclude string) (*Pipeline, error) {
	p := &Pipeline{}

	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid cleaning pattern %q: %w", rule.Pattern, err)
		}
		p.rules = append(p.rules, compiledRule{re: re, replace: rule.Replace})
	}

	if exclude != "" {
		re, err := regexp.Compile(exclude)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", exclude, err)
		}
		p.exclude = re
	}

	return p, nil
}

// Clean runs every rule over the text in order and trims the result.
func (p *Pipeline) Clean(text string) string {
	for _, rule := range p.rules {
		text = rule.re.ReplaceAllString(text, rule.replace)
	}
	return strings.TrimSpace(text)
}

// Excluded reports whether a candidate text must be kept out of the
// corpus. The check runs against the raw text, before any cleaning.
func (p *Pipeline) Excluded(text string) bool {
	return p.exclude != nil && p.exclude.MatchString(text)
}

// Prepare cleans every candidate text and drops the ones that are excluded
// or come out empty. The relative order of surviving texts is preserved.
func (p *Pipeline) Prepare(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		if p.Excluded(text) {
			continue
		}
		cleaned := p.Clean(text)
		if cleaned == "" {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}
