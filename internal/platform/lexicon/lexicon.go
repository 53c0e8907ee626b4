// Package lexicon implements a rule-based annotator.Engine that marks known
// self-harm phrases. It needs no external service, which makes it the default
// engine for local runs and the reference engine in tests.
package lexicon

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/dsh-elg/internal/annotator"
)

// Risk levels attached to matched phrases.
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
)

// Entry is a phrase and the features attached to each match of it.
type Entry struct {
	Phrase   string
	Risk     string
	Category string
}

// DefaultEntries is the built-in phrase list.
var DefaultEntries = []Entry{
	{Phrase: "kill myself", Risk: RiskHigh, Category: "suicidal-ideation"},
	{Phrase: "end my life", Risk: RiskHigh, Category: "suicidal-ideation"},
	{Phrase: "take my own life", Risk: RiskHigh, Category: "suicidal-ideation"},
	{Phrase: "want to die", Risk: RiskHigh, Category: "suicidal-ideation"},
	{Phrase: "suicide", Risk: RiskHigh, Category: "suicidal-ideation"},
	{Phrase: "hurt myself", Risk: RiskHigh, Category: "self-injury"},
	{Phrase: "cut myself", Risk: RiskHigh, Category: "self-injury"},
	{Phrase: "self-harm", Risk: RiskHigh, Category: "self-injury"},
	{Phrase: "self harm", Risk: RiskHigh, Category: "self-injury"},
	{Phrase: "no reason to live", Risk: RiskMedium, Category: "hopelessness"},
	{Phrase: "better off without me", Risk: RiskMedium, Category: "hopelessness"},
	{Phrase: "can't go on", Risk: RiskMedium, Category: "hopelessness"},
	{Phrase: "hate myself", Risk: RiskMedium, Category: "self-loathing"},
}

// Engine matches phrases case-insensitively on word boundaries.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	pattern *regexp.Regexp
	byLower map[string]Entry
}

// New compiles entries into an Engine. Longer phrases win over phrases they contain.
func New(entries []Entry) *Engine {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Phrase) > len(sorted[j].Phrase)
	})

	alternatives := make([]string, 0, len(sorted))
	byLower := make(map[string]Entry, len(sorted))
	for _, e := range sorted {
		key := strings.ToLower(e.Phrase)
		if _, dup := byLower[key]; dup {
			continue
		}
		byLower[key] = e
		alternatives = append(alternatives, regexp.QuoteMeta(key))
	}

	e := &Engine{byLower: byLower}
	if len(alternatives) > 0 {
		e.pattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(alternatives, "|") + `)\b`)
	}
	return e
}

// NewDefault returns an Engine over DefaultEntries.
func NewDefault() *Engine {
	return New(DefaultEntries)
}

// ProcessText implements annotator.Engine. Offsets count Unicode code points.
func (e *Engine) ProcessText(ctx context.Context, text, textID string) (annotator.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := []*annotator.Record{}
	if e.pattern != nil {
		for _, loc := range e.pattern.FindAllStringIndex(text, -1) {
			entry := e.byLower[strings.ToLower(text[loc[0]:loc[1]])]
			start := utf8.RuneCountInString(text[:loc[0]])
			end := start + utf8.RuneCountInString(text[loc[0]:loc[1]])

			records = append(records, annotator.NewSpan(start, end).
				Set("risk", entry.Risk).
				Set("category", entry.Category))
		}
	}

	return annotator.Result{textID: records}, nil
}
