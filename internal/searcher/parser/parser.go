// Package parser turns raw query strings into QueryPlans: normalised include
// and exclude term lists plus a combining mode.
package parser

import (
	"strings"

	"github.com/searchlite/searchlite/internal/indexer/tokenizer"
)

// QueryType selects how a plan's terms are combined.
type QueryType int

const (
	QueryAND QueryType = iota
	QueryOR
)

// QueryPlan is the parsed form of a search query. Terms and ExcludeTerms are
// already normalised by the same tokenizer that built the index, so plan
// terms compare byte-for-byte against posting keys.
type QueryPlan struct {
	Terms        []string
	Type         QueryType
	ExcludeTerms []string
	RawQuery     string
}

// Parse interprets query word by word. AND and OR (any case) set the
// combining mode for the whole plan, last one wins; NOT marks the next term
// as an exclusion. Every other word is normalised, and words that normalise
// to nothing are dropped.
func Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		Terms:        []string{},
		ExcludeTerms: []string{},
		Type:         QueryAND,
		RawQuery:     query,
	}

	exclude := false
	for _, word := range strings.Fields(query) {
		switch strings.ToUpper(word) {
		case "AND":
			plan.Type = QueryAND
			continue
		case "OR":
			plan.Type = QueryOR
			continue
		case "NOT":
			exclude = true
			continue
		}

		terms := tokenizer.Tokenize(word)
		if len(terms) == 0 {
			continue
		}
		if exclude {
			plan.ExcludeTerms = append(plan.ExcludeTerms, terms[0])
			exclude = false
		} else {
			plan.Terms = append(plan.Terms, terms[0])
		}
	}
	return plan
}
