package parser

import (
	"reflect"
	"testing"
)

// TestParse covers operator handling and term normalisation.
func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantType     QueryType
		wantTerms    []string
		wantExcludes []string
	}{
		{
			name:      "implicit_and",
			query:     "keyword research",
			wantType:  QueryAND,
			wantTerms: []string{"keyword", "research"},
		},
		{
			name:      "explicit_and",
			query:     "keyword AND research",
			wantType:  QueryAND,
			wantTerms: []string{"keyword", "research"},
		},
		{
			name:      "or_query",
			query:     "crawling OR indexing",
			wantType:  QueryOR,
			wantTerms: []string{"crawling", "indexing"},
		},
		{
			name:         "not_excludes_following_term",
			query:        "seo NOT spam",
			wantType:     QueryAND,
			wantTerms:    []string{"seo"},
			wantExcludes: []string{"spam"},
		},
		{
			name:         "mixed_operators",
			query:        "links OR anchors NOT paid",
			wantType:     QueryOR,
			wantTerms:    []string{"links", "anchors"},
			wantExcludes: []string{"paid"},
		},
		{
			name:      "terms_are_normalised",
			query:     "SEO, Basics!",
			wantType:  QueryAND,
			wantTerms: []string{"seo", "basics"},
		},
		{
			name:     "empty",
			query:    "",
			wantType: QueryAND,
		},
		{
			name:     "whitespace_only",
			query:    "   ",
			wantType: QueryAND,
		},
		{
			name:     "operators_only",
			query:    "AND OR NOT",
			wantType: QueryOR,
		},
		{
			name:      "punctuation_only_word_dropped",
			query:     "seo !!! basics",
			wantType:  QueryAND,
			wantTerms: []string{"seo", "basics"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Parse(tt.query)
			if plan.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", plan.Type, tt.wantType)
			}
			if tt.wantTerms == nil {
				tt.wantTerms = []string{}
			}
			if tt.wantExcludes == nil {
				tt.wantExcludes = []string{}
			}
			if !reflect.DeepEqual(plan.Terms, tt.wantTerms) {
				t.Errorf("Terms = %v, want %v", plan.Terms, tt.wantTerms)
			}
			if !reflect.DeepEqual(plan.ExcludeTerms, tt.wantExcludes) {
				t.Errorf("ExcludeTerms = %v, want %v", plan.ExcludeTerms, tt.wantExcludes)
			}
			if plan.RawQuery != tt.query {
				t.Errorf("RawQuery = %q, want %q", plan.RawQuery, tt.query)
			}
		})
	}
}

// TestParseLowercaseOperators verifies operator words are recognised in
// any case.
func TestParseLowercaseOperators(t *testing.T) {
	plan := Parse("crawling or indexing not spam")
	if plan.Type != QueryOR {
		t.Errorf("Type = %v, want QueryOR", plan.Type)
	}
	if len(plan.Terms) != 2 {
		t.Errorf("Terms = %v, want two terms", plan.Terms)
	}
	if len(plan.ExcludeTerms) != 1 || plan.ExcludeTerms[0] != "spam" {
		t.Errorf("ExcludeTerms = %v, want [spam]", plan.ExcludeTerms)
	}
}
