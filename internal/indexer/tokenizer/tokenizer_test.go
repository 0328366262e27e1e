package tokenizer

import (
	"reflect"
	"strings"
	"testing"
)

// TestTokenize verifies normalisation: lower-casing, punctuation
// stripping, whitespace splitting, and duplicate collapsing.
func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace_only", "   \t\n  ", nil},
		{"punctuation_only", "!!! ... ???", nil},
		{"simple", "keyword search", []string{"keyword", "search"}},
		{"mixed_case", "SEO Ranking", []string{"seo", "ranking"}},
		{"punctuation_stripped", "don't panic, really!", []string{"dont", "panic", "really"}},
		{"digits_kept", "top 10 pages of 2024", []string{"top", "10", "pages", "of", "2024"}},
		{"duplicates_collapse", "go go gadget go", []string{"go", "gadget"}},
		{"case_insensitive_dedupe", "Search search SEARCH", []string{"search"}},
		{"whitespace_runs", "a  \t b\n\nc", []string{"a", "b", "c"}},
		{"hyphenated_joins", "full-text", []string{"fulltext"}},
		{"unicode_letters", "Crème Brûlée", []string{"crème", "brûlée"}},
		{"symbols_between_words", "price:$30 (approx)", []string{"price30", "approx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestTokenizeFirstOccurrenceOrder verifies that deduplication keeps the
// first occurrence of each term in input order.
func TestTokenizeFirstOccurrenceOrder(t *testing.T) {
	got := Tokenize("beta alpha beta gamma alpha")
	want := []string{"beta", "alpha", "gamma"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize order = %v, want %v", got, want)
	}
}

// TestTokenizeLargeInput makes sure large texts do not lose terms.
func TestTokenizeLargeInput(t *testing.T) {
	text := strings.Repeat("alpha beta gamma ", 5000)
	got := Tokenize(text)
	if len(got) != 3 {
		t.Fatalf("expected 3 distinct tokens, got %d", len(got))
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Search", "search"},
		{"SEO", "seo"},
		{"already", "already"},
		{"", ""},
		{"With-Hyphen", "with-hyphen"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
