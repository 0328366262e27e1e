package cache

import (
	"strings"
	"testing"
)

// TestNormalizeQuery verifies logically identical queries collapse to
// one canonical form.
func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"case_insensitive", "SEO basics", "seo BASICS", true},
		{"term_order", "keyword research", "research keyword", true},
		{"explicit_and_equals_implicit", "a AND b", "a b", true},
		{"operator_changes_key", "a AND b", "a OR b", false},
		{"not_term_changes_key", "seo", "seo NOT spam", false},
		{"not_order_canonical", "a NOT x NOT y", "a NOT y NOT x", true},
		{"different_terms", "crawling", "indexing", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			na, nb := normalizeQuery(tt.a), normalizeQuery(tt.b)
			if (na == nb) != tt.same {
				t.Errorf("normalizeQuery(%q)=%q vs normalizeQuery(%q)=%q, want same=%v",
					tt.a, na, tt.b, nb, tt.same)
			}
		})
	}
}

// TestBuildKey verifies keys are prefixed for pattern invalidation and
// incorporate the limit.
func TestBuildKey(t *testing.T) {
	c := &QueryCache{}

	k1 := c.buildKey("keyword research", 10)
	k2 := c.buildKey("research keyword", 10)
	k3 := c.buildKey("keyword research", 20)

	if !strings.HasPrefix(k1, keyPrefix) {
		t.Errorf("key %q missing prefix %q", k1, keyPrefix)
	}
	if k1 != k2 {
		t.Errorf("equivalent queries got different keys: %q vs %q", k1, k2)
	}
	if k1 == k3 {
		t.Error("different limits share a key")
	}
}
