package search

import "testing"

func TestTrigrams(t *testing.T) {
	got := Trigrams("cat")

	expected := []string{"  c", " ca", "cat", "at "}
	if len(got) != len(expected) {
		t.Fatalf("expected %d trigrams, got %d: %v", len(expected), len(got), got)
	}
	for _, tri := range expected {
		if _, ok := got[tri]; !ok {
			t.Errorf("missing trigram %q", tri)
		}
	}
}

func TestTrigrams_WordBoundaries(t *testing.T) {
	// Punctuation and case must not produce distinct trigrams.
	a := Trigrams("Grumpy, CAT!")
	b := Trigrams("grumpy cat")

	if len(a) != len(b) {
		t.Fatalf("normalization mismatch: %v vs %v", a, b)
	}
	for tri := range b {
		if _, ok := a[tri]; !ok {
			t.Errorf("missing trigram %q after normalization", tri)
		}
	}
}

func TestTrigramSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "grumpy cat", "grumpy cat", 1.0, 1.0},
		{"disjoint", "xyz", "qqq", 0.0, 0.0},
		{"typo stays above threshold", "grumpy kat", "grumpy cat meme", DefaultTrigramThreshold, 0.99},
		{"unrelated stays below threshold", "hat", "cat sleeping", 0.0, DefaultTrigramThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrigramSimilarity(Trigrams(tt.a), Trigrams(tt.b))
			if got < tt.min || got > tt.max {
				t.Errorf("TrigramSimilarity(%q, %q) = %v, want within [%v, %v]",
					tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestTrigramSimilarity_Empty(t *testing.T) {
	if got := TrigramSimilarity(Trigrams(""), Trigrams("cat")); got != 0 {
		t.Errorf("expected 0 for empty set, got %v", got)
	}
	if got := TrigramSimilarity(Trigrams("!!!"), Trigrams("cat")); got != 0 {
		t.Errorf("expected 0 for symbol-only text, got %v", got)
	}
}
