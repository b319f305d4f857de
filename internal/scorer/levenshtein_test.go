package scorer

import "testing"

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "banana", 6},
		{"banana", "", 6},
		{"banana", "banana", 0},
		{"banan", "banana", 1},
		{"bana", "banana", 2},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"stop", "stip", 1},
		{"über", "uber", 1},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b, defaultEditCosts); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestLevenshteinSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"apple", "pear"},
		{"butterscotch", "badger"},
		{"", "pomegranate"},
		{"aardvark", "aardwolf"},
		{"a", "ab"},
	}
	for _, p := range pairs {
		ab := levenshtein(p[0], p[1], defaultEditCosts)
		ba := levenshtein(p[1], p[0], defaultEditCosts)
		if ab != ba {
			t.Errorf("distance not symmetric for (%q, %q): %d vs %d", p[0], p[1], ab, ba)
		}
	}
}

func TestLevenshteinIdentity(t *testing.T) {
	for _, s := range []string{"", "a", "chocolate", "pomegranate"} {
		if got := levenshtein(s, s, defaultEditCosts); got != 0 {
			t.Errorf("levenshtein(%q, %q) = %d, want 0", s, s, got)
		}
		if got := levenshtein("", s, defaultEditCosts); got != len([]rune(s)) {
			t.Errorf("levenshtein(\"\", %q) = %d, want %d", s, got, len(s))
		}
	}
}

func TestLevenshteinCustomCosts(t *testing.T) {
	costs := editCosts{insert: 2, replace: 3, delete: 1}

	// "ab" -> "abc": one insertion.
	if got := levenshtein("ab", "abc", costs); got != 2 {
		t.Errorf("insertion cost = %d, want 2", got)
	}
	// "abc" -> "ab": one deletion.
	if got := levenshtein("abc", "ab", costs); got != 1 {
		t.Errorf("deletion cost = %d, want 1", got)
	}
	// "abc" -> "abd": replace and delete+insert both cost 3.
	if got := levenshtein("abc", "abd", costs); got != 3 {
		t.Errorf("substitution cost = %d, want 3", got)
	}
	// Empty against non-empty scales with the corresponding cost.
	if got := levenshtein("", "abc", costs); got != 6 {
		t.Errorf("insert-only distance = %d, want 6", got)
	}
	if got := levenshtein("abc", "", costs); got != 3 {
		t.Errorf("delete-only distance = %d, want 3", got)
	}
}
