package fts

import (
	"reflect"
	"testing"
)

func TestTokenizeLowercasesAndSplitsOnWhitespace(t *testing.T) {
	got := Tokenize("Hello   World\tFoo\nBar")
	want := []string{"hello", "world", "foo", "bar"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeFoldsDiacritics(t *testing.T) {
	got := Tokenize("Café Déjà Freediving")
	want := []string{"cafe", "deja", "freediving"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTruncateForLookup(t *testing.T) {
	if got := TruncateForLookup("freediving"); got != "freed" {
		t.Errorf("TruncateForLookup = %q, want %q", got, "freed")
	}
	if got := TruncateForLookup("hi"); got != "hi" {
		t.Errorf("TruncateForLookup = %q, want %q", got, "hi")
	}
}

func TestNGramsSingleCharToken(t *testing.T) {
	got := NGrams("0")
	want := []string{"0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NGrams(\"0\") = %v, want %v", got, want)
	}
}

func TestNGramsContainsFullTruncationLengthSubstring(t *testing.T) {
	grams := NGrams("child #27")
	set := toSet(grams)
	for _, want := range []string{"c", "ch", "chi", "chil", "child", "2", "27"} {
		if _, ok := set[want]; !ok {
			t.Errorf("NGrams(%q) missing %q", "child #27", want)
		}
	}
	// "child" is exactly 5 chars, the max substring length, so it must be
	// present even though longer words would be cut off here.
	if _, ok := set["child"]; !ok {
		t.Error("NGrams should include the full 5-char token")
	}
}

func TestNGramsRespectsUTF8RuneBoundaries(t *testing.T) {
	// "café" folds to "cafe" (ASCII) after diacritic folding, but feed a
	// non-Latin-1 multi-byte rune through directly to ensure substring
	// slicing never panics or splits a code point.
	grams := NGrams("日本語")
	set := toSet(grams)
	for _, want := range []string{"日", "本", "語", "日本", "本語", "日本語"} {
		if _, ok := set[want]; !ok {
			t.Errorf("NGrams(\"日本語\") missing %q", want)
		}
	}
}

func TestNGramsDeduplicatesAcrossTokens(t *testing.T) {
	grams := NGrams("aa aa")
	count := 0
	for _, g := range grams {
		if g == "a" || g == "aa" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected \"a\" and \"aa\" each once, got %d matching entries", count)
	}
}

func toSet(ss []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		m[s] = struct{}{}
	}
	return m
}
