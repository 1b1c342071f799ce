// Package fts implements the naive n-gram substring tokenizer that backs
// the full-text index (§4.3). It is deliberately not a ranked IR engine:
// it only decides what (id, ngram) rows a text produces and what tokens a
// query expands to.
package fts

import (
	"strings"
	"unicode"
)

// MaxNgram bounds both the substring length enumerated per token and the
// length a query token is truncated to for lookup.
const MaxNgram = 5

// diacriticFold is the fixed Latin-1 supplement equivalence table: each
// accented letter folds to its unaccented ASCII base. This is deliberately
// a small, pinned table rather than a general Unicode normalizer — the
// store's matching behavior is defined in terms of exactly these
// equivalences, not "however NFKD decomposition happens to behave".
var diacriticFold = map[rune]rune{
	'À': 'a', 'Á': 'a', 'Â': 'a', 'Ã': 'a', 'Ä': 'a', 'Å': 'a',
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'Æ': 'a', 'æ': 'a',
	'Ç': 'c', 'ç': 'c',
	'È': 'e', 'É': 'e', 'Ê': 'e', 'Ë': 'e',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'Ì': 'i', 'Í': 'i', 'Î': 'i', 'Ï': 'i',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'Ð': 'd', 'ð': 'd',
	'Ñ': 'n', 'ñ': 'n',
	'Ò': 'o', 'Ó': 'o', 'Ô': 'o', 'Õ': 'o', 'Ö': 'o', 'Ø': 'o',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o',
	'Ù': 'u', 'Ú': 'u', 'Û': 'u', 'Ü': 'u',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'Ý': 'y', 'ý': 'y', 'ÿ': 'y',
	'Þ': 't', 'þ': 't',
	'ß': 's',
}

// foldAndLower diacritic-folds then lowercases text, rune by rune.
func foldAndLower(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if folded, ok := diacriticFold[r]; ok {
			b.WriteRune(folded)
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Tokenize folds, lowercases, and splits text on Unicode whitespace.
func Tokenize(text string) []string {
	return strings.Fields(foldAndLower(text))
}

// TruncateForLookup truncates a token to MaxNgram runes, the form a query
// token is compared against stored ngrams in.
func TruncateForLookup(token string) string {
	runes := []rune(token)
	if len(runes) > MaxNgram {
		return string(runes[:MaxNgram])
	}
	return token
}

// tokenNgrams enumerates every distinct substring of token with length
// 1..=min(MaxNgram, len(token)), respecting rune (UTF-8 code point)
// boundaries.
func tokenNgrams(token string) []string {
	runes := []rune(token)
	maxLen := len(runes)
	if maxLen == 0 {
		return nil
	}
	maxSub := MaxNgram
	if maxLen < maxSub {
		maxSub = maxLen
	}

	seen := make(map[string]struct{})
	var out []string
	for length := 1; length <= maxSub; length++ {
		for pos := 0; pos+length <= maxLen; pos++ {
			substr := string(runes[pos : pos+length])
			if _, ok := seen[substr]; ok {
				continue
			}
			seen[substr] = struct{}{}
			out = append(out, substr)
		}
	}
	return out
}

// NGrams tokenizes text and returns the deduplicated set of ngrams across
// every token, in first-seen order. Full (untruncated) tokens are used:
// only the query side is truncated to MaxNgram for lookup.
func NGrams(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range Tokenize(text) {
		for _, g := range tokenNgrams(tok) {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}
