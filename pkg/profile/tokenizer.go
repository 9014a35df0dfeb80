package profile

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-ego/gse"
)

// Tokenizer segments free text into vocabulary terms. Messages may be CJK
// text with no word delimiters, so plain whitespace splitting is not enough.
type Tokenizer struct {
	seg gse.Segmenter
}

func NewTokenizer() (*Tokenizer, error) {
	t := &Tokenizer{}
	if err := t.seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("load segmenter dict: %w", err)
	}
	return t, nil
}

// Tokenize returns the lowercased terms of text, dropping pure
// punctuation/whitespace segments. Empty or whitespace-only input yields an
// empty sequence.
func (t *Tokenizer) Tokenize(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	segments := t.seg.Cut(text, true)
	tokens := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || !hasWordRune(s) {
			continue
		}
		tokens = append(tokens, s)
	}
	return tokens
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
