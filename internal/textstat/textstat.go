// Package textstat counts words across chat messages.
package textstat

import (
	"iter"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Segmenter splits text into tokens.
type Segmenter interface {
	Segment(text string) iter.Seq[string]
}

// Fields splits on Unicode whitespace. It is the fallback for chats
// without CJK text and the segmenter used when no dictionary is loaded.
type Fields struct{}

func (Fields) Segment(text string) iter.Seq[string] {
	return strings.FieldsSeq(text)
}

// Word is a token and how often it occurred.
type Word struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// Options tunes Frequencies.
type Options struct {
	Stopwords []string
	MinRunes  int // tokens shorter than this are dropped; 0 means 2
	Limit     int // 0 or less keeps every word
}

// Frequencies segments every text and returns word counts in descending
// order. Equal counts keep the order in which the words first appeared.
func Frequencies(seg Segmenter, texts []string, opts Options) []Word {
	minRunes := opts.MinRunes
	if minRunes <= 0 {
		minRunes = 2
	}
	stop := make(map[string]struct{}, len(opts.Stopwords))
	for _, w := range opts.Stopwords {
		stop[w] = struct{}{}
	}

	counts := make(map[string]int)
	var order []string
	for _, text := range texts {
		for tok := range seg.Segment(text) {
			tok = strings.TrimFunc(tok, unicode.IsSpace)
			if tok == "" || utf8.RuneCountInString(tok) < minRunes {
				continue
			}
			if _, skip := stop[tok]; skip {
				continue
			}
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	words := make([]Word, len(order))
	for i, tok := range order {
		words[i] = Word{Text: tok, Count: counts[tok]}
	}
	slices.SortStableFunc(words, func(a, b Word) int {
		return b.Count - a.Count
	})
	if opts.Limit > 0 && len(words) > opts.Limit {
		words = words[:opts.Limit]
	}
	return words
}

// CloudWord is a word with a display size.
type CloudWord struct {
	Word
	Size float64
}

// Cloud scales font sizes linearly between minSize and maxSize by count.
// When every count is equal each word gets maxSize.
func Cloud(words []Word, minSize, maxSize float64) []CloudWord {
	if len(words) == 0 {
		return nil
	}
	lo, hi := words[0].Count, words[0].Count
	for _, w := range words[1:] {
		lo = min(lo, w.Count)
		hi = max(hi, w.Count)
	}

	out := make([]CloudWord, len(words))
	for i, w := range words {
		size := maxSize
		if hi > lo {
			size = minSize + (maxSize-minSize)*float64(w.Count-lo)/float64(hi-lo)
		}
		out[i] = CloudWord{Word: w, Size: size}
	}
	return out
}
