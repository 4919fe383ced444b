// Package segment splits document text into bounded-length cards.
package segment

import (
	"strings"

	"github.com/metcalfc/cardr/internal/card"
)

// DefaultMaxLength is the card capacity used when none is configured.
const DefaultMaxLength = 260

// Normalize collapses runs of whitespace into single spaces and trims the
// ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// isSentenceEnd reports whether r terminates a sentence.
func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Segment divides text into cards of at most maxLength runes. Cards end on
// sentence punctuation where the window allows it, otherwise on a word
// boundary. A single word longer than maxLength is hard broken.
//
// Only the spaces at card boundaries are dropped; removing every space from
// the cards and from Normalize(text) gives the same string. A cut may fall
// inside a token after a terminator, as in "3." "14", so rejoining with
// single spaces reproduces Normalize(text) only when every cut lands on a
// space.
func Segment(text string, maxLength int) []string {
	if maxLength < 1 {
		maxLength = DefaultMaxLength
	}
	runes := []rune(Normalize(text))
	n := len(runes)

	out := []string{}
	cursor := 0
	for cursor < n {
		end := cursor + maxLength
		if end > n {
			end = n
		}
		window := runes[cursor:end]
		cut := len(window)
		if end < n {
			cut = cutPoint(window)
		}

		if s := strings.TrimSpace(string(window[:cut])); s != "" {
			out = append(out, s)
		}

		cursor += cut
		for cursor < n && runes[cursor] == ' ' {
			cursor++
		}
	}
	return out
}

// cutPoint picks where a full window ends: after the last sentence
// terminator, else before the last interior space, else at the window end.
func cutPoint(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if isSentenceEnd(window[i]) {
			return i + 1
		}
	}
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == ' ' {
			return i
		}
	}
	return len(window)
}

// Cards segments text and wraps every segment as a text card.
func Cards(text string, maxLength int) card.Sequence {
	parts := Segment(text, maxLength)
	seq := make(card.Sequence, 0, len(parts))
	for _, p := range parts {
		seq = append(seq, card.NewText(p))
	}
	return seq
}
