package segment

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			max:      10,
			expected: []string{},
		},
		{
			name:     "whitespace only",
			input:    " \n\t ",
			max:      10,
			expected: []string{},
		},
		{
			name:     "fits in one card",
			input:    "hello world",
			max:      260,
			expected: []string{"hello world"},
		},
		{
			name:     "exactly max length",
			input:    "hello world",
			max:      11,
			expected: []string{"hello world"},
		},
		{
			name:     "each sentence fits exactly",
			input:    "A. B. C.",
			max:      3,
			expected: []string{"A.", "B.", "C."},
		},
		{
			name:     "prefers sentence end over word boundary",
			input:    "One two. Three four five six",
			max:      16,
			expected: []string{"One two.", "Three four five", "six"},
		},
		{
			name:     "question and exclamation marks",
			input:    "Why? Because! Fine then",
			max:      14,
			expected: []string{"Why? Because!", "Fine then"},
		},
		{
			name:     "terminator at window boundary is included",
			input:    "abc def. ghi",
			max:      8,
			expected: []string{"abc def.", "ghi"},
		},
		{
			name:     "falls back to last space",
			input:    "the quick brown fox jumps",
			max:      10,
			expected: []string{"the quick", "brown fox", "jumps"},
		},
		{
			name:     "hard break for long word",
			input:    "abcdefghij",
			max:      4,
			expected: []string{"abcd", "efgh", "ij"},
		},
		{
			name:     "long word after short one",
			input:    "a bcdefgh",
			max:      4,
			expected: []string{"a", "bcde", "fgh"},
		},
		{
			name:     "collapses whitespace",
			input:    "  hello \n\n  world  ",
			max:      260,
			expected: []string{"hello world"},
		},
		{
			name:     "counts runes not bytes",
			input:    "héllo wörld",
			max:      11,
			expected: []string{"héllo wörld"},
		},
		{
			name:     "terminator inside a token",
			input:    "pi is 3.14159 ok",
			max:      8,
			expected: []string{"pi is 3.", "14159 ok"},
		},
		{
			name:     "non-positive max uses default",
			input:    "short text",
			max:      0,
			expected: []string{"short text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.input, tt.max)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Segment(%q, %d) mismatch (-want +got):\n%s", tt.input, tt.max, diff)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("\ta  b\n\nc "))
	assert.Equal(t, "", Normalize("   "))
}

var vocabulary = []string{
	"the", "whale", "sea", "Ishmael", "harpoon.", "why?", "now!", "a",
	"extraordinarilylongword", "x", "ship,", "captain", "é", "Pequod.",
}

func randomText(r *rand.Rand) string {
	n := r.Intn(120)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(vocabulary[r.Intn(len(vocabulary))])
		switch r.Intn(6) {
		case 0:
			sb.WriteString("  ")
		case 1:
			sb.WriteString("\n")
		default:
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

func longestWord(s string) int {
	longest := 0
	for _, w := range strings.Fields(s) {
		if n := utf8.RuneCountInString(w); n > longest {
			longest = n
		}
	}
	return longest
}

func TestSegmentProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		text := randomText(r)
		max := 1 + r.Intn(60)
		cards := Segment(text, max)

		joined, want := strings.Join(cards, " "), Normalize(text)
		// The vocabulary only ends words with terminators, so every cut
		// lands on a space unless a word is hard broken.
		if longestWord(want) <= max && joined != want {
			t.Fatalf("join mismatch for max=%d\n got: %q\nwant: %q", max, joined, want)
		}
		// Hard breaks add a space inside the broken word and nothing else.
		if strings.ReplaceAll(joined, " ", "") != strings.ReplaceAll(want, " ", "") {
			t.Fatalf("content lost for max=%d\n got: %q\nwant: %q", max, joined, want)
		}

		for j, c := range cards {
			if c == "" {
				t.Fatalf("empty card %d", j)
			}
			if utf8.RuneCountInString(c) > max {
				t.Fatalf("card %q longer than %d", c, max)
			}
			if c != strings.TrimSpace(c) {
				t.Fatalf("card %q has outer whitespace", c)
			}
			// Re-segmenting a card yields the card itself.
			if again := Segment(c, max); len(again) != 1 || again[0] != c {
				t.Fatalf("Segment(%q, %d) = %q, want the card back", c, max, again)
			}
		}
	}
}

func TestSegmentEndsOnSentenceWhenPossible(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		text := Normalize(randomText(r))
		max := 5 + r.Intn(40)
		cards := Segment(text, max)
		runes := []rune(text)

		offset := 0
		for j, c := range cards {
			n := utf8.RuneCountInString(c)
			if j < len(cards)-1 {
				end := offset + max
				if end > len(runes) {
					end = len(runes)
				}
				window := string(runes[offset:end])
				last := c[len(c)-1]
				if strings.ContainsAny(window, ".!?") && last != '.' && last != '!' && last != '?' {
					t.Fatalf("card %q does not end on punctuation inside window %q", c, window)
				}
			}
			offset += n
			for offset < len(runes) && runes[offset] == ' ' {
				offset++
			}
		}
	}
}

func TestCards(t *testing.T) {
	seq := Cards("One. Two.", 4)
	assert.Equal(t, []string{"One.", "Two."}, seq.Texts())
	assert.Empty(t, Cards("", 10))
}
