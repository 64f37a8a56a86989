package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// At size 10 every rune of monoFont is 5pt wide.
const size = 10.0

func TestWrapText_ShortTextIsOneLine(t *testing.T) {
	lines := WrapText("  Hello   brave \t new  world ", monoFont{}, size, 500)
	assert.Equal(t, []string{"Hello brave new world"}, lines)
}

func TestWrapText_Empty(t *testing.T) {
	assert.Empty(t, WrapText("", monoFont{}, size, 100))
	assert.Empty(t, WrapText(" \n\t ", monoFont{}, size, 100))
}

func TestWrapText_GreedyFill(t *testing.T) {
	// 10 runes per line
	lines := WrapText("aaa bbb ccc ddd eee", monoFont{}, size, 50)
	assert.Equal(t, []string{"aaa bbb", "ccc ddd", "eee"}, lines)
}

func TestWrapText_HardBreaksLongWord(t *testing.T) {
	font := monoFont{}
	lines := WrapText("xy "+strings.Repeat("W", 23)+" end", font, size, 50)

	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, []string{"xy", "WWWWWWWWWW", "WWWWWWWWWW", "WWW", "end"}, lines)
	for _, l := range lines {
		assert.LessOrEqual(t, font.WidthOfTextAtSize(l, size), 50.0, l)
	}
}

func TestWrapText_SingleLongToken(t *testing.T) {
	font := monoFont{}
	token := strings.Repeat("ø", 15)
	lines := WrapText(token, font, size, 40)

	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, token, strings.Join(lines, ""))
	for _, l := range lines {
		assert.LessOrEqual(t, font.WidthOfTextAtSize(l, size), 40.0)
	}
}

func TestWrapText_TooNarrowForOneRune(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, WrapText("abc", monoFont{}, size, 2))
	assert.Equal(t, []string{"a", "b"}, WrapText("a b", monoFont{}, size, 0))
	assert.Equal(t, []string{"a", "b"}, WrapText("ab", monoFont{}, size, -10))
}

func TestWrapText_Idempotent(t *testing.T) {
	inputs := []string{
		"Konsulentbistand vedrørende opsætning af CRM, inklusive datamigrering og træning",
		strings.Repeat("abcdefghij", 7) + " short words after a very long token",
		"one",
	}
	widths := []float64{30, 60, 120, 400}

	for _, in := range inputs {
		for _, w := range widths {
			lines := WrapText(in, monoFont{}, size, w)
			for _, l := range lines {
				assert.Equal(t, []string{l}, WrapText(l, monoFont{}, size, w), "width %v", w)
			}
		}
	}
}

func TestWrapText_Deterministic(t *testing.T) {
	in := "the same input always gives the same lines"
	assert.Equal(t, WrapText(in, monoFont{}, size, 45), WrapText(in, monoFont{}, size, 45))
}

func TestMaxLineWidth(t *testing.T) {
	assert.Equal(t, 25.0, MaxLineWidth([]string{"ab", "abcde", ""}, monoFont{}, size))
	assert.Equal(t, 0.0, MaxLineWidth(nil, monoFont{}, size))
}
