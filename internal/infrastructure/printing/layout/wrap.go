package layout

import "strings"

// WrapText splits text into lines that each measure at most maxWidth.
//
// Words are filled greedily and re-joined with single spaces. A word that
// does not fit on a line of its own is broken by rune into chunks, each
// emitted as its own line. A rune that is wider than maxWidth by itself is
// still emitted alone, so the function always terminates. Blank input
// yields no lines.
func WrapText(text string, font Font, size, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := make([]string, 0, 1)
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if font.WidthOfTextAtSize(candidate, size) <= maxWidth {
			current = candidate
			continue
		}

		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		if font.WidthOfTextAtSize(word, size) <= maxWidth {
			current = word
			continue
		}
		lines = append(lines, breakWord(word, font, size, maxWidth)...)
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// breakWord hard-breaks a single token into chunks that fit maxWidth
func breakWord(word string, font Font, size, maxWidth float64) []string {
	var chunks []string
	chunk := ""
	for _, r := range word {
		next := chunk + string(r)
		if chunk != "" && font.WidthOfTextAtSize(next, size) > maxWidth {
			chunks = append(chunks, chunk)
			next = string(r)
		}
		chunk = next
	}
	if chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// MaxLineWidth returns the widest measured line
func MaxLineWidth(lines []string, font Font, size float64) float64 {
	var widest float64
	for _, l := range lines {
		if w := font.WidthOfTextAtSize(l, size); w > widest {
			widest = w
		}
	}
	return widest
}
