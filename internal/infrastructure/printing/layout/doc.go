// Package layout is the backend-agnostic text layout engine used by the
// manual PDF renderer: word-wrap, aligned text blocks, and table rows with
// wrapped cells.
//
// Coordinates follow the PDF convention: the origin is the bottom-left
// corner of the page and y grows upward, so each new line moves the
// cursor down by decreasing y. Every drawing function takes the cursor as
// an argument and returns the next one; nothing here keeps state between
// calls.
package layout
