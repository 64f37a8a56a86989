// Package printing holds the rendering options shared by all PDF backends:
// which backend draws the document, on what paper, and with which margins.
package printing
