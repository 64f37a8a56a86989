// Package printing turns documents into PDF bytes.
//
// A DocumentData view model is built once from a document and its totals,
// then handed to one of three DocumentRenderer backends:
//
//   - LayoutRenderer draws the page by hand with gofpdf through the
//     backend-agnostic layout engine in the layout subpackage
//   - HTMLRenderer executes an HTML template and prints it with headless
//     Chrome (chromedp)
//   - ComponentRenderer builds a maroto row/column tree
//
// Logos and fonts are fetched by AssetFetcher before rendering starts.
// Finished PDFs can be archived through a PDFStorage (file system or S3).
package printing
