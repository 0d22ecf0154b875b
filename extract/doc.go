// Package extract normalizes raw document bytes into plain-text segments
// ready for chunking. A registry dispatches on mime type: plain text and
// markdown pass through, CSV/TSV rows are flattened, PDF pages are pulled
// out with pdfcpu, and HTML is cleaned up and converted to markdown.
// FromURL fetches a page and dispatches on the response Content-Type.
package extract
