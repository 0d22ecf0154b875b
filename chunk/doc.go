// Package chunk splits extracted document content into bounded, overlapping
// chunks ready for embedding. Splitting is pure and deterministic: the same
// content and parameters always produce the same chunk sequence. Token
// counting is abstracted behind TokenCounter; production uses tiktoken,
// tests use a word counter.
package chunk
