// Package router receives chat events, deduplicates them, classifies them
// as document uploads or questions, and dispatches them asynchronously to
// the ingestion pipeline or the responder. Replies go back through the
// Messenger interface so the chat platform stays at the boundary.
package router
