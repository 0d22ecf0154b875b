// Package ingest orchestrates the document ingestion pipeline: extract,
// chunk, embed, index. The orchestrator owns a document's status for the
// lifetime of one ingestion and persists every transition. Failure at any
// stage marks the document failed and rolls back its index records, so
// the vector index never holds a partial document.
package ingest
