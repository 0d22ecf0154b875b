// Package qdrant implements the vector index gateway on a hosted Qdrant
// collection over gRPC. Chunk text and provenance travel in point
// payloads; point ids are the numeric form of the chunk digest so
// re-ingestion replaces points in place.
package qdrant
