// Package index defines the vector index gateway: the write and query
// surface over whichever vector store holds the chunk embeddings. Two
// implementations exist: index/qdrant speaks gRPC to a hosted Qdrant
// collection, index/badger keeps records in an embedded BadgerDB and
// scans with cosine similarity, which is plenty for single-node setups
// and tests.
package index
