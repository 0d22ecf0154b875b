// Package reindex refreshes previously indexed documents. URL-sourced
// documents are re-fetched and run through the ingestion pipeline again,
// replacing their index records with embeddings from the current model.
package reindex
