package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// EventID is the chat platform's unique identifier for an inbound event.
// At-least-once delivery means the same EventID may arrive more than once.
type EventID string

// DocumentID identifies a document in the corpus. For uploaded files it is
// the platform's file id; for URLs it is derived from the URL hash.
type DocumentID string

// ChunkID identifies one chunk in the vector index. Chunk IDs are
// deterministic: the same document and sequence always yield the same ID,
// so re-ingesting a document overwrites rather than duplicates.
type ChunkID string

// HashContent returns a stable 64-bit BLAKE2b digest of text, hex encoded.
// Identical content always produces an identical hash.
func HashContent(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return fmt.Sprintf("%016x", binary.LittleEndian.Uint64(sum))
}

// DocumentIDFromURL derives a deterministic DocumentID for a URL source.
func DocumentIDFromURL(url string) DocumentID {
	return DocumentID("url-" + HashContent(url))
}

// ChunkIDFor derives the deterministic ChunkID for a document chunk.
func ChunkIDFor(docID DocumentID, sequence int) ChunkID {
	return ChunkID(HashContent(fmt.Sprintf("%s#%d", docID, sequence)))
}

// EventKind classifies an inbound chat event.
type EventKind int

const (
	// EventQuestion is a natural-language question to be answered.
	EventQuestion EventKind = iota + 1
	// EventUpload is a document submission (attached file or URL).
	EventUpload
)

// Attachment is a file attached to a chat event. Either URL or Data is set;
// URL-referenced attachments are downloaded through the chat adapter.
type Attachment struct {
	ID       string
	Name     string
	MimeType string
	URL      string
	Data     []byte
}

// Event is one inbound chat event. Immutable once received; the dedup guard
// retains only its ID as a fingerprint for the retention window.
type Event struct {
	ID          EventID
	Kind        EventKind
	Channel     string
	Thread      string
	Author      string
	Text        string
	Attachments []Attachment
	ReceivedAt  time.Time
}

// SourceKind distinguishes document origins.
type SourceKind int

const (
	// SourceFile is an inline file upload.
	SourceFile SourceKind = iota + 1
	// SourceURL is a fetched web resource.
	SourceURL
)

// DocumentSource records where a document came from.
// Ref is the file name for files or the full URL for web resources.
type DocumentSource struct {
	Kind SourceKind
	Ref  string
}

// IngestionStatus tracks a document through the ingestion pipeline.
// Transitions are monotonic and never revert, except that any non-failed
// state may move to StatusFailed.
type IngestionStatus int

const (
	// StatusPending means the document has been accepted but not processed.
	StatusPending IngestionStatus = iota + 1
	// StatusChunking means extraction and chunking are underway.
	StatusChunking
	// StatusEmbedding means chunk embeddings are being generated.
	StatusEmbedding
	// StatusIndexed means all chunks are committed to the vector index.
	StatusIndexed
	// StatusFailed is terminal; no partial index records remain.
	StatusFailed
)

// String returns the status name used in logs and stored records.
func (s IngestionStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusChunking:
		return "chunking"
	case StatusEmbedding:
		return "embedding"
	case StatusIndexed:
		return "indexed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// CanTransitionTo reports whether moving from s to next preserves the
// monotonic status invariant.
func (s IngestionStatus) CanTransitionTo(next IngestionStatus) bool {
	if next == StatusFailed {
		return s != StatusFailed
	}
	return next == s+1 && s < StatusIndexed
}

// Document is the unit of ingestion. Owned by the ingestion orchestrator
// for its processing lifetime.
type Document struct {
	ID         DocumentID
	Source     DocumentSource
	MimeType   string
	Title      string
	Status     IngestionStatus
	ChunkCount int
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// ChunkMetadata carries provenance for a chunk within its document.
type ChunkMetadata struct {
	// Label locates the chunk in the source: "page 3", "rows 10-24", "".
	Label string
	// Truncated marks chunks produced by hard-splitting a single unit that
	// exceeded the token budget on its own.
	Truncated bool
}

// Chunk is a bounded contiguous slice of a document's text, the unit of
// embedding and retrieval. Immutable once created.
type Chunk struct {
	ID         ChunkID
	DocumentID DocumentID
	Sequence   int
	Text       string
	TokenCount int
	Metadata   ChunkMetadata
}

// IndexRecord is the persisted unit in the vector index: a merge of chunk,
// embedding, and document identity, keyed by ChunkID. Every record's
// DocumentID must map to exactly one document; delete-by-document keeps
// that invariant when documents go away.
type IndexRecord struct {
	ChunkID      ChunkID
	DocumentID   DocumentID
	Title        string
	Source       string
	Text         string
	Vector       []float32
	Sequence     int
	Label        string
	ModelVersion string
}

// ScoredRecord is one vector-query hit.
type ScoredRecord struct {
	Record *IndexRecord
	Score  float32
}

// Citation resolves a cited chunk back to its document.
type Citation struct {
	DocumentID DocumentID
	Title      string
	Source     string
}

// Answer is the result of one retrieval request. Never persisted.
type Answer struct {
	Text      string
	Citations []Citation
	// NoContext is set when retrieval found nothing above the score
	// threshold and the completion service was not invoked.
	NoContext bool
}
