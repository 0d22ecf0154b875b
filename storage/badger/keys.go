package badger

import (
	"fmt"

	"github.com/poiesic/respondit/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "docrec"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.DocumentID) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentPrefix, id))
}

// documentScanPrefix is the iteration prefix covering all document records.
func documentScanPrefix() []byte {
	return []byte(documentPrefix + ":")
}
