package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/poiesic/respondit/ai"
)

// classifyEmbeddingErr maps a raw client error onto the embedding error
// taxonomy. Transport problems, timeouts and rate limits are transient;
// anything the service refused outright is a rejection.
func classifyEmbeddingErr(err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %w", ai.ErrEmbeddingUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ai.ErrEmbeddingRejected, err)
}

// isTransient reports whether err looks like a failure that a retry with
// backoff can reasonably recover from.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"):
		return true
	case strings.Contains(msg, "500"), strings.Contains(msg, "502"),
		strings.Contains(msg, "503"), strings.Contains(msg, "504"):
		return true
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"):
		return true
	}
	return false
}
