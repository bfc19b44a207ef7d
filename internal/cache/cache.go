package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Cache provides suggestion result caching
type Cache interface {
	// GetSuggestion retrieves a cached suggestion by key
	// Returns nil if not found
	GetSuggestion(ctx context.Context, key string) (*Suggestion, error)

	// SetSuggestion stores a suggestion with TTL
	SetSuggestion(ctx context.Context, key string, s *Suggestion, ttl time.Duration) error

	// Flush removes all cached suggestions
	Flush(ctx context.Context) error

	// Close closes the cache connection
	Close() error
}

// Suggestion represents a cached suggest response
type Suggestion struct {
	Result  string `json:"result"`
	Songs   []Song `json:"songs"`
	BuildID string `json:"build_id"`
}

// Song is one retrieved catalog entry that grounded the suggestion
type Song struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Distance float32 `json:"distance"`
}

// Key derives a cache key from the index build, the normalized query and k.
// Keys from a previous build never match after a reload.
func Key(buildID, query string, k int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%s", buildID, k, normalized)))
	return hex.EncodeToString(sum[:])
}
