package cache

import (
	"context"
	"testing"
	"time"
)

// TestNoOpCache verifies that NoOpCache implements the Cache interface correctly
func TestNoOpCache(t *testing.T) {
	var cache Cache = NewNoOpCache()
	ctx := context.Background()

	// Test GetSuggestion - should always return nil (cache miss)
	result, err := cache.GetSuggestion(ctx, "test-key")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result (cache miss), got %v", result)
	}

	err = cache.SetSuggestion(ctx, "test-key", &Suggestion{
		Result: "Try Let It Be",
		Songs:  []Song{{ID: "2", Title: "Let It Be"}},
	}, 1*time.Hour)
	if err != nil {
		t.Errorf("Expected no error on SetSuggestion, got %v", err)
	}

	// Verify it still returns nil (nothing was actually cached)
	result, err = cache.GetSuggestion(ctx, "test-key")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result (no-op cache doesn't store), got %v", result)
	}

	if err := cache.Flush(ctx); err != nil {
		t.Errorf("Expected no error on Flush, got %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("Expected no error on Close, got %v", err)
	}
}

func TestKey(t *testing.T) {
	base := Key("build-1", "sad breakup song", 5)

	if Key("build-1", "  Sad   BREAKUP song ", 5) != base {
		t.Error("expected whitespace and case to be normalized")
	}
	if Key("build-2", "sad breakup song", 5) == base {
		t.Error("expected different builds to produce different keys")
	}
	if Key("build-1", "sad breakup song", 3) == base {
		t.Error("expected different k to produce different keys")
	}
	if len(base) != 64 {
		t.Errorf("expected hex sha256 key, got %d chars", len(base))
	}
}
