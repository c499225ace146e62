package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/folio-studio/folio/pkg/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	cache, err := NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create cache: %v", err)
	}

	return cache, mr
}

func TestNewCache(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewCacheUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	host, port := mr.Host(), mr.Server().Addr().Port
	mr.Close()

	if _, err := NewCache(host, port, "", 0); err == nil {
		t.Error("Expected error connecting to a closed server")
	}
}

func TestCache_WorkOperations(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	work := &models.Work{
		ID:           7,
		Title:        "Night drive",
		Kind:         models.WorkKindVideo,
		MediaURL:     "http://minio/works/7/media/a.mp4",
		ThumbnailURL: "http://minio/works/7/thumbnails/b.jpg",
		Tags:         []string{"loop"},
		Published:    true,
		LikeCount:    3,
	}

	if err := cache.SetWork(ctx, work, 0, 5*time.Minute); err != nil {
		t.Fatalf("SetWork failed: %v", err)
	}

	retrieved, err := cache.GetWork(ctx, work.ID)
	if err != nil {
		t.Fatalf("GetWork failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Retrieved work should not be nil")
	}
	if retrieved.Title != work.Title || retrieved.LikeCount != 3 {
		t.Errorf("Retrieved work mismatch: %+v", retrieved)
	}
	if retrieved.ThumbnailURL != work.ThumbnailURL {
		t.Errorf("Expected thumbnail URL %s, got %s", work.ThumbnailURL, retrieved.ThumbnailURL)
	}

	if ttl := mr.TTL("work:7"); ttl != 5*time.Minute {
		t.Errorf("Expected TTL 5m, got %v", ttl)
	}

	if err := cache.InvalidateWork(ctx, work.ID); err != nil {
		t.Fatalf("InvalidateWork failed: %v", err)
	}

	retrieved, err = cache.GetWork(ctx, work.ID)
	if err != nil {
		t.Fatalf("GetWork after invalidate failed: %v", err)
	}
	if retrieved != nil {
		t.Error("Expected cache miss after invalidate")
	}
}

func TestCache_SetWorkAfterInvalidateIsDropped(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	gen, err := cache.WorkGeneration(ctx, 7)
	if err != nil {
		t.Fatalf("WorkGeneration failed: %v", err)
	}
	if gen != 0 {
		t.Errorf("Expected generation 0 for an untouched work, got %d", gen)
	}

	// A like lands while the reader is still loading the old row.
	if err := cache.InvalidateWork(ctx, 7); err != nil {
		t.Fatalf("InvalidateWork failed: %v", err)
	}

	stale := &models.Work{ID: 7, Title: "Night drive", LikeCount: 3, Published: true}
	if err := cache.SetWork(ctx, stale, gen, 5*time.Minute); err != nil {
		t.Fatalf("SetWork failed: %v", err)
	}
	if mr.Exists("work:7") {
		t.Fatal("Stale work should not be cached after an invalidation")
	}

	gen, err = cache.WorkGeneration(ctx, 7)
	if err != nil {
		t.Fatalf("WorkGeneration failed: %v", err)
	}
	if gen != 1 {
		t.Errorf("Expected generation 1, got %d", gen)
	}

	fresh := &models.Work{ID: 7, Title: "Night drive", LikeCount: 4, Published: true}
	if err := cache.SetWork(ctx, fresh, gen, 5*time.Minute); err != nil {
		t.Fatalf("SetWork failed: %v", err)
	}
	retrieved, err := cache.GetWork(ctx, 7)
	if err != nil {
		t.Fatalf("GetWork failed: %v", err)
	}
	if retrieved == nil || retrieved.LikeCount != 4 {
		t.Errorf("Expected fresh work with 4 likes, got %+v", retrieved)
	}
}

func TestCache_WorkCorruptEntry(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	mr.Set("work:9", "{not json")

	if _, err := cache.GetWork(context.Background(), 9); err == nil {
		t.Error("Expected error for corrupt cache entry")
	}
}

func TestCache_RateLimit(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	key := "like:f1"
	limit := int64(5)
	window := 1 * time.Minute

	for i := int64(0); i < limit; i++ {
		allowed, err := cache.CheckRateLimit(ctx, key, limit, window)
		if err != nil {
			t.Fatalf("CheckRateLimit failed: %v", err)
		}
		if !allowed {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	allowed, err := cache.CheckRateLimit(ctx, key, limit, window)
	if err != nil {
		t.Fatalf("CheckRateLimit failed: %v", err)
	}
	if allowed {
		t.Error("Request should be rate limited")
	}

	if ttl := mr.TTL("ratelimit:" + key); ttl != window {
		t.Errorf("Expected window TTL %v, got %v", window, ttl)
	}
}

func TestLimiter_WindowResets(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	limiter := NewLimiter(cache, 100, 60*time.Second)

	for i := 0; i < 100; i++ {
		allowed, err := limiter.Allow(ctx, "like:f1")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !allowed {
			t.Fatalf("Call %d should be allowed", i+1)
		}
	}

	allowed, _ := limiter.Allow(ctx, "like:f1")
	if allowed {
		t.Error("101st call should be rejected")
	}

	allowed, _ = limiter.Allow(ctx, "like:f2")
	if !allowed {
		t.Error("Other fingerprints should have their own window")
	}

	mr.FastForward(61 * time.Second)

	allowed, _ = limiter.Allow(ctx, "like:f1")
	if !allowed {
		t.Error("Call after the window should be allowed")
	}
}

func TestCache_Locking(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	resource := "reconcile-likes"

	acquired, err := cache.AcquireLock(ctx, resource, 10*time.Second)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if !acquired {
		t.Error("Lock should be acquired")
	}

	acquired, err = cache.AcquireLock(ctx, resource, 10*time.Second)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if acquired {
		t.Error("Lock should not be acquired twice")
	}

	if err := cache.ReleaseLock(ctx, resource); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}

	acquired, err = cache.AcquireLock(ctx, resource, 10*time.Second)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if !acquired {
		t.Error("Lock should be acquired after release")
	}
}
