package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
)

type sample struct {
	Total int64            `json:"total"`
	By    map[string]int64 `json:"by"`
}

func newTestCache(t *testing.T) (*AnalyticsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewAnalyticsCache(client, time.Minute), mr
}

func TestAnalyticsCacheRoundTripAndInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got sample
	hit, gen, err := c.Get(ctx, "overview", &got)
	if err != nil || hit || gen != 0 {
		t.Fatalf("expected miss at generation 0, got hit=%v gen=%d err=%v", hit, gen, err)
	}

	want := sample{Total: 3, By: map[string]int64{"retail": 3}}
	if err := c.Set(ctx, gen, "overview", want); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("bizsurvey:analytics:0:overview"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}
	hit, _, err = c.Get(ctx, "overview", &got)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cached value mismatch (-want +got):\n%s", diff)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	hit, gen, err = c.Get(ctx, "overview", &got)
	if err != nil || hit || gen != 1 {
		t.Fatalf("expected miss at generation 1, got hit=%v gen=%d err=%v", hit, gen, err)
	}

	mr.FastForward(2 * time.Minute)
	if mr.Exists("bizsurvey:analytics:0:overview") {
		t.Fatalf("stale generation entry should expire")
	}
}

func TestAnalyticsCacheDropsResultComputedBeforeInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	var got sample
	_, gen, err := c.Get(ctx, "overview", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// 集計中に回答が保存された
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := c.Set(ctx, gen, "overview", sample{Total: 1}); err != nil {
		t.Fatalf("set: %v", err)
	}

	hit, _, err := c.Get(ctx, "overview", &got)
	if err != nil || hit {
		t.Fatalf("stale result served after invalidate: hit=%v got=%+v err=%v", hit, got, err)
	}
}

func TestAnalyticsCacheDecodeError(t *testing.T) {
	c, mr := newTestCache(t)
	if err := mr.Set("bizsurvey:analytics:0:overview", "{not json"); err != nil {
		t.Fatal(err)
	}
	var got sample
	if hit, _, err := c.Get(context.Background(), "overview", &got); err == nil || hit {
		t.Fatalf("expected decode error, got hit=%v err=%v", hit, err)
	}
}

func TestEntryKeyIncludesGeneration(t *testing.T) {
	c := NewAnalyticsCache(nil, 0)
	if c.ttl != defaultTTL {
		t.Fatalf("expected default ttl, got %v", c.ttl)
	}
	if got := c.entryKey(4, "overview:all"); got != "bizsurvey:analytics:4:overview:all" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := c.generationKey(); got != "bizsurvey:analytics:gen" {
		t.Fatalf("unexpected generation key %q", got)
	}
}

func TestNoop(t *testing.T) {
	var c Noop
	var dst sample
	if hit, _, err := c.Get(context.Background(), "k", &dst); hit || err != nil {
		t.Fatalf("noop must always miss")
	}
	if err := c.Set(context.Background(), 0, "k", dst); err != nil {
		t.Fatalf("noop set: %v", err)
	}
}
