package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

var testDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func TestKeyCanonical(t *testing.T) {
	k1 := Key("dp", 1, "z5", 9, 8, testDay)
	k2 := Key("dp", 1, "z5", 9, 8, testDay.Add(3*time.Hour))
	if k1 != k2 {
		t.Fatalf("same day produced different keys: %s vs %s", k1, k2)
	}
	if k1 != "dp:1:z5:9:8:2026-03-14" {
		t.Fatalf("key = %s", k1)
	}
	if k := Key("dp", 1, "", 9, 8, testDay); k != "dp:1:any:9:8:2026-03-14" {
		t.Fatalf("empty zone key = %s", k)
	}
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern, key string
		want         bool
	}{
		{"dp:1:*", "dp:1:z5:9:8:2026-03-14", true},
		{"dp:1:*", "dp:2:z5:9:8:2026-03-14", false},
		{"*:1:*", "best:1:any:9:8:2026-03-14", true},
		{"*:1:*", "best:12:any:9:8:2026-03-14", false},
		{"dp:1:z5:9:8:2026-03-14", "dp:1:z5:9:8:2026-03-14", true},
	}
	for _, c := range cases {
		if got := matchPattern(c.pattern, c.key); got != c.want {
			t.Fatalf("matchPattern(%q, %q) = %v, want %v", c.pattern, c.key, got, c.want)
		}
	}
}

func TestLocalPutGetInvalidate(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(0)
	if err := l.Put(ctx, "dp:1:a:9:8:2026-03-14", []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	val, ok, err := l.Get(ctx, "dp:1:a:9:8:2026-03-14")
	if err != nil || !ok || string(val) != "x" {
		t.Fatalf("get = (%s, %v, %v)", val, ok, err)
	}
	if err := l.Invalidate(ctx, Prefix("dp", 1)); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := l.Get(ctx, "dp:1:a:9:8:2026-03-14"); ok {
		t.Fatal("entry survived invalidation")
	}
}

func TestLocalTTLExpiry(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(time.Nanosecond)
	_ = l.Put(ctx, "k", []byte("v"))
	time.Sleep(time.Millisecond)
	if _, ok, _ := l.Get(ctx, "k"); ok {
		t.Fatal("expired entry still served")
	}
}

// failingTier errors on every operation, standing in for an unreachable
// backend.
type failingTier struct{}

func (failingTier) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}
func (failingTier) Put(context.Context, string, []byte) error { return errors.New("backend down") }
func (failingTier) Invalidate(context.Context, string) error  { return errors.New("backend down") }

func TestTieredBackfillsFasterTier(t *testing.T) {
	ctx := context.Background()
	fast, slow := NewLocal(0), NewLocal(0)
	tc := NewTiered(fast, slow)

	_ = slow.Put(ctx, "k", []byte("v"))
	val, ok, err := tc.Get(ctx, "k")
	if err != nil || !ok || string(val) != "v" {
		t.Fatalf("get = (%s, %v, %v)", val, ok, err)
	}
	// the hit must now be served by the fast tier directly
	if _, ok, _ := fast.Get(ctx, "k"); !ok {
		t.Fatal("fast tier not back-filled")
	}
}

func TestTieredWriteThrough(t *testing.T) {
	ctx := context.Background()
	fast, slow := NewLocal(0), NewLocal(0)
	tc := NewTiered(fast, slow)

	_ = tc.Put(ctx, "k", []byte("v"))
	if _, ok, _ := fast.Get(ctx, "k"); !ok {
		t.Fatal("fast tier missing write")
	}
	if _, ok, _ := slow.Get(ctx, "k"); !ok {
		t.Fatal("slow tier missing write")
	}

	_ = tc.Invalidate(ctx, "k")
	if _, ok, _ := fast.Get(ctx, "k"); ok {
		t.Fatal("fast tier survived invalidation")
	}
	if _, ok, _ := slow.Get(ctx, "k"); ok {
		t.Fatal("slow tier survived invalidation")
	}
}

func TestTieredFailingTierReadsAsMiss(t *testing.T) {
	ctx := context.Background()
	healthy := NewLocal(0)
	tc := NewTiered(failingTier{}, healthy)

	_ = healthy.Put(ctx, "k", []byte("v"))
	val, ok, err := tc.Get(ctx, "k")
	if err != nil || !ok || string(val) != "v" {
		t.Fatalf("get through failing tier = (%s, %v, %v)", val, ok, err)
	}
	// puts and invalidations must not surface the broken tier either
	if err := tc.Put(ctx, "k2", []byte("v2")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := tc.Invalidate(ctx, "k*"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
}

func TestTieredSkipsNilTiers(t *testing.T) {
	tc := NewTiered(NewLocal(0), nil)
	if len(tc.tiers) != 1 {
		t.Fatalf("tiers = %d, want 1", len(tc.tiers))
	}
}
