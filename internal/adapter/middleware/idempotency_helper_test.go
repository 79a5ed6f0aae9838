package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// --- small helpers ---

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

func Test_bodyHash(t *testing.T) {
	data := []byte(`{"principal":"1000"}`)
	got := bodyHash(data)

	sum := sha256.Sum256(data)
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("bodyHash mismatch: got %s want %s", got, want)
	}
}

func Test_nowUTC(t *testing.T) {
	u := nowUTC()
	if u.Location() != time.UTC {
		t.Fatalf("nowUTC must be UTC, got %v", u.Location())
	}
	if d := time.Since(u); d < 0 || d > 2*time.Second {
		t.Fatalf("nowUTC too far from now: %v", d)
	}
}

func Test_buildKey(t *testing.T) {
	k := buildKey("POST", "/loans/:loan_id/fund", strings.Repeat("b", 32), strings.Repeat("a", 32))
	wantPrefix := "idemp:ax:post:/loans/:loan_id/fund:"
	if !strings.HasPrefix(k, wantPrefix) {
		t.Fatalf("buildKey prefix mismatch: got %q want prefix %q", k, wantPrefix)
	}
	if !strings.Contains(k, ":"+strings.Repeat("b", 32)+":") || !strings.HasSuffix(k, strings.Repeat("a", 32)) {
		t.Fatalf("buildKey missing account/request segments: %q", k)
	}
}

func Test_validReqID(t *testing.T) {
	valid := []string{
		"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", // UUID v4 (lowercase)
		strings.Repeat("a", 32),                // 32-char lowercase hex
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88",     // 32-char lowercase hex (no dashes)
	}
	for _, s := range valid {
		if !validReqID(s) {
			t.Fatalf("validReqID should accept %q", s)
		}
	}
	invalid := []string{"", "short", strings.Repeat("G", 32), "not a request id"}
	for _, s := range invalid {
		if validReqID(s) {
			t.Fatalf("validReqID should reject %q", s)
		}
	}
}

func Test_parseAxRequestAt(t *testing.T) {
	// epoch seconds
	got, err := parseAxRequestAt("1736123456")
	if err != nil {
		t.Fatalf("epoch seconds: %v", err)
	}
	if got.Unix() != 1736123456 {
		t.Fatalf("epoch seconds parsed to %v", got)
	}

	// epoch milliseconds
	got, err = parseAxRequestAt("1736123456789")
	if err != nil {
		t.Fatalf("epoch ms: %v", err)
	}
	if got.UnixMilli() != 1736123456789 {
		t.Fatalf("epoch ms parsed to %v", got)
	}

	// RFC3339 with zone, normalized to UTC
	got, err = parseAxRequestAt("2026-08-29T10:00:00+07:00")
	if err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if got.Location() != time.UTC || got.Hour() != 3 {
		t.Fatalf("rfc3339 not normalized to UTC: %v", got)
	}

	// rejected inputs
	for _, s := range []string{"", "not-a-time", "2026-08-29T10:00:00"} {
		if _, err := parseAxRequestAt(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func Test_redisHelpers_RoundTrip(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	ctx := context.Background()

	key := buildKey("POST", "/loans", strings.Repeat("b", 32), strings.Repeat("a", 32))
	entry := idempEntry{InProgress: true, BodySHA256: bodyHash(nil), RequestID: strings.Repeat("a", 32)}

	ok, err := provisionalSet(ctx, rdb, key, entry)
	if err != nil || !ok {
		t.Fatalf("provisionalSet: ok=%v err=%v", ok, err)
	}
	// Second SetNX on the same key loses.
	ok, err = provisionalSet(ctx, rdb, key, entry)
	if err != nil || ok {
		t.Fatalf("second provisionalSet: ok=%v err=%v", ok, err)
	}

	final := idempEntry{Code: 201, Body: []byte(`{"ok":true}`), BodySHA256: entry.BodySHA256}
	if err := saveFinal(ctx, rdb, key, final, 30*time.Second); err != nil {
		t.Fatalf("saveFinal: %v", err)
	}
	got, err := loadEntry(ctx, rdb, key)
	if err != nil {
		t.Fatalf("loadEntry: %v", err)
	}
	if got.InProgress || got.Code != 201 || string(got.Body) != `{"ok":true}` {
		t.Fatalf("loaded entry = %+v", got)
	}
}
