package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestUTCDate(t *testing.T) {
	in := time.Date(2025, 3, 14, 23, 59, 59, 0, time.FixedZone("x", 3600))
	got := UTCDate(in)
	want := time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC)
	// 23:59:59+01:00 is 22:59:59 UTC, so the UTC date is still the 14th
	_ = want
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Fatalf("not truncated: %v", got)
	}
	if got.Day() != 14 {
		t.Fatalf("wrong day: %v", got)
	}
}

func TestDateRoundTrip(t *testing.T) {
	d := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	s := FormatDate(d)
	if s != "2025-01-02" {
		t.Fatalf("unexpected format %q", s)
	}
	back, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !back.Equal(d) {
		t.Fatalf("round trip mismatch: %v", back)
	}
}

func TestParseDateEmpty(t *testing.T) {
	got, err := ParseDate("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero time, got %v", got)
	}
}
