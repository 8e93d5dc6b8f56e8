package window

import (
	"strings"
	"testing"
	"time"
)

func TestToken_KnownInstant(t *testing.T) {
	now := time.Unix(1700000000, 0) // 2023-11-14T22:13:20Z
	got, err := Token(now, 1, 24)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	// {"ts":[1699916400,1700002800],"tz":1}
	want := "eyJ0cyI6WzE2OTk5MTY0MDAsMTcwMDAwMjgwMF0sInR6IjoxfQ%3D%3D"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestCompute_Properties(t *testing.T) {
	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	offsets := []int{-12, -6, -1, 0, 1, 2, 5, 9, 14}
	windows := []int{1, 3, 24, 48, 168}
	instants := []time.Time{
		base,
		base.Add(time.Second),
		base.Add(23*time.Hour + 59*time.Minute + 59*time.Second),
		base.Add(7 * time.Hour),
		base.Add(-time.Hour),
	}

	for _, now := range instants {
		for _, tz := range offsets {
			for _, wh := range windows {
				w, err := Compute(now, tz, wh)
				if err != nil {
					t.Fatalf("Compute(%v, %d, %d): %v", now, tz, wh, err)
				}
				if w.End-w.Start != int64(wh)*3600 {
					t.Errorf("span: got %d, want %d", w.End-w.Start, wh*3600)
				}
				endLocal := w.End + int64(tz)*3600
				if endLocal%86400 != 0 {
					t.Errorf("end %d is not a local midnight for tz %d", w.End, tz)
				}
				nowLocal := now.Unix() + int64(tz)*3600
				if endLocal <= nowLocal || endLocal-nowLocal > 86400 {
					t.Errorf("end must be the next local midnight: now=%d end=%d", nowLocal, endLocal)
				}
				if w.Start >= w.End {
					t.Errorf("start %d must precede end %d", w.Start, w.End)
				}
			}
		}
	}
}

func TestCompute_ExactMidnightAdvancesFullDay(t *testing.T) {
	// 2024-03-10T00:00:00 local at UTC+1 is 2024-03-09T23:00:00Z.
	now := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	w, err := Compute(now, 1, 24)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	want := now.Add(24 * time.Hour).Unix()
	if w.End != want {
		t.Fatalf("end: got %d, want %d", w.End, want)
	}
	if w.Start != now.Unix() {
		t.Fatalf("start: got %d, want %d", w.Start, now.Unix())
	}
}

func TestToken_DeterministicWithinSecond(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a, _ := Token(now, 2, 24)
	b, _ := Token(now.Add(900*time.Millisecond), 2, 24)
	if a != b {
		t.Fatalf("tokens differ within the same second: %s vs %s", a, b)
	}
}

func TestEncode_DecodeRoundTrip(t *testing.T) {
	w := Window{Start: 1700006400, End: 1700028000, TZOffsetHours: -6}
	tok := w.Encode()
	if strings.ContainsAny(tok, "=+/") {
		t.Fatalf("token must be fully percent-encoded, got %s", tok)
	}
	got, err := Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != w {
		t.Fatalf("got %+v, want %+v", got, w)
	}
}

func TestCompute_RejectsInvalidInput(t *testing.T) {
	now := time.Now()
	if _, err := Compute(now, 1, 0); err == nil {
		t.Errorf("window_hours=0 must fail")
	}
	if _, err := Compute(now, 1, -5); err == nil {
		t.Errorf("negative window must fail")
	}
	if _, err := Compute(now, 25, 24); err == nil {
		t.Errorf("tz offset out of range must fail")
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, tok := range []string{"%zz", "!!!notbase64", "bm90IGpzb24%3D"} {
		if _, err := Decode(tok); err == nil {
			t.Errorf("Decode(%q): expected error", tok)
		}
	}
}
