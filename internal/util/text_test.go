package util

import "testing"

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"  Agra ":              "AGRA",
		"STOCKPOINT  LOCATION": "STOCKPOINT LOCATION",
		"gaziabad/noida":       "GAZIABAD/NOIDA",
	}
	for in, want := range cases {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q)=%q want %q", in, got, want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("AGRA", "agra "); got != 1 {
		t.Fatalf("identical after fold: %v", got)
	}
	if got := Similarity("STOCKPOINT LOCATION", "STOCKPOINT LOCATON"); got < 0.9 {
		t.Fatalf("one deletion should stay close to 1, got %v", got)
	}
	if got := Similarity("", "AGRA"); got != 0 {
		t.Fatalf("empty side: %v", got)
	}
	if a, b := Similarity("KANPUR", "KANPUR DEHAT"), Similarity("KANPUR", "BHOPAL"); a <= b {
		t.Fatalf("ordering broken: %v <= %v", a, b)
	}
}

func TestSplitLocationTokens(t *testing.T) {
	got := SplitLocationTokens("GAZIABAD/NOIDA")
	if len(got) != 2 || got[0] != "GAZIABAD" || got[1] != "NOIDA" {
		t.Fatalf("got %v", got)
	}
	got = SplitLocationTokens(" DELHI  NCR ")
	if len(got) != 2 || got[1] != "NCR" {
		t.Fatalf("got %v", got)
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"99,650", 99650, true},
		{" 1,23,450", 123450, true},
		{"88100", 88100, true},
		{"88100.50", 88101, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"1,234,567", 1234567, true},
	}
	for _, c := range cases {
		got, ok := ParsePrice(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParsePrice(%q)=(%d,%v) want (%d,%v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestParseAmount(t *testing.T) {
	if got, ok := ParseAmount("Rs. 928.72/MT"); !ok || got != 928.72 {
		t.Fatalf("got %v %v", got, ok)
	}
	if _, ok := ParseAmount("  "); ok {
		t.Fatal("blank should fail")
	}
	if _, ok := ParseAmount("included"); ok {
		t.Fatal("non-numeric should fail")
	}
}

func TestParseTransitDays(t *testing.T) {
	if got := ParseTransitDays("3-4 days"); got != 3 {
		t.Fatalf("got %d", got)
	}
	if got := ParseTransitDays("n/a"); got != 0 {
		t.Fatalf("got %d", got)
	}
}
