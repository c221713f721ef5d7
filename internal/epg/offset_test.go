package epg

import "testing"

func TestParseTimeshiftScenarios(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantOK  bool
	}{
		{"-2:30", -150, true},
		{":30", 30, true},
		{"+2", 120, true},
		{"0", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseTimeshift(c.in)
		if ok != c.wantOK || (ok && got != c.want) {
			t.Errorf("ParseTimeshift(%q) = %d, %v; want %d, %v", c.in, got, ok, c.want, c.wantOK)
		}
	}
}

func TestParseTimeshiftUnparsableSubcomponentContributesZero(t *testing.T) {
	got, ok := ParseTimeshift("+x:30")
	if !ok || got != 30 {
		t.Fatalf("ParseTimeshift(+x:30) = %d, %v; want 30, true (bad hours contributes zero)", got, ok)
	}
}

func TestParseTimeshiftEmpty(t *testing.T) {
	if _, ok := ParseTimeshift(""); ok {
		t.Fatal("empty string should not parse")
	}
}
