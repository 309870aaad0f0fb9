package common

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"<b>Inception</b> 2010", "Inception 2010"},
		{"Crime &amp; Punishment", "Crime & Punishment"},
		{"  spaced   out  ", "spaced out"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CleanText(tc.raw); got != tc.want {
			t.Errorf("CleanText(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestFlexIntCoercion(t *testing.T) {
	var payload struct {
		A FlexInt `json:"a"`
		B FlexInt `json:"b"`
		C FlexInt `json:"c"`
		D FlexInt `json:"d"`
	}
	raw := `{"a": 42, "b": "17", "c": "N/A", "d": null}`
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if payload.A != 42 || payload.B != 17 || payload.C != 0 || payload.D != 0 {
		t.Fatalf("unexpected values: %+v", payload)
	}
}

func TestFlexFloatCoercion(t *testing.T) {
	var payload struct {
		A FlexFloat `json:"a"`
		B FlexFloat `json:"b"`
		C FlexFloat `json:"c"`
	}
	raw := `{"a": 7.8, "b": "8,8", "c": "N/A"}`
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if payload.A != 7.8 || payload.B != 8.8 || payload.C != 0 {
		t.Fatalf("unexpected values: %+v", payload)
	}
}

func TestParseInt(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"148 min", 148},
		{"2010", 2010},
		{"2010-2014", 2010},
		{"N/A", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ParseInt(tc.raw); got != tc.want {
			t.Errorf("ParseInt(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList("Crime, Drama,  , N/A, Thriller")
	want := []string{"Crime", "Drama", "Thriller"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitList = %v, want %v", got, want)
	}
	if SplitList("") != nil {
		t.Fatal("expected nil for empty input")
	}
	if SplitList("N/A") != nil {
		t.Fatal("expected nil for placeholder-only input")
	}
}

func TestBuildMagnet(t *testing.T) {
	magnet := BuildMagnet("ABCDEF0123", "My Movie", []string{"udp://tr.example:80/announce"})
	if magnet != "magnet:?xt=urn:btih:abcdef0123&dn=My+Movie&tr=udp%3A%2F%2Ftr.example%3A80%2Fannounce" {
		t.Fatalf("unexpected magnet: %q", magnet)
	}
	if BuildMagnet("", "name", nil) != "" {
		t.Fatal("expected empty magnet for empty hash")
	}
}
