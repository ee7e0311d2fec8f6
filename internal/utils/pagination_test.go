package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// missing query param -> default
		{"", 20, 20},
		// valid page numbers
		{"3", 1, 3},
		{"-1", 1, -1}, // bounds are clamped by the caller
		{"007", 1, 7},
		// malformed -> default (no trim)
		{"x", 20, 20},
		{" 3", 1, 1},
		// overflow -> default
		{"999999999999999999999999", 20, 20},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}
