package booking

import (
	"testing"
	"time"
)

func TestOverlaps_HalfOpen(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }

	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical", at(9), at(11), at(9), at(11), true},
		{"partial overlap", at(9), at(11), at(10), at(12), true},
		{"contained", at(9), at(13), at(10), at(11), true},
		{"touching end-to-start", at(9), at(11), at(11), at(13), false},
		{"touching start-to-end", at(11), at(13), at(9), at(11), false},
		{"disjoint", at(9), at(10), at(12), at(13), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Errorf("Overlaps(%v,%v,%v,%v) = %v, want %v", tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
			}
			// symmetric
			if got := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.want {
				t.Errorf("Overlaps not symmetric for %s", tc.name)
			}
		})
	}
}
