package bcc

import "testing"

func TestPhaseBoundaries(t *testing.T) {
	cases := []struct {
		count   int64
		phase   int
		divisor int64
		ok      bool
	}{
		{0, 1, 1, true},
		{1, 1, 1, true},
		{9_999, 1, 1, true},
		{10_000, 2, 2, true},
		{29_999, 2, 2, true},
		{30_000, 3, 4, true},
		{99_999, 3, 4, true},
		{100_000, 4, 8, true},
		{186_000, 4, 8, true},
		{186_001, 0, 0, false},
	}

	for _, tc := range cases {
		phase, divisor, ok := Phase(tc.count)
		if phase != tc.phase || divisor != tc.divisor || ok != tc.ok {
			t.Errorf("Phase(%d) = (%d, %d, %v), want (%d, %d, %v)",
				tc.count, phase, divisor, ok, tc.phase, tc.divisor, tc.ok)
		}
	}
}

func TestBaseRelease(t *testing.T) {
	if got := BaseRelease(1); got != 100 {
		t.Errorf("BaseRelease(1) = %d, want 100", got)
	}
	if got := BaseRelease(5); got != 300 {
		t.Errorf("BaseRelease(5) = %d, want 300", got)
	}
	if got := BaseRelease(19); got != 1000 {
		t.Errorf("BaseRelease(19) = %d, want 1000", got)
	}
	if got := BaseRelease(0); got != 0 {
		t.Errorf("BaseRelease(0) = %d, want 0", got)
	}
	if got := BaseRelease(20); got != 0 {
		t.Errorf("BaseRelease(20) = %d, want 0", got)
	}
}

func TestReleaseAmount(t *testing.T) {
	cases := []struct {
		name  string
		level int
		count int64
		want  int64
	}{
		{"phase 1 level 1", 1, 500, 100},
		{"phase 2 level 5", 5, 15_000, 150}, // 300 / 2
		{"phase 3 level 3", 3, 50_000, 50},  // 200 / 4
		{"phase 4 level 1 rounds half up", 1, 150_000, 13}, // 100/8 = 12.5
		{"phase 2 level 3 rounds half up", 3, 15_000, 100}, // 200/2
		{"phase 3 level 2 rounds half up", 2, 50_000, 38},  // 150/4 = 37.5
		{"past phase 4 ceiling", 5, 186_001, 0},
		{"invalid level", 0, 100, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReleaseAmount(tc.level, tc.count); got != tc.want {
				t.Errorf("ReleaseAmount(%d, %d) = %d, want %d", tc.level, tc.count, got, tc.want)
			}
		})
	}
}

func TestTotalLockupIsSumOfBaseReleases(t *testing.T) {
	var sum int64
	for level := 1; level <= 19; level++ {
		sum += BaseRelease(level)
	}
	if sum != TotalLockup {
		t.Errorf("sum of base releases = %d, want %d", sum, TotalLockup)
	}
}
