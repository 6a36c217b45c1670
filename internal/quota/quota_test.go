package quota

import (
	"testing"
	"time"
)

func TestDay_UsesConfiguredTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kuala_Lumpur")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	// 16:30 UTC is 00:30 the next day in UTC+8.
	now := time.Date(2026, 3, 1, 16, 30, 0, 0, time.UTC)

	got := Day(now, loc)
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected day: got %v want %v", got, want)
	}

	if got := Day(now, nil); !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected UTC day: %v", got)
	}
}

func TestRemaining(t *testing.T) {
	cases := []struct {
		used, max, want int
	}{
		{used: 0, max: 3, want: 3},
		{used: 2, max: 3, want: 1},
		{used: 3, max: 3, want: 0},
		{used: 5, max: 3, want: 0},
	}
	for _, c := range cases {
		if got := Remaining(c.used, c.max); got != c.want {
			t.Fatalf("Remaining(%d, %d) = %d, want %d", c.used, c.max, got, c.want)
		}
	}
}
