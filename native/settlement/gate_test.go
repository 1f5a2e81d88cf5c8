package settlement

import "testing"

func TestGateBoundary(t *testing.T) {
	cases := []struct {
		name     string
		now      int64
		deadline int64
		want     Window
	}{
		{"before deadline", 999, 1000, WindowOpen},
		{"at deadline", 1000, 1000, WindowOpen},
		{"one past deadline", 1001, 1000, WindowClosed},
		{"far past deadline", 5000, 1000, WindowClosed},
		{"zero deadline", 1, 0, WindowClosed},
		{"both zero", 0, 0, WindowOpen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Gate(tc.now, tc.deadline); got != tc.want {
				t.Fatalf("Gate(%d, %d) = %v, want %v", tc.now, tc.deadline, got, tc.want)
			}
		})
	}
}

func TestOpenClosedAgree(t *testing.T) {
	for now := int64(995); now <= 1005; now++ {
		if Open(now, 1000) == Closed(now, 1000) {
			t.Fatalf("Open and Closed agree at now=%d", now)
		}
	}
}
