package swtick

import (
	"math"
	"testing"
)

func TestTickElapsed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		now, since Tick
		want       Tick
	}{
		{"zero", 0, 0, 0},
		{"simple", 15, 10, 5},
		{"wrapped", 2, Tick(math.MaxUint64 - 2), 5},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			if got := tickElapsed(c.now, c.since); got != c.want {
				t.Errorf("tickElapsed(%d, %d) = %d, want %d", c.now, c.since, got, c.want)
			}
		})
	}
}
