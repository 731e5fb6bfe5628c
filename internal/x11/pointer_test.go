package x11

import (
	"math"
	"testing"
)

func TestCoords(t *testing.T) {
	tests := []struct {
		x, y    int
		wantErr bool
	}{
		{0, 0, false},
		{-5, 10, false},
		{math.MaxInt16, math.MinInt16, false},
		{40000, 0, true},
		{0, -40000, true},
		{math.MaxInt16 + 1, 0, true},
	}
	for _, tt := range tests {
		x, y, err := coords(tt.x, tt.y)
		if tt.wantErr {
			if err == nil {
				t.Errorf("coords(%d, %d) = %d, %d; want error", tt.x, tt.y, x, y)
			}
			continue
		}
		if err != nil {
			t.Errorf("coords(%d, %d): %v", tt.x, tt.y, err)
			continue
		}
		if int(x) != tt.x || int(y) != tt.y {
			t.Errorf("coords(%d, %d) = %d, %d", tt.x, tt.y, x, y)
		}
	}
}
