package points

import (
	"testing"

	"whatnow/internal/model"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		name   string
		time   int
		social model.Level
		energy model.Level
		want   int
	}{
		{"minimum effort", 5, model.LevelLow, model.LevelLow, 15},
		{"maximum effort", 60, model.LevelHigh, model.LevelHigh, 65},
		{"mid bucket", 30, model.LevelMedium, model.LevelLow, 30},
		{"unknown time falls back to 10", 999, model.LevelLow, model.LevelLow, 20},
		{"zero time falls back to 10", 0, model.LevelLow, model.LevelLow, 20},
		{"unknown level falls back to 5", 15, model.Level("extreme"), model.LevelMedium, 25},
		{"empty levels fall back to 5", 60, "", "", 35},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(tc.time, tc.social, tc.energy)
			if got != tc.want {
				t.Errorf("Calculate(%d, %q, %q) = %d, want %d", tc.time, tc.social, tc.energy, got, tc.want)
			}
		})
	}
}

func TestCalculateDeterministic(t *testing.T) {
	first := Calculate(30, model.LevelHigh, model.LevelMedium)
	for i := 0; i < 10; i++ {
		if got := Calculate(30, model.LevelHigh, model.LevelMedium); got != first {
			t.Fatalf("Calculate not deterministic: got %d then %d", first, got)
		}
	}
}
