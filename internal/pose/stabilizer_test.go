package pose

import (
	"testing"

	"github.com/tomz197/fruitcatch/internal/game"
)

func frame(class string, p float64) []Prediction {
	preds := []Prediction{
		{ClassName: "Left", Probability: (1 - p) / 2},
		{ClassName: "Center", Probability: (1 - p) / 2},
		{ClassName: "Right", Probability: (1 - p) / 2},
	}
	for i := range preds {
		if preds[i].ClassName == class {
			preds[i].Probability = p
		}
	}
	return preds
}

func TestStabilizerNeedsMajority(t *testing.T) {
	s := NewStabilizer(0.8, 5)

	for i := 0; i < 2; i++ {
		if got := s.Stabilize(frame("Left", 0.95)); got.ClassName != "" {
			t.Fatalf("frame %d: class = %q, want none before majority", i+1, got.ClassName)
		}
	}
	got := s.Stabilize(frame("Left", 0.95))
	if got.ClassName != "Left" {
		t.Fatalf("class = %q, want Left after 3/5 frames", got.ClassName)
	}
	if got.Probability < 0.949 || got.Probability > 0.951 {
		t.Fatalf("probability = %f, want 0.95", got.Probability)
	}
}

func TestStabilizerIgnoresLowConfidence(t *testing.T) {
	s := NewStabilizer(0.8, 3)
	for i := 0; i < 5; i++ {
		if got := s.Stabilize(frame("Right", 0.6)); got.ClassName != "" {
			t.Fatalf("low-confidence frames produced %q", got.ClassName)
		}
	}
}

func TestStabilizerSwitchesAfterWindowTurnsOver(t *testing.T) {
	s := NewStabilizer(0.8, 3)
	for i := 0; i < 3; i++ {
		s.Stabilize(frame("Left", 0.9))
	}
	if got := s.Stabilize(frame("Right", 0.9)); got.ClassName != "Left" {
		t.Fatalf("class = %q, want Left (2 of 3)", got.ClassName)
	}
	if got := s.Stabilize(frame("Right", 0.9)); got.ClassName != "Right" {
		t.Fatalf("class = %q, want Right (2 of 3)", got.ClassName)
	}
}

func TestStabilizerReset(t *testing.T) {
	s := NewStabilizer(0, 0)
	for i := 0; i < DefaultSmoothingFrames; i++ {
		s.Stabilize(frame("Center", 0.99))
	}
	s.Reset()
	if got := s.Stabilize(frame("Center", 0.99)); got.ClassName != "" {
		t.Fatalf("class after reset = %q, want none", got.ClassName)
	}
}

func TestToSteering(t *testing.T) {
	tests := map[string]game.Steering{
		"Left":   game.SteerLeft,
		"right":  game.SteerRight,
		"CENTER": game.SteerCenter,
		"":       game.SteerNone,
		"Jump":   game.SteerNone,
	}
	for in, want := range tests {
		if got := ToSteering(in); got != want {
			t.Fatalf("ToSteering(%q) = %q, want %q", in, got, want)
		}
	}
}
