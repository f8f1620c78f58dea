// Package pose smooths raw pose-classifier output into a steering signal.
package pose

import "github.com/tomz197/fruitcatch/internal/game"

// Defaults match the browser classifier's tuning.
const (
	DefaultThreshold       = 0.8
	DefaultSmoothingFrames = 5
)

// Prediction is one class probability from the classifier.
type Prediction struct {
	ClassName   string  `json:"className"`
	Probability float64 `json:"probability"`
}

// Result is the stabilized class for a frame. ClassName is empty when no
// class holds a majority of the window.
type Result struct {
	ClassName   string
	Probability float64
}

// Stabilizer keeps a sliding window of confident top classes.
type Stabilizer struct {
	threshold float64
	window    []string
	probs     []float64
	next      int
	filled    int
}

// NewStabilizer creates a stabilizer. Non-positive arguments select the defaults.
func NewStabilizer(threshold float64, smoothingFrames int) *Stabilizer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if smoothingFrames <= 0 {
		smoothingFrames = DefaultSmoothingFrames
	}
	return &Stabilizer{
		threshold: threshold,
		window:    make([]string, smoothingFrames),
		probs:     make([]float64, smoothingFrames),
	}
}

// Stabilize records this frame's predictions and returns the smoothed class.
func (s *Stabilizer) Stabilize(preds []Prediction) Result {
	top := Prediction{}
	for _, p := range preds {
		if p.Probability > top.Probability {
			top = p
		}
	}
	if top.Probability < s.threshold {
		top = Prediction{}
	}

	s.window[s.next] = top.ClassName
	s.probs[s.next] = top.Probability
	s.next = (s.next + 1) % len(s.window)
	if s.filled < len(s.window) {
		s.filled++
	}

	counts := make(map[string]int, 3)
	best, bestCount := "", 0
	for i := 0; i < s.filled; i++ {
		name := s.window[i]
		if name == "" {
			continue
		}
		counts[name]++
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	if bestCount*2 <= len(s.window) {
		return Result{}
	}

	sum := 0.0
	for i := 0; i < s.filled; i++ {
		if s.window[i] == best {
			sum += s.probs[i]
		}
	}
	return Result{ClassName: best, Probability: sum / float64(bestCount)}
}

// Reset clears the window.
func (s *Stabilizer) Reset() {
	clear(s.window)
	clear(s.probs)
	s.next = 0
	s.filled = 0
}

// ToSteering maps a classifier class name onto the engine's steering signal.
func ToSteering(className string) game.Steering {
	switch className {
	case "Left", "left", "LEFT":
		return game.SteerLeft
	case "Right", "right", "RIGHT":
		return game.SteerRight
	case "Center", "center", "CENTER":
		return game.SteerCenter
	default:
		return game.SteerNone
	}
}
