package game

import "math"

// Snapshot is a read-only copy of the run for renderers.
type Snapshot struct {
	Phase           Phase              `json:"phase"`
	Score           int                `json:"score"`
	Lives           int                `json:"lives"`
	Combo           int                `json:"combo"`
	FeverActive     bool               `json:"fever"`
	FeverFrames     int                `json:"feverFrames"`
	SpeedMultiplier float64            `json:"speed"`
	Level           int                `json:"level"`
	Frame           int                `json:"frame"`
	FramesRemaining int                `json:"framesRemaining"` // 0 when the timer is disabled
	Basket          Basket             `json:"basket"`
	LaneCenters     [LaneCount]float64 `json:"laneCenters"`
	ViewWidth       float64            `json:"viewWidth"`
	ViewHeight      float64            `json:"viewHeight"`
	ItemSize        float64            `json:"itemSize"`
	Items           []Item             `json:"items"`
}

// Snapshot copies the current state. The item slice is not shared with the engine.
func (e *Engine) Snapshot() Snapshot {
	items := make([]Item, len(e.items))
	copy(items, e.items)

	return Snapshot{
		Phase:           e.phase,
		Score:           e.score,
		Lives:           e.lives,
		Combo:           e.combo,
		FeverActive:     e.feverActive(),
		FeverFrames:     e.feverFrames,
		SpeedMultiplier: e.speed,
		Level:           levelFor(e.speed),
		Frame:           e.frame,
		FramesRemaining: e.framesRemaining,
		Basket:          e.basket,
		LaneCenters:     e.laneCenters,
		ViewWidth:       e.viewWidth,
		ViewHeight:      e.viewHeight,
		ItemSize:        e.cfg.ItemSize,
		Items:           items,
	}
}

// levelFor maps the speed multiplier onto a 1-based display level,
// one level per 0.1 of extra speed.
func levelFor(speed float64) int {
	return 1 + int(math.Floor((speed-1)*10+1e-9))
}
