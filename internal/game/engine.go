// Package game implements the per-frame catch simulation: spawning, falling,
// collision against the basket, combo/fever scoring, and lives.
//
// An Engine is owned by exactly one caller. Start, Stop and Update are not
// safe for concurrent use; the embedding frame loop serializes them.
package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/tomz197/fruitcatch/internal/physics"
)

// Phase is the run lifecycle state.
type Phase int

const (
	PhaseIdle   Phase = iota // Before the first Start
	PhaseActive              // Simulating
	PhaseEnded               // Out of lives, out of time, or stopped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Engine runs one player's catch game.
type Engine struct {
	cfg       Config
	rng       *rand.Rand
	observers []Observer

	phase           Phase
	score           int
	lives           int
	combo           int
	feverFrames     int
	speed           float64
	frame           int
	framesRemaining int

	basket      Basket
	items       []Item
	viewWidth   float64
	viewHeight  float64
	laneCenters [LaneCount]float64
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithRand sets the random source used for lane and kind draws.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// WithObserver registers an observer at construction.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.AddObserver(o)
	}
}

// NewEngine creates an idle engine. cfg is used as given; callers loading
// tuning from disk should run Config.Validate first.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		speed:      1,
		lives:      cfg.InitialLives,
		viewWidth:  cfg.DefaultViewWidth,
		viewHeight: cfg.DefaultViewHeight,
		basket: Basket{
			Lane:   LaneCenter,
			Width:  cfg.BasketWidth,
			Height: cfg.BasketHeight,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.updateGeometry()
	return e
}

// AddObserver appends o; observers fire in registration order.
func (e *Engine) AddObserver(o Observer) {
	if o != nil {
		e.observers = append(e.observers, o)
	}
}

// Config returns the tuning the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Active reports whether Update currently has effect.
func (e *Engine) Active() bool {
	return e.phase == PhaseActive
}

// Start resets all run state and enters the active phase.
func (e *Engine) Start() {
	e.phase = PhaseActive
	e.score = 0
	e.lives = e.cfg.InitialLives
	e.combo = 0
	e.feverFrames = 0
	e.speed = 1
	e.frame = 0
	e.framesRemaining = e.cfg.TimeLimitFrames
	e.items = e.items[:0]
	e.basket.Lane = LaneCenter
	e.updateGeometry()

	e.notifyScore()
	e.notifyLives()
}

// Stop halts the run without clearing it so the final state stays readable.
func (e *Engine) Stop() {
	if e.phase == PhaseActive {
		e.phase = PhaseEnded
	}
}

// Update advances the simulation by one frame. Non-positive view
// dimensions keep the previous ones.
func (e *Engine) Update(signal Steering, viewWidth, viewHeight float64) {
	if e.phase != PhaseActive {
		return
	}

	// 1. Geometry
	if viewWidth > 0 {
		e.viewWidth = viewWidth
	}
	if viewHeight > 0 {
		e.viewHeight = viewHeight
	}
	e.updateGeometry()

	// 2. Steering
	if lane, ok := signal.Lane(); ok {
		e.basket.Lane = lane
	}

	// 3. Fever countdown
	if e.feverFrames > 0 {
		e.feverFrames--
	}

	// 4. Difficulty and spawning
	e.frame++
	e.speed = math.Min(e.cfg.MaxSpeedMultiplier,
		1+float64(e.score)/e.cfg.SpeedScoreDivisor+float64(e.combo)*e.cfg.SpeedComboFactor)
	if e.frame%e.spawnInterval() == 0 {
		e.spawnItem()
	}

	// 5. Fall, catch, miss
	e.advanceItems()
	if e.phase != PhaseActive {
		return
	}

	if e.framesRemaining > 0 {
		e.framesRemaining--
		if e.framesRemaining == 0 {
			e.end()
		}
	}
}

// spawnInterval returns the number of frames between spawns.
func (e *Engine) spawnInterval() int {
	if e.feverActive() {
		return e.cfg.FeverSpawnInterval
	}
	return max(e.cfg.SpawnRateFloor, e.cfg.SpawnRateBase-e.score/e.cfg.SpawnScoreStep)
}

func (e *Engine) advanceItems() {
	kept := e.items[:0]
	for i, it := range e.items {
		if e.phase != PhaseActive {
			// Run ended mid-pass: leave the rest untouched.
			kept = append(kept, e.items[i:]...)
			break
		}

		if e.feverActive() {
			it.Y += e.cfg.FeverFallRate
		} else {
			it.Y += (e.cfg.BaseSpeed + float64(it.FallSpeedTier)) * e.speed
		}

		if it.Lane == e.basket.Lane && physics.SpansOverlap(it.Y, e.cfg.ItemSize, e.basket.Y, e.basket.Height) {
			e.collect(it)
			continue
		}

		if physics.Below(it.Y, e.viewHeight) {
			if !it.IsHazard() {
				e.combo = 0
			}
			continue
		}

		kept = append(kept, it)
	}
	e.items = kept
}

// spawnItem adds one item above the visible area in a random lane.
func (e *Engine) spawnItem() {
	table := e.cfg.Normal
	if e.feverActive() {
		table = e.cfg.Fever
	}
	kind := pickKind(e.rng, table)
	spec := e.cfg.Kinds[kind]

	e.items = append(e.items, Item{
		Kind:          kind,
		PointValue:    spec.Points,
		FallSpeedTier: spec.Tier,
		Lane:          e.rng.Intn(LaneCount),
		Y:             -e.cfg.ItemSize,
	})
}

// pickKind draws a kind proportionally to its weight. An empty or
// all-zero table yields common fruit.
func pickKind(rng *rand.Rand, table []Weight) Kind {
	total := 0
	for _, w := range table {
		total += max(w.Weight, 0)
	}
	if total == 0 {
		return KindCommonFruit
	}
	roll := rng.Intn(total)
	for _, w := range table {
		if w.Weight <= 0 {
			continue
		}
		if roll < w.Weight {
			return w.Kind
		}
		roll -= w.Weight
	}
	return KindCommonFruit
}

// collect applies the effect of catching it.
func (e *Engine) collect(it Item) {
	if it.IsHazard() {
		if e.feverActive() {
			return
		}
		e.lives--
		e.combo = 0
		e.notifyLives()
		if e.lives <= 0 {
			e.lives = 0
			e.end()
		}
		return
	}

	e.score = max(0, e.score+it.PointValue+e.combo*e.cfg.ComboBonusPerStack)
	e.combo++
	if e.combo%e.cfg.FeverComboStep == 0 {
		e.feverFrames = e.cfg.FeverDurationFrames
	}
	e.notifyScore()
}

func (e *Engine) end() {
	e.phase = PhaseEnded
	for _, o := range e.observers {
		o.GameEnded(e.score)
	}
}

func (e *Engine) feverActive() bool {
	return e.feverFrames > 0
}

func (e *Engine) updateGeometry() {
	copy(e.laneCenters[:], physics.LaneCenters(e.viewWidth, LaneCount))
	e.basket.Width = e.cfg.BasketWidth
	e.basket.Height = e.cfg.BasketHeight
	e.basket.Y = e.viewHeight - e.cfg.BasketBottomOffset
}

func (e *Engine) notifyScore() {
	for _, o := range e.observers {
		o.ScoreChanged(e.score)
	}
}

func (e *Engine) notifyLives() {
	for _, o := range e.observers {
		o.LivesChanged(e.lives)
	}
}
