package client

import (
	"time"

	"github.com/tomz197/fruitcatch/internal/game"
	"github.com/tomz197/fruitcatch/internal/input"
)

// GameState represents the current screen for a client.
type GameState int

const (
	GameStateStart    GameState = iota // Title screen
	GameStatePlaying                   // Run in progress
	GameStateGameOver                  // Run ended, show restart prompt
	GameStateShutdown                  // Hub is shutting down
)

// feedback is an engine event queued during Update and turned into effects afterwards.
type feedback struct {
	kind  feedbackKind
	value int // New score or lives
	delta int // Change from the previous value
}

type feedbackKind int

const (
	feedbackScore feedbackKind = iota
	feedbackLives
	feedbackEnd
)

// ClientState holds per-session state.
type ClientState struct {
	Input         input.Input
	GameState     GameState
	Snapshot      game.Snapshot // Engine state after the last update
	LastScore     int
	LastLives     int
	FinalScore    int
	PersonalBest  bool    // Last run set a new best
	HurtTime      float64 // Seconds of red flash left after losing a life
	Running       bool
	delta         time.Duration
	shutdownTimer float64
	isInactive    bool
	prevGameState GameState
	wasInactive   bool
	pending       []feedback
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		GameState:     GameStateStart,
		prevGameState: GameStateStart,
		Running:       true,
	}
}
