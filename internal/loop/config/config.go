// Package config centralizes the terminal front-end's tunables.
// Gameplay tuning lives in game.Config.
package config

import "time"

// View resolution - the logical play field passed to the engine.
// Rendering scales it to fit the terminal.
const (
	ViewWidth  = 640
	ViewHeight = 480
)

// Max render area in terminal cells. Larger terminals get a centred, bordered field.
const (
	MaxTermWidth  = 160
	MaxTermHeight = 60
)

// Player
const (
	MaxUsernameLength = 16
	LeaderboardSize   = 5
)

// Effects
const (
	CatchParticles      = 10
	HazardParticles     = 24
	ParticleSpeed       = 140.0 // logical units per second
	ParticleLifetime    = 0.6   // seconds
	PopupLifetime       = 0.8   // seconds
	PopupRiseSpeed      = 60.0  // logical units per second
	HurtFlashSeconds    = 0.4
	FeverBlinkFrequency = 4.0 // Hz
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
	ShutdownTimeout        = 15 * time.Second
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)

// Hub tick rate for leaderboard snapshots.
const (
	HubTickRate = 10
	HubTickTime = time.Second / HubTickRate
)
