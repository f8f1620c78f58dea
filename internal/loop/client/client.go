package client

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/fruitcatch/internal/draw"
	"github.com/tomz197/fruitcatch/internal/game"
	"github.com/tomz197/fruitcatch/internal/input"
	"github.com/tomz197/fruitcatch/internal/loop/config"
	"github.com/tomz197/fruitcatch/internal/loop/server"
	"github.com/tomz197/fruitcatch/internal/object"
)

// restartLockSeconds keeps a held SPACE from skipping the game over screen.
const restartLockSeconds = 1.0

// Client runs one terminal session: its own engine, rendering, and input.
type Client struct {
	server       server.GameServer
	handle       *server.ClientHandle
	state        *ClientState
	engine       *game.Engine
	rng          *rand.Rand
	particles    object.Layer
	popups       object.Layer
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter
	reader       *bufio.Reader
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	username     string
	termSizeFunc draw.TermSizeFunc
	log          *log.Logger
	restartLock  float64
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	GameConfig   *game.Config // nil selects game.DefaultConfig
	Logger       *log.Logger
	Rand         *rand.Rand
}

// NewClient creates a new client registered with the given hub.
func NewClient(gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	cfg := game.DefaultConfig()
	if opts.GameConfig != nil {
		cfg = *opts.GameConfig
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	termWidth, termHeight, _ := termSizeFunc()
	renderWidth, renderHeight, offsetCol, offsetRow := draw.FitArea(termWidth, termHeight, config.MaxTermWidth, config.MaxTermHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, config.ViewWidth, config.ViewHeight)
	canvas.SetOffset(offsetCol, offsetRow)

	c := &Client{
		server:       gs,
		handle:       gs.RegisterClient(opts.Username),
		state:        NewClientState(),
		rng:          rng,
		canvas:       canvas,
		chunkWriter:  draw.NewChunkWriter(w, offsetCol, offsetRow),
		reader:       r,
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  input.StartStream(r),
		username:     opts.Username,
		termSizeFunc: termSizeFunc,
		log:          logger.With("user", opts.Username),
	}
	c.engine = game.NewEngine(cfg,
		game.WithRand(rng),
		game.WithObserver(game.ObserverFuncs{
			OnScore: c.onScore,
			OnLives: c.onLives,
			OnEnd:   c.onEnd,
		}),
	)
	c.state.Snapshot = c.engine.Snapshot()
	return c
}

// Run starts the client loop. Blocks until the client disconnects or the hub stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	lastTime := time.Now()
	var runErr error

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput()
		c.processServerEvents()
		c.updateScreen()

		switch c.state.GameState {
		case GameStateStart:
			c.updateStartState()
		case GameStatePlaying:
			c.updatePlayingState()
		case GameStateGameOver:
			c.updateGameOverState()
		case GameStateShutdown:
			c.updateShutdownState()
		}
		c.updateEffects()

		if err := c.drawFrame(); err != nil {
			runErr = fmt.Errorf("draw frame: %w", err)
			break
		}

		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	c.abandonRun()
	c.particles.Reset()
	c.popups.Reset()
	c.server.UnregisterClient(c.handle.ID)

	draw.ClearScreen(c.writer)
	return runErr
}

func (c *Client) processInput() {
	c.state.Input = input.ReadInput(c.inputStream)

	if len(c.state.Input.Pressed) > 0 {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.log.Info("disconnecting inactive player")
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if c.state.Input.Quit || c.inputStream.Closed() {
		c.state.Running = false
	}
}

func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventServerShutdown:
				c.abandonRun()
				c.state.GameState = GameStateShutdown
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			case server.EventPersonalBest:
				c.state.PersonalBest = true
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize, clamping to the max render area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := draw.FitArea(termWidth, termHeight, config.MaxTermWidth, config.MaxTermHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		// Wipe borders and residue outside the new area.
		c.chunkWriter.WriteString("\033[H\033[2J")
	}

	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}

func (c *Client) updateStartState() {
	if c.state.Input.Start {
		c.startGame()
	}
}

func (c *Client) updatePlayingState() {
	if c.state.HurtTime > 0 {
		c.state.HurtTime = max(0, c.state.HurtTime-c.state.delta.Seconds())
	}
	c.engine.Update(c.state.Input.Steer, config.ViewWidth, config.ViewHeight)
	c.state.Snapshot = c.engine.Snapshot()
	c.applyFeedback()
}

func (c *Client) updateGameOverState() {
	if c.restartLock > 0 {
		c.restartLock = max(0, c.restartLock-c.state.delta.Seconds())
		return
	}
	if c.state.Input.Start {
		c.startGame()
	}
}

func (c *Client) updateShutdownState() {
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}

func (c *Client) updateEffects() {
	c.particles.Update(c.state.delta)
	c.popups.Update(c.state.delta)
}

// startGame starts or restarts a run.
func (c *Client) startGame() {
	input.ResetKeyInput(c.inputStream)
	c.particles.Reset()
	c.popups.Reset()

	c.state.LastScore = 0
	c.state.LastLives = c.engine.Config().InitialLives
	c.state.PersonalBest = false
	c.state.HurtTime = 0

	c.engine.Start()
	c.state.Snapshot = c.engine.Snapshot()
	c.state.GameState = GameStatePlaying
	c.applyFeedback()
}

// abandonRun stops a run in progress and reports its score as final.
func (c *Client) abandonRun() {
	if !c.engine.Active() {
		return
	}
	c.engine.Stop()
	c.state.Snapshot = c.engine.Snapshot()
	c.state.FinalScore = c.state.Snapshot.Score
	c.server.ReportFinal(c.handle.ID, c.state.FinalScore)
}

func (c *Client) onScore(score int) {
	c.state.pending = append(c.state.pending, feedback{kind: feedbackScore, value: score, delta: score - c.state.LastScore})
	c.state.LastScore = score
}

func (c *Client) onLives(lives int) {
	c.state.pending = append(c.state.pending, feedback{kind: feedbackLives, value: lives, delta: lives - c.state.LastLives})
	c.state.LastLives = lives
}

func (c *Client) onEnd(final int) {
	c.state.pending = append(c.state.pending, feedback{kind: feedbackEnd, value: final})
}

// applyFeedback turns engine events from the last update into hub reports and effects.
func (c *Client) applyFeedback() {
	snap := c.state.Snapshot
	bx := snap.LaneCenters[snap.Basket.Lane]
	by := snap.Basket.Y

	for _, fb := range c.state.pending {
		switch fb.kind {
		case feedbackScore:
			c.server.ReportScore(c.handle.ID, fb.value)
			switch {
			case fb.delta > 0:
				col := draw.ColorYellow
				if snap.FeverActive {
					col = draw.ColorGold
				}
				object.SpawnBurst(c.rng, bx, by, config.CatchParticles, config.ParticleSpeed, config.ParticleLifetime, col, &c.particles)
				c.popups.Spawn(object.NewPopup(bx, by-snap.ItemSize, fmt.Sprintf("+%d", fb.delta), col, config.PopupRiseSpeed, config.PopupLifetime))
			case fb.delta < 0:
				c.popups.Spawn(object.NewPopup(bx, by-snap.ItemSize, fmt.Sprintf("%d", fb.delta), draw.ColorBrown, config.PopupRiseSpeed, config.PopupLifetime))
			}
		case feedbackLives:
			if fb.delta < 0 {
				object.SpawnBurst(c.rng, bx, by, config.HazardParticles, config.ParticleSpeed*1.5, config.ParticleLifetime, draw.ColorRed, &c.particles)
				c.state.HurtTime = config.HurtFlashSeconds
			}
		case feedbackEnd:
			c.state.FinalScore = fb.value
			c.server.ReportFinal(c.handle.ID, fb.value)
			c.state.GameState = GameStateGameOver
			c.restartLock = restartLockSeconds
			c.log.Info("run ended", "score", fb.value)
		}
	}
	c.state.pending = c.state.pending[:0]
}
