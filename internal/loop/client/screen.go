package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomz197/fruitcatch/internal/draw"
	"github.com/tomz197/fruitcatch/internal/game"
	"github.com/tomz197/fruitcatch/internal/loop/config"
	"github.com/tomz197/fruitcatch/internal/loop/server"
	"github.com/tomz197/fruitcatch/internal/object"
)

var titleArt = []string{
	`  ___ ___ _   _ ___ _____    ___   _ _____ ___ _  _  `,
	` | __| _ \ | | |_ _|_   _|  / __| /_\_   _/ __| || | `,
	` | _||   / |_| || |  | |   | (__ / _ \| || (__| __ | `,
	` |_| |_|_\\___/|___| |_|    \___/_/ \_\_| \___|_||_| `,
}

var gameOverArt = []string{
	`   ___   _   __  __ ___    _____   _____ ___  `,
	`  / __| /_\ |  \/  | __|  / _ \ \ / / __| _ \ `,
	` | (_ |/ _ \| |\/| | _|  | (_) \ V /| _||   / `,
	`  \___/_/ \_\_|  |_|___|  \___/ \_/ |___|_|_\ `,
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	// Full clear on screen transitions so overlays from the previous screen vanish.
	stateChanged := c.state.GameState != c.state.prevGameState
	inactiveChanged := c.state.isInactive != c.state.wasInactive
	if stateChanged || inactiveChanged {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.state.prevGameState = c.state.GameState
		c.state.wasInactive = c.state.isInactive
	}

	c.canvas.Clear()
	snap := c.state.Snapshot
	c.canvas.SetLogicalSize(snap.ViewWidth, snap.ViewHeight)

	ctx := object.DrawContext{Canvas: c.canvas, Writer: c.chunkWriter}
	showField := c.state.GameState == GameStatePlaying || c.state.GameState == GameStateGameOver
	if showField {
		c.drawField(snap)
		if err := c.particles.Draw(ctx); err != nil {
			return err
		}
	}

	c.canvas.Render(c.chunkWriter)
	c.canvas.RenderBorder(c.chunkWriter)

	if showField {
		if err := c.popups.Draw(ctx); err != nil {
			return err
		}
	}

	c.drawUI(c.server.GetSnapshot())
	return c.chunkWriter.Flush()
}

// drawField draws lanes, falling items, and the basket in engine coordinates.
func (c *Client) drawField(snap game.Snapshot) {
	object.DrawLanes(c.canvas, snap.ViewWidth, snap.ViewHeight, game.LaneCount)
	for _, it := range snap.Items {
		object.DrawItem(c.canvas, it, snap.LaneCenters[it.Lane], snap.ItemSize)
	}

	hurt := c.state.HurtTime > 0 && !object.ShouldRenderBlink(c.state.HurtTime, 10)
	feverGlow := snap.FeverActive && object.ShouldRenderBlink(float64(snap.FeverFrames)/config.ClientTargetFPS, config.FeverBlinkFrequency)
	object.DrawBasket(c.canvas, snap.Basket, snap.LaneCenters[snap.Basket.Lane], feverGlow, hurt)
}

func (c *Client) drawUI(hub *server.HubSnapshot) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	if c.state.GameState == GameStateShutdown {
		c.drawShutdownScreen(centerX, centerY)
		return
	}
	if c.state.isInactive {
		c.drawInactivityScreen(centerX, centerY)
		return
	}

	switch c.state.GameState {
	case GameStatePlaying:
		c.drawPlayingHUD(termWidth, termHeight, hub)
	case GameStateStart:
		c.drawStartScreen(centerX, centerY, hub)
	case GameStateGameOver:
		c.drawPlayingHUD(termWidth, termHeight, hub)
		c.drawGameOverScreen(centerX, centerY)
	}
}

func (c *Client) writeCentered(centerX, row int, s string) {
	c.chunkWriter.WriteAt(centerX-draw.VisibleLen(s)/2, row, s)
}

func (c *Client) drawInactivityScreen(centerX, centerY int) {
	c.writeCentered(centerX, centerY-2, "INACTIVITY WARNING")
	c.writeCentered(centerX, centerY, fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	))
	c.writeCentered(centerX, centerY+2, "Press any key to continue")
}

func (c *Client) drawStartScreen(centerX, centerY int, hub *server.HubSnapshot) {
	titleWidth := 0
	for _, line := range titleArt {
		titleWidth = max(titleWidth, len(line))
	}

	cw := c.chunkWriter
	titleStartY := centerY - 9
	for i, line := range titleArt {
		cw.WriteAt(centerX-titleWidth/2, titleStartY+i, draw.Foreground(draw.ColorGold)+line+draw.ColorReset)
	}
	c.writeCentered(centerX, titleStartY+len(titleArt)+1, "~ Catch the fruit, dodge the bombs ~")

	controlsY := titleStartY + len(titleArt) + 3
	controlLines := []string{
		"A / J / <  . . . Left lane",
		"S / K / v  . . Center lane",
		"D / L / >  . .  Right lane",
		"Q  . . . . . . . . . Quit",
	}
	c.writeCentered(centerX, controlsY, "Controls")
	for i, line := range controlLines {
		c.writeCentered(centerX, controlsY+1+i, line)
	}

	legendY := controlsY + len(controlLines) + 2
	legend := c.itemLegend()
	c.writeCentered(centerX, legendY, legend)

	if time.Now().UnixMilli()/600%2 == 0 {
		c.writeCentered(centerX, legendY+2, ">>  Press SPACE to Start  <<")
	}

	c.drawLeaderboard(centerX-12, legendY+4, hub)
}

// itemLegend lists each item kind with its point value in its own color.
func (c *Client) itemLegend() string {
	cfg := c.engine.Config()
	var parts []string
	for k := game.KindCommonFruit; k <= game.KindPenalty; k++ {
		label := fmt.Sprintf("%s %+d", k, cfg.Kinds[k].Points)
		if k == game.KindHazard {
			label = fmt.Sprintf("%s -1 life", k)
		}
		parts = append(parts, draw.Foreground(object.KindColor(k))+"●"+draw.ColorReset+" "+label)
	}
	return strings.Join(parts, "   ")
}

// drawPlayingHUD draws the in-game HUD.
// Fixed-width fields keep shrinking values from leaving stale characters behind.
func (c *Client) drawPlayingHUD(termWidth, termHeight int, hub *server.HubSnapshot) {
	cw := c.chunkWriter
	snap := c.state.Snapshot

	cw.WriteAt(2, 1, fmt.Sprintf("Score: %-8d", snap.Score))
	cw.WriteAt(2, 2, fmt.Sprintf("Combo: x%-4d Level: %-3d", snap.Combo, snap.Level))

	hearts := draw.Foreground(draw.ColorRed) + strings.Repeat("♥", max(snap.Lives, 0)) + draw.ColorReset +
		strings.Repeat("♡", max(c.engine.Config().InitialLives-snap.Lives, 0))
	lives := "Lives: " + hearts
	cw.WriteAt(termWidth-draw.VisibleLen(lives)-1, 1, lives)

	if snap.FramesRemaining > 0 {
		timeText := fmt.Sprintf("Time: %5.1fs", float64(snap.FramesRemaining)/config.ClientTargetFPS)
		cw.WriteAt(termWidth-len(timeText)-1, 2, timeText)
	}

	if snap.FeverActive {
		fever := fmt.Sprintf("*** FEVER %4.1fs ***", float64(snap.FeverFrames)/config.ClientTargetFPS)
		c.writeCentered(termWidth/2, 1, draw.Bold+draw.Foreground(draw.ColorPink)+fever+draw.ColorReset)
	}

	if hub != nil {
		players := fmt.Sprintf("Players: %-4d", hub.Players)
		cw.WriteAt(termWidth-len(players)-1, termHeight, players)
		c.drawLeaderboard(termWidth-24, 4, hub)
	}
	cw.WriteAt(2, termHeight, "A/S/D or arrows to steer  Q quit")
}

// drawLeaderboard draws the hub's top scores; live runs are marked with an asterisk.
func (c *Client) drawLeaderboard(col, row int, hub *server.HubSnapshot) {
	if hub == nil || len(hub.TopScores) == 0 || col < 1 || row+len(hub.TopScores) > c.canvas.TerminalHeight() {
		return
	}
	cw := c.chunkWriter
	cw.WriteAt(col, row, draw.Bold+"TOP SCORES"+draw.ColorReset)
	for i, e := range hub.TopScores {
		name := e.Username
		if len(name) > config.MaxUsernameLength {
			name = name[:config.MaxUsernameLength]
		}
		mark := " "
		if e.Live {
			mark = "*"
		}
		line := fmt.Sprintf("%d. %-*s %7d%s", i+1, config.MaxUsernameLength, name, e.Score, mark)
		if e.Username == c.username {
			line = draw.Foreground(draw.ColorCyan) + line + draw.ColorReset
		}
		cw.WriteAt(col, row+1+i, line)
	}
}

func (c *Client) drawGameOverScreen(centerX, centerY int) {
	titleWidth := 0
	for _, line := range gameOverArt {
		titleWidth = max(titleWidth, len(line))
	}

	cw := c.chunkWriter
	titleStartY := centerY - 6
	for i, line := range gameOverArt {
		cw.WriteAt(centerX-titleWidth/2, titleStartY+i, line)
	}

	y := titleStartY + len(gameOverArt) + 1
	c.writeCentered(centerX, y, fmt.Sprintf("Final score: %d", c.state.FinalScore))
	if c.state.PersonalBest {
		c.writeCentered(centerX, y+1, draw.Foreground(draw.ColorGold)+"New personal best!"+draw.ColorReset)
	}

	if c.restartLock <= 0 && time.Now().UnixMilli()/600%2 == 0 {
		c.writeCentered(centerX, y+3, ">>  Press SPACE to Restart  <<")
	}
}

func (c *Client) drawShutdownScreen(centerX, centerY int) {
	c.writeCentered(centerX, centerY-3, "SERVER SHUTTING DOWN")
	c.writeCentered(centerX, centerY-1, "The arcade is restarting for maintenance.")
	c.writeCentered(centerX, centerY, "Please reconnect in a moment.")
	remaining := int(c.state.shutdownTimer) + 1
	c.writeCentered(centerX, centerY+2, fmt.Sprintf("Disconnecting in %d seconds...", remaining))
	c.writeCentered(centerX, centerY+4, "Press Q to disconnect now")
}
